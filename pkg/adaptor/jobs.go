package adaptor

import "time"

// Scheduler identifies one configured connection to a batch-job backend.
//
// The descriptor is immutable; live connection state lives in the owning
// adaptor's registry, looked up by ID. Two schedulers are equal iff their
// adaptor name and ID match.
type Scheduler struct {
	// AdaptorName is the owning adaptor.
	AdaptorName string

	// ID is unique within the process for the owning adaptor.
	ID string

	// Location is the backend address the scheduler was created from.
	Location Location

	// QueueNames is the backend's queue set, snapshotted at creation.
	QueueNames []string

	// Credential was used to open the connection.
	Credential Credential

	// Properties is the merged configuration the scheduler was created with.
	Properties Properties

	// LocalStandardStreams is true when job standard streams are handled on
	// the caller's machine.
	LocalStandardStreams bool

	// DetachedJobs is true when jobs survive client disconnection.
	DetachedJobs bool
}

// Equal compares schedulers by identity (adaptor name and ID).
func (s Scheduler) Equal(other Scheduler) bool {
	return s.AdaptorName == other.AdaptorName && s.ID == other.ID
}

// JobDescription is the caller-supplied specification of what to run.
//
// Backend-specific directives embedded in Script (e.g., "#$" marker lines
// for Grid Engine) are interpreted by the backend, never by this system.
type JobDescription struct {
	// Executable is the program to run, ignored when Script is set.
	Executable string

	// Arguments are passed to the executable.
	Arguments []string

	// Script is a backend-specific job script, transported verbatim.
	Script string

	// Queue names the job-admission channel, empty for the backend default.
	Queue string

	// WorkingDirectory is where the job runs, backend-resolved when empty.
	WorkingDirectory string

	// Stdout and Stderr are capture locations for the job's streams.
	Stdout string
	Stderr string

	// MaxRuntime bounds the job's wall-clock time; zero leaves the backend
	// default in place.
	MaxRuntime time.Duration
}

// Job references a submitted job. Truth about the job lives on the backend;
// the engine caches no lifecycle state.
type Job struct {
	// Scheduler is the owning scheduler handle.
	Scheduler Scheduler

	// Identifier is the backend-assigned job identifier.
	Identifier string

	// Description is the submitted description.
	Description JobDescription
}

// JobState is the externally observable phase of a job.
type JobState string

const (
	// StatePending means the job is queued but not yet running.
	StatePending JobState = "pending"

	// StateRunning means the backend reports the job as executing.
	StateRunning JobState = "running"

	// StateDone means the job reached a terminal state with a known outcome.
	StateDone JobState = "done"

	// StateUnknown means the job is terminal but neither live status nor
	// accounting data could supply an outcome.
	StateUnknown JobState = "unknown"
)

// JobStatus is a point-in-time snapshot of a job. Statuses are never cached
// between polls; truth lives on the backend.
type JobStatus struct {
	// Job is the job the snapshot describes.
	Job Job

	// State is the observed phase.
	State JobState

	// Done is true once the job is terminal, including unknown outcomes.
	Done bool

	// ExitCode is the backend-reported exit code, valid only when Done is
	// true and Err is nil.
	ExitCode int

	// Err carries a captured failure: a backend-reported error or an
	// unparseable result. The two stay distinguishable via the error kinds
	// in this package.
	Err error

	// Attributes is the raw attribute map merged from the backend's status
	// and accounting output.
	Attributes map[string]string
}

// Queue describes a named job-admission channel reported by the backend.
type Queue struct {
	Name       string
	Attributes map[string]string
}
