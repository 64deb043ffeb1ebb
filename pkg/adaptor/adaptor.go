// Package adaptor defines the polymorphic backend unit of the middleware:
// the capability set every backend family implements, the descriptor types
// handed to callers, and the shared error taxonomy.
//
// The core Adaptor interface is intentionally small. Job and file operations
// are optional capability interfaces discovered by type assertion, so a
// batch-scheduler adaptor need not pretend to be a file store and vice
// versa.
package adaptor

import "context"

// Adaptor is one backend family (local processes, a remote batch system, an
// FTP-style file store). Implementations are immutable after construction;
// one instance exists per family per engine.
type Adaptor interface {
	// Name returns the unique adaptor name (e.g., "gridengine").
	Name() string

	// Description returns a one-line human-readable description.
	Description() string

	// Schemes returns the URI schemes this adaptor claims.
	Schemes() []string

	// Supports reports whether the adaptor handles the given scheme.
	Supports(scheme string) bool

	// SupportedProperties declares the configuration keys the adaptor
	// recognizes, with their validity scope.
	SupportedProperties() []PropertyDescription

	// Capabilities reports optional behaviors of this backend family.
	Capabilities() Capabilities

	// End releases all resources held by the adaptor. Called once during
	// engine shutdown; failures are logged by the engine, not fatal to
	// sibling adaptors.
	End(ctx context.Context) error
}

// Capabilities describes optional behaviors of a backend family.
type Capabilities struct {
	// InteractiveJobs is true when the backend can attach the caller to a
	// job's standard streams.
	InteractiveJobs bool

	// DetachedJobs is true when submitted jobs survive client disconnection.
	DetachedJobs bool

	// StrictProperties is true when unrecognized configuration keys are
	// rejected instead of ignored.
	StrictProperties bool
}

// JobAdaptor is the optional job capability set.
//
// Discovered by type assertion: an adaptor that also implements JobAdaptor
// can create schedulers and run jobs.
type JobAdaptor interface {
	// NewScheduler opens a connection to the batch backend at the given
	// location and returns its descriptor. Reaching the backend is part of
	// construction: an unreachable backend fails here, not later.
	NewScheduler(ctx context.Context, location Location, credential Credential, properties Properties) (Scheduler, error)

	// SubmitJob hands the description to the backend and returns the job.
	SubmitJob(ctx context.Context, scheduler Scheduler, description JobDescription) (Job, error)

	// JobStatus returns a point-in-time snapshot for the job. Never cached.
	JobStatus(ctx context.Context, job Job) (JobStatus, error)

	// WaitUntilDone polls until the job reaches a terminal phase or the
	// deadline carried by ctx expires. On expiry the last observed status is
	// returned with Done unset; the job itself is not cancelled.
	WaitUntilDone(ctx context.Context, job Job) (JobStatus, error)

	// CancelJob asks the backend to cancel the job. A job that already
	// finished is not an error.
	CancelJob(ctx context.Context, job Job) error

	// QueueStatus returns the attribute map of every queue the scheduler
	// reports, from one batched query.
	QueueStatus(ctx context.Context, scheduler Scheduler) (map[string]map[string]string, error)

	// CloseScheduler releases the scheduler's connection. Closing twice is
	// an error.
	CloseScheduler(scheduler Scheduler) error
}

// FileAdaptor is the optional file capability set.
type FileAdaptor interface {
	// NewFileSystem opens a connection to the storage backend at the given
	// location and returns its descriptor.
	NewFileSystem(ctx context.Context, location Location, credential Credential, properties Properties) (FileSystem, error)

	// List returns the entries under dir, optionally filtered by a glob
	// pattern ("" lists everything).
	List(ctx context.Context, fs FileSystem, dir string, pattern string) ([]FileAttributes, error)

	// Read returns the content of the file at path.
	Read(ctx context.Context, fs FileSystem, path string) ([]byte, error)

	// Write stores data at path, overwriting any existing file.
	Write(ctx context.Context, fs FileSystem, path string, data []byte) error

	// Delete removes the file or empty directory at path.
	Delete(ctx context.Context, fs FileSystem, path string) error

	// MakeDir creates a directory at path.
	MakeDir(ctx context.Context, fs FileSystem, path string) error

	// Stat returns the attributes of the entry at path.
	Stat(ctx context.Context, fs FileSystem, path string) (FileAttributes, error)

	// CloseFileSystem releases the filesystem's connection. Closing twice is
	// an error.
	CloseFileSystem(fs FileSystem) error
}
