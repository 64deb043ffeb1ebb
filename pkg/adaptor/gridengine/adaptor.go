// Package gridengine drives a (Sun/Univa) Grid Engine batch system through
// its command-line protocol: qsub for submission, qdel for cancellation,
// qstat for batched live status, and qacct for accounting reconciliation of
// finished jobs. Commands run locally or wrapped in an ssh invocation when
// the scheduler location names a host.
package gridengine

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/gridhaven/kraken/pkg/adaptor"
)

// AdaptorName identifies this adaptor in errors and handle IDs.
const AdaptorName = "gridengine"

// Schemes lists the URI schemes this adaptor claims.
var Schemes = []string{"ge", "sge"}

// Property keys recognized by the adaptor. The adaptor is strict: an
// unrecognized key is a configuration error.
var supportedProperties = []adaptor.PropertyDescription{
	{
		Key:         "gridengine.poll.interval",
		Levels:      []adaptor.PropertyLevel{adaptor.LevelScheduler},
		Default:     DefaultPollInterval.String(),
		Description: "interval between wait-until-done status polls",
	},
	{
		Key:         "gridengine.rate.limit",
		Levels:      []adaptor.PropertyLevel{adaptor.LevelEngine, adaptor.LevelScheduler},
		Default:     "0",
		Description: "maximum backend command invocations per second, 0 for unlimited",
	},
}

// Adaptor implements the job capability set for Grid Engine clusters.
type Adaptor struct {
	logger   *zap.Logger
	registry *adaptor.Registry[*SchedulerConnection]
	options  []ConnectionOption
}

var (
	_ adaptor.Adaptor    = (*Adaptor)(nil)
	_ adaptor.JobAdaptor = (*Adaptor)(nil)
)

// New creates the Grid Engine adaptor. The options are applied to every
// scheduler connection the adaptor opens; tests use them to fake the
// backend.
func New(logger *zap.Logger, opts ...ConnectionOption) *Adaptor {
	return &Adaptor{
		logger:   logger.Named(AdaptorName),
		registry: adaptor.NewRegistry[*SchedulerConnection](AdaptorName),
		options:  opts,
	}
}

// Name implements adaptor.Adaptor.
func (a *Adaptor) Name() string { return AdaptorName }

// Description implements adaptor.Adaptor.
func (a *Adaptor) Description() string {
	return "submits and tracks jobs on a Grid Engine cluster via its command-line tools"
}

// Schemes implements adaptor.Adaptor.
func (a *Adaptor) Schemes() []string {
	schemes := make([]string, len(Schemes))
	copy(schemes, Schemes)
	return schemes
}

// Supports implements adaptor.Adaptor.
func (a *Adaptor) Supports(scheme string) bool {
	return supportedScheme(scheme)
}

// SupportedProperties implements adaptor.Adaptor.
func (a *Adaptor) SupportedProperties() []adaptor.PropertyDescription {
	props := make([]adaptor.PropertyDescription, len(supportedProperties))
	copy(props, supportedProperties)
	return props
}

// Capabilities implements adaptor.Adaptor. Submitted jobs belong to the
// batch system, not to the submitting client, so they survive disconnects;
// standard streams are captured on the backend per the job description.
func (a *Adaptor) Capabilities() adaptor.Capabilities {
	return adaptor.Capabilities{
		InteractiveJobs:  false,
		DetachedJobs:     true,
		StrictProperties: true,
	}
}

// End implements adaptor.Adaptor: closes every live scheduler connection.
func (a *Adaptor) End(ctx context.Context) error {
	for _, conn := range a.registry.Drain() {
		conn.Close()
	}
	return nil
}

// NewScheduler implements adaptor.JobAdaptor.
func (a *Adaptor) NewScheduler(ctx context.Context, location adaptor.Location, credential adaptor.Credential, properties adaptor.Properties) (adaptor.Scheduler, error) {
	if err := properties.ValidateStrict(AdaptorName, adaptor.LevelScheduler, supportedProperties); err != nil {
		return adaptor.Scheduler{}, err
	}

	conn, err := NewSchedulerConnection(ctx, location, properties, a.logger, a.options...)
	if err != nil {
		return adaptor.Scheduler{}, err
	}

	id := a.registry.Register(conn)

	return adaptor.Scheduler{
		AdaptorName:          AdaptorName,
		ID:                   id,
		Location:             location,
		QueueNames:           conn.QueueNames(),
		Credential:           credential,
		Properties:           properties.Clone(),
		LocalStandardStreams: false,
		DetachedJobs:         true,
	}, nil
}

func (a *Adaptor) connection(scheduler adaptor.Scheduler) (*SchedulerConnection, error) {
	if scheduler.AdaptorName != AdaptorName {
		return nil, adaptor.NewError(adaptor.ErrNotFound, AdaptorName, "connection",
			fmt.Sprintf("scheduler %s belongs to adaptor %s", scheduler.ID, scheduler.AdaptorName), nil)
	}
	return a.registry.Get(scheduler.ID)
}

// SubmitJob implements adaptor.JobAdaptor.
func (a *Adaptor) SubmitJob(ctx context.Context, scheduler adaptor.Scheduler, description adaptor.JobDescription) (adaptor.Job, error) {
	conn, err := a.connection(scheduler)
	if err != nil {
		return adaptor.Job{}, err
	}

	script := description.Script
	if script == "" {
		script = buildScript(description)
	}

	identifier, err := conn.SubmitJob(ctx, script)
	if err != nil {
		return adaptor.Job{}, err
	}

	a.logger.Info("job submitted",
		zap.String("scheduler", scheduler.ID),
		zap.String("job", identifier))

	return adaptor.Job{Scheduler: scheduler, Identifier: identifier, Description: description}, nil
}

// JobStatus implements adaptor.JobAdaptor.
func (a *Adaptor) JobStatus(ctx context.Context, job adaptor.Job) (adaptor.JobStatus, error) {
	conn, err := a.connection(job.Scheduler)
	if err != nil {
		return adaptor.JobStatus{}, err
	}
	return conn.JobStatus(ctx, job)
}

// WaitUntilDone implements adaptor.JobAdaptor.
func (a *Adaptor) WaitUntilDone(ctx context.Context, job adaptor.Job) (adaptor.JobStatus, error) {
	conn, err := a.connection(job.Scheduler)
	if err != nil {
		return adaptor.JobStatus{}, err
	}
	return conn.WaitUntilDone(ctx, job)
}

// CancelJob implements adaptor.JobAdaptor.
func (a *Adaptor) CancelJob(ctx context.Context, job adaptor.Job) error {
	conn, err := a.connection(job.Scheduler)
	if err != nil {
		return err
	}
	return conn.CancelJob(ctx, job.Identifier)
}

// QueueStatus implements adaptor.JobAdaptor.
func (a *Adaptor) QueueStatus(ctx context.Context, scheduler adaptor.Scheduler) (map[string]map[string]string, error) {
	conn, err := a.connection(scheduler)
	if err != nil {
		return nil, err
	}
	return conn.QueueStatus(ctx)
}

// CloseScheduler implements adaptor.JobAdaptor. The registry entry is
// removed first; releasing the channel afterwards is best-effort.
func (a *Adaptor) CloseScheduler(scheduler adaptor.Scheduler) error {
	conn, err := a.registry.Remove(scheduler.ID)
	if err != nil {
		return err
	}
	conn.Close()
	return nil
}

// buildScript renders a description without an explicit script into a
// minimal submission script. Directive lines ("#$ ...") are backend-side
// configuration; this system only transports the bytes.
func buildScript(d adaptor.JobDescription) string {
	var b []string
	b = append(b, "#!/bin/sh")
	if d.Queue != "" {
		b = append(b, "#$ -q "+d.Queue)
	}
	if d.WorkingDirectory != "" {
		b = append(b, "#$ -wd "+d.WorkingDirectory)
	}
	if d.Stdout != "" {
		b = append(b, "#$ -o "+d.Stdout)
	}
	if d.Stderr != "" {
		b = append(b, "#$ -e "+d.Stderr)
	}
	if d.MaxRuntime > 0 {
		b = append(b, fmt.Sprintf("#$ -l h_rt=%d", int(d.MaxRuntime.Seconds())))
	}
	line := d.Executable
	for _, arg := range d.Arguments {
		line += " " + arg
	}
	b = append(b, line, "")
	return strings.Join(b, "\n")
}
