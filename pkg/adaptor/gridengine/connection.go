package gridengine

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/gridhaven/kraken/pkg/adaptor"
	"github.com/gridhaven/kraken/pkg/remote"
)

// Backend command lines. Status queries are bulk-only: qstat reports every
// job in one invocation, so per-job status is extracted from the batch.
const (
	submitCommand     = "qsub"
	cancelCommand     = "qdel"
	statusCommand     = "qstat"
	accountingCommand = "qacct"
)

// connectionConfig is decoded from the merged scheduler properties.
type connectionConfig struct {
	PollInterval time.Duration `mapstructure:"gridengine.poll.interval"`
	RateLimit    float64       `mapstructure:"gridengine.rate.limit"`
}

// DefaultPollInterval is the wait-until-done poll interval when the
// gridengine.poll.interval property is absent.
const DefaultPollInterval = 2 * time.Second

// SchedulerConnection owns one logical channel to a Grid Engine endpoint.
//
// It translates abstract job operations into the qsub/qdel/qstat/qacct
// command protocol over a remote execution channel: local process spawns
// when the location has no host, ssh-wrapped invocations otherwise.
type SchedulerConnection struct {
	location adaptor.Location
	runner   remote.Runner
	logger   *zap.Logger
	policy   CompletionPolicy

	pollInterval time.Duration
	queueNames   []string

	mu     sync.Mutex
	closed bool
}

// ConnectionOption configures a SchedulerConnection.
type ConnectionOption func(*SchedulerConnection)

// WithRunner replaces the process runner, used by tests to fake the backend.
func WithRunner(r remote.Runner) ConnectionOption {
	return func(c *SchedulerConnection) {
		c.runner = r
	}
}

// WithCompletionPolicy overrides how terminal job states are reconciled.
// Reconciliation needs differ per batch system, so the policy is explicit
// rather than baked into the connection.
func WithCompletionPolicy(p CompletionPolicy) ConnectionOption {
	return func(c *SchedulerConnection) {
		c.policy = p
	}
}

// NewSchedulerConnection validates the location, establishes command
// routing, and immediately queries the backend for its queue set. An
// unreachable backend fails construction; nothing is deferred.
func NewSchedulerConnection(ctx context.Context, location adaptor.Location, properties adaptor.Properties, logger *zap.Logger, opts ...ConnectionOption) (*SchedulerConnection, error) {
	if !supportedScheme(location.Scheme) {
		return nil, adaptor.NewError(adaptor.ErrLocation, AdaptorName, "NewScheduler",
			fmt.Sprintf("unsupported scheme %q", location.Scheme), nil)
	}

	var cfg connectionConfig
	if err := properties.Decode(&cfg); err != nil {
		return nil, adaptor.NewError(adaptor.ErrConfiguration, AdaptorName, "NewScheduler",
			"cannot decode scheduler properties", err)
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}

	conn := &SchedulerConnection{
		location:     location,
		logger:       logger,
		policy:       AccountingFallbackPolicy{},
		pollInterval: cfg.PollInterval,
	}
	for _, opt := range opts {
		opt(conn)
	}

	if conn.runner == nil {
		conn.runner = remote.NewProcessRunner(location.HostPort(),
			remote.WithRateLimit(cfg.RateLimit),
			remote.WithLogger(logger))
	}

	queues, err := conn.QueueStatus(ctx)
	if err != nil {
		return nil, err
	}

	conn.queueNames = make([]string, 0, len(queues))
	for name := range queues {
		conn.queueNames = append(conn.queueNames, name)
	}
	sort.Strings(conn.queueNames)

	logger.Debug("scheduler connection established",
		zap.String("location", location.String()),
		zap.Strings("queues", conn.queueNames))

	return conn, nil
}

func supportedScheme(scheme string) bool {
	for _, s := range Schemes {
		if s == scheme {
			return true
		}
	}
	return false
}

// QueueNames returns the queue set snapshotted at construction.
func (c *SchedulerConnection) QueueNames() []string {
	names := make([]string, len(c.queueNames))
	copy(names, c.queueNames)
	return names
}

// PollInterval returns the configured wait-until-done poll interval.
func (c *SchedulerConnection) PollInterval() time.Duration {
	return c.pollInterval
}

// run executes one backend command, translating spawn and I/O failures into
// transport errors. Non-zero exit codes are left in the result; each
// operation decides what they mean for its command.
func (c *SchedulerConnection) run(ctx context.Context, op string, cmd remote.Command) (remote.Result, error) {
	result, err := c.runner.Run(ctx, cmd)
	if err != nil {
		return remote.Result{}, adaptor.NewError(adaptor.ErrTransport, AdaptorName, op,
			fmt.Sprintf("cannot execute %s at %s", cmd.Name, c.location.String()), err)
	}
	return result, nil
}

// exitFailure reports a backend command that ran but exited non-zero. The
// canonical case is ssh exiting 255 for an unreachable host with nothing on
// stdout, which must never pass for an empty result set.
func (c *SchedulerConnection) exitFailure(op, name string, result remote.Result) error {
	return adaptor.NewError(adaptor.ErrBackend, AdaptorName, op,
		fmt.Sprintf("%s at %s exited with status %d: %s",
			name, c.location.String(), result.ExitCode,
			strings.TrimSpace(string(result.Stderr))), nil)
}

// QueueStatus issues one batched queue query and returns queueName →
// attributes. qstat has no partial-success exit codes: any non-zero exit
// means the snapshot is unusable.
func (c *SchedulerConnection) QueueStatus(ctx context.Context) (map[string]map[string]string, error) {
	result, err := c.run(ctx, "QueueStatus", remote.Command{
		Name: statusCommand,
		Args: []string{"-xml", "-g", "c"},
	})
	if err != nil {
		return nil, err
	}
	if result.ExitCode != 0 {
		return nil, c.exitFailure("QueueStatus", statusCommand, result)
	}
	return parseQueueInfo(result.Stdout)
}

// JobStatusBatch issues one batched live status query and returns jobID →
// attributes for every job the backend currently reports. A failing query
// is an error, never an empty batch: callers interpret absence from the
// batch as job completion.
func (c *SchedulerConnection) JobStatusBatch(ctx context.Context) (map[string]map[string]string, error) {
	result, err := c.run(ctx, "JobStatus", remote.Command{
		Name: statusCommand,
		Args: []string{"-xml"},
	})
	if err != nil {
		return nil, err
	}
	if result.ExitCode != 0 {
		return nil, c.exitFailure("JobStatus", statusCommand, result)
	}
	return parseJobInfo(result.Stdout)
}

// Accounting recovers terminal data for a job that no longer appears in the
// live status query.
func (c *SchedulerConnection) Accounting(ctx context.Context, jobID string) (map[string]string, error) {
	result, err := c.run(ctx, "Accounting", remote.Command{
		Name: accountingCommand,
		Args: []string{"-j", jobID},
	})
	if err != nil {
		return nil, err
	}
	attrs, perr := parseAccountingOutput(result.Stdout, result.Stderr)
	if perr != nil {
		// qacct exits non-zero for a job it has no record of, so the
		// missing-job token and explicit failure tokens take precedence
		// over the exit code.
		if adaptor.IsNotFound(perr) || adaptor.IsBackend(perr) {
			return nil, perr
		}
		if result.ExitCode != 0 {
			return nil, c.exitFailure("Accounting", accountingCommand, result)
		}
		return nil, perr
	}
	return attrs, nil
}

// SubmitJob writes the job script to the submission command's input and
// parses the reported identifier from its output.
func (c *SchedulerConnection) SubmitJob(ctx context.Context, script string) (string, error) {
	result, err := c.run(ctx, "SubmitJob", remote.Command{
		Name:  submitCommand,
		Stdin: strings.NewReader(script),
	})
	if err != nil {
		return "", err
	}
	return parseSubmitOutput(result.Stdout, result.Stderr)
}

// CancelJob invokes the cancellation command. A job the backend has already
// finished and forgotten is not an error.
func (c *SchedulerConnection) CancelJob(ctx context.Context, jobID string) error {
	result, err := c.run(ctx, "CancelJob", remote.Command{
		Name: cancelCommand,
		Args: []string{jobID},
	})
	if err != nil {
		return err
	}
	return parseCancelOutput(jobID, result.Stdout, result.Stderr)
}

// JobStatus returns a point-in-time snapshot for one job, extracted from
// the batched live query and reconciled through the completion policy when
// the job has left live status.
func (c *SchedulerConnection) JobStatus(ctx context.Context, job adaptor.Job) (adaptor.JobStatus, error) {
	batch, err := c.JobStatusBatch(ctx)
	if err != nil {
		return adaptor.JobStatus{}, err
	}
	live, inLive := batch[job.Identifier]
	return c.policy.Reconcile(ctx, c, job, live, inLive)
}

// WaitUntilDone polls the job status until it is terminal or ctx's deadline
// expires. On expiry the last observed status is returned with Done unset.
// The job itself is left running; cancellation is a separate, explicit call.
func (c *SchedulerConnection) WaitUntilDone(ctx context.Context, job adaptor.Job) (adaptor.JobStatus, error) {
	var last adaptor.JobStatus

	for {
		status, err := c.JobStatus(ctx, job)
		if err != nil {
			// A poll that failed only because the deadline expired while a
			// command was in flight reports the last snapshot, the same as
			// expiry between polls.
			if ctx.Err() != nil {
				return last, nil
			}
			return last, err
		}
		last = status
		if status.Done {
			return status, nil
		}

		select {
		case <-ctx.Done():
			return last, nil
		case <-time.After(c.pollInterval):
		}
	}
}

// Close releases the execution channel. Best-effort: closing an
// already-released channel is logged, never raised.
func (c *SchedulerConnection) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		c.logger.Debug("scheduler connection already closed",
			zap.String("location", c.location.String()))
		return
	}
	c.closed = true
	c.logger.Debug("scheduler connection closed",
		zap.String("location", c.location.String()))
}
