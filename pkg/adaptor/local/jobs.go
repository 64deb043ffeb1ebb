package local

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/gridhaven/kraken/pkg/adaptor"
)

const defaultPollInterval = 100 * time.Millisecond

// queueNames is the fixed queue set the local backend reports. There is no
// admission control beyond the OS scheduler.
var queueNames = []string{"single", "multi"}

type jobsConfig struct {
	PollInterval time.Duration `mapstructure:"local.poll.interval"`
}

// scheduler is the live state behind a local Scheduler handle: an
// in-process job table. The table is the single source of truth for local
// jobs; there is no external backend to reconcile against.
type scheduler struct {
	logger       *zap.Logger
	pollInterval time.Duration

	mu      sync.Mutex
	nextJob int
	jobs    map[string]*localJob
}

type localJob struct {
	mu       sync.Mutex
	cmd      *exec.Cmd
	running  bool
	done     bool
	exitCode int
	err      error
}

func (j *localJob) snapshot() (running, done bool, exitCode int, err error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.running, j.done, j.exitCode, j.err
}

func (s *scheduler) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, j := range s.jobs {
		j.mu.Lock()
		if j.running && j.cmd.Process != nil {
			_ = j.cmd.Process.Kill()
		}
		j.mu.Unlock()
	}
}

// NewScheduler implements adaptor.JobAdaptor.
func (a *Adaptor) NewScheduler(ctx context.Context, location adaptor.Location, credential adaptor.Credential, properties adaptor.Properties) (adaptor.Scheduler, error) {
	if err := validateLocation("NewScheduler", location); err != nil {
		return adaptor.Scheduler{}, err
	}
	if err := properties.ValidateStrict(AdaptorName, adaptor.LevelScheduler, supportedProperties); err != nil {
		return adaptor.Scheduler{}, err
	}

	var cfg jobsConfig
	if err := properties.Decode(&cfg); err != nil {
		return adaptor.Scheduler{}, adaptor.NewError(adaptor.ErrConfiguration, AdaptorName, "NewScheduler",
			"cannot decode scheduler properties", err)
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}

	s := &scheduler{
		logger:       a.logger,
		pollInterval: cfg.PollInterval,
		jobs:         make(map[string]*localJob),
	}
	id := a.schedulers.Register(s)

	names := make([]string, len(queueNames))
	copy(names, queueNames)

	return adaptor.Scheduler{
		AdaptorName:          AdaptorName,
		ID:                   id,
		Location:             location,
		QueueNames:           names,
		Credential:           credential,
		Properties:           properties.Clone(),
		LocalStandardStreams: true,
		DetachedJobs:         false,
	}, nil
}

func (a *Adaptor) scheduler(sched adaptor.Scheduler) (*scheduler, error) {
	if sched.AdaptorName != AdaptorName {
		return nil, adaptor.NewError(adaptor.ErrNotFound, AdaptorName, "scheduler",
			fmt.Sprintf("scheduler %s belongs to adaptor %s", sched.ID, sched.AdaptorName), nil)
	}
	return a.schedulers.Get(sched.ID)
}

// SubmitJob implements adaptor.JobAdaptor: the description becomes one
// local process, started immediately.
func (a *Adaptor) SubmitJob(ctx context.Context, sched adaptor.Scheduler, description adaptor.JobDescription) (adaptor.Job, error) {
	s, err := a.scheduler(sched)
	if err != nil {
		return adaptor.Job{}, err
	}

	cmd, cleanup, err := buildCommand(description)
	if err != nil {
		return adaptor.Job{}, err
	}

	s.mu.Lock()
	s.nextJob++
	identifier := strconv.Itoa(s.nextJob)
	j := &localJob{cmd: cmd}
	s.jobs[identifier] = j
	s.mu.Unlock()

	j.mu.Lock()
	if err := cmd.Start(); err != nil {
		j.done = true
		j.err = adaptor.NewError(adaptor.ErrTransport, AdaptorName, "SubmitJob",
			fmt.Sprintf("cannot start %s", description.Executable), err)
		j.mu.Unlock()
		cleanup()
		return adaptor.Job{}, j.err
	}
	j.running = true
	j.mu.Unlock()

	a.logger.Debug("local job started",
		zap.String("scheduler", sched.ID),
		zap.String("job", identifier),
		zap.Int("pid", cmd.Process.Pid))

	go func() {
		waitErr := cmd.Wait()
		cleanup()

		j.mu.Lock()
		defer j.mu.Unlock()
		j.running = false
		j.done = true
		if waitErr != nil {
			if exitErr, ok := waitErr.(*exec.ExitError); ok {
				j.exitCode = exitErr.ExitCode()
			} else {
				j.err = adaptor.NewError(adaptor.ErrTransport, AdaptorName, "SubmitJob",
					"process wait failed", waitErr)
			}
		}
	}()

	return adaptor.Job{Scheduler: sched, Identifier: identifier, Description: description}, nil
}

// buildCommand turns a description into an exec.Cmd with its streams wired
// to the described capture locations. The returned cleanup closes any files
// opened for the streams.
func buildCommand(description adaptor.JobDescription) (*exec.Cmd, func(), error) {
	var cmd *exec.Cmd
	if description.Script != "" {
		cmd = exec.Command("sh", "-c", description.Script)
	} else {
		cmd = exec.Command(description.Executable, description.Arguments...)
	}
	if description.WorkingDirectory != "" {
		cmd.Dir = description.WorkingDirectory
	}

	var opened []*os.File
	cleanup := func() {
		for _, f := range opened {
			_ = f.Close()
		}
	}

	if description.Stdout != "" {
		f, err := os.Create(description.Stdout)
		if err != nil {
			cleanup()
			return nil, nil, adaptor.NewError(adaptor.ErrTransport, AdaptorName, "SubmitJob",
				fmt.Sprintf("cannot open stdout capture %s", description.Stdout), err)
		}
		opened = append(opened, f)
		cmd.Stdout = f
	}
	if description.Stderr != "" {
		f, err := os.Create(description.Stderr)
		if err != nil {
			cleanup()
			return nil, nil, adaptor.NewError(adaptor.ErrTransport, AdaptorName, "SubmitJob",
				fmt.Sprintf("cannot open stderr capture %s", description.Stderr), err)
		}
		opened = append(opened, f)
		cmd.Stderr = f
	}

	return cmd, cleanup, nil
}

// JobStatus implements adaptor.JobAdaptor.
func (a *Adaptor) JobStatus(ctx context.Context, job adaptor.Job) (adaptor.JobStatus, error) {
	s, err := a.scheduler(job.Scheduler)
	if err != nil {
		return adaptor.JobStatus{}, err
	}

	s.mu.Lock()
	j, ok := s.jobs[job.Identifier]
	s.mu.Unlock()
	if !ok {
		return adaptor.JobStatus{}, adaptor.NewError(adaptor.ErrNotFound, AdaptorName, "JobStatus",
			fmt.Sprintf("unknown job %s", job.Identifier), nil)
	}

	running, done, exitCode, jobErr := j.snapshot()

	status := adaptor.JobStatus{
		Job:      job,
		ExitCode: exitCode,
		Err:      jobErr,
		Attributes: map[string]string{
			"exit_status": strconv.Itoa(exitCode),
		},
	}
	switch {
	case done:
		status.State = adaptor.StateDone
		status.Done = true
		if jobErr == nil && exitCode != 0 {
			status.Err = adaptor.NewError(adaptor.ErrBackend, AdaptorName, "JobStatus",
				fmt.Sprintf("job %s exited with status %d", job.Identifier, exitCode), nil)
		}
	case running:
		status.State = adaptor.StateRunning
	default:
		status.State = adaptor.StatePending
	}
	return status, nil
}

// WaitUntilDone implements adaptor.JobAdaptor.
func (a *Adaptor) WaitUntilDone(ctx context.Context, job adaptor.Job) (adaptor.JobStatus, error) {
	s, err := a.scheduler(job.Scheduler)
	if err != nil {
		return adaptor.JobStatus{}, err
	}

	var last adaptor.JobStatus
	for {
		status, err := a.JobStatus(ctx, job)
		if err != nil {
			return last, err
		}
		last = status
		if status.Done {
			return status, nil
		}

		select {
		case <-ctx.Done():
			return last, nil
		case <-time.After(s.pollInterval):
		}
	}
}

// CancelJob implements adaptor.JobAdaptor. A job that already finished is
// not an error.
func (a *Adaptor) CancelJob(ctx context.Context, job adaptor.Job) error {
	s, err := a.scheduler(job.Scheduler)
	if err != nil {
		return err
	}

	s.mu.Lock()
	j, ok := s.jobs[job.Identifier]
	s.mu.Unlock()
	if !ok {
		return adaptor.NewError(adaptor.ErrNotFound, AdaptorName, "CancelJob",
			fmt.Sprintf("unknown job %s", job.Identifier), nil)
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	if !j.running {
		return nil
	}
	if err := j.cmd.Process.Kill(); err != nil {
		return adaptor.NewError(adaptor.ErrBackend, AdaptorName, "CancelJob",
			fmt.Sprintf("cannot kill job %s", job.Identifier), err)
	}
	return nil
}

// QueueStatus implements adaptor.JobAdaptor.
func (a *Adaptor) QueueStatus(ctx context.Context, sched adaptor.Scheduler) (map[string]map[string]string, error) {
	s, err := a.scheduler(sched)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	jobs := make([]*localJob, 0, len(s.jobs))
	for _, j := range s.jobs {
		jobs = append(jobs, j)
	}
	s.mu.Unlock()

	running := 0
	for _, j := range jobs {
		if r, _, _, _ := j.snapshot(); r {
			running++
		}
	}
	total := len(jobs)

	status := make(map[string]map[string]string, len(queueNames))
	for _, name := range queueNames {
		status[name] = map[string]string{
			"running": strconv.Itoa(running),
			"total":   strconv.Itoa(total),
		}
	}
	return status, nil
}

// CloseScheduler implements adaptor.JobAdaptor.
func (a *Adaptor) CloseScheduler(sched adaptor.Scheduler) error {
	s, err := a.schedulers.Remove(sched.ID)
	if err != nil {
		return err
	}
	s.close()
	return nil
}
