package engine

import (
	"context"
	"fmt"

	"github.com/gridhaven/kraken/pkg/adaptor"
)

// NewScheduler connects to the batch backend at the location URI, routed by
// scheme. A nil credential or properties falls back to the engine defaults.
func (e *Engine) NewScheduler(ctx context.Context, locationURI string, credential adaptor.Credential, properties adaptor.Properties) (adaptor.Scheduler, error) {
	location, err := adaptor.ParseLocation(locationURI)
	if err != nil {
		return adaptor.Scheduler{}, err
	}

	a, err := e.AdaptorFor(location.Scheme)
	if err != nil {
		return adaptor.Scheduler{}, err
	}
	ja, ok := a.(adaptor.JobAdaptor)
	if !ok {
		return adaptor.Scheduler{}, adaptor.NewError(adaptor.ErrConfiguration, errorName, "NewScheduler",
			fmt.Sprintf("adaptor %q does not run jobs", a.Name()), nil)
	}

	cred, props := e.merged(a, adaptor.LevelScheduler, credential, properties)
	return ja.NewScheduler(ctx, location, cred, props)
}

// SubmitJob hands the description to the scheduler's backend.
func (e *Engine) SubmitJob(ctx context.Context, scheduler adaptor.Scheduler, description adaptor.JobDescription) (adaptor.Job, error) {
	ja, err := e.jobAdaptor("SubmitJob", scheduler.AdaptorName)
	if err != nil {
		return adaptor.Job{}, err
	}
	return ja.SubmitJob(ctx, scheduler, description)
}

// JobStatus returns a fresh snapshot of the job's state.
func (e *Engine) JobStatus(ctx context.Context, job adaptor.Job) (adaptor.JobStatus, error) {
	ja, err := e.jobAdaptor("JobStatus", job.Scheduler.AdaptorName)
	if err != nil {
		return adaptor.JobStatus{}, err
	}
	return ja.JobStatus(ctx, job)
}

// WaitUntilDone polls until the job is terminal or ctx expires. On expiry
// the last observed status is returned with Done false; the job keeps
// running.
func (e *Engine) WaitUntilDone(ctx context.Context, job adaptor.Job) (adaptor.JobStatus, error) {
	ja, err := e.jobAdaptor("WaitUntilDone", job.Scheduler.AdaptorName)
	if err != nil {
		return adaptor.JobStatus{}, err
	}
	return ja.WaitUntilDone(ctx, job)
}

// CancelJob asks the backend to remove the job. Cancelling a job that
// already finished is not an error.
func (e *Engine) CancelJob(ctx context.Context, job adaptor.Job) error {
	ja, err := e.jobAdaptor("CancelJob", job.Scheduler.AdaptorName)
	if err != nil {
		return err
	}
	return ja.CancelJob(ctx, job)
}

// QueueStatus returns the attribute map of every queue the scheduler sees.
func (e *Engine) QueueStatus(ctx context.Context, scheduler adaptor.Scheduler) (map[string]map[string]string, error) {
	ja, err := e.jobAdaptor("QueueStatus", scheduler.AdaptorName)
	if err != nil {
		return nil, err
	}
	return ja.QueueStatus(ctx, scheduler)
}

// CloseScheduler releases the scheduler's backend connection. Closing twice
// is an AlreadyClosed error.
func (e *Engine) CloseScheduler(scheduler adaptor.Scheduler) error {
	ja, err := e.jobAdaptor("CloseScheduler", scheduler.AdaptorName)
	if err != nil {
		return err
	}
	return ja.CloseScheduler(scheduler)
}
