package gridengine

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/gridhaven/kraken/pkg/adaptor"
)

// CompletionPolicy decides what a job's absence from the live status query
// means. Grid Engine drops jobs from qstat shortly after completion whether
// they succeeded or failed, so absence alone never implies success; other
// batch systems reconcile differently, which is why the policy is a
// replaceable part of the connection rather than shared engine logic.
type CompletionPolicy interface {
	// Reconcile turns the live-status row (or its absence) into a status
	// snapshot, consulting the accounting query when needed.
	Reconcile(ctx context.Context, conn *SchedulerConnection, job adaptor.Job, live map[string]string, inLive bool) (adaptor.JobStatus, error)
}

// AccountingFallbackPolicy is the Grid Engine reconciliation: a job present
// in live status is pending or running; a job absent from live status is
// resolved through qacct; when accounting has no record of the job either,
// it is reported done with an unknown outcome, never silently as success.
// A failing accounting query is an error, not an unknown outcome: the job
// may well still be running.
type AccountingFallbackPolicy struct{}

// Reconcile implements CompletionPolicy.
func (AccountingFallbackPolicy) Reconcile(ctx context.Context, conn *SchedulerConnection, job adaptor.Job, live map[string]string, inLive bool) (adaptor.JobStatus, error) {
	status := adaptor.JobStatus{Job: job, Attributes: live}

	if inLive {
		state := live["state"]
		switch {
		case strings.Contains(state, "E"):
			// Error-state jobs (e.g., "Eqw") are stuck, not progressing.
			status.State = adaptor.StateDone
			status.Done = true
			status.Err = adaptor.NewError(adaptor.ErrBackend, AdaptorName, "JobStatus",
				fmt.Sprintf("job %s is in error state %q", job.Identifier, state), nil)
		case strings.ContainsAny(state, "rt"):
			status.State = adaptor.StateRunning
		default:
			status.State = adaptor.StatePending
		}
		return status, nil
	}

	accounting, err := conn.Accounting(ctx, job.Identifier)
	if err != nil {
		if adaptor.IsNotFound(err) {
			// Gone from live status and no accounting record either:
			// terminal with an outcome we cannot recover.
			status.State = adaptor.StateUnknown
			status.Done = true
			return status, nil
		}
		// Accounting could not be consulted. Absence from one live batch
		// proves nothing on its own, so the failure surfaces to the caller.
		return adaptor.JobStatus{}, err
	}

	status.State = adaptor.StateDone
	status.Done = true
	status.Attributes = accounting

	if code, convErr := strconv.Atoi(accounting["exit_status"]); convErr == nil {
		status.ExitCode = code
	}

	if failed, ok := accounting["failed"]; ok && failed != "0" {
		status.Err = adaptor.NewError(adaptor.ErrBackend, AdaptorName, "JobStatus",
			fmt.Sprintf("job %s failed: %s", job.Identifier, failed), nil)
	} else if status.ExitCode != 0 {
		status.Err = adaptor.NewError(adaptor.ErrBackend, AdaptorName, "JobStatus",
			fmt.Sprintf("job %s exited with status %d", job.Identifier, status.ExitCode), nil)
	}

	return status, nil
}
