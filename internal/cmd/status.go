package cmd

import (
	"fmt"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/spf13/cobra"

	"github.com/gridhaven/kraken/pkg/adaptor"
)

var statusCmd = &cobra.Command{
	Use:   "status <job-id>",
	Short: "Show a fresh status snapshot for a job",
	Long: `Query the backend at --location for the current state of a job.

Statuses are never cached: every call reaches the backend. A job missing
from the live listing is resolved through accounting records; when neither
is available the job is reported done with an unknown outcome.

Example:
  kraken status --location ge://login.cluster.example.org 4717`,
	Args: cobra.ExactArgs(1),
	RunE: runStatus,
}

var statusLocation string

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().StringVarP(&statusLocation, "location", "l", "", "Scheduler location URI")
	_ = statusCmd.MarkFlagRequired("location")
}

func runStatus(cmd *cobra.Command, args []string) error {
	eng, _, err := newEngine()
	if err != nil {
		return exitError(foundry.ExitInvalidArgument, "Failed to load configuration", err)
	}
	defer endEngine(eng)

	ctx := cmd.Context()
	sched, err := eng.NewScheduler(ctx, statusLocation, nil, nil)
	if err != nil {
		return err
	}
	defer func() { _ = eng.CloseScheduler(sched) }()

	status, err := eng.JobStatus(ctx, adaptor.Job{Scheduler: sched, Identifier: args[0]})
	if err != nil {
		return err
	}
	printJobStatus(cmd, status)
	return nil
}

func printJobStatus(cmd *cobra.Command, status adaptor.JobStatus) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "job\t%s\n", status.Job.Identifier)
	fmt.Fprintf(out, "state\t%s\n", status.State)
	fmt.Fprintf(out, "done\t%t\n", status.Done)
	if status.Done && status.Err == nil && status.State != adaptor.StateUnknown {
		fmt.Fprintf(out, "exit_code\t%d\n", status.ExitCode)
	}
	if status.Err != nil {
		fmt.Fprintf(out, "error\t%v\n", status.Err)
	}
}
