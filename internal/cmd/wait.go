package cmd

import (
	"context"
	"time"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/spf13/cobra"

	"github.com/gridhaven/kraken/pkg/adaptor"
)

var waitCmd = &cobra.Command{
	Use:   "wait <job-id>",
	Short: "Block until a job reaches a terminal state",
	Long: `Poll the backend at --location until the job is terminal or the
deadline expires. On expiry the last observed status is printed and the
job keeps running.

Example:
  kraken wait --location ge://login.cluster.example.org --timeout 2h 4717`,
	Args: cobra.ExactArgs(1),
	RunE: runWait,
}

var (
	waitLocation string
	waitTimeout  time.Duration
)

func init() {
	rootCmd.AddCommand(waitCmd)

	waitCmd.Flags().StringVarP(&waitLocation, "location", "l", "", "Scheduler location URI")
	waitCmd.Flags().DurationVar(&waitTimeout, "timeout", 24*time.Hour, "Wait deadline")
	_ = waitCmd.MarkFlagRequired("location")
}

func runWait(cmd *cobra.Command, args []string) error {
	eng, _, err := newEngine()
	if err != nil {
		return exitError(foundry.ExitInvalidArgument, "Failed to load configuration", err)
	}
	defer endEngine(eng)

	ctx := cmd.Context()
	sched, err := eng.NewScheduler(ctx, waitLocation, nil, nil)
	if err != nil {
		return err
	}
	defer func() { _ = eng.CloseScheduler(sched) }()

	waitCtx, cancel := context.WithTimeout(ctx, waitTimeout)
	defer cancel()

	status, err := eng.WaitUntilDone(waitCtx, adaptor.Job{Scheduler: sched, Identifier: args[0]})
	if err != nil {
		return err
	}
	printJobStatus(cmd, status)
	if !status.Done {
		return exitError(foundry.ExitExternalServiceUnavailable, "Deadline expired before the job finished", nil)
	}
	return nil
}
