package cmd

import (
	"fmt"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/spf13/cobra"

	"github.com/gridhaven/kraken/pkg/adaptor"
)

var cancelCmd = &cobra.Command{
	Use:   "cancel <job-id>",
	Short: "Remove a job from its backend",
	Long: `Ask the backend at --location to remove the job. Cancelling a job
that already finished is not an error.

Example:
  kraken cancel --location ge://login.cluster.example.org 4717`,
	Args: cobra.ExactArgs(1),
	RunE: runCancel,
}

var cancelLocation string

func init() {
	rootCmd.AddCommand(cancelCmd)

	cancelCmd.Flags().StringVarP(&cancelLocation, "location", "l", "", "Scheduler location URI")
	_ = cancelCmd.MarkFlagRequired("location")
}

func runCancel(cmd *cobra.Command, args []string) error {
	eng, _, err := newEngine()
	if err != nil {
		return exitError(foundry.ExitInvalidArgument, "Failed to load configuration", err)
	}
	defer endEngine(eng)

	ctx := cmd.Context()
	sched, err := eng.NewScheduler(ctx, cancelLocation, nil, nil)
	if err != nil {
		return err
	}
	defer func() { _ = eng.CloseScheduler(sched) }()

	if err := eng.CancelJob(ctx, adaptor.Job{Scheduler: sched, Identifier: args[0]}); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "cancelled %s\n", args[0])
	return nil
}
