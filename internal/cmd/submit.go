package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gridhaven/kraken/internal/observability"
)

var submitCmd = &cobra.Command{
	Use:   "submit <job.yaml>",
	Short: "Submit a job description to a scheduler",
	Long: `Submit a YAML job description to the scheduler at --location.

The job file names either a script (transported verbatim to the backend)
or an executable with arguments:

  script: |
    #$ -q short.q
    /opt/tools/render frame-001
  stdout: render.out
  max_runtime: 30m

Examples:
  kraken submit --location ge://login.cluster.example.org job.yaml
  kraken submit --location local:/// --wait job.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: runSubmit,
}

var (
	submitLocation string
	submitWait     bool
	submitTimeout  time.Duration
)

func init() {
	rootCmd.AddCommand(submitCmd)

	submitCmd.Flags().StringVarP(&submitLocation, "location", "l", "", "Scheduler location URI")
	submitCmd.Flags().BoolVar(&submitWait, "wait", false, "Block until the job is terminal")
	submitCmd.Flags().DurationVar(&submitTimeout, "timeout", 24*time.Hour, "Wait deadline (with --wait)")
	_ = submitCmd.MarkFlagRequired("location")
}

func runSubmit(cmd *cobra.Command, args []string) error {
	description, err := loadJobFile(args[0])
	if err != nil {
		return exitError(foundry.ExitInvalidArgument, "Invalid job file", err)
	}

	eng, _, err := newEngine()
	if err != nil {
		return exitError(foundry.ExitInvalidArgument, "Failed to load configuration", err)
	}
	defer endEngine(eng)

	ctx := cmd.Context()
	sched, err := eng.NewScheduler(ctx, submitLocation, nil, nil)
	if err != nil {
		return err
	}
	defer func() { _ = eng.CloseScheduler(sched) }()

	job, err := eng.SubmitJob(ctx, sched, description)
	if err != nil {
		return err
	}

	observability.CLILogger.Info("Job submitted",
		zap.String("job", job.Identifier),
		zap.String("scheduler", sched.ID))
	fmt.Fprintln(cmd.OutOrStdout(), job.Identifier)

	if !submitWait {
		return nil
	}

	waitCtx, cancel := context.WithTimeout(ctx, submitTimeout)
	defer cancel()
	status, err := eng.WaitUntilDone(waitCtx, job)
	if err != nil {
		return err
	}
	printJobStatus(cmd, status)
	if !status.Done {
		return exitError(foundry.ExitExternalServiceUnavailable, "Deadline expired before the job finished", nil)
	}
	if status.Err != nil {
		return status.Err
	}
	return nil
}
