package cmd

import (
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/spf13/cobra"
)

var queuesCmd = &cobra.Command{
	Use:   "queues <location>",
	Short: "Show the queues a scheduler offers",
	Long: `Connect to the scheduler at the given location URI and print its
queue set with backend-reported attributes.

Example:
  kraken queues ge://login.cluster.example.org`,
	Args: cobra.ExactArgs(1),
	RunE: runQueues,
}

func init() {
	rootCmd.AddCommand(queuesCmd)
}

func runQueues(cmd *cobra.Command, args []string) error {
	eng, _, err := newEngine()
	if err != nil {
		return exitError(foundry.ExitInvalidArgument, "Failed to load configuration", err)
	}
	defer endEngine(eng)

	ctx := cmd.Context()
	sched, err := eng.NewScheduler(ctx, args[0], nil, nil)
	if err != nil {
		return err
	}
	defer func() { _ = eng.CloseScheduler(sched) }()

	status, err := eng.QueueStatus(ctx, sched)
	if err != nil {
		return err
	}

	names := make([]string, 0, len(status))
	for name := range status {
		names = append(names, name)
	}
	sort.Strings(names)

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "QUEUE\tATTRIBUTES")
	for _, name := range names {
		attrs := status[name]
		keys := make([]string, 0, len(attrs))
		for k := range attrs {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		pairs := make([]string, 0, len(keys))
		for _, k := range keys {
			pairs = append(pairs, fmt.Sprintf("%s=%s", k, attrs[k]))
		}
		fmt.Fprintf(w, "%s\t%s\n", name, strings.Join(pairs, " "))
	}
	return w.Flush()
}
