package cmd

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/spf13/cobra"
)

var adaptorsCmd = &cobra.Command{
	Use:   "adaptors",
	Short: "List the available backend adaptors",
	Args:  cobra.NoArgs,
	RunE:  runAdaptors,
}

func init() {
	rootCmd.AddCommand(adaptorsCmd)
}

func runAdaptors(cmd *cobra.Command, args []string) error {
	eng, _, err := newEngine()
	if err != nil {
		return exitError(foundry.ExitInvalidArgument, "Failed to load configuration", err)
	}
	defer endEngine(eng)

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tSCHEMES\tDESCRIPTION")
	for _, a := range eng.Adaptors() {
		fmt.Fprintf(w, "%s\t%s\t%s\n", a.Name(), strings.Join(a.Schemes(), ","), a.Description())
	}
	return w.Flush()
}
