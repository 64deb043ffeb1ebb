package cmd

import (
	"fmt"
	"sort"
	"text/tabwriter"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/spf13/cobra"
)

var lsCmd = &cobra.Command{
	Use:   "ls <location>",
	Short: "List entries on a file store",
	Long: `Connect to the file store at the given location URI and list the
entries at its entry path.

Examples:
  kraken ls file:///var/data
  kraken ls ftp://ftp.example.org/pub
  kraken ls s3://bucket/prefix --pattern '*.csv'`,
	Args: cobra.ExactArgs(1),
	RunE: runLs,
}

var lsPattern string

func init() {
	rootCmd.AddCommand(lsCmd)

	lsCmd.Flags().StringVar(&lsPattern, "pattern", "", "Glob filter on entry names")
}

func runLs(cmd *cobra.Command, args []string) error {
	eng, _, err := newEngine()
	if err != nil {
		return exitError(foundry.ExitInvalidArgument, "Failed to load configuration", err)
	}
	defer endEngine(eng)

	ctx := cmd.Context()
	fs, err := eng.NewFileSystem(ctx, args[0], nil, nil)
	if err != nil {
		return err
	}
	defer func() { _ = eng.CloseFileSystem(fs) }()

	entries, err := eng.List(ctx, fs, "", lsPattern)
	if err != nil {
		return err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tSIZE\tTYPE")
	for _, e := range entries {
		kind := "file"
		if e.IsDir {
			kind = "dir"
		}
		fmt.Fprintf(w, "%s\t%d\t%s\n", e.Name, e.Size, kind)
	}
	return w.Flush()
}
