package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/matheuskafuri/linkcheck/internal/archive"
	"github.com/matheuskafuri/linkcheck/internal/config"
)

var (
	flagRunsLimit   int
	flagRunsLinks   int64
	flagArchivePath string
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List archived runs",
	Long: `Show past runs recorded in the local archive, newest first. Use --links
with a run ID to print the broken links that run found.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := flagArchivePath
		if path == "" {
			path = config.ArchivePath()
		}
		a, err := archive.Open(path)
		if err != nil {
			return fmt.Errorf("opening archive: %w", err)
		}
		defer a.Close()

		out := cmd.OutOrStdout()

		if flagRunsLinks > 0 {
			links, err := a.BrokenLinks(flagRunsLinks)
			if err != nil {
				return fmt.Errorf("reading broken links: %w", err)
			}
			if len(links) == 0 {
				fmt.Fprintf(out, "No broken links recorded for run %d.\n", flagRunsLinks)
				return nil
			}
			for _, l := range links {
				fmt.Fprintf(out, "%-40s %s (%s)\n", l.PostTitle, l.Link, l.Reason)
			}
			return nil
		}

		runs, err := a.ListRuns(flagRunsLimit)
		if err != nil {
			return fmt.Errorf("listing runs: %w", err)
		}
		if len(runs) == 0 {
			fmt.Fprintln(out, "No runs recorded yet.")
			return nil
		}

		fmt.Fprintf(out, "%-5s %-20s %-35s %7s %7s %7s\n", "ID", "STARTED", "BASE URL", "POSTS", "LINKS", "BROKEN")
		for _, r := range runs {
			fmt.Fprintf(out, "%-5d %-20s %-35s %7d %7d %7d\n",
				r.ID, r.StartedAt.Local().Format(time.DateTime), r.BaseURL,
				r.PostsChecked, r.LinksChecked, r.BrokenLinks)
		}
		return nil
	},
}

func init() {
	runsCmd.Flags().IntVar(&flagRunsLimit, "limit", 20, "maximum number of runs to show")
	runsCmd.Flags().Int64Var(&flagRunsLinks, "links", 0, "show broken links for the given run ID")
	runsCmd.Flags().StringVar(&flagArchivePath, "archive", "", "path to the archive database")
}
