package cmd

import (
	"fmt"
	"net/http"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/matheuskafuri/linkcheck/internal/discover"
	"github.com/matheuskafuri/linkcheck/internal/history"
)

var (
	flagCompareHistory string
	flagCompareOut     string
)

var compareCmd = &cobra.Command{
	Use:   "compare <base-url>",
	Short: "Compare sitemap posts against the checked history",
	Long: `List the posts in the site's sitemap that are not yet in the checked-posts
history. Only /p/ post URLs are considered. Unchecked URLs are also written
to a file usable with --url-file.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		baseURL := strings.TrimRight(args[0], "/")
		out := cmd.OutOrStdout()

		fmt.Fprintf(out, "Fetching posts from %s/sitemap.xml...\n", baseURL)
		d := discover.New(&http.Client{Timeout: 10 * time.Second}, "Mozilla/5.0", 10*time.Second, baseURL)
		posts, err := d.AllPosts(cmd.Context())
		if err != nil {
			return err
		}

		tracker, err := history.Load(flagCompareHistory)
		if err != nil {
			fmt.Fprintf(out, "Warning: could not load history: %v\n", err)
		}

		var unchecked []string
		checked := 0
		for _, p := range posts {
			if tracker.IsChecked(p) {
				checked++
			} else {
				unchecked = append(unchecked, p)
			}
		}
		sort.Strings(unchecked)

		fmt.Fprintln(out, strings.Repeat("=", 50))
		fmt.Fprintln(out, "COMPARISON RESULTS")
		fmt.Fprintln(out, strings.Repeat("=", 50))
		fmt.Fprintf(out, "Total posts in sitemap: %d\n", len(posts))
		fmt.Fprintf(out, "Already checked:        %d\n", checked)
		fmt.Fprintf(out, "Not yet checked:        %d\n", len(unchecked))
		fmt.Fprintln(out, strings.Repeat("=", 50))

		if len(unchecked) == 0 {
			return nil
		}

		fmt.Fprintln(out, "UNCHECKED POSTS:")
		for _, u := range unchecked {
			fmt.Fprintf(out, "  %s\n", u)
		}

		var b strings.Builder
		for _, u := range unchecked {
			b.WriteString(u)
			b.WriteString("\n")
		}
		if err := os.WriteFile(flagCompareOut, []byte(b.String()), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", flagCompareOut, err)
		}
		fmt.Fprintf(out, "\nSaved unchecked URLs to: %s\n", flagCompareOut)
		return nil
	},
}

func init() {
	compareCmd.Flags().StringVarP(&flagCompareHistory, "history-file", "H", "checked_posts.json", "history file to compare against")
	compareCmd.Flags().StringVar(&flagCompareOut, "out", "unchecked_posts.txt", "file to write unchecked post URLs to")
}
