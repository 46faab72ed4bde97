package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	flagConfig  string
	flagVerbose bool
)

var rootCmd = &cobra.Command{
	Use:   "linkcheck",
	Short: "Broken link checker for Substack newsletters",
	Long: `linkcheck scans newsletter posts for broken links. Posts are discovered
from the site's sitemap, its RSS feed, or a URL file, and every outbound
link is verified with retries, caching, and soft-404 detection.`,
	RunE: runCheck,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "path to config file")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable verbose output")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(compareCmd)
	rootCmd.AddCommand(runsCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("linkcheck %s (commit: %s, built: %s)\n", version, commit, date)
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
}

// newLogger builds the diagnostic logger. Progress output goes to stdout
// separately; this only carries warnings and debug detail.
func newLogger() (*zap.SugaredLogger, error) {
	if flagVerbose {
		l, err := zap.NewDevelopment()
		if err != nil {
			return nil, err
		}
		return l.Sugar(), nil
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	l, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return l.Sugar(), nil
}
