package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matheuskafuri/linkcheck/internal/config"
	"github.com/matheuskafuri/linkcheck/internal/runner"
)

var (
	flagBaseURL     string
	flagYear        int
	flagURLFile     string
	flagFeed        bool
	flagLimit       int
	flagOutput      string
	flagConcurrency int
	flagTimeout     int
	flagMaxRetries  int
	flagHistoryFile string
	flagOnlyNew     bool
	flagSkipDomains []string
	flagSkipFile    string
	flagBrokenList  []string
	flagBrokenFile  string
	flagCookie      string
	flagNoArchive   bool
)

func init() {
	f := rootCmd.Flags()
	f.StringVarP(&flagBaseURL, "base-url", "b", "", "base URL of the Substack (e.g., https://example.substack.com)")
	f.IntVarP(&flagYear, "year", "y", 0, "year to check posts from (uses sitemap)")
	f.StringVarP(&flagURLFile, "url-file", "f", "", "file containing post URLs (one per line)")
	f.BoolVar(&flagFeed, "feed", false, "discover recent posts from the site's RSS feed")
	f.IntVarP(&flagLimit, "limit", "l", 0, "maximum number of posts to check")
	f.StringVarP(&flagOutput, "output", "o", "broken_links_report.csv", "output CSV filename")
	f.IntVarP(&flagConcurrency, "concurrency", "c", 10, "maximum concurrent requests")
	f.IntVarP(&flagTimeout, "timeout", "t", 10, "request timeout in seconds")
	f.IntVarP(&flagMaxRetries, "max-retries", "r", 3, "maximum retry attempts for transient failures")
	f.StringVarP(&flagHistoryFile, "history-file", "H", "", "JSON file for tracking checked posts")
	f.BoolVar(&flagOnlyNew, "only-new", false, "only check posts not in history (requires --history-file)")
	f.StringSliceVarP(&flagSkipDomains, "skip-domains", "S", nil, "domains to skip checking and assume OK; use 'none' to check all")
	f.StringVar(&flagSkipFile, "skip-domains-file", "", "file containing domains to skip (one per line)")
	f.StringSliceVarP(&flagBrokenList, "broken-domains", "B", nil, "domains to auto-flag as broken without checking")
	f.StringVar(&flagBrokenFile, "broken-domains-file", "", "file containing domains to auto-flag as broken")
	f.StringVarP(&flagCookie, "cookie", "C", "", "Substack session cookie (substack.sid) for paywalled content")
	f.BoolVar(&flagNoArchive, "no-archive", false, "do not record this run in the local archive")

	rootCmd.MarkFlagRequired("base-url")
	rootCmd.MarkFlagsOneRequired("year", "url-file", "feed")
	rootCmd.MarkFlagsMutuallyExclusive("year", "url-file", "feed")
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := applyFlags(cmd, cfg); err != nil {
		return err
	}

	if flagOnlyNew && flagHistoryFile == "" {
		return fmt.Errorf("--only-new requires --history-file")
	}

	log, err := newLogger()
	if err != nil {
		return fmt.Errorf("setting up logger: %w", err)
	}
	defer log.Sync()

	opts := runner.Options{
		BaseURL:     flagBaseURL,
		Year:        flagYear,
		URLFile:     flagURLFile,
		Limit:       flagLimit,
		Output:      flagOutput,
		HistoryFile: flagHistoryFile,
		OnlyNew:     flagOnlyNew,
		NoArchive:   flagNoArchive,
		Cookie:      flagCookie,
	}
	if flagFeed {
		opts.FeedURL = strings.TrimRight(flagBaseURL, "/") + "/feed"
	}

	_, err = runner.New(cfg, cmd.OutOrStdout(), log).Run(cmd.Context(), opts)
	return err
}

// applyFlags layers command-line flags over the loaded config.
func applyFlags(cmd *cobra.Command, cfg *config.Config) error {
	if cmd.Flags().Changed("concurrency") {
		cfg.Concurrency = flagConcurrency
	}
	if cmd.Flags().Changed("timeout") {
		cfg.TimeoutSeconds = flagTimeout
	}
	if cmd.Flags().Changed("max-retries") {
		cfg.MaxRetries = flagMaxRetries
	}

	if cmd.Flags().Changed("skip-domains") {
		if len(flagSkipDomains) == 1 && flagSkipDomains[0] == "none" {
			cfg.SkipDomains = nil
		} else {
			cfg.SkipDomains = flagSkipDomains
		}
	}
	if flagSkipFile != "" {
		domains, err := loadDomainFile(flagSkipFile)
		if err != nil {
			return fmt.Errorf("loading skip domains: %w", err)
		}
		cfg.SkipDomains = append(cfg.SkipDomains, domains...)
	}

	if cmd.Flags().Changed("broken-domains") {
		cfg.BrokenDomains = flagBrokenList
	}
	if flagBrokenFile != "" {
		domains, err := loadDomainFile(flagBrokenFile)
		if err != nil {
			return fmt.Errorf("loading broken domains: %w", err)
		}
		cfg.BrokenDomains = append(cfg.BrokenDomains, domains...)
	}

	if cfg.Concurrency < 1 {
		return fmt.Errorf("concurrency must be >= 1, got %d", cfg.Concurrency)
	}
	if cfg.MaxRetries < 0 {
		return fmt.Errorf("max-retries must be >= 0, got %d", cfg.MaxRetries)
	}
	return nil
}

// loadDomainFile reads one domain per line; blank lines and # comments are
// skipped.
func loadDomainFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var domains []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		domains = append(domains, line)
	}
	return domains, scanner.Err()
}
