// Package runner ties discovery, extraction, checking, history, reporting
// and archiving together into one run.
package runner

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/matheuskafuri/linkcheck/internal/archive"
	"github.com/matheuskafuri/linkcheck/internal/checker"
	"github.com/matheuskafuri/linkcheck/internal/config"
	"github.com/matheuskafuri/linkcheck/internal/discover"
	"github.com/matheuskafuri/linkcheck/internal/extract"
	"github.com/matheuskafuri/linkcheck/internal/history"
	"github.com/matheuskafuri/linkcheck/internal/policy"
	"github.com/matheuskafuri/linkcheck/internal/report"
)

// Options selects the posts to check and where results go. Exactly one of
// Year, URLFile, or FeedURL should be set; cmd enforces that.
type Options struct {
	BaseURL     string
	Year        int
	URLFile     string
	FeedURL     string
	Limit       int
	Output      string
	HistoryFile string
	OnlyNew     bool
	NoArchive   bool
	ArchivePath string
	Cookie      string
}

// Runner executes a full link-check run.
type Runner struct {
	cfg *config.Config
	out io.Writer
	log *zap.SugaredLogger
}

func New(cfg *config.Config, out io.Writer, log *zap.SugaredLogger) *Runner {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Runner{cfg: cfg, out: out, log: log}
}

// Run checks all selected posts and writes the report. The returned records
// are the broken links found.
func (r *Runner) Run(ctx context.Context, opts Options) ([]checker.BrokenLink, error) {
	baseURL := strings.TrimRight(opts.BaseURL, "/")

	fmt.Fprintln(r.out, "Substack Broken Link Checker")
	fmt.Fprintln(r.out, strings.Repeat("=", 50))
	fmt.Fprintf(r.out, "Base URL: %s\n", baseURL)
	fmt.Fprintf(r.out, "Concurrency: %d\n", r.cfg.Concurrency)
	fmt.Fprintf(r.out, "Max retries: %d\n", r.cfg.MaxRetries)

	var tracker *history.Tracker
	if opts.HistoryFile != "" {
		var err error
		tracker, err = history.Load(opts.HistoryFile)
		if err != nil {
			fmt.Fprintf(r.out, "Warning: could not load history: %v\n", err)
		}
		fmt.Fprintf(r.out, "History file: %s\n", opts.HistoryFile)
		if tracker.Len() > 0 {
			fmt.Fprintf(r.out, "Loaded history: %d previously checked posts\n", tracker.Len())
		}
		if opts.OnlyNew {
			fmt.Fprintln(r.out, "Mode: Only new posts (skipping previously checked)")
		}
	}

	fetchClient := r.fetchClient(baseURL, opts.Cookie)

	postURLs, err := r.discoverPosts(ctx, fetchClient, baseURL, opts)
	if err != nil {
		return nil, err
	}

	stats := &checker.Stats{}

	if opts.OnlyNew && tracker != nil {
		original := len(postURLs)
		var skipped int
		postURLs, skipped = tracker.FilterUnchecked(postURLs)
		for i := 0; i < skipped; i++ {
			stats.AddPostSkipped()
		}
		fmt.Fprintf(r.out, "Posts to check: %d new (skipped %d already checked)\n", len(postURLs), original-len(postURLs))
	}

	fmt.Fprintln(r.out, strings.Repeat("=", 50))

	if len(postURLs) == 0 {
		fmt.Fprintln(r.out, "No posts to check!")
		if tracker != nil {
			if err := tracker.Save(); err != nil {
				fmt.Fprintf(r.out, "Warning: could not save history: %v\n", err)
			}
		}
		return nil, nil
	}

	chk := checker.New(checker.Options{
		Prober:     checker.NewHTTPProber(r.cfg.Timeout(), r.cfg.UserAgent, r.cfg.Overrides),
		Policy:     policy.New(r.cfg.SkipDomains, r.cfg.BrokenDomains),
		Stats:      stats,
		MaxRetries: r.cfg.MaxRetries,
		RetryDelay: r.cfg.RetryDelayDuration(),
		Logger:     r.log,
	})
	extractor := extract.New(fetchClient, r.cfg.UserAgent, r.cfg.Timeout())

	startedAt := time.Now()
	var records []checker.BrokenLink

	for i, postURL := range postURLs {
		if err := ctx.Err(); err != nil {
			return records, err
		}
		fmt.Fprintf(r.out, "[%d/%d] Processing: %s\n", i+1, len(postURLs), postURL)

		title, links, err := extractor.Post(ctx, postURL)
		if err != nil {
			r.log.Warnf("extracting links from %s: %v", postURL, err)
			title, links = "Error fetching post", nil
		}

		if len(links) > 0 {
			broken := chk.CheckBatch(ctx, links, title, postURL, r.cfg.Concurrency, r.cfg.PolitenessDuration())
			records = append(records, broken...)
			fmt.Fprintf(r.out, "  Found %d broken links in this post\n", len(broken))
		}
		stats.AddPostChecked()

		if tracker != nil {
			tracker.MarkChecked(postURL)
		}
	}

	fmt.Fprintf(r.out, "\nCompleted in %.1f seconds\n", time.Since(startedAt).Seconds())

	if tracker != nil {
		if err := tracker.Save(); err != nil {
			fmt.Fprintf(r.out, "Warning: could not save history: %v\n", err)
		}
	}

	snapshot := stats.Snapshot()
	fmt.Fprintln(r.out)
	fmt.Fprint(r.out, report.Summary(snapshot))

	if len(records) > 0 && opts.Output != "" {
		if err := report.SaveCSV(opts.Output, records); err != nil {
			return records, err
		}
		fmt.Fprintf(r.out, "\nReport generated: %s (%d broken links)\n", opts.Output, len(records))
	} else if len(records) == 0 {
		fmt.Fprintln(r.out, "\nNo broken links found!")
	}

	if !opts.NoArchive {
		r.archiveRun(baseURL, startedAt, snapshot, records, opts.ArchivePath)
	}

	return records, nil
}

func (r *Runner) discoverPosts(ctx context.Context, client *http.Client, baseURL string, opts Options) ([]string, error) {
	switch {
	case opts.URLFile != "":
		fmt.Fprintf(r.out, "Input: File (%s)\n", opts.URLFile)
		return discover.FromFile(opts.URLFile, opts.Limit)
	case opts.FeedURL != "":
		fmt.Fprintf(r.out, "Input: Feed (%s)\n", opts.FeedURL)
		return discover.FromFeed(ctx, opts.FeedURL, opts.Limit)
	case opts.Year != 0:
		fmt.Fprintf(r.out, "Input: Sitemap (year %d)\n", opts.Year)
		d := discover.New(client, r.cfg.UserAgent, r.cfg.Timeout(), baseURL)
		return d.PostsForYear(ctx, opts.Year, opts.Limit)
	default:
		return nil, fmt.Errorf("no post source: need a year, URL file, or feed")
	}
}

// fetchClient builds the client used for sitemap and post fetches. When a
// session cookie is given it is pinned to the base URL so only the site's
// own pages get it.
func (r *Runner) fetchClient(baseURL, cookie string) *http.Client {
	client := &http.Client{Timeout: r.cfg.Timeout()}
	if cookie == "" {
		return client
	}

	u, err := url.Parse(baseURL)
	if err != nil {
		return client
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return client
	}
	jar.SetCookies(u, []*http.Cookie{{Name: "substack.sid", Value: cookie}})
	client.Jar = jar
	return client
}

func (r *Runner) archiveRun(baseURL string, startedAt time.Time, stats checker.Snapshot, records []checker.BrokenLink, path string) {
	if path == "" {
		path = config.ArchivePath()
	}
	a, err := archive.Open(path)
	if err != nil {
		r.log.Warnf("opening run archive: %v", err)
		return
	}
	defer a.Close()

	if _, err := a.RecordRun(baseURL, startedAt, stats, records); err != nil {
		r.log.Warnf("recording run: %v", err)
	}
}
