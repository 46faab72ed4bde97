// Package discover finds the post URLs to check: from the site's sitemap,
// from its RSS feed, or from a plain URL file.
package discover

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// sitemapDoc covers both <urlset> and <sitemapindex> documents; Substack
// serves an index at /sitemap.xml with one child sitemap per year.
type sitemapDoc struct {
	XMLName  xml.Name     `xml:""`
	Sitemaps []sitemapLoc `xml:"sitemap"`
	URLs     []sitemapLoc `xml:"url"`
}

type sitemapLoc struct {
	Loc string `xml:"loc"`
}

// Discoverer fetches post URL listings for a Substack site.
type Discoverer struct {
	Client    *http.Client
	UserAgent string
	Timeout   time.Duration
	BaseURL   string
}

func New(client *http.Client, userAgent string, timeout time.Duration, baseURL string) *Discoverer {
	if client == nil {
		client = http.DefaultClient
	}
	return &Discoverer{
		Client:    client,
		UserAgent: userAgent,
		Timeout:   timeout,
		BaseURL:   strings.TrimRight(baseURL, "/"),
	}
}

// Sitemap fetches BaseURL/sitemap.xml. For a sitemap index it returns the
// child sitemap URLs; for a plain sitemap it returns the page URLs.
func (d *Discoverer) Sitemap(ctx context.Context) ([]string, error) {
	return d.fetchSitemap(ctx, d.BaseURL+"/sitemap.xml")
}

func (d *Discoverer) fetchSitemap(ctx context.Context, sitemapURL string) ([]string, error) {
	if d.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sitemapURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building sitemap request: %w", err)
	}
	if d.UserAgent != "" {
		req.Header.Set("User-Agent", d.UserAgent)
	}

	resp, err := d.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching sitemap %s: %w", sitemapURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("fetching sitemap %s: HTTP %d", sitemapURL, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading sitemap %s: %w", sitemapURL, err)
	}

	var doc sitemapDoc
	if err := xml.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("parsing sitemap %s: %w", sitemapURL, err)
	}

	var out []string
	for _, s := range doc.Sitemaps {
		if loc := strings.TrimSpace(s.Loc); loc != "" {
			out = append(out, loc)
		}
	}
	if len(out) > 0 {
		return out, nil
	}
	for _, u := range doc.URLs {
		if loc := strings.TrimSpace(u.Loc); loc != "" {
			out = append(out, loc)
		}
	}
	return out, nil
}

// AllPosts returns every /p/ post URL in the sitemap, expanding child
// sitemaps when /sitemap.xml is an index. A child that fails to fetch is
// skipped.
func (d *Discoverer) AllPosts(ctx context.Context) ([]string, error) {
	top, err := d.Sitemap(ctx)
	if err != nil {
		return nil, err
	}

	var pages []string
	var children []string
	for _, u := range top {
		if strings.Contains(u, "sitemap") {
			children = append(children, u)
		} else {
			pages = append(pages, u)
		}
	}
	for _, child := range children {
		urls, err := d.fetchSitemap(ctx, child)
		if err != nil {
			continue
		}
		pages = append(pages, urls...)
	}

	var posts []string
	for _, u := range pages {
		if strings.Contains(u, "/p/") {
			posts = append(posts, u)
		}
	}
	return posts, nil
}

// PostsForYear returns post URLs for year, preferring the year-specific
// child sitemap when the index has one, and otherwise filtering all URLs by
// year markers in the path. limit <= 0 means no limit.
func (d *Discoverer) PostsForYear(ctx context.Context, year, limit int) ([]string, error) {
	all, err := d.Sitemap(ctx)
	if err != nil {
		return nil, err
	}

	yearStr := strconv.Itoa(year)
	for _, u := range all {
		if strings.Contains(u, yearStr) && strings.Contains(u, "sitemap") {
			posts, err := d.fetchSitemap(ctx, u)
			if err == nil {
				return truncateList(posts, limit), nil
			}
			// Fall back to filtering the index URLs.
			break
		}
	}

	return truncateList(FilterByYear(all, year), limit), nil
}

// FilterByYear keeps URLs whose path carries the year as /YYYY/ or -YYYY-.
func FilterByYear(urls []string, year int) []string {
	yearStr := strconv.Itoa(year)
	var out []string
	for _, u := range urls {
		if strings.Contains(u, "/"+yearStr+"/") || strings.Contains(u, "-"+yearStr+"-") {
			out = append(out, u)
		}
	}
	return out
}

func truncateList(urls []string, limit int) []string {
	if limit > 0 && len(urls) > limit {
		return urls[:limit]
	}
	return urls
}
