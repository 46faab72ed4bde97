// Package extract fetches a post page and pulls out its title and the links
// worth checking.
package extract

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

var contentClassRe = regexp.MustCompile(`post|article|content`)

// Extractor fetches posts and extracts their outbound links.
type Extractor struct {
	Client    *http.Client
	UserAgent string
	Timeout   time.Duration
}

func New(client *http.Client, userAgent string, timeout time.Duration) *Extractor {
	if client == nil {
		client = http.DefaultClient
	}
	return &Extractor{Client: client, UserAgent: userAgent, Timeout: timeout}
}

// Post fetches postURL and returns its title plus the deduplicated links in
// document order. Anchors, mailto/tel links, and Substack subscribe, comment
// and share links are dropped; relative links are resolved against the post.
func (e *Extractor) Post(ctx context.Context, postURL string) (string, []string, error) {
	if e.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, postURL, nil)
	if err != nil {
		return "", nil, fmt.Errorf("building request for %s: %w", postURL, err)
	}
	if e.UserAgent != "" {
		req.Header.Set("User-Agent", e.UserAgent)
	}

	resp, err := e.Client.Do(req)
	if err != nil {
		return "", nil, fmt.Errorf("fetching post %s: %w", postURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", nil, fmt.Errorf("fetching post %s: HTTP %d", postURL, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", nil, fmt.Errorf("parsing post %s: %w", postURL, err)
	}

	title := pageTitle(doc)
	links := Links(doc, postURL)
	return title, links, nil
}

func pageTitle(doc *goquery.Document) string {
	if t := strings.TrimSpace(doc.Find("h1").First().Text()); t != "" {
		return t
	}
	if t := strings.TrimSpace(doc.Find("title").First().Text()); t != "" {
		return t
	}
	return "Unknown Title"
}

// Links pulls checkable links out of doc. The post's content area is
// preferred over the whole page so navigation chrome is ignored.
func Links(doc *goquery.Document, postURL string) []string {
	scope := doc.Find("article").First()
	if scope.Length() == 0 {
		scope = doc.Find("div").FilterFunction(func(_ int, s *goquery.Selection) bool {
			class, _ := s.Attr("class")
			return contentClassRe.MatchString(class)
		}).First()
	}

	var anchors *goquery.Selection
	if scope.Length() > 0 {
		anchors = scope.Find("a[href]")
	} else {
		anchors = doc.Find("a[href]")
	}

	base, _ := url.Parse(postURL)

	seen := make(map[string]bool)
	var links []string
	anchors.Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		link, ok := normalizeLink(href, base)
		if !ok || seen[link] {
			return
		}
		seen[link] = true
		links = append(links, link)
	})
	return links
}

func normalizeLink(href string, base *url.URL) (string, bool) {
	if href == "" || strings.HasPrefix(href, "#") ||
		strings.HasPrefix(href, "mailto:") || strings.HasPrefix(href, "tel:") {
		return "", false
	}

	// Substack's own subscribe/comment/share links are plumbing, not
	// content.
	if strings.Contains(href, "substack.com") {
		for _, frag := range []string{"/subscribe", "/comments", "/share"} {
			if strings.Contains(href, frag) {
				return "", false
			}
		}
	}

	if strings.HasPrefix(href, "/") || !strings.HasPrefix(href, "http") {
		if base == nil {
			return "", false
		}
		ref, err := url.Parse(href)
		if err != nil {
			return "", false
		}
		return base.ResolveReference(ref).String(), true
	}
	return href, true
}
