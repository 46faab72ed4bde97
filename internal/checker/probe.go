package checker

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// Outcome is the result of a single probe attempt, before any retry logic.
type Outcome struct {
	Broken    bool
	Reason    string
	Retryable bool
}

// Prober performs a single link check. The checker layers retries, caching,
// and policy on top.
type Prober interface {
	Probe(ctx context.Context, link string) Outcome
}

// Phrases in a page title that indicate the server returned an error page
// with a 200 status.
var soft404Phrases = []string{
	"404 error", "page not found", "not found", "404",
	"page doesn't exist", "page does not exist",
	"no longer available", "has been removed",
	"couldn't find", "could not find",
}

// titleReadLimit caps how much of a response body is read when looking for
// the page title.
const titleReadLimit = 1 << 20

// HTTPProber checks links with GET requests and classifies the response.
type HTTPProber struct {
	Client    *http.Client
	UserAgent string
	Timeout   time.Duration
	// Overrides maps a hostname to a fixed broken reason, bypassing the
	// network entirely.
	Overrides map[string]string
}

// NewHTTPProber builds a prober with a transport tuned for many short
// requests against distinct hosts.
func NewHTTPProber(timeout time.Duration, userAgent string, overrides map[string]string) *HTTPProber {
	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     30 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}
	return &HTTPProber{
		Client:    &http.Client{Transport: transport},
		UserAgent: userAgent,
		Timeout:   timeout,
		Overrides: overrides,
	}
}

// Probe fetches link once and classifies the result. Server errors and
// timeouts are retryable; 404s, other client errors, TLS and DNS failures
// are not.
func (p *HTTPProber) Probe(ctx context.Context, link string) Outcome {
	if reason, ok := p.override(link); ok {
		return Outcome{Broken: true, Reason: reason}
	}

	timeout := p.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return Outcome{Broken: true, Reason: "Unknown Error: " + truncate(err.Error())}
	}
	req.Header.Set("User-Agent", p.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := p.Client.Do(req)
	if err != nil {
		return classifyError(err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return Outcome{Broken: true, Reason: "HTTP 404"}
	case resp.StatusCode >= 500:
		return Outcome{Broken: true, Reason: fmt.Sprintf("HTTP %d", resp.StatusCode), Retryable: true}
	case resp.StatusCode >= 400:
		return Outcome{Broken: true, Reason: fmt.Sprintf("HTTP %d", resp.StatusCode)}
	}

	if isSoft404(resp.Body) {
		return Outcome{Broken: true, Reason: "Soft 404 (page title indicates error)"}
	}
	return Outcome{Reason: "OK"}
}

func (p *HTTPProber) override(link string) (string, bool) {
	if len(p.Overrides) == 0 {
		return "", false
	}
	u, err := url.Parse(link)
	if err != nil {
		return "", false
	}
	reason, ok := p.Overrides[strings.ToLower(u.Hostname())]
	return reason, ok
}

// isSoft404 reads the page title and matches it against known error-page
// phrases. Unparseable bodies are assumed OK.
func isSoft404(body io.Reader) bool {
	doc, err := goquery.NewDocumentFromReader(io.LimitReader(body, titleReadLimit))
	if err != nil {
		return false
	}
	title := strings.ToLower(doc.Find("title").First().Text())
	if title == "" {
		return false
	}
	for _, phrase := range soft404Phrases {
		if strings.Contains(title, phrase) {
			return true
		}
	}
	return false
}

// classifyError maps a transport error to a broken outcome. DNS and TLS
// failures are permanent; timeouts and connection resets may be transient.
func classifyError(err error) Outcome {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return Outcome{Broken: true, Reason: "DNS Failure"}
	}

	var certErr *tls.CertificateVerificationError
	var recordErr tls.RecordHeaderError
	var hostErr x509.HostnameError
	var unknownAuthErr x509.UnknownAuthorityError
	if errors.As(err, &certErr) || errors.As(err, &recordErr) ||
		errors.As(err, &hostErr) || errors.As(err, &unknownAuthErr) {
		return Outcome{Broken: true, Reason: "SSL Error: " + truncate(err.Error())}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return Outcome{Broken: true, Reason: "Timeout", Retryable: true}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return Outcome{Broken: true, Reason: "Timeout", Retryable: true}
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return Outcome{Broken: true, Reason: "Connection Error: " + truncate(err.Error()), Retryable: true}
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return Outcome{Broken: true, Reason: "Client Error: " + truncate(err.Error()), Retryable: true}
	}

	return Outcome{Broken: true, Reason: "Unknown Error: " + truncate(err.Error())}
}

func truncate(s string) string {
	if len(s) > 80 {
		return s[:80]
	}
	return s
}
