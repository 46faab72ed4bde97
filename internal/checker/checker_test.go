package checker

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/matheuskafuri/linkcheck/internal/policy"
)

// scriptedProber returns a fixed sequence of outcomes and counts probes.
type scriptedProber struct {
	mu       sync.Mutex
	outcomes []Outcome
	calls    int
}

func (p *scriptedProber) Probe(ctx context.Context, link string) Outcome {
	p.mu.Lock()
	defer p.mu.Unlock()
	i := p.calls
	p.calls++
	if i >= len(p.outcomes) {
		return p.outcomes[len(p.outcomes)-1]
	}
	return p.outcomes[i]
}

func (p *scriptedProber) probeCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

func newTestChecker(p Prober, maxRetries int) *Checker {
	return New(Options{
		Prober:     p,
		MaxRetries: maxRetries,
		RetryDelay: time.Millisecond,
	})
}

func TestRetryUntilSuccess(t *testing.T) {
	p := &scriptedProber{outcomes: []Outcome{
		{Broken: true, Reason: "HTTP 500", Retryable: true},
		{Broken: true, Reason: "HTTP 500", Retryable: true},
		{Reason: "OK"},
	}}
	c := newTestChecker(p, 3)

	got := c.CheckWithRetry(context.Background(), "https://example.com/a")
	if got.Broken {
		t.Errorf("Broken = true, want false (reason %q)", got.Reason)
	}
	if p.probeCount() != 3 {
		t.Errorf("probes = %d, want 3", p.probeCount())
	}
	if s := c.Stats().Snapshot(); s.Retries != 2 {
		t.Errorf("Retries = %d, want 2", s.Retries)
	}
}

func TestNonRetryableFailsImmediately(t *testing.T) {
	p := &scriptedProber{outcomes: []Outcome{
		{Broken: true, Reason: "HTTP 404"},
	}}
	c := newTestChecker(p, 3)

	got := c.CheckWithRetry(context.Background(), "https://example.com/a")
	if !got.Broken || got.Reason != "HTTP 404" {
		t.Errorf("got %+v, want broken HTTP 404", got)
	}
	if p.probeCount() != 1 {
		t.Errorf("probes = %d, want 1", p.probeCount())
	}
	if s := c.Stats().Snapshot(); s.Retries != 0 || s.BrokenLinks != 1 {
		t.Errorf("stats = %+v", s)
	}
}

func TestRetriesExhausted(t *testing.T) {
	p := &scriptedProber{outcomes: []Outcome{
		{Broken: true, Reason: "Timeout", Retryable: true},
	}}
	c := newTestChecker(p, 2)

	got := c.CheckWithRetry(context.Background(), "https://example.com/a")
	if !got.Broken || got.Reason != "Timeout" {
		t.Errorf("got %+v, want broken Timeout", got)
	}
	// maxRetries=2 means 3 attempts total.
	if p.probeCount() != 3 {
		t.Errorf("probes = %d, want 3", p.probeCount())
	}
	if s := c.Stats().Snapshot(); s.Retries != 2 {
		t.Errorf("Retries = %d, want 2", s.Retries)
	}
}

func TestZeroRetriesMeansOneAttempt(t *testing.T) {
	p := &scriptedProber{outcomes: []Outcome{
		{Broken: true, Reason: "HTTP 500", Retryable: true},
	}}
	c := newTestChecker(p, 0)

	c.CheckWithRetry(context.Background(), "https://example.com/a")
	if p.probeCount() != 1 {
		t.Errorf("probes = %d, want 1", p.probeCount())
	}
}

func TestCacheShortCircuits(t *testing.T) {
	p := &scriptedProber{outcomes: []Outcome{
		{Broken: true, Reason: "HTTP 404"},
	}}
	c := newTestChecker(p, 3)

	first := c.CheckWithRetry(context.Background(), "https://example.com/a")
	second := c.CheckWithRetry(context.Background(), "https://example.com/a")

	if first.FromCache {
		t.Error("first result claims FromCache")
	}
	if !second.FromCache {
		t.Error("second result not FromCache")
	}
	if second.Broken != first.Broken || second.Reason != first.Reason {
		t.Errorf("cached result diverged: %+v vs %+v", second, first)
	}
	if p.probeCount() != 1 {
		t.Errorf("probes = %d, want 1", p.probeCount())
	}
	s := c.Stats().Snapshot()
	if s.CacheHits != 1 {
		t.Errorf("CacheHits = %d, want 1", s.CacheHits)
	}
	// Cached broken links count once.
	if s.BrokenLinks != 1 {
		t.Errorf("BrokenLinks = %d, want 1", s.BrokenLinks)
	}
}

func TestPolicyBypassesProbe(t *testing.T) {
	p := &scriptedProber{outcomes: []Outcome{{Reason: "OK"}}}
	c := New(Options{
		Prober:     p,
		Policy:     policy.New([]string{"wikipedia.org"}, []string{"dead.example.com"}),
		MaxRetries: 3,
		RetryDelay: time.Millisecond,
	})

	skip := c.CheckWithRetry(context.Background(), "https://en.wikipedia.org/wiki/Go")
	if skip.Broken || skip.Reason != "Skipped (bot-blocking domain)" {
		t.Errorf("skip result = %+v", skip)
	}

	broken := c.CheckWithRetry(context.Background(), "https://dead.example.com/x")
	if !broken.Broken || broken.Reason != "Known broken domain" {
		t.Errorf("broken result = %+v", broken)
	}

	if p.probeCount() != 0 {
		t.Errorf("probes = %d, want 0", p.probeCount())
	}
	s := c.Stats().Snapshot()
	if s.LinksSkipped != 1 || s.AutoBroken != 1 || s.BrokenLinks != 1 || s.LinksChecked != 0 {
		t.Errorf("stats = %+v", s)
	}
}

func TestContextCancelStopsRetries(t *testing.T) {
	p := &scriptedProber{outcomes: []Outcome{
		{Broken: true, Reason: "HTTP 503", Retryable: true},
	}}
	c := New(Options{
		Prober:     p,
		MaxRetries: 10,
		RetryDelay: time.Hour,
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	got := c.CheckWithRetry(ctx, "https://example.com/a")
	if time.Since(start) > time.Second {
		t.Fatal("cancelled check blocked on retry delay")
	}
	if !got.Broken || got.Reason != "HTTP 503" {
		t.Errorf("got %+v", got)
	}
}
