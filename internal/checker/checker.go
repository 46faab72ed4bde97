package checker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/matheuskafuri/linkcheck/internal/policy"
)

// Checker runs link checks through a domain policy, a per-run cache, and a
// retry loop with exponential backoff.
type Checker struct {
	prober     Prober
	policy     *policy.Policy
	cache      *Cache
	stats      *Stats
	maxRetries int
	retryDelay time.Duration
	log        *zap.SugaredLogger
}

// Options configures a Checker.
type Options struct {
	Prober     Prober
	Policy     *policy.Policy
	Cache      *Cache
	Stats      *Stats
	MaxRetries int
	RetryDelay time.Duration
	Logger     *zap.SugaredLogger
}

func New(opts Options) *Checker {
	c := &Checker{
		prober:     opts.Prober,
		policy:     opts.Policy,
		cache:      opts.Cache,
		stats:      opts.Stats,
		maxRetries: opts.MaxRetries,
		retryDelay: opts.RetryDelay,
		log:        opts.Logger,
	}
	if c.policy == nil {
		c.policy = policy.New(nil, nil)
	}
	if c.cache == nil {
		c.cache = NewCache()
	}
	if c.stats == nil {
		c.stats = &Stats{}
	}
	if c.retryDelay <= 0 {
		c.retryDelay = time.Second
	}
	if c.log == nil {
		c.log = zap.NewNop().Sugar()
	}
	return c
}

// Cache returns the checker's link cache.
func (c *Checker) Cache() *Cache { return c.cache }

// Stats returns the checker's counters.
func (c *Checker) Stats() *Stats { return c.stats }

// CheckWithRetry classifies a single link. Policy verdicts and cached
// results short-circuit before any network traffic. Retryable failures are
// retried up to maxRetries times with a doubling delay.
func (c *Checker) CheckWithRetry(ctx context.Context, link string) Classification {
	switch c.policy.Decide(link) {
	case policy.AutoBroken:
		c.stats.AddAutoBroken()
		c.stats.AddBrokenLink()
		return Classification{Broken: true, Reason: "Known broken domain"}
	case policy.Skip:
		c.stats.AddLinkSkipped()
		return Classification{Reason: "Skipped (bot-blocking domain)"}
	}

	if cached, ok := c.cache.Lookup(link); ok {
		c.stats.AddCacheHit()
		return cached
	}

	c.stats.AddLinkChecked()

	delay := c.retryDelay
	lastReason := "Unknown"

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		outcome := c.prober.Probe(ctx, link)

		if !outcome.Broken {
			result := Classification{Reason: "OK"}
			c.cache.Store(link, result)
			return result
		}

		lastReason = outcome.Reason

		if !outcome.Retryable || attempt == c.maxRetries {
			break
		}

		c.stats.AddRetry()
		c.log.Debugf("retry %d/%d for %s (waiting %s)", attempt+1, c.maxRetries, link, delay)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			result := Classification{Broken: true, Reason: lastReason}
			c.cache.Store(link, result)
			c.stats.AddBrokenLink()
			return result
		}
		delay *= 2
	}

	result := Classification{Broken: true, Reason: lastReason}
	c.cache.Store(link, result)
	c.stats.AddBrokenLink()
	return result
}
