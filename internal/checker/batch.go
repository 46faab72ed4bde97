package checker

import (
	"context"
	"sync"
	"time"
)

// CheckBatch checks all links concurrently, bounded by concurrency, and
// returns the broken ones as report records in the order the links were
// given. A panicking check loses only that link's record.
func (c *Checker) CheckBatch(ctx context.Context, links []string, postTitle, postURL string, concurrency int, politeness time.Duration) []BrokenLink {
	if concurrency < 1 {
		concurrency = 1
	}

	results := make([]*Classification, len(links))
	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup

	for i, link := range links {
		wg.Add(1)
		go func(i int, link string) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					c.log.Warnf("unexpected error checking %s: %v", link, r)
				}
			}()

			sem <- struct{}{}
			defer func() { <-sem }()

			result := c.CheckWithRetry(ctx, link)
			// Small delay between requests to stay polite, taken while
			// still holding the concurrency slot.
			if politeness > 0 {
				select {
				case <-time.After(politeness):
				case <-ctx.Done():
				}
			}
			results[i] = &result
		}(i, link)
	}
	wg.Wait()

	var broken []BrokenLink
	for i, link := range links {
		result := results[i]
		if result == nil || !result.Broken {
			continue
		}
		if result.FromCache {
			c.log.Debugf("broken (cached): %s (%s)", link, result.Reason)
		} else {
			c.log.Debugf("broken: %s (%s)", link, result.Reason)
		}
		broken = append(broken, BrokenLink{
			PostTitle: postTitle,
			PostURL:   postURL,
			Link:      link,
			Reason:    result.Reason,
		})
	}
	return broken
}
