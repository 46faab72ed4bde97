package checker

import "sync"

// Cache remembers link verdicts for the duration of a run so a link shared
// by many posts is only fetched once.
type Cache struct {
	mu      sync.Mutex
	results map[string]Classification
}

func NewCache() *Cache {
	return &Cache{results: make(map[string]Classification)}
}

// Lookup returns the cached verdict for link, marked FromCache.
func (c *Cache) Lookup(link string) (Classification, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.results[link]
	if !ok {
		return Classification{}, false
	}
	r.FromCache = true
	return r, true
}

// Store records the verdict for link, overwriting any previous entry.
func (c *Cache) Store(link string, result Classification) {
	c.mu.Lock()
	defer c.mu.Unlock()
	result.FromCache = false
	c.results[link] = result
}

// Contains reports whether link already has a cached verdict.
func (c *Cache) Contains(link string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.results[link]
	return ok
}

// Len returns the number of cached links.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.results)
}
