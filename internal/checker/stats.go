package checker

import "sync"

// Stats counts what happened during a run. Safe for concurrent use.
type Stats struct {
	mu           sync.Mutex
	postsChecked int
	postsSkipped int
	linksChecked int
	linksSkipped int
	autoBroken   int
	cacheHits    int
	retries      int
	brokenLinks  int
}

// Snapshot is a point-in-time copy of the counters.
type Snapshot struct {
	PostsChecked int
	PostsSkipped int
	LinksChecked int
	LinksSkipped int
	AutoBroken   int
	CacheHits    int
	Retries      int
	BrokenLinks  int
}

func (s *Stats) AddPostChecked() { s.add(&s.postsChecked) }
func (s *Stats) AddPostSkipped() { s.add(&s.postsSkipped) }
func (s *Stats) AddLinkChecked() { s.add(&s.linksChecked) }
func (s *Stats) AddLinkSkipped() { s.add(&s.linksSkipped) }
func (s *Stats) AddAutoBroken()  { s.add(&s.autoBroken) }
func (s *Stats) AddCacheHit()    { s.add(&s.cacheHits) }
func (s *Stats) AddRetry()       { s.add(&s.retries) }
func (s *Stats) AddBrokenLink()  { s.add(&s.brokenLinks) }

func (s *Stats) add(field *int) {
	s.mu.Lock()
	*field++
	s.mu.Unlock()
}

func (s *Stats) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		PostsChecked: s.postsChecked,
		PostsSkipped: s.postsSkipped,
		LinksChecked: s.linksChecked,
		LinksSkipped: s.linksSkipped,
		AutoBroken:   s.autoBroken,
		CacheHits:    s.cacheHits,
		Retries:      s.retries,
		BrokenLinks:  s.brokenLinks,
	}
}
