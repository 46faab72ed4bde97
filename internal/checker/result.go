// Package checker verifies links over HTTP with retries, caching, and
// domain policy applied before any network traffic.
package checker

// Classification is the verdict for a single link.
type Classification struct {
	Broken    bool
	Reason    string
	FromCache bool
}

// BrokenLink is one row of the final report: a broken link and the post it
// was found in.
type BrokenLink struct {
	PostTitle string
	PostURL   string
	Link      string
	Reason    string
}
