// Package policy decides how a link's host should be treated before any
// network traffic happens: checked normally, skipped, or marked broken
// outright.
package policy

import (
	"net/url"
	"strings"
)

// Decision is the pre-check verdict for a link.
type Decision int

const (
	// None means the link gets a normal network check.
	None Decision = iota
	// Skip means the host blocks bots; the link is reported as skipped
	// without being fetched.
	Skip
	// AutoBroken means the host is known dead; the link is reported broken
	// without being fetched.
	AutoBroken
)

// Policy matches link hosts against skip and auto-broken domain lists.
type Policy struct {
	skip   []string
	broken []string
}

// New builds a Policy. Domains are matched case-insensitively as suffixes,
// so "wikipedia.org" covers "en.wikipedia.org".
func New(skipDomains, brokenDomains []string) *Policy {
	return &Policy{
		skip:   normalize(skipDomains),
		broken: normalize(brokenDomains),
	}
}

func normalize(domains []string) []string {
	out := make([]string, 0, len(domains))
	for _, d := range domains {
		d = strings.ToLower(strings.TrimSpace(d))
		if d != "" {
			out = append(out, d)
		}
	}
	return out
}

// Decide returns the verdict for rawURL. Auto-broken takes precedence over
// skip when a host appears in both lists. URLs that cannot be parsed get
// None; the checker will surface the failure itself.
func (p *Policy) Decide(rawURL string) Decision {
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return None
	}
	host := strings.ToLower(u.Hostname())

	if matchesAny(host, p.broken) {
		return AutoBroken
	}
	if matchesAny(host, p.skip) {
		return Skip
	}
	return None
}

func matchesAny(host string, domains []string) bool {
	for _, d := range domains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}
