package discover

import (
	"context"
	"fmt"

	"github.com/mmcdole/gofeed"
)

// FromFeed pulls post URLs out of an RSS or Atom feed. Substack serves the
// most recent posts at <base>/feed. limit <= 0 means no limit.
func FromFeed(ctx context.Context, feedURL string, limit int) ([]string, error) {
	parser := gofeed.NewParser()
	feed, err := parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("parsing feed %s: %w", feedURL, err)
	}

	var urls []string
	for _, item := range feed.Items {
		if item.Link == "" {
			continue
		}
		urls = append(urls, item.Link)
		if limit > 0 && len(urls) == limit {
			break
		}
	}
	return urls, nil
}
