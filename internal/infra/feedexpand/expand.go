// Package feedexpand expands an RSS/Atom feed into its item links, for
// seed entries that opt into Expand (§4.1, Open Question 1) instead of
// being fetched directly. Grounded on
// hoanghai1803-apricot/internal/feeds.Fetcher's gofeed.Parser usage.
package feedexpand

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"
)

// Expander turns a feed URL into the article links it lists.
type Expander struct {
	parser *gofeed.Parser
}

// New builds an Expander with an HTTP client timeout suited to a single
// feed fetch, distinct from C1's per-page fetch timeout.
func New() *Expander {
	fp := gofeed.NewParser()
	fp.Client = &http.Client{Timeout: 15 * time.Second}
	return &Expander{parser: fp}
}

// Expand parses feedURL and returns every item's link, in feed order
// (newest first for most RSS/Atom feeds). An item with no link is skipped.
func (e *Expander) Expand(ctx context.Context, feedURL string) ([]string, error) {
	feed, err := e.parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("parsing feed %q: %w", feedURL, err)
	}

	urls := make([]string, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item.Link == "" {
			continue
		}
		urls = append(urls, item.Link)
	}
	return urls, nil
}
