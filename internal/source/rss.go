// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/mmcdole/gofeed"
	"golang.org/x/time/rate"

	"github.com/meshintel/incident-scout/pkg/types"
)

// FeedSource fetches documents from one RSS/Atom feed.
type FeedSource struct {
	name    string
	url     string
	parser  *gofeed.Parser
	limiter *rate.Limiter
	pages   *PageFetcher // optional full-page body fetch

	sanitize *bluemonday.Policy
}

// NewFeedSource creates an RSS/Atom source. rps caps feed requests per
// second (<= 0 means 1). pages may be nil to use feed summaries as bodies.
func NewFeedSource(name, url, userAgent string, rps float64, pages *PageFetcher) *FeedSource {
	if rps <= 0 {
		rps = 1
	}
	parser := gofeed.NewParser()
	if userAgent != "" {
		parser.UserAgent = userAgent
	}
	return &FeedSource{
		name:     name,
		url:      url,
		parser:   parser,
		limiter:  rate.NewLimiter(rate.Limit(rps), 1),
		pages:    pages,
		sanitize: bluemonday.StrictPolicy(),
	}
}

// Name returns the configured source name.
func (s *FeedSource) Name() string { return s.name }

// Fetch parses the feed and converts items to documents. When a page
// fetcher is configured the item link is fetched for the full article text;
// a page failure falls back to the feed summary rather than dropping the
// item.
func (s *FeedSource) Fetch(ctx context.Context, _ string) ([]types.Document, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	feed, err := s.parser.ParseURLWithContext(s.url, ctx)
	if err != nil {
		return nil, fmt.Errorf("parsing feed %s: %w", s.url, err)
	}

	docs := make([]types.Document, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item.Link == "" {
			continue
		}

		doc := types.Document{
			URL:        item.Link,
			Title:      strings.TrimSpace(item.Title),
			SourceName: s.name,
		}
		if item.PublishedParsed != nil {
			doc.PublishedAt = *item.PublishedParsed
		} else if item.UpdatedParsed != nil {
			doc.PublishedAt = *item.UpdatedParsed
		}

		doc.Body = s.itemBody(ctx, item)
		if doc.Title == "" && doc.Body == "" {
			continue
		}

		docs = append(docs, doc)
	}
	return docs, nil
}

// itemBody picks the richest text available: the fetched article page when
// enabled, otherwise the feed's content or description with HTML stripped.
func (s *FeedSource) itemBody(ctx context.Context, item *gofeed.Item) string {
	if s.pages != nil {
		if text, err := s.pages.ArticleText(ctx, item.Link); err == nil && text != "" {
			return text
		}
	}

	raw := item.Content
	if raw == "" {
		raw = item.Description
	}
	return stripHTML(s.sanitize, raw)
}

// stripHTML removes all markup and unescapes entities, collapsing the
// whitespace the removal leaves behind.
func stripHTML(policy *bluemonday.Policy, raw string) string {
	text := html.UnescapeString(policy.Sanitize(raw))
	return strings.Join(strings.Fields(text), " ")
}
