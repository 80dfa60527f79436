// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package source discovers candidate documents for a query from configured
// news feeds. It fans out across sources concurrently, tolerates per-source
// failure, and returns a deduplicated, recency-ordered document list.
package source

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/charmbracelet/log"

	"github.com/meshintel/incident-scout/pkg/types"
)

// Source fetches documents from one configured feed or endpoint.
type Source interface {
	Name() string
	Fetch(ctx context.Context, phrase string) ([]types.Document, error)
}

// Fetcher aggregates documents across sources. It implements the document
// source contract the session runner consumes.
type Fetcher struct {
	sources []Source
	maxDocs int
	logger  *log.Logger
}

// NewFetcher creates a fetcher over the given sources. maxDocs <= 0 means
// the default cap of 30; a nil logger disables diagnostics.
func NewFetcher(sources []Source, maxDocs int, logger *log.Logger) *Fetcher {
	if maxDocs <= 0 {
		maxDocs = 30
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Fetcher{sources: sources, maxDocs: maxDocs, logger: logger}
}

// Fetch queries all sources concurrently and merges their documents. A
// failing source is logged and skipped; Fetch errors only when no source
// was configured or every source failed. The result is deduplicated by URL
// and normalized title, filtered to the query phrase's keywords, sorted
// newest first, and capped.
func (f *Fetcher) Fetch(ctx context.Context, phrase string) ([]types.Document, error) {
	if len(f.sources) == 0 {
		return nil, fmt.Errorf("no sources configured")
	}

	type sourceResult struct {
		docs []types.Document
		err  error
		name string
	}

	ch := make(chan sourceResult, len(f.sources))
	var wg sync.WaitGroup

	for _, s := range f.sources {
		wg.Add(1)
		go func(s Source) {
			defer wg.Done()
			docs, err := s.Fetch(ctx, phrase)
			ch <- sourceResult{docs: docs, err: err, name: s.Name()}
		}(s)
	}

	go func() {
		wg.Wait()
		close(ch)
	}()

	var all []types.Document
	failed := 0
	for sr := range ch {
		if sr.err != nil {
			failed++
			f.logger.Warn("source failed", "source", sr.name, "err", sr.err)
			continue
		}
		all = append(all, sr.docs...)
	}

	if failed == len(f.sources) {
		return nil, fmt.Errorf("all %d sources failed", failed)
	}

	docs := deduplicate(all)
	docs = filterByPhrase(docs, phrase)

	sort.SliceStable(docs, func(i, j int) bool {
		return docs[i].PublishedAt.After(docs[j].PublishedAt)
	})

	if len(docs) > f.maxDocs {
		docs = docs[:f.maxDocs]
	}
	return docs, nil
}

// deduplicate drops documents that share a URL or a normalized title.
func deduplicate(docs []types.Document) []types.Document {
	seen := make(map[string]bool)
	var out []types.Document

	for _, d := range docs {
		urlKey := "url:" + d.URL
		titleKey := "title:" + normalizeTitle(d.Title)
		if seen[urlKey] || (titleKey != "title:" && seen[titleKey]) {
			continue
		}
		seen[urlKey] = true
		if titleKey != "title:" {
			seen[titleKey] = true
		}
		out = append(out, d)
	}
	return out
}

// normalizeTitle returns a lowercased, punctuation-stripped version of the
// title for dedup keying.
func normalizeTitle(title string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(title) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// queryStopWords are excluded when matching documents against the phrase.
var queryStopWords = map[string]bool{
	"a": true, "an": true, "and": true, "at": true, "by": true, "for": true,
	"from": true, "in": true, "of": true, "on": true, "or": true,
	"the": true, "to": true, "with": true,
}

// filterByPhrase keeps documents whose title or body contains at least one
// keyword of the phrase. An empty phrase keeps everything: feed sources
// cannot search server-side, so the filter is the query's only pre-screen.
func filterByPhrase(docs []types.Document, phrase string) []types.Document {
	var keywords []string
	for _, w := range strings.Fields(strings.ToLower(phrase)) {
		w = strings.Trim(w, ".,;:!?\"'")
		if w != "" && !queryStopWords[w] {
			keywords = append(keywords, w)
		}
	}
	if len(keywords) == 0 {
		return docs
	}

	var out []types.Document
	for _, d := range docs {
		text := strings.ToLower(d.Title + " " + d.Body)
		for _, kw := range keywords {
			if strings.Contains(text, kw) {
				out = append(out, d)
				break
			}
		}
	}
	return out
}
