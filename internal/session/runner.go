// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package session

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"github.com/meshintel/incident-scout/internal/relevance"
	"github.com/meshintel/incident-scout/pkg/types"
)

// DocumentSource fetches candidate documents for a query phrase. It may
// return fewer documents than configured; per-source failures are handled
// inside the source layer and only a total failure surfaces as an error.
type DocumentSource interface {
	Fetch(ctx context.Context, phrase string) ([]types.Document, error)
}

// HintsProvider extracts coarse entity hints from document text. It must
// return an empty-but-valid result rather than failing on junk input.
type HintsProvider interface {
	ExtractHints(text string) types.EntityHints
}

// EventExtractor turns one document plus hints into a structured event.
// An error means the document is skipped, nothing more.
type EventExtractor interface {
	Extract(ctx context.Context, doc types.Document, hints types.EntityHints) (*types.Event, error)
}

// Archiver receives a terminal session's snapshot for durable export.
type Archiver interface {
	SaveSession(snapshot types.SessionSnapshot) error
}

// Runner drives sessions through the document loop. One Runner is shared
// across sessions; it holds no per-session state.
type Runner struct {
	source    DocumentSource
	hints     HintsProvider
	extractor EventExtractor
	matcher   *relevance.Matcher
	archive   Archiver // optional
	logger    *log.Logger
}

// NewRunner assembles a runner. archive may be nil to disable archiving;
// a nil logger disables diagnostics.
func NewRunner(source DocumentSource, hints HintsProvider, extractor EventExtractor, matcher *relevance.Matcher, archive Archiver, logger *log.Logger) *Runner {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Runner{
		source:    source,
		hints:     hints,
		extractor: extractor,
		matcher:   matcher,
		archive:   archive,
		logger:    logger,
	}
}

// Run executes one session to a terminal state. It is the session's single
// writer. Extraction calls are sequential: the inference backend has no
// concurrency headroom, and one call at a time keeps progress reporting and
// cancellation granularity exact.
func (r *Runner) Run(ctx context.Context, s *Session) {
	s.setProcessing()
	s.setProgress(0, 0, "fetching documents")

	docs, err := r.source.Fetch(ctx, s.Query().Phrase)
	if err != nil {
		r.logger.Error("document source failed", "session", s.ID(), "err", err)
		s.fail(fmt.Sprintf("document source: %v", err))
		return
	}
	if len(docs) == 0 {
		s.fail("document source returned no documents")
		return
	}

	total := len(docs)
	query := s.Query()

	for i, doc := range docs {
		// Cancellation is only observed here, at the document boundary.
		if s.CancelRequested() || ctx.Err() != nil {
			s.setProgress(i, total, "cancelled")
			s.cancel()
			r.finish(s)
			return
		}

		hints := r.hints.ExtractHints(doc.Title + "\n" + doc.Body)

		ev, err := r.extractor.Extract(ctx, doc, hints)
		if err != nil {
			// Skipped, not fatal: a failed document only reduces yield.
			r.logger.Warn("document skipped", "session", s.ID(), "url", doc.URL, "err", err)
			s.setProgress(i+1, total, fmt.Sprintf("skipped %s", doc.URL))
			continue
		}

		score := r.matcher.Score(*ev, query)
		s.appendEvent(types.ScoredEvent{Event: *ev, RelevanceScore: score})
		s.setProgress(i+1, total, fmt.Sprintf("extracted %s event from %s", ev.EventType, doc.SourceName))
	}

	s.setProgress(total, total, "done")
	s.complete()
	r.finish(s)
}

// finish archives a terminal session's events. Archive failures are logged,
// never propagated: the session result is already in memory.
func (r *Runner) finish(s *Session) {
	if r.archive == nil {
		return
	}
	if err := r.archive.SaveSession(s.Snapshot()); err != nil {
		r.logger.Warn("archiving session failed", "session", s.ID(), "err", err)
	}
}
