// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package extract turns one document plus entity hints into a structured
// incident Event via a single LLM call, with strict output validation and
// repair. Malformed model output is repaired where possible and the document
// is skipped where not; extraction never panics and never fails a session.
package extract

import (
	"context"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/meshintel/incident-scout/pkg/types"
)

// Body truncation window. Long articles are dominated by lede and
// conclusion; dropping the middle is an accepted lossy tradeoff.
const (
	bodyHeadChars = 1500
	bodyTailChars = 500
)

// maxSummaryChars bounds the Event summary field.
const maxSummaryChars = 800

// LLMBackend abstracts the text-generation API so tests can supply a mock.
// Generate sends one prompt and returns the raw generated text.
type LLMBackend interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Extractor builds prompts, calls the LLM backend, and assembles validated
// Events from its output.
type Extractor struct {
	backend    LLMBackend
	maxRetries int
	logger     *log.Logger
}

// New creates an Extractor. A nil logger disables diagnostics.
func New(backend LLMBackend, maxRetries int, logger *log.Logger) *Extractor {
	if maxRetries <= 0 {
		maxRetries = 2
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Extractor{backend: backend, maxRetries: maxRetries, logger: logger}
}

// Extract runs the full pipeline for one document: truncate, prompt, call,
// repair, validate, backfill. It returns nil and an error when the document
// should be skipped; the error is diagnostic, never fatal to the caller.
func (e *Extractor) Extract(ctx context.Context, doc types.Document, hints types.EntityHints) (*types.Event, error) {
	prompt, err := renderPrompt(doc, truncateBody(doc.Body), hints)
	if err != nil {
		return nil, fmt.Errorf("rendering prompt: %w", err)
	}

	raw, err := e.callWithRetry(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("llm call for %s: %w", doc.URL, err)
	}

	rev, ok := parseEvent(raw)
	if !ok {
		// Log the full raw payload for diagnosis; never fabricate an event
		// from an unparseable response.
		e.logger.Warn("unparseable model output", "url", doc.URL, "raw", raw)
		return nil, fmt.Errorf("unparseable model output for %s", doc.URL)
	}

	return e.assemble(rev, doc), nil
}

// backoffBase controls the base duration for exponential backoff. Tests
// override this to avoid real sleeps.
var backoffBase = time.Second

// callWithRetry calls the LLM backend with exponential backoff.
func (e *Extractor) callWithRetry(ctx context.Context, prompt string) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= e.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * backoffBase
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(backoff):
			}
		}

		raw, err := e.backend.Generate(ctx, prompt)
		if err == nil {
			return raw, nil
		}
		lastErr = err
	}
	return "", fmt.Errorf("after %d retries: %w", e.maxRetries, lastErr)
}

// truncateBody keeps the first bodyHeadChars and last bodyTailChars of the
// article text, joined with an ellipsis marker.
func truncateBody(body string) string {
	body = strings.TrimSpace(body)
	if len(body) <= bodyHeadChars+bodyTailChars {
		return body
	}
	return body[:bodyHeadChars] + "\n[...]\n" + body[len(body)-bodyTailChars:]
}

// assemble validates and normalizes the parsed model output into an Event,
// backfilling absent fields from the document.
func (e *Extractor) assemble(rev rawEvent, doc types.Document) *types.Event {
	ev := &types.Event{
		EventType:            normalizeEventType(rev.EventType),
		EventSubType:         strings.TrimSpace(rev.EventSubType),
		Title:                strings.TrimSpace(rev.Title),
		Summary:              truncateSummary(rev.Summary),
		Perpetrator:          strings.TrimSpace(rev.Perpetrator),
		Individuals:          cleanStrings(rev.Individuals),
		Organizations:        cleanStrings(rev.Organizations),
		SourceURL:            doc.URL,
		SourceName:           doc.SourceName,
		ArticlePublishedAt:   doc.PublishedAt,
		ExtractionConfidence: clampConfidence(rev.Confidence),
		CollectedAt:          time.Now().UTC(),
	}

	ev.PerpetratorType = normalizePerpetratorType(rev.PerpetratorType, ev.Perpetrator)

	ev.Location = types.Location{
		City:     strings.TrimSpace(rev.Location.City),
		Region:   strings.TrimSpace(rev.Location.Region),
		Country:  strings.TrimSpace(rev.Location.Country),
		FullText: strings.TrimSpace(rev.Location.FullText),
	}
	if ev.Location.FullText == "" {
		ev.Location.FullText = joinLocation(ev.Location)
	}

	ev.EventDate = parseEventDate(rev.EventDate)
	if ev.EventDate.IsZero() {
		ev.EventDate = doc.PublishedAt
	}
	ev.EventTime = strings.TrimSpace(rev.EventTime)

	if rev.Casualties != nil && (rev.Casualties.Killed != nil || rev.Casualties.Injured != nil) {
		ev.Casualties = &types.Casualties{
			Killed:  rev.Casualties.Killed,
			Injured: rev.Casualties.Injured,
		}
	}

	if ev.Title == "" {
		ev.Title = doc.Title
	}
	if ev.SourceName == "" {
		ev.SourceName = domainFromURL(doc.URL)
	}

	return ev
}

// cleanStrings trims entries and drops empties, preserving order.
func cleanStrings(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if t := strings.TrimSpace(s); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// truncateSummary caps the summary length, cutting at a word boundary where
// one is near.
func truncateSummary(s string) string {
	s = strings.TrimSpace(s)
	if len(s) <= maxSummaryChars {
		return s
	}
	cut := s[:maxSummaryChars]
	if idx := strings.LastIndex(cut, " "); idx > maxSummaryChars-80 {
		cut = cut[:idx]
	}
	return cut
}

// clampConfidence forces confidence into [0,1]. A missing value (zero) maps
// to 0.5: an unstated confidence is unknown, not zero.
func clampConfidence(c float64) float64 {
	if c == 0 {
		return 0.5
	}
	return math.Min(1, math.Max(0, c))
}

// joinLocation builds a full-text location from whatever levels are present.
func joinLocation(loc types.Location) string {
	var parts []string
	for _, p := range []string{loc.City, loc.Region, loc.Country} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}
