// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// Query holds the user's search parameters. A Query is immutable for the
// lifetime of its session.
type Query struct {
	// Phrase is the free-text search phrase (e.g. "protest in Mumbai").
	Phrase string `json:"phrase" yaml:"phrase"`

	// Location optionally narrows results to a place; matched against each
	// granularity level of an event's location independently.
	Location string `json:"location,omitempty" yaml:"location,omitempty"`

	// EventType optionally filters by incident type. Empty means no filter.
	EventType EventType `json:"event_type,omitempty" yaml:"event_type,omitempty"`

	// DateFrom and DateTo bound the event date range. Zero values mean
	// unbounded on that side.
	DateFrom time.Time `json:"date_from,omitempty" yaml:"date_from,omitempty"`
	DateTo   time.Time `json:"date_to,omitempty" yaml:"date_to,omitempty"`

	// MinRelevance is the score threshold for ranked output (default 0.3).
	// Events below it stay in the session but are excluded from results.
	MinRelevance float64 `json:"min_relevance" yaml:"min_relevance"`

	// MaxResults caps the ranked output (default 50).
	MaxResults int `json:"max_results" yaml:"max_results"`
}

// IsEmpty reports whether the query contains no searchable terms.
func (q Query) IsEmpty() bool {
	return q.Phrase == "" && q.Location == "" && q.EventType == ""
}

// HasDateRange reports whether at least one side of the date range is set.
func (q Query) HasDateRange() bool {
	return !q.DateFrom.IsZero() || !q.DateTo.IsZero()
}
