// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the incident-scout pipeline:
// documents scraped from configured sources, structured events extracted from
// them, queries, and the session records that tie one search run together.
package types

import "time"

// Document is one scraped article or post, produced by the document source
// layer. It is read-only after creation.
type Document struct {
	// URL is the canonical link to the article.
	URL string `json:"url" yaml:"url"`

	// Title is the article headline as published.
	Title string `json:"title" yaml:"title"`

	// Body is the raw article text after HTML stripping.
	Body string `json:"body" yaml:"body"`

	// PublishedAt is the publication timestamp, zero when the source did not
	// provide one.
	PublishedAt time.Time `json:"published_at,omitempty" yaml:"published_at,omitempty"`

	// SourceName identifies the configured source that produced the document.
	SourceName string `json:"source_name" yaml:"source_name"`
}

// EntityHints carries coarse named entities found in a document's text. They
// are consumed only as prompt context for extraction and are never persisted.
type EntityHints struct {
	Persons         []string `json:"persons"`
	Organizations   []string `json:"organizations"`
	Locations       []string `json:"locations"`
	DateExpressions []string `json:"date_expressions"`
}

// EventType classifies the incident described by an event. The vocabulary is
// closed: model output that does not match is normalized to EventOther.
type EventType string

const (
	EventProtest         EventType = "protest"
	EventAttack          EventType = "attack"
	EventBombing         EventType = "bombing"
	EventCyberAttack     EventType = "cyber_attack"
	EventAccident        EventType = "accident"
	EventNaturalDisaster EventType = "natural_disaster"
	EventConference      EventType = "conference"
	EventMeeting         EventType = "meeting"
	EventArrest          EventType = "arrest"
	EventTheft           EventType = "theft"
	EventOther           EventType = "other"
)

// EventTypes lists the closed event type vocabulary in prompt order.
var EventTypes = []EventType{
	EventProtest, EventAttack, EventBombing, EventCyberAttack, EventAccident,
	EventNaturalDisaster, EventConference, EventMeeting, EventArrest,
	EventTheft, EventOther,
}

// PerpetratorType classifies the actor behind an incident. Closed vocabulary;
// unmatched model output is normalized to PerpetratorUnknown.
type PerpetratorType string

const (
	PerpetratorTerroristGroup  PerpetratorType = "terrorist_group"
	PerpetratorStateActor      PerpetratorType = "state_actor"
	PerpetratorCriminalOrg     PerpetratorType = "criminal_organization"
	PerpetratorIndividual      PerpetratorType = "individual"
	PerpetratorMultipleParties PerpetratorType = "multiple_parties"
	PerpetratorUnknown         PerpetratorType = "unknown"
	PerpetratorNotApplicable   PerpetratorType = "not_applicable"
)

// PerpetratorTypes lists the closed perpetrator vocabulary in prompt order.
var PerpetratorTypes = []PerpetratorType{
	PerpetratorTerroristGroup, PerpetratorStateActor, PerpetratorCriminalOrg,
	PerpetratorIndividual, PerpetratorMultipleParties, PerpetratorUnknown,
	PerpetratorNotApplicable,
}

// Location is the place an event occurred, at whatever granularity the
// article supports. FullText always carries the location as written.
type Location struct {
	City     string `json:"city,omitempty" yaml:"city,omitempty"`
	Region   string `json:"region,omitempty" yaml:"region,omitempty"`
	Country  string `json:"country,omitempty" yaml:"country,omitempty"`
	FullText string `json:"full_text" yaml:"full_text"`
}

// Casualties holds the reported human cost of an event. Nil pointers mean the
// article did not report a figure, which is distinct from zero.
type Casualties struct {
	Killed  *int `json:"killed,omitempty" yaml:"killed,omitempty"`
	Injured *int `json:"injured,omitempty" yaml:"injured,omitempty"`
}

// Event is a structured incident record extracted from one Document. Events
// are created once by the extractor and immutable afterward.
type Event struct {
	// EventType is always a member of the closed vocabulary.
	EventType EventType `json:"event_type" yaml:"event_type"`

	// EventSubType is optional free text refining the type (e.g. "ransomware").
	EventSubType string `json:"event_sub_type,omitempty" yaml:"event_sub_type,omitempty"`

	// Title is a short headline for the event.
	Title string `json:"title" yaml:"title"`

	// Summary describes the event in at most ~800 characters.
	Summary string `json:"summary" yaml:"summary"`

	// Perpetrator names the responsible actor, empty when unattributed.
	Perpetrator     string          `json:"perpetrator,omitempty" yaml:"perpetrator,omitempty"`
	PerpetratorType PerpetratorType `json:"perpetrator_type,omitempty" yaml:"perpetrator_type,omitempty"`

	Location Location `json:"location" yaml:"location"`

	// EventDate is when the incident occurred (YYYY-MM-DD), zero if unknown.
	EventDate time.Time `json:"event_date,omitempty" yaml:"event_date,omitempty"`

	// EventTime is the time of day as written in the article (e.g. "09:30",
	// "early morning"), empty if not reported.
	EventTime string `json:"event_time,omitempty" yaml:"event_time,omitempty"`

	// Individuals and Organizations list named entities involved in the event.
	Individuals   []string `json:"individuals" yaml:"individuals"`
	Organizations []string `json:"organizations" yaml:"organizations"`

	Casualties *Casualties `json:"casualties,omitempty" yaml:"casualties,omitempty"`

	// SourceName and SourceURL identify the document the event came from.
	SourceName string `json:"source_name" yaml:"source_name"`
	SourceURL  string `json:"source_url" yaml:"source_url"`

	// ArticlePublishedAt is the source document's publication time.
	ArticlePublishedAt time.Time `json:"article_published_at,omitempty" yaml:"article_published_at,omitempty"`

	// ExtractionConfidence is the model's self-reported certainty in [0,1].
	ExtractionConfidence float64 `json:"extraction_confidence" yaml:"extraction_confidence"`

	// CollectedAt is when the pipeline processed the document. Always set.
	CollectedAt time.Time `json:"collected_at" yaml:"collected_at"`
}

// ScoredEvent pairs an Event with its relevance to a query. It is the
// ordering unit for ranked output.
type ScoredEvent struct {
	Event Event `json:"event" yaml:"event"`

	// RelevanceScore is in [0,1], higher is more relevant.
	RelevanceScore float64 `json:"relevance_score" yaml:"relevance_score"`
}
