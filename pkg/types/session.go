// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// SessionStatus is the lifecycle state of one search session.
type SessionStatus string

const (
	// StatusPending means the session exists but no work has started.
	StatusPending SessionStatus = "pending"

	// StatusProcessing means the run loop is iterating documents.
	StatusProcessing SessionStatus = "processing"

	// StatusCompleted means document iteration exhausted normally. Terminal.
	StatusCompleted SessionStatus = "completed"

	// StatusCancelled means a cancel request was observed between documents.
	// Events appended before cancellation are retained. Terminal.
	StatusCancelled SessionStatus = "cancelled"

	// StatusError means an orchestration-level failure (the source layer
	// failed or returned nothing). Per-document extraction failures never
	// produce this state. Terminal.
	StatusError SessionStatus = "error"
)

// IsTerminal reports whether the status is a final state.
func (s SessionStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled || s == StatusError
}

// Progress reports how far a session's document loop has advanced.
type Progress struct {
	// Current is the number of documents processed so far.
	Current int `json:"current" yaml:"current"`

	// Total is the number of documents the source layer returned.
	Total int `json:"total" yaml:"total"`

	// Message is a short human-readable description of the current step.
	Message string `json:"message" yaml:"message"`
}

// SessionSnapshot is a consistent read of a session's observable state,
// served to status pollers and stream consumers.
type SessionSnapshot struct {
	ID        string        `json:"id" yaml:"id"`
	Query     Query         `json:"query" yaml:"query"`
	Status    SessionStatus `json:"status" yaml:"status"`
	Progress  Progress      `json:"progress" yaml:"progress"`
	Events    []ScoredEvent `json:"events" yaml:"events"`
	CreatedAt time.Time     `json:"created_at" yaml:"created_at"`

	// Error describes the orchestration failure when Status is StatusError.
	Error string `json:"error,omitempty" yaml:"error,omitempty"`
}
