// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package session owns the per-search lifecycle: the state machine, the
// document-by-document run loop, progress reporting, and cooperative
// cancellation. One session is written by exactly one runner goroutine;
// status pollers and stream consumers only ever read snapshots, and an
// external cancel only ever sets a flag.
package session

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/meshintel/incident-scout/pkg/types"
)

// Session is the stateful record of one search run. Events are append-only
// while processing and retained in every terminal state, so a cancelled or
// partially-failed run still yields its partial results.
type Session struct {
	id        string
	query     types.Query
	createdAt time.Time

	// cancelRequested is the only field an external caller mutates. The
	// runner polls it at document boundaries.
	cancelRequested atomic.Bool

	mu       sync.RWMutex
	status   types.SessionStatus
	progress types.Progress
	events   []types.ScoredEvent
	errMsg   string
}

// New creates a session in the pending state.
func New(id string, query types.Query) *Session {
	return &Session{
		id:        id,
		query:     query,
		createdAt: time.Now().UTC(),
		status:    types.StatusPending,
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Query returns the immutable query this session was created for.
func (s *Session) Query() types.Query { return s.query }

// CreatedAt returns the session creation time.
func (s *Session) CreatedAt() time.Time { return s.createdAt }

// RequestCancel flags the session for cooperative cancellation. The flag is
// observed between documents: an in-flight extraction completes before the
// session stops. Safe to call from any goroutine, any number of times.
func (s *Session) RequestCancel() {
	s.cancelRequested.Store(true)
}

// CancelRequested reports whether a cancel has been requested.
func (s *Session) CancelRequested() bool {
	return s.cancelRequested.Load()
}

// Snapshot returns a consistent copy of the session's observable state.
// The events slice is copied so callers can hold it across appends.
func (s *Session) Snapshot() types.SessionSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	events := make([]types.ScoredEvent, len(s.events))
	copy(events, s.events)

	return types.SessionSnapshot{
		ID:        s.id,
		Query:     s.query,
		Status:    s.status,
		Progress:  s.progress,
		Events:    events,
		CreatedAt: s.createdAt,
		Error:     s.errMsg,
	}
}

// Status returns the current lifecycle state.
func (s *Session) Status() types.SessionStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// EventCount returns the number of events appended so far.
func (s *Session) EventCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.events)
}

// --- runner-side mutations ---

func (s *Session) setProcessing() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = types.StatusProcessing
}

func (s *Session) setProgress(current, total int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.progress = types.Progress{Current: current, Total: total, Message: message}
}

func (s *Session) appendEvent(ev types.ScoredEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
}

func (s *Session) complete() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = types.StatusCompleted
}

func (s *Session) cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = types.StatusCancelled
}

func (s *Session) fail(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = types.StatusError
	s.errMsg = msg
}
