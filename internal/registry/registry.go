// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package registry is the process-wide table of active and recent search
// sessions. It owns session creation, lookup, cancel routing, and bounded
// retention; it never mutates a session's results, only its membership in
// the table. Nothing is persisted across restarts.
package registry

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/meshintel/incident-scout/internal/session"
	"github.com/meshintel/incident-scout/pkg/types"
)

// ErrNotFound is returned for lookups of unknown or evicted sessions.
var ErrNotFound = errors.New("session not found")

const (
	defaultRetention     = time.Hour
	defaultEvictInterval = 5 * time.Minute
)

// Registry maps session ids to sessions. Safe for concurrent use: the table
// lock covers membership only, each session guards its own state.
type Registry struct {
	retention     time.Duration
	evictInterval time.Duration

	mu       sync.RWMutex
	sessions map[string]*session.Session
}

// New creates a registry with the configured retention window. Zero values
// fall back to the defaults (1h retention, 5m sweep).
func New(cfg types.SessionConfig) *Registry {
	retention := cfg.Retention
	if retention <= 0 {
		retention = defaultRetention
	}
	interval := cfg.EvictInterval
	if interval <= 0 {
		interval = defaultEvictInterval
	}
	return &Registry{
		retention:     retention,
		evictInterval: interval,
		sessions:      make(map[string]*session.Session),
	}
}

// Create registers a new pending session for the query and returns it.
func (r *Registry) Create(query types.Query) *session.Session {
	s := session.New(uuid.NewString(), query)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.ID()] = s
	return s
}

// Get returns the session with the given id, or ErrNotFound.
func (r *Registry) Get(id string) (*session.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return s, nil
}

// RequestCancel flags the session for cooperative cancellation. Cancelling
// an already-terminal session is a no-op, not an error.
func (r *Registry) RequestCancel(id string) error {
	s, err := r.Get(id)
	if err != nil {
		return err
	}
	s.RequestCancel()
	return nil
}

// Len returns the number of registered sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// EvictExpired removes sessions older than the retention window, regardless
// of state, and returns how many were removed. Still-running expired
// sessions are flagged for cancellation as they go.
func (r *Registry) EvictExpired() int {
	cutoff := time.Now().Add(-r.retention)

	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for id, s := range r.sessions {
		if s.CreatedAt().Before(cutoff) {
			s.RequestCancel()
			delete(r.sessions, id)
			removed++
		}
	}
	return removed
}

// EvictLoop sweeps expired sessions on the configured interval until the
// context is cancelled. Run it in its own goroutine.
func (r *Registry) EvictLoop(ctx context.Context) {
	ticker := time.NewTicker(r.evictInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.EvictExpired()
		}
	}
}
