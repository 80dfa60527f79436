// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package server exposes the search pipeline over HTTP: create a search,
// poll its status and ranked events, stream incremental results, cancel.
// It is a thin adapter over the registry and runner; all search semantics
// live below it.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/meshintel/incident-scout/internal/registry"
	"github.com/meshintel/incident-scout/internal/relevance"
	"github.com/meshintel/incident-scout/internal/session"
	"github.com/meshintel/incident-scout/pkg/types"
)

// defaultStreamInterval is how often the SSE handler polls a session for
// new events.
const defaultStreamInterval = 500 * time.Millisecond

// defaultMaxResults caps ranked output when the request does not.
const defaultMaxResults = 50

// Server wires the HTTP surface to the search core.
type Server struct {
	registry *registry.Registry
	runner   *session.Runner
	matcher  *relevance.Matcher
	logger   *log.Logger

	// baseCtx parents every search run, so searches outlive their creating
	// request but stop on shutdown.
	baseCtx context.Context

	streamInterval time.Duration
}

// New creates a server. baseCtx bounds the lifetime of search runs; a nil
// logger disables diagnostics.
func New(baseCtx context.Context, reg *registry.Registry, runner *session.Runner, matcher *relevance.Matcher, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Server{
		registry:       reg,
		runner:         runner,
		matcher:        matcher,
		logger:         logger,
		baseCtx:        baseCtx,
		streamInterval: defaultStreamInterval,
	}
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Route("/api/searches", func(r chi.Router) {
		r.Post("/", s.handleCreate)
		r.Get("/{id}", s.handleGet)
		r.Get("/{id}/events", s.handleStream)
		r.Delete("/{id}", s.handleCancel)
	})
	return r
}

// createRequest is the POST /api/searches body.
type createRequest struct {
	Phrase       string  `json:"phrase"`
	Location     string  `json:"location"`
	EventType    string  `json:"event_type"`
	DateFrom     string  `json:"date_from"`
	DateTo       string  `json:"date_to"`
	MinRelevance float64 `json:"min_relevance"`
	MaxResults   int     `json:"max_results"`
}

// toQuery validates and converts the request body.
func (cr createRequest) toQuery() (types.Query, error) {
	q := types.Query{
		Phrase:       cr.Phrase,
		Location:     cr.Location,
		MinRelevance: cr.MinRelevance,
		MaxResults:   cr.MaxResults,
	}
	if q.MaxResults <= 0 {
		q.MaxResults = defaultMaxResults
	}

	if cr.EventType != "" {
		et := types.EventType(cr.EventType)
		valid := false
		for _, t := range types.EventTypes {
			if et == t {
				valid = true
				break
			}
		}
		if !valid {
			return q, fmt.Errorf("unknown event_type %q", cr.EventType)
		}
		q.EventType = et
	}

	var err error
	if cr.DateFrom != "" {
		if q.DateFrom, err = time.Parse("2006-01-02", cr.DateFrom); err != nil {
			return q, fmt.Errorf("invalid date_from: %v", err)
		}
	}
	if cr.DateTo != "" {
		if q.DateTo, err = time.Parse("2006-01-02", cr.DateTo); err != nil {
			return q, fmt.Errorf("invalid date_to: %v", err)
		}
	}

	if q.IsEmpty() {
		return q, fmt.Errorf("query is empty: provide a phrase, location, or event_type")
	}
	return q, nil
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var cr createRequest
	if err := json.NewDecoder(r.Body).Decode(&cr); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	query, err := cr.toQuery()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	sess := s.registry.Create(query)
	go s.runner.Run(s.baseCtx, sess)

	s.logger.Info("search created", "session", sess.ID(), "phrase", query.Phrase)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]string{"id": sess.ID()})
}

// searchResponse is the GET /api/searches/{id} body: the snapshot with the
// event list ranked and thresholded for presentation.
type searchResponse struct {
	ID       string              `json:"id"`
	Status   types.SessionStatus `json:"status"`
	Progress types.Progress      `json:"progress"`
	Events   []types.ScoredEvent `json:"events"`
	Error    string              `json:"error,omitempty"`
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}

	snap := sess.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(searchResponse{
		ID:       snap.ID,
		Status:   snap.Status,
		Progress: snap.Progress,
		Events:   s.rankSnapshot(snap),
		Error:    snap.Error,
	})
}

// rankSnapshot re-ranks the session's stored events for presentation. The
// stored list keeps everything; the threshold only shapes the response.
func (s *Server) rankSnapshot(snap types.SessionSnapshot) []types.ScoredEvent {
	events := make([]types.Event, len(snap.Events))
	for i, se := range snap.Events {
		events[i] = se.Event
	}
	ranked := s.matcher.Rank(events, snap.Query, s.matcher.MinRelevance(snap.Query))
	if ranked == nil {
		ranked = []types.ScoredEvent{}
	}
	return ranked
}

// handleStream pushes incremental results as server-sent events: one
// "event" message per new above-threshold event, then a "done" message
// carrying the terminal status.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}

	flusher, canFlush := w.(http.Flusher)
	if !canFlush {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	threshold := s.matcher.MinRelevance(sess.Query())
	sent := 0

	ticker := time.NewTicker(s.streamInterval)
	defer ticker.Stop()

	for {
		snap := sess.Snapshot()

		// The snapshot's event list is append-only: everything past the
		// high-water mark is new.
		for _, se := range snap.Events[sent:] {
			sent++
			if se.RelevanceScore < threshold {
				continue
			}
			payload, err := json.Marshal(se)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "event: event\ndata: %s\n\n", payload)
		}
		flusher.Flush()

		if snap.Status.IsTerminal() {
			fmt.Fprintf(w, "event: done\ndata: {\"status\": %q}\n\n", snap.Status)
			flusher.Flush()
			return
		}

		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.registry.RequestCancel(id); err != nil {
		if errors.Is(err, registry.ErrNotFound) {
			writeError(w, http.StatusNotFound, "session not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.logger.Info("cancel requested", "session", id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	id := chi.URLParam(r, "id")
	sess, err := s.registry.Get(id)
	if err != nil {
		writeError(w, http.StatusNotFound, "session not found")
		return nil, false
	}
	return sess, true
}

func writeError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
