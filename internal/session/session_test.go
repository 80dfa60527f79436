// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package session

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/meshintel/incident-scout/internal/relevance"
	"github.com/meshintel/incident-scout/pkg/types"
)

// --- mocks ---

type mockSource struct {
	docs []types.Document
	err  error
}

func (m *mockSource) Fetch(_ context.Context, _ string) ([]types.Document, error) {
	return m.docs, m.err
}

type mockHints struct{}

func (mockHints) ExtractHints(_ string) types.EntityHints { return types.EntityHints{} }

// mockExtractor yields one protest event per document, optionally failing
// specific documents and optionally cancelling the session mid-run.
type mockExtractor struct {
	failURLs map[string]bool

	// cancelAfter requests cancellation on the session once this many
	// extractions have run. Zero disables.
	cancelAfter int
	session     *Session

	mu    sync.Mutex
	calls int
}

func (m *mockExtractor) Extract(_ context.Context, doc types.Document, _ types.EntityHints) (*types.Event, error) {
	m.mu.Lock()
	m.calls++
	calls := m.calls
	m.mu.Unlock()

	if m.cancelAfter > 0 && calls == m.cancelAfter {
		m.session.RequestCancel()
	}
	if m.failURLs[doc.URL] {
		return nil, fmt.Errorf("unparseable model output for %s", doc.URL)
	}
	return &types.Event{
		EventType:            types.EventProtest,
		Title:                doc.Title,
		SourceURL:            doc.URL,
		ExtractionConfidence: 0.9,
	}, nil
}

type mockArchive struct {
	mu    sync.Mutex
	saved []types.SessionSnapshot
}

func (m *mockArchive) SaveSession(snap types.SessionSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved = append(m.saved, snap)
	return nil
}

func makeDocs(n int) []types.Document {
	docs := make([]types.Document, n)
	for i := range docs {
		docs[i] = types.Document{
			URL:   fmt.Sprintf("https://example.com/story-%d", i),
			Title: fmt.Sprintf("Story %d", i),
			Body:  "body text",
		}
	}
	return docs
}

func newRunner(source DocumentSource, ex EventExtractor, archive Archiver) *Runner {
	return NewRunner(source, mockHints{}, ex, relevance.New(types.DefaultRelevanceConfig()), archive, nil)
}

// --- tests ---

func TestRunCompletes(t *testing.T) {
	s := New("s1", types.Query{Phrase: "protest"})
	r := newRunner(&mockSource{docs: makeDocs(3)}, &mockExtractor{}, nil)

	r.Run(context.Background(), s)

	snap := s.Snapshot()
	if snap.Status != types.StatusCompleted {
		t.Fatalf("status = %q, want completed", snap.Status)
	}
	if len(snap.Events) != 3 {
		t.Errorf("events = %d, want 3", len(snap.Events))
	}
	if snap.Progress.Current != 3 || snap.Progress.Total != 3 {
		t.Errorf("progress = %+v, want 3/3", snap.Progress)
	}
}

func TestRunSkipsFailedDocuments(t *testing.T) {
	docs := makeDocs(4)
	ex := &mockExtractor{failURLs: map[string]bool{
		docs[1].URL: true,
		docs[2].URL: true,
	}}
	s := New("s1", types.Query{Phrase: "protest"})
	r := newRunner(&mockSource{docs: docs}, ex, nil)

	r.Run(context.Background(), s)

	snap := s.Snapshot()
	if snap.Status != types.StatusCompleted {
		t.Fatalf("status = %q, want completed (skips are not errors)", snap.Status)
	}
	if len(snap.Events) != 2 {
		t.Errorf("events = %d, want 2 after 2 skips", len(snap.Events))
	}
}

func TestRunSourceFailure(t *testing.T) {
	s := New("s1", types.Query{Phrase: "protest"})
	r := newRunner(&mockSource{err: fmt.Errorf("all feeds unreachable")}, &mockExtractor{}, nil)

	r.Run(context.Background(), s)

	snap := s.Snapshot()
	if snap.Status != types.StatusError {
		t.Fatalf("status = %q, want error", snap.Status)
	}
	if snap.Error == "" {
		t.Error("error message should be set")
	}
}

func TestRunZeroDocumentsIsError(t *testing.T) {
	s := New("s1", types.Query{Phrase: "protest"})
	if s.Status() != types.StatusPending {
		t.Fatalf("initial status = %q, want pending", s.Status())
	}

	r := newRunner(&mockSource{docs: nil}, &mockExtractor{}, nil)
	r.Run(context.Background(), s)

	snap := s.Snapshot()
	if snap.Status != types.StatusError {
		t.Fatalf("status = %q, want error for zero documents", snap.Status)
	}
	if len(snap.Events) != 0 {
		t.Errorf("events = %d, want 0", len(snap.Events))
	}
}

func TestRunCancelAfterNDocuments(t *testing.T) {
	const total, cancelAfter = 10, 4

	s := New("s1", types.Query{Phrase: "protest"})
	ex := &mockExtractor{cancelAfter: cancelAfter, session: s}
	r := newRunner(&mockSource{docs: makeDocs(total)}, ex, nil)

	r.Run(context.Background(), s)

	snap := s.Snapshot()
	if snap.Status != types.StatusCancelled {
		t.Fatalf("status = %q, want cancelled", snap.Status)
	}
	// The flag was set during extraction of document cancelAfter, which
	// completes before the boundary check: exactly cancelAfter events.
	if len(snap.Events) != cancelAfter {
		t.Errorf("events = %d, want exactly %d", len(snap.Events), cancelAfter)
	}
	if ex.calls != cancelAfter {
		t.Errorf("extractions = %d, want %d (no new document after flag observed)", ex.calls, cancelAfter)
	}
}

func TestRunCancelRetainsPartialResults(t *testing.T) {
	s := New("s1", types.Query{Phrase: "protest"})
	ex := &mockExtractor{cancelAfter: 2, session: s}
	r := newRunner(&mockSource{docs: makeDocs(5)}, ex, nil)

	r.Run(context.Background(), s)

	snap := s.Snapshot()
	if snap.Status != types.StatusCancelled {
		t.Fatalf("status = %q, want cancelled", snap.Status)
	}
	if len(snap.Events) == 0 {
		t.Error("cancellation must retain events produced before the flag")
	}
}

func TestRunArchivesTerminalSession(t *testing.T) {
	arch := &mockArchive{}
	s := New("s1", types.Query{Phrase: "protest"})
	r := newRunner(&mockSource{docs: makeDocs(2)}, &mockExtractor{}, arch)

	r.Run(context.Background(), s)

	if len(arch.saved) != 1 {
		t.Fatalf("archived sessions = %d, want 1", len(arch.saved))
	}
	if len(arch.saved[0].Events) != 2 {
		t.Errorf("archived events = %d, want 2", len(arch.saved[0].Events))
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	s := New("s1", types.Query{})
	s.appendEvent(types.ScoredEvent{RelevanceScore: 0.5})

	snap := s.Snapshot()
	s.appendEvent(types.ScoredEvent{RelevanceScore: 0.7})

	if len(snap.Events) != 1 {
		t.Errorf("snapshot grew after later append: %d events", len(snap.Events))
	}
}

func TestRequestCancelIsIdempotent(t *testing.T) {
	s := New("s1", types.Query{})
	s.RequestCancel()
	s.RequestCancel()
	if !s.CancelRequested() {
		t.Error("cancel flag should be set")
	}
}
