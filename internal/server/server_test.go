// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meshintel/incident-scout/internal/registry"
	"github.com/meshintel/incident-scout/internal/relevance"
	"github.com/meshintel/incident-scout/internal/session"
	"github.com/meshintel/incident-scout/pkg/types"
)

type stubSource struct {
	docs []types.Document
	err  error
}

func (s stubSource) Fetch(ctx context.Context, phrase string) ([]types.Document, error) {
	return s.docs, s.err
}

type stubHints struct{}

func (stubHints) ExtractHints(text string) types.EntityHints { return types.EntityHints{} }

type stubExtractor struct {
	delay time.Duration
}

func (e stubExtractor) Extract(ctx context.Context, doc types.Document, hints types.EntityHints) (*types.Event, error) {
	if e.delay > 0 {
		time.Sleep(e.delay)
	}
	return &types.Event{
		Title:                doc.Title,
		Summary:              doc.Body,
		EventType:            types.EventProtest,
		EventDate:            doc.PublishedAt,
		SourceURL:            doc.URL,
		ExtractionConfidence: 0.9,
	}, nil
}

func testDocs(n int) []types.Document {
	docs := make([]types.Document, n)
	for i := range docs {
		docs[i] = types.Document{
			URL:         fmt.Sprintf("https://news.example/%d", i),
			Title:       fmt.Sprintf("Protest march %d downtown", i),
			Body:        "A large protest march moved through the downtown area.",
			PublishedAt: time.Now().UTC(),
		}
	}
	return docs
}

func newTestServer(t *testing.T, src session.DocumentSource, ext session.EventExtractor) (*Server, *registry.Registry) {
	t.Helper()
	reg := registry.New(types.SessionConfig{})
	matcher := relevance.New(types.DefaultRelevanceConfig())
	runner := session.NewRunner(src, stubHints{}, ext, matcher, nil, nil)
	srv := New(context.Background(), reg, runner, matcher, nil)
	srv.streamInterval = 10 * time.Millisecond
	return srv, reg
}

func postSearch(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/searches", strings.NewReader(body))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func waitTerminal(t *testing.T, h http.Handler, id string) searchResponse {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		req := httptest.NewRequest(http.MethodGet, "/api/searches/"+id, nil)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)

		var resp searchResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		if resp.Status.IsTerminal() {
			return resp
		}
		select {
		case <-deadline:
			t.Fatalf("session %s never reached a terminal state", id)
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestCreateAndPollSearch(t *testing.T) {
	srv, _ := newTestServer(t, stubSource{docs: testDocs(3)}, stubExtractor{})
	h := srv.Handler()

	w := postSearch(t, h, `{"phrase": "protest march"}`)
	require.Equal(t, http.StatusAccepted, w.Code)

	var created map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	require.NotEmpty(t, created["id"])

	resp := waitTerminal(t, h, created["id"])
	assert.Equal(t, types.StatusCompleted, resp.Status)
	assert.Len(t, resp.Events, 3)
	assert.Equal(t, 3, resp.Progress.Current)
	assert.Equal(t, 3, resp.Progress.Total)
}

func TestCreateRejectsEmptyQuery(t *testing.T) {
	srv, _ := newTestServer(t, stubSource{docs: testDocs(1)}, stubExtractor{})
	w := postSearch(t, srv.Handler(), `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "empty")
}

func TestCreateRejectsBadInput(t *testing.T) {
	srv, _ := newTestServer(t, stubSource{docs: testDocs(1)}, stubExtractor{})
	h := srv.Handler()

	for name, body := range map[string]string{
		"malformed json":     `{"phrase": `,
		"unknown event type": `{"phrase": "x", "event_type": "volcano_party"}`,
		"bad date":           `{"phrase": "x", "date_from": "March 5"}`,
	} {
		t.Run(name, func(t *testing.T) {
			w := postSearch(t, h, body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestGetUnknownSessionReturns404(t *testing.T) {
	srv, _ := newTestServer(t, stubSource{docs: testDocs(1)}, stubExtractor{})
	req := httptest.NewRequest(http.MethodGet, "/api/searches/no-such-id", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSourceFailureSurfacesAsError(t *testing.T) {
	srv, _ := newTestServer(t, stubSource{err: fmt.Errorf("all feeds down")}, stubExtractor{})
	h := srv.Handler()

	w := postSearch(t, h, `{"phrase": "protest"}`)
	require.Equal(t, http.StatusAccepted, w.Code)
	var created map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	resp := waitTerminal(t, h, created["id"])
	assert.Equal(t, types.StatusError, resp.Status)
	assert.Contains(t, resp.Error, "all feeds down")
}

func TestCancelSearch(t *testing.T) {
	// Slow extraction gives the cancel request time to land mid-run.
	srv, _ := newTestServer(t, stubSource{docs: testDocs(50)}, stubExtractor{delay: 20 * time.Millisecond})
	h := srv.Handler()

	w := postSearch(t, h, `{"phrase": "protest"}`)
	require.Equal(t, http.StatusAccepted, w.Code)
	var created map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	del := httptest.NewRequest(http.MethodDelete, "/api/searches/"+created["id"], nil)
	dw := httptest.NewRecorder()
	h.ServeHTTP(dw, del)
	require.Equal(t, http.StatusNoContent, dw.Code)

	resp := waitTerminal(t, h, created["id"])
	assert.Equal(t, types.StatusCancelled, resp.Status)
	assert.Less(t, len(resp.Events), 50)
}

func TestCancelUnknownSessionReturns404(t *testing.T) {
	srv, _ := newTestServer(t, stubSource{docs: testDocs(1)}, stubExtractor{})
	req := httptest.NewRequest(http.MethodDelete, "/api/searches/no-such-id", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStreamDeliversEventsAndDone(t *testing.T) {
	srv, reg := newTestServer(t, stubSource{docs: testDocs(3)}, stubExtractor{})
	h := srv.Handler()

	sess := reg.Create(types.Query{Phrase: "protest march"})
	go srv.runner.Run(context.Background(), sess)

	ts := httptest.NewServer(h)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/searches/" + sess.ID() + "/events")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	var eventCount int
	var done bool
	scanner := bufio.NewScanner(resp.Body)
	var current string
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "event: "):
			current = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			data := strings.TrimPrefix(line, "data: ")
			switch current {
			case "event":
				var se types.ScoredEvent
				require.NoError(t, json.Unmarshal([]byte(data), &se))
				assert.Greater(t, se.RelevanceScore, 0.0)
				eventCount++
			case "done":
				assert.True(t, bytes.Contains([]byte(data), []byte("completed")))
				done = true
			}
		}
		if done {
			break
		}
	}
	require.NoError(t, scanner.Err())
	assert.True(t, done, "stream should end with a done message")
	assert.Equal(t, 3, eventCount)
}
