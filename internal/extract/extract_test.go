// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/meshintel/incident-scout/pkg/types"
)

// --- mock backend ---

type mockBackend struct {
	response string
	err      error
	calls    int
	prompts  []string
}

func (m *mockBackend) Generate(_ context.Context, prompt string) (string, error) {
	m.calls++
	m.prompts = append(m.prompts, prompt)
	if m.err != nil {
		return "", m.err
	}
	return m.response, nil
}

// failNTimesBackend fails the first N calls, then succeeds.
type failNTimesBackend struct {
	failures  int
	callCount int
	response  string
}

func (f *failNTimesBackend) Generate(_ context.Context, _ string) (string, error) {
	f.callCount++
	if f.callCount <= f.failures {
		return "", fmt.Errorf("transient error (call %d)", f.callCount)
	}
	return f.response, nil
}

func TestMain(m *testing.M) {
	// Override backoff to avoid real sleeps in retry tests.
	backoffBase = time.Millisecond
	os.Exit(m.Run())
}

func testDocument() types.Document {
	return types.Document{
		URL:         "https://www.example.com/news/protest-story",
		Title:       "Thousands march in city center",
		Body:        "Thousands of protesters gathered on Tuesday...",
		PublishedAt: time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC),
		SourceName:  "example-news",
	}
}

const validResponse = `{
	"event_type": "protest",
	"title": "March in city center",
	"summary": "Thousands of protesters gathered downtown.",
	"perpetrator": "",
	"perpetrator_type": "not_applicable",
	"location": {"city": "Mumbai", "region": "Maharashtra", "country": "India", "full_text": "Mumbai, India"},
	"event_date": "2026-03-09",
	"individuals": ["A. Candidate"],
	"organizations": ["Workers Union"],
	"casualties": null,
	"confidence": 0.9
}`

func TestExtractValidResponse(t *testing.T) {
	backend := &mockBackend{response: validResponse}
	ex := New(backend, 2, nil)

	ev, err := ex.Extract(context.Background(), testDocument(), types.EntityHints{})
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}

	if ev.EventType != types.EventProtest {
		t.Errorf("event type = %q, want protest", ev.EventType)
	}
	if ev.Location.City != "Mumbai" {
		t.Errorf("city = %q, want Mumbai", ev.Location.City)
	}
	if ev.ExtractionConfidence != 0.9 {
		t.Errorf("confidence = %v, want 0.9", ev.ExtractionConfidence)
	}
	if ev.SourceURL != "https://www.example.com/news/protest-story" {
		t.Errorf("source url = %q", ev.SourceURL)
	}
	if ev.CollectedAt.IsZero() {
		t.Error("collected_at must always be set")
	}
	want := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)
	if !ev.EventDate.Equal(want) {
		t.Errorf("event date = %v, want %v", ev.EventDate, want)
	}
}

func TestExtractBackfills(t *testing.T) {
	// Model omits title, event_date, and confidence; document has no
	// source name.
	backend := &mockBackend{response: `{"event_type": "accident", "summary": "A crash."}`}
	ex := New(backend, 2, nil)

	doc := testDocument()
	doc.SourceName = ""

	ev, err := ex.Extract(context.Background(), doc, types.EntityHints{})
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}

	if ev.Title != doc.Title {
		t.Errorf("title = %q, want document title backfill %q", ev.Title, doc.Title)
	}
	if !ev.EventDate.Equal(doc.PublishedAt) {
		t.Errorf("event date = %v, want published_at backfill %v", ev.EventDate, doc.PublishedAt)
	}
	if ev.SourceName != "example.com" {
		t.Errorf("source name = %q, want domain backfill example.com", ev.SourceName)
	}
	if ev.ExtractionConfidence != 0.5 {
		t.Errorf("confidence = %v, want 0.5 default", ev.ExtractionConfidence)
	}
	if ev.CollectedAt.IsZero() {
		t.Error("collected_at must always be set")
	}
}

func TestExtractUnparseableSkips(t *testing.T) {
	backend := &mockBackend{response: "I am sorry, I cannot produce JSON for this."}
	ex := New(backend, 2, nil)

	ev, err := ex.Extract(context.Background(), testDocument(), types.EntityHints{})
	if err == nil {
		t.Fatal("expected error for unparseable output")
	}
	if ev != nil {
		t.Errorf("expected nil event, got %+v", ev)
	}
}

func TestExtractNormalizesUnknownVocabulary(t *testing.T) {
	backend := &mockBackend{response: `{
		"event_type": "gibberish-category",
		"title": "x",
		"summary": "y",
		"perpetrator": "militant group",
		"perpetrator_type": "",
		"confidence": 0.4
	}`}
	ex := New(backend, 2, nil)

	ev, err := ex.Extract(context.Background(), testDocument(), types.EntityHints{})
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}

	if ev.EventType != types.EventOther {
		t.Errorf("event type = %q, want other for unknown vocabulary", ev.EventType)
	}
	if ev.PerpetratorType != types.PerpetratorTerroristGroup {
		t.Errorf("perpetrator type = %q, want terrorist_group via keyword fallback", ev.PerpetratorType)
	}
}

func TestExtractRetriesTransientErrors(t *testing.T) {
	backend := &failNTimesBackend{failures: 2, response: validResponse}
	ex := New(backend, 2, nil)

	ev, err := ex.Extract(context.Background(), testDocument(), types.EntityHints{})
	if err != nil {
		t.Fatalf("Extract returned error after retries: %v", err)
	}
	if ev == nil {
		t.Fatal("expected event after retry success")
	}
	if backend.callCount != 3 {
		t.Errorf("backend calls = %d, want 3", backend.callCount)
	}
}

func TestExtractGivesUpAfterRetries(t *testing.T) {
	backend := &failNTimesBackend{failures: 10, response: validResponse}
	ex := New(backend, 2, nil)

	_, err := ex.Extract(context.Background(), testDocument(), types.EntityHints{})
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	// 1 initial + 2 retries.
	if backend.callCount != 3 {
		t.Errorf("backend calls = %d, want 3", backend.callCount)
	}
}

func TestExtractContextCancelledDuringBackoff(t *testing.T) {
	backend := &failNTimesBackend{failures: 10}
	ex := New(backend, 5, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ex.Extract(ctx, testDocument(), types.EntityHints{})
	if err == nil {
		t.Fatal("expected error for cancelled context")
	}
}

func TestExtractPromptContents(t *testing.T) {
	backend := &mockBackend{response: validResponse}
	ex := New(backend, 2, nil)

	hints := types.EntityHints{
		Persons:   []string{"A. Candidate"},
		Locations: []string{"Mumbai"},
	}

	_, err := ex.Extract(context.Background(), testDocument(), hints)
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}

	prompt := backend.prompts[0]
	for _, want := range []string{
		"protest, attack, bombing, cyber_attack",
		"terrorist_group, state_actor",
		"No markdown fences",
		"A. Candidate",
		"Mumbai",
		"Thousands of protesters gathered",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestTruncateBody(t *testing.T) {
	short := strings.Repeat("a", 100)
	if got := truncateBody(short); got != short {
		t.Errorf("short body should be unchanged")
	}

	long := strings.Repeat("h", 2000) + strings.Repeat("t", 1000)
	got := truncateBody(long)
	if len(got) >= len(long) {
		t.Errorf("long body not truncated: %d chars", len(got))
	}
	if !strings.HasPrefix(got, "hhhh") {
		t.Error("truncation should keep the head")
	}
	if !strings.HasSuffix(got, "tttt") {
		t.Error("truncation should keep the tail")
	}
	if !strings.Contains(got, "[...]") {
		t.Error("truncation should mark the gap")
	}
}

// --- Ollama backend ---

func TestOllamaBackendGenerate(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		fmt.Fprint(w, `{"response": "{\"event_type\": \"protest\"}"}`)
	}))
	defer ts.Close()

	b := NewOllamaBackend(types.LLMConfig{BaseURL: ts.URL, Model: "test-model"})
	got, err := b.Generate(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if got != `{"event_type": "protest"}` {
		t.Errorf("response = %q", got)
	}
}

func TestOllamaBackendServerError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "model not loaded", http.StatusNotFound)
	}))
	defer ts.Close()

	b := NewOllamaBackend(types.LLMConfig{BaseURL: ts.URL, Model: "test-model"})
	_, err := b.Generate(context.Background(), "prompt")
	if err == nil {
		t.Fatal("expected error for non-200 response")
	}
	if !strings.Contains(err.Error(), "404") {
		t.Errorf("error should carry the status code: %v", err)
	}
}

func TestOllamaBackendNonJSONBody(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, "<html>gateway error</html>")
	}))
	defer ts.Close()

	b := NewOllamaBackend(types.LLMConfig{BaseURL: ts.URL, Model: "test-model"})
	_, err := b.Generate(context.Background(), "prompt")
	if err == nil {
		t.Fatal("expected error for non-JSON body")
	}
}
