// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/meshintel/incident-scout/pkg/types"
)

type stubSource struct {
	name string
	docs []types.Document
	err  error
}

func (s *stubSource) Name() string { return s.name }

func (s *stubSource) Fetch(_ context.Context, _ string) ([]types.Document, error) {
	return s.docs, s.err
}

func doc(url, title string, age time.Duration) types.Document {
	return types.Document{
		URL:         url,
		Title:       title,
		Body:        "protest coverage body",
		PublishedAt: time.Now().Add(-age),
		SourceName:  "stub",
	}
}

func TestFetchMergesSources(t *testing.T) {
	f := NewFetcher([]Source{
		&stubSource{name: "a", docs: []types.Document{doc("https://a/1", "Protest downtown", time.Hour)}},
		&stubSource{name: "b", docs: []types.Document{doc("https://b/1", "Strike at the port", 2*time.Hour)}},
	}, 0, nil)

	docs, err := f.Fetch(context.Background(), "")
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("docs = %d, want 2", len(docs))
	}
	// Newest first.
	if docs[0].URL != "https://a/1" {
		t.Errorf("first doc = %s, want the newer one", docs[0].URL)
	}
}

func TestFetchToleratesPartialFailure(t *testing.T) {
	f := NewFetcher([]Source{
		&stubSource{name: "bad", err: fmt.Errorf("feed unreachable")},
		&stubSource{name: "good", docs: []types.Document{doc("https://g/1", "Protest downtown", time.Hour)}},
	}, 0, nil)

	docs, err := f.Fetch(context.Background(), "")
	if err != nil {
		t.Fatalf("partial failure must not error: %v", err)
	}
	if len(docs) != 1 {
		t.Errorf("docs = %d, want 1", len(docs))
	}
}

func TestFetchAllSourcesFailed(t *testing.T) {
	f := NewFetcher([]Source{
		&stubSource{name: "a", err: fmt.Errorf("down")},
		&stubSource{name: "b", err: fmt.Errorf("down")},
	}, 0, nil)

	if _, err := f.Fetch(context.Background(), ""); err == nil {
		t.Fatal("expected error when every source fails")
	}
}

func TestFetchNoSources(t *testing.T) {
	f := NewFetcher(nil, 0, nil)
	if _, err := f.Fetch(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty source list")
	}
}

func TestFetchDeduplicates(t *testing.T) {
	shared := doc("https://a/1", "Protest downtown", time.Hour)
	sameTitle := doc("https://b/other", "Protest Downtown!", 2*time.Hour)

	f := NewFetcher([]Source{
		&stubSource{name: "a", docs: []types.Document{shared}},
		&stubSource{name: "b", docs: []types.Document{shared, sameTitle}},
	}, 0, nil)

	docs, err := f.Fetch(context.Background(), "")
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if len(docs) != 1 {
		t.Errorf("docs = %d, want 1 after URL and title dedup", len(docs))
	}
}

func TestFetchFiltersByPhrase(t *testing.T) {
	f := NewFetcher([]Source{
		&stubSource{name: "a", docs: []types.Document{
			{URL: "https://a/1", Title: "Protest in Mumbai", Body: "thousands marched"},
			{URL: "https://a/2", Title: "Cricket results", Body: "the match ended"},
		}},
	}, 0, nil)

	docs, err := f.Fetch(context.Background(), "protest in mumbai")
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("docs = %d, want 1 after phrase filter", len(docs))
	}
	if docs[0].URL != "https://a/1" {
		t.Errorf("kept %s, want the protest story", docs[0].URL)
	}
}

func TestFetchCapsDocuments(t *testing.T) {
	var many []types.Document
	for i := 0; i < 20; i++ {
		many = append(many, doc(fmt.Sprintf("https://a/%d", i), fmt.Sprintf("Story %d", i), time.Duration(i)*time.Minute))
	}

	f := NewFetcher([]Source{&stubSource{name: "a", docs: many}}, 5, nil)

	docs, err := f.Fetch(context.Background(), "")
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if len(docs) != 5 {
		t.Errorf("docs = %d, want 5 (cap)", len(docs))
	}
}

func TestNormalizeTitle(t *testing.T) {
	tests := []struct{ in, want string }{
		{"Protest Downtown!", "protest downtown"},
		{"  spaced   out  ", "spaced out"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := normalizeTitle(tt.in); got != tt.want {
			t.Errorf("normalizeTitle(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
