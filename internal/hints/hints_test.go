// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package hints

import (
	"slices"
	"strings"
	"testing"
)

func TestExtractHintsBuckets(t *testing.T) {
	text := `Protesters marched in Mumbai on Tuesday. Dr Anita Rao of the
Workers Union addressed the crowd, while the Maharashtra Police watched.
The NATO summit was postponed until 2026-03-15.`

	p := New()
	h := p.ExtractHints(text)

	if !containsFold(h.Persons, "Anita Rao") {
		t.Errorf("persons = %v, want Anita Rao", h.Persons)
	}
	if !containsFold(h.Organizations, "Workers Union") {
		t.Errorf("organizations = %v, want Workers Union", h.Organizations)
	}
	if !containsFold(h.Organizations, "Maharashtra Police") {
		t.Errorf("organizations = %v, want Maharashtra Police", h.Organizations)
	}
	if !containsFold(h.Organizations, "NATO") {
		t.Errorf("organizations = %v, want NATO", h.Organizations)
	}
	if !containsFold(h.Locations, "Mumbai") {
		t.Errorf("locations = %v, want Mumbai", h.Locations)
	}
	if !slices.ContainsFunc(h.DateExpressions, func(s string) bool {
		return strings.EqualFold(s, "Tuesday")
	}) {
		t.Errorf("dates = %v, want Tuesday", h.DateExpressions)
	}
	if !containsFold(h.DateExpressions, "2026-03-15") {
		t.Errorf("dates = %v, want 2026-03-15", h.DateExpressions)
	}
}

func TestExtractHintsJunkInput(t *testing.T) {
	p := New()
	for _, text := range []string{"", "    ", "@@@@ #### $$$$", strings.Repeat("a ", 500)} {
		h := p.ExtractHints(text)
		if len(h.Persons)+len(h.Organizations)+len(h.Locations)+len(h.DateExpressions) != 0 {
			t.Errorf("junk input %q produced hints %+v", text[:min(len(text), 20)], h)
		}
	}
}

func TestExtractHintsDeduplicates(t *testing.T) {
	p := New()
	h := p.ExtractHints("Protests in Mumbai spread. More protests in Mumbai today.")

	count := 0
	for _, l := range h.Locations {
		if strings.EqualFold(l, "Mumbai") {
			count++
		}
	}
	if count != 1 {
		t.Errorf("Mumbai appears %d times, want 1", count)
	}
}

func TestExtractHintsBounded(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 50; i++ {
		b.WriteString("in City")
		b.WriteString(string(rune('A' + i%26)))
		b.WriteString("name ")
	}

	p := New()
	h := p.ExtractHints(b.String())
	if len(h.Locations) > maxPerCategory {
		t.Errorf("locations = %d, want <= %d", len(h.Locations), maxPerCategory)
	}
}

func containsFold(list []string, want string) bool {
	return slices.ContainsFunc(list, func(s string) bool {
		return strings.EqualFold(s, want)
	})
}
