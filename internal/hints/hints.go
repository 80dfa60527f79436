// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package hints extracts coarse entity hints from document text: capitalized
// name runs, organization suffixes, location cues, and date expressions.
// The hints only enrich the extraction prompt, so precision is best-effort
// by design. ExtractHints never fails; junk input yields empty hints.
package hints

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/meshintel/incident-scout/pkg/types"
)

// maxPerCategory bounds each hint list so a name-dense article cannot
// bloat the prompt.
const maxPerCategory = 10

// Provider extracts entity hints. The zero value is ready to use.
type Provider struct{}

// New returns a hints provider.
func New() *Provider { return &Provider{} }

// orgSuffixes mark a capitalized run as an organization.
var orgSuffixes = map[string]bool{
	"inc": true, "corp": true, "ltd": true, "llc": true, "group": true,
	"ministry": true, "department": true, "agency": true, "authority": true,
	"police": true, "party": true, "union": true, "university": true,
	"bank": true, "company": true, "corporation": true, "association": true,
	"council": true, "committee": true, "organization": true, "front": true,
	"army": true, "forces": true,
}

// personTitles preceding a capitalized run mark it as a person.
var personTitles = map[string]bool{
	"mr": true, "mrs": true, "ms": true, "dr": true, "prof": true,
	"president": true, "minister": true, "senator": true, "governor": true,
	"mayor": true, "chief": true, "general": true, "colonel": true,
	"officer": true, "spokesperson": true, "judge": true,
}

// locationCues preceding a capitalized run mark it as a place.
var locationCues = map[string]bool{
	"in": true, "at": true, "near": true, "outside": true, "from": true,
	"across": true, "around": true,
}

var dateExprRe = regexp.MustCompile(
	`(?i)\b(\d{4}-\d{2}-\d{2}` +
		`|(?:january|february|march|april|may|june|july|august|september|october|november|december)\s+\d{1,2}(?:,\s*\d{4})?` +
		`|\d{1,2}\s+(?:january|february|march|april|may|june|july|august|september|october|november|december)(?:\s+\d{4})?` +
		`|(?:monday|tuesday|wednesday|thursday|friday|saturday|sunday)` +
		`|yesterday|today|last\s+(?:week|month|night)` +
		`)\b`)

// ExtractHints scans the text once and buckets capitalized word runs into
// persons, organizations, and locations using the word before the run and
// the run's last word as cues. Date expressions come from a single regex
// pass. Ambiguous runs default to the persons bucket: for prompt context a
// wrong bucket is harmless, a dropped name is not.
func (p *Provider) ExtractHints(text string) types.EntityHints {
	var h types.EntityHints

	persons := newStringSet()
	orgs := newStringSet()
	locations := newStringSet()

	words := strings.Fields(text)
	i := 0
	for i < len(words) {
		if !isCapitalizedWord(words[i]) {
			i++
			continue
		}

		// Collect the full capitalized run.
		start := i
		for i < len(words) && isCapitalizedWord(words[i]) && i-start < 5 {
			i++
		}
		run := make([]string, 0, i-start)
		sentenceStart := start == 0 || endsSentence(words[start-1])
		for _, w := range words[start:i] {
			run = append(run, strings.Trim(w, ".,;:!?\"'()[]"))
		}
		name := strings.Join(run, " ")
		if name == "" {
			continue
		}

		prev := ""
		if start > 0 {
			prev = strings.ToLower(strings.Trim(words[start-1], ".,;:!?\"'()[]"))
		}

		// A leading article is sentence noise, not part of the name.
		if len(run) > 1 && (run[0] == "The" || run[0] == "A" || run[0] == "An") {
			run = run[1:]
			name = strings.Join(run, " ")
		}

		// A leading title marks the rest of the run as a person's name.
		if len(run) > 1 && personTitles[strings.ToLower(run[0])] {
			persons.add(strings.Join(run[1:], " "))
			continue
		}

		last := strings.ToLower(run[len(run)-1])

		switch {
		case orgSuffixes[last] && len(run) >= 2:
			orgs.add(name)
		case personTitles[prev]:
			persons.add(name)
		case locationCues[prev]:
			locations.add(name)
		case isAcronym(run) && len(run) == 1:
			orgs.add(name)
		case len(run) >= 2 && !sentenceStart:
			persons.add(name)
		}
	}

	dates := newStringSet()
	for _, m := range dateExprRe.FindAllString(text, -1) {
		dates.add(m)
	}

	h.Persons = persons.take(maxPerCategory)
	h.Organizations = orgs.take(maxPerCategory)
	h.Locations = locations.take(maxPerCategory)
	h.DateExpressions = dates.take(maxPerCategory)
	return h
}

// isCapitalizedWord reports whether the word starts with an uppercase letter
// after stripping leading punctuation.
func isCapitalizedWord(w string) bool {
	w = strings.TrimLeft(w, "\"'([")
	for _, r := range w {
		return unicode.IsUpper(r)
	}
	return false
}

// isAcronym reports whether a single-word run is an all-caps acronym of 2-6
// letters (e.g. "NATO", "FBI").
func isAcronym(run []string) bool {
	if len(run) != 1 {
		return false
	}
	w := run[0]
	if len(w) < 2 || len(w) > 6 {
		return false
	}
	for _, r := range w {
		if !unicode.IsUpper(r) {
			return false
		}
	}
	return true
}

func endsSentence(w string) bool {
	return strings.HasSuffix(w, ".") || strings.HasSuffix(w, "!") ||
		strings.HasSuffix(w, "?") || strings.HasSuffix(w, ":")
}

// stringSet keeps insertion order and drops duplicates.
type stringSet struct {
	seen  map[string]bool
	items []string
}

func newStringSet() *stringSet {
	return &stringSet{seen: make(map[string]bool)}
}

func (s *stringSet) add(v string) {
	key := strings.ToLower(v)
	if v == "" || s.seen[key] {
		return
	}
	s.seen[key] = true
	s.items = append(s.items, v)
}

func (s *stringSet) take(n int) []string {
	if len(s.items) > n {
		return s.items[:n]
	}
	return s.items
}
