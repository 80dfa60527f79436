// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package relevance scores extracted events against a query and ranks them.
// Scoring is purely presentational: a session keeps every extracted event
// and the matcher decides what clears the threshold for display.
package relevance

import (
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/meshintel/incident-scout/pkg/types"
)

// Matcher scores events against queries using weighted dimensions. The
// zero Matcher is not usable; construct with New.
type Matcher struct {
	cfg types.RelevanceConfig
}

// New creates a Matcher. Zero-valued weights fall back to the defaults.
func New(cfg types.RelevanceConfig) *Matcher {
	def := types.DefaultRelevanceConfig()
	if cfg.TextWeight+cfg.LocationWeight+cfg.DateWeight+cfg.TypeWeight == 0 {
		cfg.TextWeight = def.TextWeight
		cfg.LocationWeight = def.LocationWeight
		cfg.DateWeight = def.DateWeight
		cfg.TypeWeight = def.TypeWeight
	}
	if cfg.DateProximityDays <= 0 {
		cfg.DateProximityDays = def.DateProximityDays
	}
	if cfg.DefaultMinRelevance <= 0 {
		cfg.DefaultMinRelevance = def.DefaultMinRelevance
	}
	return &Matcher{cfg: cfg}
}

// MinRelevance resolves the effective threshold for a query.
func (m *Matcher) MinRelevance(q types.Query) float64 {
	if q.MinRelevance > 0 {
		return q.MinRelevance
	}
	return m.cfg.DefaultMinRelevance
}

// Score computes the relevance of one event to a query in [0,1]. Dimensions
// the query does not constrain (no location, no type filter) are excluded
// and the remaining weights renormalized, so scores stay comparable across
// query shapes. The weighted sum is then discounted by the extraction
// confidence: low-confidence events are dampened, not excluded.
func (m *Matcher) Score(ev types.Event, q types.Query) float64 {
	var sum, weight float64

	sum += m.cfg.TextWeight * textSimilarity(q.Phrase, ev.Title+" "+ev.Summary)
	weight += m.cfg.TextWeight

	if q.Location != "" {
		sum += m.cfg.LocationWeight * locationMatch(q.Location, ev.Location)
		weight += m.cfg.LocationWeight
	}

	sum += m.cfg.DateWeight * m.dateRelevance(ev.EventDate, q)
	weight += m.cfg.DateWeight

	if q.EventType != "" {
		var typeScore float64
		if ev.EventType == q.EventType {
			typeScore = 1.0
		}
		sum += m.cfg.TypeWeight * typeScore
		weight += m.cfg.TypeWeight
	}

	if weight == 0 {
		return 0
	}
	return clamp01(sum / weight * clamp01(ev.ExtractionConfidence))
}

// Rank scores every event and returns those at or above minScore, sorted
// descending by score with ties broken by more recent event date. The input
// slice is not modified; sub-threshold events are simply absent from the
// output, never deleted from the caller's list.
func (m *Matcher) Rank(events []types.Event, q types.Query, minScore float64) []types.ScoredEvent {
	scored := make([]types.ScoredEvent, 0, len(events))
	for _, ev := range events {
		s := m.Score(ev, q)
		if s >= minScore {
			scored = append(scored, types.ScoredEvent{Event: ev, RelevanceScore: s})
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].RelevanceScore != scored[j].RelevanceScore {
			return scored[i].RelevanceScore > scored[j].RelevanceScore
		}
		return scored[i].Event.EventDate.After(scored[j].Event.EventDate)
	})

	if q.MaxResults > 0 && len(scored) > q.MaxResults {
		scored = scored[:q.MaxResults]
	}
	return scored
}

// textSimilarity blends keyword set overlap with a character-sequence
// ratio: 0.7·jaccard + 0.3·sequence.
func textSimilarity(query, text string) float64 {
	qTokens := tokenize(query)
	tTokens := tokenize(text)
	if len(qTokens) == 0 || len(tTokens) == 0 {
		return 0
	}
	j := jaccard(qTokens, tTokens)
	r := sequenceRatio(normalizeText(query), normalizeText(text))
	return 0.7*j + 0.3*r
}

// jaccard computes |A∩B| / |A∪B| over keyword sets.
func jaccard(a, b map[string]bool) float64 {
	inter := 0
	for tok := range a {
		if b[tok] {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

// sequenceRatio is a Ratcliff/Obershelp similarity: 2·M / (len(a)+len(b))
// where M is the total length of recursively matched common substrings.
func sequenceRatio(a, b string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1
	}
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	m := matchingChars(a, b)
	return 2 * float64(m) / float64(len(a)+len(b))
}

// matchingChars finds the longest common substring, then recurses on the
// text to each side of it.
func matchingChars(a, b string) int {
	ai, bi, size := longestCommonSubstring(a, b)
	if size == 0 {
		return 0
	}
	total := size
	total += matchingChars(a[:ai], b[:bi])
	total += matchingChars(a[ai+size:], b[bi+size:])
	return total
}

func longestCommonSubstring(a, b string) (ai, bi, size int) {
	// prev[j] is the match length ending at a[i-1], b[j-1].
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				cur[j] = prev[j-1] + 1
				if cur[j] > size {
					size = cur[j]
					ai = i - size
					bi = j - size
				}
			} else {
				cur[j] = 0
			}
		}
		prev, cur = cur, prev
	}
	return ai, bi, size
}

// locationMatch compares the query location against each granularity level
// independently and takes the best match, so an exact city hit is not
// diluted by a country mismatch.
func locationMatch(query string, loc types.Location) float64 {
	q := normalizeText(query)
	if q == "" {
		return 0
	}

	best := 0.0
	for _, level := range []string{loc.City, loc.Region, loc.Country, loc.FullText} {
		l := normalizeText(level)
		if l == "" {
			continue
		}
		var s float64
		switch {
		case l == q:
			s = 1.0
		case strings.Contains(l, q) || strings.Contains(q, l):
			s = 0.8
		default:
			s = sequenceRatio(q, l)
			if s < 0.5 {
				s = 0
			}
		}
		if s > best {
			best = s
		}
	}
	return best
}

// dateRelevance scores an event date against the query range: 1.0 inside,
// neutral 0.5 when the query has no range, linear decay outside reaching
// zero at the proximity window.
func (m *Matcher) dateRelevance(eventDate time.Time, q types.Query) float64 {
	if !q.HasDateRange() {
		return 0.5
	}
	if eventDate.IsZero() {
		return 0
	}

	var distance time.Duration
	switch {
	case !q.DateFrom.IsZero() && eventDate.Before(q.DateFrom):
		distance = q.DateFrom.Sub(eventDate)
	case !q.DateTo.IsZero() && eventDate.After(q.DateTo):
		distance = eventDate.Sub(q.DateTo)
	default:
		return 1.0
	}

	window := time.Duration(m.cfg.DateProximityDays) * 24 * time.Hour
	if distance >= window {
		return 0
	}
	return 1.0 - float64(distance)/float64(window)
}

// stopWords is the set removed before keyword comparison.
var stopWords = map[string]bool{
	"a": true, "an": true, "and": true, "are": true, "as": true, "at": true,
	"be": true, "by": true, "for": true, "from": true, "has": true,
	"have": true, "in": true, "is": true, "it": true, "its": true,
	"of": true, "on": true, "or": true, "that": true, "the": true,
	"this": true, "to": true, "was": true, "were": true, "will": true,
	"with": true,
}

// tokenize lowercases, strips punctuation, and removes stop words,
// returning the keyword set.
func tokenize(s string) map[string]bool {
	tokens := make(map[string]bool)
	for _, f := range strings.Fields(normalizeText(s)) {
		if !stopWords[f] {
			tokens[f] = true
		}
	}
	return tokens
}

// normalizeText lowercases and drops punctuation, collapsing whitespace.
func normalizeText(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
