// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"encoding/json"
	"regexp"
	"strings"
)

// rawEvent mirrors the JSON object the model is instructed to produce. All
// fields are optional at the parse boundary; validation happens afterward.
type rawEvent struct {
	EventType       string `json:"event_type"`
	EventSubType    string `json:"event_sub_type"`
	Title           string `json:"title"`
	Summary         string `json:"summary"`
	Perpetrator     string `json:"perpetrator"`
	PerpetratorType string `json:"perpetrator_type"`
	Location        struct {
		City     string `json:"city"`
		Region   string `json:"region"`
		Country  string `json:"country"`
		FullText string `json:"full_text"`
	} `json:"location"`
	EventDate     string   `json:"event_date"`
	EventTime     string   `json:"event_time"`
	Individuals   []string `json:"individuals"`
	Organizations []string `json:"organizations"`
	Casualties    *struct {
		Killed  *int `json:"killed"`
		Injured *int `json:"injured"`
	} `json:"casualties"`
	Confidence float64 `json:"confidence"`
}

// parseEvent parses model output as JSON, applying the repair stages in
// order until a parse succeeds or all stages are exhausted. The boolean is
// false when nothing parseable could be recovered.
func parseEvent(raw string) (rawEvent, bool) {
	s := raw
	if rev, ok := tryUnmarshal(s); ok {
		return rev, true
	}

	for _, stage := range repairStages {
		s = stage(s)
		if rev, ok := tryUnmarshal(s); ok {
			return rev, true
		}
	}

	// Comment stripping can expose a fresh trailing comma; one full
	// fixpoint pass catches such stage interactions.
	if rev, ok := tryUnmarshal(RepairJSON(raw)); ok {
		return rev, true
	}

	return rawEvent{}, false
}

func tryUnmarshal(s string) (rawEvent, bool) {
	var rev rawEvent
	if err := json.Unmarshal([]byte(s), &rev); err != nil {
		return rawEvent{}, false
	}
	return rev, true
}

// repairStages lists the repairs in application order. Each stage is a pure
// string transform, individually idempotent on well-formed input.
var repairStages = []func(string) string{
	extractObject,
	stripTrailingCommas,
	collapseOrNull,
	stripLineComments,
}

// RepairJSON applies the repair stages repeatedly until the string reaches a
// fixpoint. Running it on already-repaired output returns the input
// unchanged.
func RepairJSON(s string) string {
	for i := 0; i < 4; i++ {
		prev := s
		for _, stage := range repairStages {
			s = stage(s)
		}
		if s == prev {
			break
		}
	}
	return s
}

// extractObject returns the outermost {...} span, discarding surrounding
// prose such as markdown fences or a chatty preamble. Input without braces
// is returned unchanged.
func extractObject(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return s
	}
	return s[start : end+1]
}

var trailingCommaRe = regexp.MustCompile(`,\s*([}\]])`)

// stripTrailingCommas removes commas directly preceding a closing brace or
// bracket.
func stripTrailingCommas(s string) string {
	return trailingCommaRe.ReplaceAllString(s, "$1")
}

// orNullRe matches the "value or null" disjunctions small models emit in
// place of a committed value: a string, number, or boolean followed by
// `or null`.
var orNullRe = regexp.MustCompile(`("(?:[^"\\]|\\.)*"|-?\d+(?:\.\d+)?|true|false)\s+or\s+null`)

// collapseOrNull rewrites `"x" or null` / `value or null` to null. The model
// declined to commit to the value, so neither branch is trustworthy.
func collapseOrNull(s string) string {
	return orNullRe.ReplaceAllString(s, "null")
}

// stripLineComments removes //-style comments, ignoring slashes inside
// string literals.
func stripLineComments(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		inString := false
		escaped := false
		for j := 0; j < len(line); j++ {
			c := line[j]
			if escaped {
				escaped = false
				continue
			}
			switch {
			case c == '\\' && inString:
				escaped = true
			case c == '"':
				inString = !inString
			case c == '/' && !inString && j+1 < len(line) && line[j+1] == '/':
				lines[i] = strings.TrimRight(line[:j], " \t")
				j = len(line)
			}
		}
	}
	return strings.Join(lines, "\n")
}
