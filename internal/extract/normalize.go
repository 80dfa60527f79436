// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"net/url"
	"strings"
	"time"

	"github.com/meshintel/incident-scout/pkg/types"
)

// canonicalToken lowercases a vocabulary value and collapses spaces and
// hyphens to underscores, so "Cyber Attack" and "cyber-attack" both match
// "cyber_attack".
func canonicalToken(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "-", "_")
	return strings.Join(strings.Fields(s), "_")
}

// eventTypeKeywords maps substrings seen in free-form model output to the
// closed vocabulary. Checked in order; first hit wins.
var eventTypeKeywords = []struct {
	keyword string
	t       types.EventType
}{
	{"protest", types.EventProtest},
	{"demonstrat", types.EventProtest},
	{"riot", types.EventProtest},
	{"bomb", types.EventBombing},
	{"explos", types.EventBombing},
	{"cyber", types.EventCyberAttack},
	{"hack", types.EventCyberAttack},
	{"ransomware", types.EventCyberAttack},
	{"phishing", types.EventCyberAttack},
	{"shooting", types.EventAttack},
	{"assault", types.EventAttack},
	{"attack", types.EventAttack},
	{"crash", types.EventAccident},
	{"collision", types.EventAccident},
	{"accident", types.EventAccident},
	{"earthquake", types.EventNaturalDisaster},
	{"flood", types.EventNaturalDisaster},
	{"hurricane", types.EventNaturalDisaster},
	{"cyclone", types.EventNaturalDisaster},
	{"wildfire", types.EventNaturalDisaster},
	{"disaster", types.EventNaturalDisaster},
	{"conference", types.EventConference},
	{"summit", types.EventConference},
	{"meeting", types.EventMeeting},
	{"arrest", types.EventArrest},
	{"detain", types.EventArrest},
	{"theft", types.EventTheft},
	{"robbery", types.EventTheft},
	{"burglary", types.EventTheft},
	{"stolen", types.EventTheft},
}

// normalizeEventType maps model output onto the closed event type
// vocabulary: exact match, then case/whitespace-insensitive match, then
// keyword heuristics. Unrecognized values become EventOther, never an error.
func normalizeEventType(raw string) types.EventType {
	if raw == "" {
		return types.EventOther
	}

	canon := canonicalToken(raw)
	for _, t := range types.EventTypes {
		if canon == string(t) {
			return t
		}
	}

	lower := strings.ToLower(raw)
	for _, k := range eventTypeKeywords {
		if strings.Contains(lower, k.keyword) {
			return k.t
		}
	}

	return types.EventOther
}

// perpetratorKeywords maps free-form actor descriptions to the closed
// perpetrator vocabulary.
var perpetratorKeywords = []struct {
	keyword string
	t       types.PerpetratorType
}{
	{"terror", types.PerpetratorTerroristGroup},
	{"militant", types.PerpetratorTerroristGroup},
	{"insurgent", types.PerpetratorTerroristGroup},
	{"extremist", types.PerpetratorTerroristGroup},
	{"jihad", types.PerpetratorTerroristGroup},
	{"state", types.PerpetratorStateActor},
	{"government", types.PerpetratorStateActor},
	{"military", types.PerpetratorStateActor},
	{"army", types.PerpetratorStateActor},
	{"nation", types.PerpetratorStateActor},
	{"cartel", types.PerpetratorCriminalOrg},
	{"gang", types.PerpetratorCriminalOrg},
	{"mafia", types.PerpetratorCriminalOrg},
	{"criminal", types.PerpetratorCriminalOrg},
	{"crime", types.PerpetratorCriminalOrg},
	{"lone", types.PerpetratorIndividual},
	{"individual", types.PerpetratorIndividual},
	{"person", types.PerpetratorIndividual},
	{"multiple", types.PerpetratorMultipleParties},
	{"several", types.PerpetratorMultipleParties},
	{"various", types.PerpetratorMultipleParties},
}

// normalizePerpetratorType maps model output onto the closed perpetrator
// vocabulary. When the type field itself is missing or unrecognized, the
// perpetrator name is run through the keyword heuristics ("militant group"
// still classifies as terrorist_group). Defaults to PerpetratorUnknown, or
// PerpetratorNotApplicable when no perpetrator was named at all.
func normalizePerpetratorType(raw, perpetrator string) types.PerpetratorType {
	canon := canonicalToken(raw)
	switch canon {
	case "n/a", "na", "none":
		return types.PerpetratorNotApplicable
	}
	for _, t := range types.PerpetratorTypes {
		if canon == string(t) {
			return t
		}
	}

	for _, source := range []string{raw, perpetrator} {
		lower := strings.ToLower(source)
		for _, k := range perpetratorKeywords {
			if strings.Contains(lower, k.keyword) {
				return k.t
			}
		}
	}

	if raw == "" && perpetrator == "" {
		return types.PerpetratorNotApplicable
	}
	return types.PerpetratorUnknown
}

// eventDateLayouts lists the date formats models actually produce, most
// specific first.
var eventDateLayouts = []string{
	time.RFC3339,
	"2006-01-02",
	"2006/01/02",
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
}

// parseEventDate parses a model-supplied date string, returning the zero
// time when nothing matches. Callers backfill from the article timestamp.
func parseEventDate(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range eventDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// domainFromURL derives a source name from the URL's host, dropping a
// leading "www.".
func domainFromURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return ""
	}
	return strings.TrimPrefix(u.Host, "www.")
}
