// Package match resolves a situational trigger against a set of memories.
//
// Matching is a pure function of its inputs: no caching, no state carried
// between calls. Callers fetch a fresh memory set per request so consent
// revocation and new submissions are visible immediately.
package match

import (
	"log/slog"
	"sort"

	"github.com/heirloomhq/heirloom/pkg/passport"
	"github.com/heirloomhq/heirloom/pkg/taxonomy"
)

// Match types. Direct matches carry the trigger in their situational tags;
// thematic matches share a related theme only.
const (
	MatchTypeDirect   = "direct"
	MatchTypeThematic = "thematic"
)

// Match is one memory scored against a trigger.
type Match struct {
	Memory    passport.Memory `json:"memory"`
	MatchType string          `json:"match_type"`
}

// Matcher ranks memories against situational triggers.
type Matcher struct {
	logger *slog.Logger
}

// NewMatcher creates a Matcher.
func NewMatcher(logger *slog.Logger) *Matcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Matcher{logger: logger}
}

// Resolve returns the memories relevant to trigger, direct matches first,
// each group ordered by descending emotional weight with input order
// preserved among ties. An unknown trigger yields no matches.
func (m *Matcher) Resolve(trigger string, memories []passport.Memory) []Match {
	def, ok := taxonomy.GetTrigger(trigger)
	if !ok {
		m.logger.Warn("unknown trigger, no matches", "trigger", trigger)
		return nil
	}

	themes := make(map[string]bool, len(def.RelatedThemes))
	for _, theme := range def.RelatedThemes {
		themes[theme] = true
	}

	var direct, thematic []Match
	for _, mem := range memories {
		if hasTag(mem.SituationalTags, trigger) {
			direct = append(direct, Match{Memory: mem, MatchType: MatchTypeDirect})
			continue
		}
		if themes[mem.LifeTheme] {
			thematic = append(thematic, Match{Memory: mem, MatchType: MatchTypeThematic})
		}
	}

	byWeight := func(group []Match) {
		sort.SliceStable(group, func(i, j int) bool {
			return group[i].Memory.EmotionalWeight > group[j].Memory.EmotionalWeight
		})
	}
	byWeight(direct)
	byWeight(thematic)

	return append(direct, thematic...)
}

func hasTag(tags []string, trigger string) bool {
	for _, tag := range tags {
		if tag == trigger {
			return true
		}
	}
	return false
}
