package classify

import (
	"strings"

	"github.com/heirloomhq/heirloom/pkg/taxonomy"
)

// triggerMatcher is one stage of the trigger normalization chain. Each
// stage either resolves a candidate to a canonical trigger id or passes.
// Stages run in a fixed order; the first match wins.
type triggerMatcher func(candidate string) (string, bool)

// triggerPrefix is the fixed domain prefix tried when a candidate omits it
// (e.g. "losing-someone" -> "descendant-losing-someone").
const triggerPrefix = "descendant-"

// keywordTriggers maps free-form keywords to triggers. Order matters: the
// table is scanned top to bottom and the first containing keyword wins, so
// normalization stays deterministic for candidates matching several rows.
var keywordTriggers = []struct {
	keyword string
	trigger string
}{
	{"struggle", "descendant-struggling-silently"},
	{"silent", "descendant-struggling-silently"},
	{"quit", "descendant-considering-quitting"},
	{"giving up", "descendant-considering-quitting"},
	{"fail", "descendant-first-failure"},
	{"rejection", "descendant-first-failure"},
	{"leaving", "descendant-leaving-home"},
	{"moving away", "descendant-leaving-home"},
	{"parent", "descendant-becoming-parent"},
	{"child", "descendant-becoming-parent"},
	{"loss", "descendant-losing-someone"},
	{"grief", "descendant-losing-someone"},
	{"death", "descendant-losing-someone"},
	{"injustice", "descendant-facing-injustice"},
	{"discrimination", "descendant-facing-injustice"},
	{"unfair", "descendant-facing-injustice"},
	{"milestone", "descendant-celebrating-milestone"},
	{"celebration", "descendant-celebrating-milestone"},
	{"achievement", "descendant-celebrating-milestone"},
	{"alone", "descendant-feeling-alone"},
	{"lonely", "descendant-feeling-alone"},
	{"isolated", "descendant-feeling-alone"},
	{"identity", "descendant-questioning-identity"},
	{"who am i", "descendant-questioning-identity"},
	{"sacrifice", "descendant-making-sacrifice"},
	{"purpose", "descendant-seeking-purpose"},
	{"meaning", "descendant-seeking-purpose"},
	{"direction", "descendant-seeking-purpose"},
}

// themeAliases maps substrings of free-form theme strings to canonical
// themes. Ordered for the same determinism reason as keywordTriggers.
var themeAliases = []struct {
	alias string
	theme string
}{
	{"resilience", "persistence"},
	{"sacrifice", "love-as-action"},
	{"generosity", "love-as-action"},
	{"love", "love-as-action"},
	{"support", "unconditional-support"},
	{"failure", "failure-recovery"},
	{"recovery", "failure-recovery"},
	{"curiosity", "wonder"},
	{"discovery", "wonder"},
	{"loss", "letting-go"},
	{"grief", "letting-go"},
	{"self", "identity"},
	{"who-i-am", "identity"},
	{"grit", "endurance"},
	{"stamina", "endurance"},
	{"determination", "persistence"},
}

// defaultTheme is assigned when a theme string matches nothing. Documented
// heuristic, not a semantic guarantee.
const defaultTheme = "persistence"

// themeDefaultTriggers assigns a single representative trigger per theme,
// used only when a signal yields zero valid tag candidates. The pairing is
// a hand-picked heuristic preserved for compatibility with existing
// passports; it is not derived from the generation output.
var themeDefaultTriggers = map[string]string{
	"failure-recovery":      "descendant-first-failure",
	"love-as-action":        "descendant-struggling-silently",
	"persistence":           "descendant-considering-quitting",
	"identity":              "descendant-questioning-identity",
	"letting-go":            "descendant-losing-someone",
	"unconditional-support": "descendant-feeling-alone",
	"wonder":                "descendant-seeking-purpose",
	"endurance":             "descendant-considering-quitting",
}

// fallbackTrigger covers themes absent from themeDefaultTriggers.
const fallbackTrigger = "descendant-seeking-purpose"

// triggerChain is the normalization strategy chain, tried in order.
var triggerChain = []triggerMatcher{
	matchExact,
	matchPrefixed,
	matchSubstring,
	matchKeyword,
}

// NormalizeTrigger maps a free-form situational tag candidate to a
// canonical trigger id, or reports that no stage matched. Candidates that
// resolve to nothing are dropped by the caller, never defaulted here.
func NormalizeTrigger(candidate string) (string, bool) {
	normalized := strings.ToLower(strings.TrimSpace(candidate))
	if normalized == "" {
		return "", false
	}
	for _, match := range triggerChain {
		if trigger, ok := match(normalized); ok {
			return trigger, true
		}
	}
	return "", false
}

func matchExact(candidate string) (string, bool) {
	if taxonomy.IsValidTrigger(candidate) {
		return candidate, true
	}
	return "", false
}

func matchPrefixed(candidate string) (string, bool) {
	prefixed := triggerPrefix + candidate
	if taxonomy.IsValidTrigger(prefixed) {
		return prefixed, true
	}
	return "", false
}

// matchSubstring checks containment either way between the candidate and
// each trigger id with the domain prefix stripped.
func matchSubstring(candidate string) (string, bool) {
	for _, id := range taxonomy.TriggerIDs {
		core := strings.TrimPrefix(id, triggerPrefix)
		if strings.Contains(candidate, core) || strings.Contains(core, candidate) {
			return id, true
		}
	}
	return "", false
}

func matchKeyword(candidate string) (string, bool) {
	for _, row := range keywordTriggers {
		if strings.Contains(candidate, row.keyword) {
			return row.trigger, true
		}
	}
	return "", false
}

// NormalizeTheme maps a free-form life theme onto the canonical set. It
// never fails: unmatched themes fall back to defaultTheme and the caller
// logs a warning when defaulted is true.
func NormalizeTheme(theme string) (normalized string, defaulted bool) {
	candidate := strings.ToLower(strings.TrimSpace(theme))
	if taxonomy.IsValidTheme(candidate) {
		return candidate, false
	}
	for _, row := range themeAliases {
		if strings.Contains(candidate, row.alias) {
			return row.theme, false
		}
	}
	return defaultTheme, true
}

// DefaultTriggerForTheme returns the representative trigger assigned to a
// canonical theme when a signal has no surviving tag candidates.
func DefaultTriggerForTheme(theme string) string {
	if trigger, ok := themeDefaultTriggers[theme]; ok {
		return trigger
	}
	return fallbackTrigger
}
