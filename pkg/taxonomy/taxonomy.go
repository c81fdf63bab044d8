// Package taxonomy defines the fixed situational trigger and life theme
// vocabularies shared by the ingestion and delivery paths.
//
// Both sets are process-wide constants: they are built once at init into
// lookup maps and never mutated afterward, so they are safe to read from
// any goroutine without locking.
package taxonomy

// Trigger is one of the 12 predefined situational triggers. Each trigger
// carries the life themes used for thematic fallback matching when a memory
// is not tagged with the trigger directly.
type Trigger struct {
	ID            string   `json:"id"`
	Label         string   `json:"label"`
	Description   string   `json:"description"`
	RelatedThemes []string `json:"related_themes"`
}

// TriggerIDs lists the canonical trigger ids in their stable display order.
var TriggerIDs = []string{
	"descendant-struggling-silently",
	"descendant-considering-quitting",
	"descendant-first-failure",
	"descendant-leaving-home",
	"descendant-becoming-parent",
	"descendant-losing-someone",
	"descendant-facing-injustice",
	"descendant-celebrating-milestone",
	"descendant-feeling-alone",
	"descendant-questioning-identity",
	"descendant-making-sacrifice",
	"descendant-seeking-purpose",
}

// Themes lists the 8 canonical life themes.
var Themes = []string{
	"failure-recovery",
	"love-as-action",
	"persistence",
	"identity",
	"letting-go",
	"unconditional-support",
	"wonder",
	"endurance",
}

var triggers = map[string]Trigger{
	"descendant-struggling-silently": {
		ID:            "descendant-struggling-silently",
		Label:         "Struggling Silently",
		Description:   "The descendant is facing hardship but not asking for help.",
		RelatedThemes: []string{"persistence", "endurance", "unconditional-support"},
	},
	"descendant-considering-quitting": {
		ID:            "descendant-considering-quitting",
		Label:         "Considering Quitting",
		Description:   "The descendant is thinking about giving up on something important.",
		RelatedThemes: []string{"persistence", "failure-recovery", "endurance"},
	},
	"descendant-first-failure": {
		ID:            "descendant-first-failure",
		Label:         "First Failure",
		Description:   "The descendant is experiencing a significant failure for the first time.",
		RelatedThemes: []string{"failure-recovery", "persistence", "wonder"},
	},
	"descendant-leaving-home": {
		ID:            "descendant-leaving-home",
		Label:         "Leaving Home",
		Description:   "The descendant is moving away from family for the first time.",
		RelatedThemes: []string{"identity", "letting-go", "love-as-action"},
	},
	"descendant-becoming-parent": {
		ID:            "descendant-becoming-parent",
		Label:         "Becoming a Parent",
		Description:   "The descendant is becoming a parent themselves.",
		RelatedThemes: []string{"love-as-action", "unconditional-support", "identity"},
	},
	"descendant-losing-someone": {
		ID:            "descendant-losing-someone",
		Label:         "Losing Someone",
		Description:   "The descendant is grieving a loss.",
		RelatedThemes: []string{"letting-go", "love-as-action", "endurance"},
	},
	"descendant-facing-injustice": {
		ID:            "descendant-facing-injustice",
		Label:         "Facing Injustice",
		Description:   "The descendant is confronting unfairness or discrimination.",
		RelatedThemes: []string{"persistence", "identity", "endurance"},
	},
	"descendant-celebrating-milestone": {
		ID:            "descendant-celebrating-milestone",
		Label:         "Celebrating a Milestone",
		Description:   "The descendant is achieving something worth celebrating.",
		RelatedThemes: []string{"wonder", "love-as-action", "persistence"},
	},
	"descendant-feeling-alone": {
		ID:            "descendant-feeling-alone",
		Label:         "Feeling Alone",
		Description:   "The descendant feels isolated or disconnected from family.",
		RelatedThemes: []string{"unconditional-support", "love-as-action", "identity"},
	},
	"descendant-questioning-identity": {
		ID:            "descendant-questioning-identity",
		Label:         "Questioning Identity",
		Description:   "The descendant is wrestling with who they are.",
		RelatedThemes: []string{"identity", "letting-go", "wonder"},
	},
	"descendant-making-sacrifice": {
		ID:            "descendant-making-sacrifice",
		Label:         "Making a Sacrifice",
		Description:   "The descendant is giving up something important for someone else.",
		RelatedThemes: []string{"love-as-action", "letting-go", "endurance"},
	},
	"descendant-seeking-purpose": {
		ID:            "descendant-seeking-purpose",
		Label:         "Seeking Purpose",
		Description:   "The descendant is searching for meaning or direction in life.",
		RelatedThemes: []string{"identity", "wonder", "persistence"},
	},
}

var themeSet = func() map[string]struct{} {
	set := make(map[string]struct{}, len(Themes))
	for _, theme := range Themes {
		set[theme] = struct{}{}
	}
	return set
}()

// GetTrigger returns the trigger with the given id, if it exists.
func GetTrigger(id string) (Trigger, bool) {
	t, ok := triggers[id]
	return t, ok
}

// IsValidTrigger reports whether id is one of the 12 canonical trigger ids.
func IsValidTrigger(id string) bool {
	_, ok := triggers[id]
	return ok
}

// IsValidTheme reports whether theme is one of the 8 canonical life themes.
func IsValidTheme(theme string) bool {
	_, ok := themeSet[theme]
	return ok
}

// AllTriggers returns the triggers in canonical display order.
func AllTriggers() []Trigger {
	out := make([]Trigger, 0, len(TriggerIDs))
	for _, id := range TriggerIDs {
		out = append(out, triggers[id])
	}
	return out
}
