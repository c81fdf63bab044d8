// Package passport defines the Living Memory Object and the assembled
// memory passport document, and builds passports from finalized memories.
package passport

import (
	"strings"
	"time"

	"github.com/heirloomhq/heirloom/pkg/record"
	"github.com/heirloomhq/heirloom/pkg/taxonomy"
)

// Memory type tags. This pipeline only ever produces recorded memories;
// reconstructed ones come from family-supplied data outside this path.
const (
	MemoryTypeRecorded      = "recorded"
	MemoryTypeReconstructed = "reconstructed"
)

// SchemaVersion identifies the passport document schema.
const SchemaVersion = "1.0"

// Memory is a finalized Living Memory Object. Invariants: EmotionalWeight
// is always >= 6 for a Memory that exists, and SituationalTags is never
// empty. Memories are immutable once created.
type Memory struct {
	MemoryID          string   `json:"memoryId"`
	SourceRef         string   `json:"sourceRef"`
	ContributorName   string   `json:"contributorName"`
	EmotionalWeight   int      `json:"emotionalWeight"`
	LifeTheme         string   `json:"lifeTheme"`
	SituationalTags   []string `json:"situationalTags"`
	MemoryType        string   `json:"memoryType"`
	VerifiedBySubject bool     `json:"verifiedBySubject"`
	Text              string   `json:"text"`
	WisdomExtracted   string   `json:"wisdomExtracted"`
	ValueExpressed    string   `json:"valueExpressed"`
	CreatedAt         string   `json:"createdAt"`
}

// Contributor identifies the person whose records produced the passport.
type Contributor struct {
	Name       string `json:"name"`
	Role       string `json:"role,omitempty"`
	BirthYear  int    `json:"birthYear,omitempty"`
	Occupation string `json:"occupation,omitempty"`
}

// Heritage holds contributor and family metadata for a passport.
type Heritage struct {
	FamilyName         string      `json:"familyName"`
	PrimaryContributor Contributor `json:"primaryContributor"`
	Languages          []string    `json:"languages,omitempty"`
}

// Meta holds run metadata for an assembled passport.
type Meta struct {
	CreatedAt   string `json:"createdAt"`
	Version     string `json:"version"`
	SourceCount int    `json:"sourceCount"`
	LMOCount    int    `json:"lmoCount"`
}

// Passport is the assembled per-subject document: heritage metadata, the
// ordered theme values, all memories, the situational index, and run
// metadata. Re-running ingestion over the same source data produces an
// equivalent passport.
type Passport struct {
	Context          string              `json:"@context"`
	Type             string              `json:"@type"`
	PassportID       string              `json:"passportId,omitempty"`
	Heritage         Heritage            `json:"heritage"`
	Values           []string            `json:"values"`
	Memories         []Memory            `json:"memories"`
	SituationalIndex map[string][]string `json:"situationalIndex"`
	Meta             Meta                `json:"meta"`
}

const (
	documentContext = "https://heirloomhq.dev/schema/v1"
	documentType    = "CulturalMemoryPassport"
)

// BuildSituationalIndex maps every canonical trigger id to the memory ids
// tagged with it. All 12 keys are always present; triggers no memory
// carries map to an empty list.
func BuildSituationalIndex(memories []Memory) map[string][]string {
	index := make(map[string][]string, len(taxonomy.TriggerIDs))
	for _, id := range taxonomy.TriggerIDs {
		index[id] = []string{}
	}
	for _, mem := range memories {
		for _, tag := range mem.SituationalTags {
			if _, ok := index[tag]; ok {
				index[tag] = append(index[tag], mem.MemoryID)
			}
		}
	}
	return index
}

// orderedThemes returns the distinct life themes among memories sorted by
// descending frequency, ties broken by first-seen order.
func orderedThemes(memories []Memory) []string {
	counts := make(map[string]int)
	var firstSeen []string
	for _, mem := range memories {
		if counts[mem.LifeTheme] == 0 {
			firstSeen = append(firstSeen, mem.LifeTheme)
		}
		counts[mem.LifeTheme]++
	}

	// insertion sort keeps the first-seen order stable for equal counts
	themes := make([]string, len(firstSeen))
	copy(themes, firstSeen)
	for i := 1; i < len(themes); i++ {
		for j := i; j > 0 && counts[themes[j]] > counts[themes[j-1]]; j-- {
			themes[j], themes[j-1] = themes[j-1], themes[j]
		}
	}
	return themes
}

// Build assembles a passport from finalized memories, the subject profile,
// and the pre-dedup source record count.
func Build(memories []Memory, profile record.Profile, totalSourceRecords int) *Passport {
	familyName := "Unknown"
	if parts := strings.Fields(profile.Name); len(parts) > 0 {
		familyName = parts[len(parts)-1]
	}

	contributor := Contributor{
		Name:       profile.Name,
		Role:       profile.Job,
		Occupation: profile.Job,
	}
	if contributor.Name == "" {
		contributor.Name = "Unknown"
	}
	if contributor.Role == "" {
		contributor.Role = "contributor"
	}
	if profile.Age > 0 {
		contributor.BirthYear = time.Now().UTC().Year() - profile.Age
	}

	return &Passport{
		Context: documentContext,
		Type:    documentType,
		Heritage: Heritage{
			FamilyName:         familyName,
			PrimaryContributor: contributor,
			Languages:          profile.Languages,
		},
		Values:           orderedThemes(memories),
		Memories:         memories,
		SituationalIndex: BuildSituationalIndex(memories),
		Meta: Meta{
			CreatedAt:   time.Now().UTC().Format(time.RFC3339),
			Version:     SchemaVersion,
			SourceCount: totalSourceRecords,
			LMOCount:    len(memories),
		},
	}
}
