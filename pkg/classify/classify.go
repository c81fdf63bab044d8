// Package classify gates wisdom signals by emotional weight and normalizes
// their open-vocabulary tags and themes onto the closed taxonomy, producing
// finalized Living Memory Objects.
package classify

import (
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/heirloomhq/heirloom/pkg/extract"
	"github.com/heirloomhq/heirloom/pkg/passport"
)

// memoryIDNamespace is the UUIDv5 namespace for memory ids. Identity is
// derived from the contributor and the verbatim source text, so re-ingesting
// the same records produces the same ids and the vault's insert-or-ignore
// keeps re-runs from duplicating memories.
var memoryIDNamespace = uuid.MustParse("7d2f4a9e-58c1-4d6b-9f3e-1a0c8b5e2d47")

func memoryID(contributorName, originalText string) string {
	return uuid.NewSHA1(memoryIDNamespace, []byte(contributorName+"\x00"+originalText)).String()
}

// WeightGate is the minimum emotional weight a signal must carry to become
// a memory. Signals below it are counted and discarded.
const WeightGate = 6

// Stats reports before/after counts for one classification pass.
type Stats struct {
	Input    int
	GatedOut int
	Produced int
}

// Classifier turns wisdom signals into Living Memory Objects.
type Classifier struct {
	logger *slog.Logger
	now    func() time.Time
}

// NewClassifier creates a Classifier.
func NewClassifier(logger *slog.Logger) *Classifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Classifier{logger: logger, now: time.Now}
}

// Classify applies the weight gate and tag/theme normalization to signals,
// producing one memory per surviving signal. Every produced memory has
// weight >= WeightGate and at least one valid situational tag.
func (c *Classifier) Classify(signals []extract.Signal, contributorName string) ([]passport.Memory, Stats) {
	stats := Stats{Input: len(signals)}
	var memories []passport.Memory

	for _, sig := range signals {
		if sig.EmotionalWeight < WeightGate {
			stats.GatedOut++
			continue
		}

		theme, defaulted := NormalizeTheme(sig.LifeTheme)
		if defaulted {
			c.logger.Warn("unrecognized life theme, defaulting",
				"theme", sig.LifeTheme, "default", theme, "source", sig.SourceRecordID)
		}

		tags := c.normalizeTags(sig.TagCandidates)
		if len(tags) == 0 {
			// theme-based fallback keeps the non-empty-tags invariant
			tags = []string{DefaultTriggerForTheme(theme)}
		}

		memories = append(memories, passport.Memory{
			MemoryID:          memoryID(contributorName, sig.OriginalText),
			SourceRef:         sig.SourceRecordID,
			ContributorName:   contributorName,
			EmotionalWeight:   sig.EmotionalWeight,
			LifeTheme:         theme,
			SituationalTags:   tags,
			MemoryType:        passport.MemoryTypeRecorded,
			VerifiedBySubject: true,
			Text:              sig.OriginalText,
			WisdomExtracted:   sig.WisdomSignal,
			ValueExpressed:    sig.ValueExpressed,
			CreatedAt:         c.now().UTC().Format(time.RFC3339),
		})
	}

	stats.Produced = len(memories)
	c.logger.Info("classification complete",
		"signals", stats.Input,
		"memories", stats.Produced,
		"gated_out", stats.GatedOut,
		"gate", WeightGate,
	)
	return memories, stats
}

// normalizeTags resolves candidates through the normalization chain,
// dropping unresolvable ones and deduplicating while preserving order.
func (c *Classifier) normalizeTags(candidates []string) []string {
	var tags []string
	seen := make(map[string]struct{}, len(candidates))
	for _, candidate := range candidates {
		trigger, ok := NormalizeTrigger(candidate)
		if !ok {
			c.logger.Debug("dropping unresolvable tag candidate", "candidate", candidate)
			continue
		}
		if _, dup := seen[trigger]; dup {
			continue
		}
		seen[trigger] = struct{}{}
		tags = append(tags, trigger)
	}
	return tags
}
