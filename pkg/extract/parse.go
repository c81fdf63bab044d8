package extract

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/heirloomhq/heirloom/pkg/record"
	"github.com/heirloomhq/heirloom/pkg/utils"
)

// parseResponse parses the raw generation response for one batch into
// signals. The response is expected to be a JSON array of objects-or-null,
// possibly fenced in a markdown code block, with field names in either
// camelCase or snake_case. Unparseable responses yield zero signals and
// unparseable entries are skipped individually; the run continues.
func (e *Extractor) parseResponse(raw string, batch []record.RawRecord) []Signal {
	text := stripFences(raw)

	var entries []json.RawMessage
	if err := json.Unmarshal([]byte(text), &entries); err != nil {
		e.logger.Error("failed to parse generation response",
			"error", err, "head", utils.Truncate(text, 120))
		return nil
	}

	byID := make(map[string]record.RawRecord, len(batch))
	for _, rec := range batch {
		byID[rec.ID] = rec
	}

	var signals []Signal
	for i, raw := range entries {
		if string(raw) == "null" {
			// null entry: the record had no wisdom signal
			continue
		}

		var entry map[string]any
		if err := json.Unmarshal(raw, &entry); err != nil {
			// one malformed entry must not sink the batch
			e.logger.Warn("skipping malformed entry in generation response",
				"index", i, "error", err, "head", utils.Truncate(string(raw), 120))
			continue
		}

		sig, ok := e.parseEntry(entry, i, batch, byID)
		if !ok {
			continue
		}
		signals = append(signals, sig)
	}
	return signals
}

func (e *Extractor) parseEntry(entry map[string]any, idx int, batch []record.RawRecord, byID map[string]record.RawRecord) (Signal, bool) {
	sourceID := pickString(entry, "sourceRef", "source_ref", "recordId", "record_id")
	if sourceID == "" {
		if idx < len(batch) {
			sourceID = batch[idx].ID
		} else {
			sourceID = fmt.Sprintf("unknown_%d", idx)
		}
	}

	original := originalText(entry)
	if original == "" {
		// fall back to the declared record, then to batch position
		if rec, ok := byID[sourceID]; ok {
			original = rec.Text
		} else if idx < len(batch) {
			original = batch[idx].Text
		}
		// both failed: keep the entry with empty original text
	}

	wisdom := pickString(entry, "wisdomSignal", "wisdom_signal", "wisdomExtracted", "wisdom_extracted")
	weight := pickInt(entry, "emotionalWeight", "emotional_weight")

	if weight < 1 || wisdom == "" {
		e.logger.Warn("discarding entry without weight or wisdom signal", "index", idx, "source", sourceID)
		return Signal{}, false
	}

	return Signal{
		SourceRecordID:  sourceID,
		OriginalText:    original,
		WisdomSignal:    wisdom,
		ValueExpressed:  pickString(entry, "valueExpressed", "value_expressed"),
		TagCandidates:   pickStrings(entry, "situationalTagCandidates", "situational_tag_candidates", "situationalTags"),
		EmotionalWeight: clampWeight(weight),
		LifeTheme:       pickString(entry, "lifeTheme", "life_theme"),
	}, true
}

// originalText reads the verbatim source text, which may appear nested under
// content.original or flat under original_text / text.
func originalText(entry map[string]any) string {
	if content, ok := entry["content"].(map[string]any); ok {
		if s, ok := content["original"].(string); ok && s != "" {
			return s
		}
	}
	return pickString(entry, "original_text", "originalText", "text")
}

// stripFences removes a surrounding markdown code fence, if present.
func stripFences(raw string) string {
	text := strings.TrimSpace(raw)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	lines := strings.Split(text, "\n")
	if len(lines) < 2 {
		return text
	}
	return strings.TrimSpace(strings.Join(lines[1:len(lines)-1], "\n"))
}

func clampWeight(w int) int {
	if w < 1 {
		return 1
	}
	if w > 10 {
		return 10
	}
	return w
}

// pickString returns the first non-empty string value among the given keys.
func pickString(entry map[string]any, keys ...string) string {
	for _, key := range keys {
		if s, ok := entry[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// pickInt returns the first numeric value among the given keys, accepting
// JSON numbers and numeric strings.
func pickInt(entry map[string]any, keys ...string) int {
	for _, key := range keys {
		switch v := entry[key].(type) {
		case float64:
			return int(v)
		case string:
			if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
				return n
			}
		}
	}
	return 0
}

// pickStrings returns the first list-of-strings value among the given keys.
// A bare string value is treated as a single-element list.
func pickStrings(entry map[string]any, keys ...string) []string {
	for _, key := range keys {
		switch v := entry[key].(type) {
		case []any:
			out := make([]string, 0, len(v))
			for _, item := range v {
				if s, ok := item.(string); ok {
					out = append(out, s)
				}
			}
			if len(out) > 0 {
				return out
			}
		case string:
			if v != "" {
				return []string{v}
			}
		}
	}
	return nil
}
