// Package record loads raw life-event records for one subject from a
// directory of named JSONL feeds and deduplicates them by text content.
package record

// RawRecord is a single event loaded from a subject feed. Records are
// immutable once loaded; identity for dedup purposes is the normalized
// text body, not the id.
type RawRecord struct {
	ID       string   `json:"id"`
	TS       string   `json:"ts"`
	Source   string   `json:"source"`
	Type     string   `json:"type"`
	Text     string   `json:"text"`
	Tags     []string `json:"tags,omitempty"`
	Refs     []string `json:"refs,omitempty"`
	PIILevel string   `json:"pii_level,omitempty"`
}

// Profile holds the subject's contributor metadata loaded from the
// mandatory profile file.
type Profile struct {
	Name      string   `json:"name"`
	Age       int      `json:"age,omitempty"`
	Job       string   `json:"job,omitempty"`
	Languages []string `json:"languages,omitempty"`
}
