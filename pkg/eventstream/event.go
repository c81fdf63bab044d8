package eventstream

import "time"

const (
	// SchemaVersionV1 is the first version of the event payload schema.
	SchemaVersionV1 = 1

	// EventTypeMemoryPersisted is emitted after a memory is stored under a
	// passport in the vault.
	EventTypeMemoryPersisted = "heirloom.memory.persisted"
)

// MemoryPersistedEvent is a transport-neutral event payload for a memory
// that reached the vault during passport submission.
type MemoryPersistedEvent struct {
	SchemaVersion int       `json:"schema_version"`
	EventType     string    `json:"event_type"`
	EventID       string    `json:"event_id"`
	EmittedAt     time.Time `json:"emitted_at"`
	PassportID    string    `json:"passport_id"`
	Contributor   string    `json:"contributor"`
	MemoryID      string    `json:"memory_id"`
	LifeTheme     string    `json:"life_theme"`
	Tags          []string  `json:"tags"`
	Weight        int       `json:"weight"`
}
