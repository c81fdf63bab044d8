package dotdir

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	lastRunFile = "lastrun.json"
)

// LastRunState records the outcome of the most recent ingest run. The
// ingest command uses it to report what changed since the previous run and
// to surface the passport id without a vault round trip.
type LastRunState struct {
	// PassportID is the vault id of the passport the run wrote to.
	PassportID string `json:"passport_id"`

	// Contributor is the subject the passport belongs to.
	Contributor string `json:"contributor"`

	// MemoriesPosted counts memories persisted during the run.
	MemoriesPosted int `json:"memories_posted"`

	// CompletedAt is when the run finished.
	CompletedAt time.Time `json:"completed_at"`
}

// LoadLastRun loads the last-run state from a target .heirloom/lastrun.json.
// Returns nil, nil if no state exists (no ingest has completed yet).
// If overrideDir is non-empty, it is used instead of the default ~/.heirloom/ location.
func (m *Manager) LoadLastRun(overrideDir string) (*LastRunState, error) {
	dir, err := m.Target(overrideDir)
	if err != nil {
		return nil, err
	}

	path := filepath.Join(dir, lastRunFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading last-run state: %w", err)
	}

	state := &LastRunState{}
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("parsing last-run state: %w", err)
	}

	return state, nil
}

// SaveLastRun persists the last-run state to a target .heirloom/lastrun.json.
func (m *Manager) SaveLastRun(state *LastRunState, overrideDir string) error {
	if state == nil {
		return errors.New("cannot save nil last-run state")
	}

	dir, err := m.Target(overrideDir)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling last-run state: %w", err)
	}

	path := filepath.Join(dir, lastRunFile)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing last-run state: %w", err)
	}

	return nil
}

// ClearLastRun removes the last-run state file.
// Returns nil if the file doesn't exist (already cleared).
func (m *Manager) ClearLastRun(overrideDir string) error {
	dir, err := m.Target(overrideDir)
	if err != nil {
		return err
	}

	path := filepath.Join(dir, lastRunFile)
	if err := os.Remove(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("removing last-run state: %w", err)
	}

	return nil
}
