// Package store persists state shared between keyfx and keyfxd.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// DataDir returns the path to the keyfx data directory.
// Uses XDG_DATA_HOME or defaults to ~/.local/share/keyfx.
func DataDir() (string, error) {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, "keyfx"), nil
}

// Trigger represents what triggered a silent mode change.
type Trigger string

const (
	// TriggerUser indicates a user-initiated change (CLI, TUI, etc.)
	TriggerUser Trigger = "user"
)

// Transition records details about a silent mode change.
type Transition struct {
	Trigger   Trigger `json:"trigger"`
	Reason    string  `json:"reason"`           // Human-readable reason (e.g., "silent on")
	Source    string  `json:"source,omitempty"` // Source identifier (e.g., "cli", "tui")
	Timestamp int64   `json:"timestamp"`
}

// SharedState contains state that is shared between keyfx and keyfxd.
// This is persisted to ~/.local/share/keyfx/state.json
type SharedState struct {
	// Silent suppresses key-click sounds, like a ringer in silent mode
	Silent bool `json:"silent"`

	LastTransition *Transition `json:"last_transition,omitempty"`

	SchemaVersion int `json:"schema_version"`
}

// CurrentSchemaVersion is the current version of the state schema.
const CurrentSchemaVersion = 1

// stateFileMutex protects concurrent access to the state file.
var stateFileMutex sync.RWMutex

// DefaultSharedState returns a new SharedState with default values.
func DefaultSharedState() *SharedState {
	return &SharedState{
		Silent:        false,
		SchemaVersion: CurrentSchemaVersion,
	}
}

// StateFilePath returns the path to the state file.
func StateFilePath() (string, error) {
	dataDir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dataDir, "state.json"), nil
}

// LoadSharedState loads the shared state from the default path.
func LoadSharedState() (*SharedState, error) {
	path, err := StateFilePath()
	if err != nil {
		return nil, err
	}
	return LoadSharedStateFile(path)
}

// ErrCorruptState is returned when the state file exists but cannot be decoded.
var ErrCorruptState = errors.New("corrupt state file")

// LoadSharedStateFile loads the shared state from path.
// If the file doesn't exist, returns a default state. A file that cannot
// be decoded is an error wrapping ErrCorruptState, since the silent flag
// is then unknown.
func LoadSharedStateFile(path string) (*SharedState, error) {
	stateFileMutex.RLock()
	defer stateFileMutex.RUnlock()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultSharedState(), nil
		}
		return nil, err
	}

	var state SharedState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrCorruptState, path, err)
	}

	if state.SchemaVersion == 0 {
		state.SchemaVersion = CurrentSchemaVersion
	}

	return &state, nil
}

// SaveSharedState saves the shared state to the default path.
func SaveSharedState(state *SharedState) error {
	path, err := StateFilePath()
	if err != nil {
		return err
	}
	return SaveSharedStateFile(state, path)
}

// SaveSharedStateFile saves the shared state to path.
func SaveSharedStateFile(state *SharedState, path string) error {
	stateFileMutex.Lock()
	defer stateFileMutex.Unlock()

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	if state.SchemaVersion == 0 {
		state.SchemaVersion = CurrentSchemaVersion
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}

	// Write atomically via temp file
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return err
	}

	return os.Rename(tmpPath, path)
}

// SetSilent updates silent mode and records the transition.
func (s *SharedState) SetSilent(silent bool, trigger Trigger, reason, source string) {
	s.Silent = silent
	s.LastTransition = &Transition{
		Trigger:   trigger,
		Reason:    reason,
		Source:    source,
		Timestamp: time.Now().Unix(),
	}
}

// ToggleSilent flips silent mode and returns the new value.
func (s *SharedState) ToggleSilent(trigger Trigger, reason, source string) bool {
	s.SetSilent(!s.Silent, trigger, reason, source)
	return s.Silent
}
