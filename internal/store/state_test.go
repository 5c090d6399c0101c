package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadSharedStateFile_Missing(t *testing.T) {
	state, err := LoadSharedStateFile(filepath.Join(t.TempDir(), "state.json"))
	require.NoError(t, err)
	assert.False(t, state.Silent)
	assert.Equal(t, CurrentSchemaVersion, state.SchemaVersion)
}

func TestLoadSharedStateFile_Corrupted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0600))

	state, err := LoadSharedStateFile(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCorruptState)
	assert.Nil(t, state)
}

func TestSharedState_SaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state.json")

	state := DefaultSharedState()
	state.SetSilent(true, TriggerUser, "silent on", "cli")
	require.NoError(t, SaveSharedStateFile(state, path))

	loaded, err := LoadSharedStateFile(path)
	require.NoError(t, err)
	assert.True(t, loaded.Silent)
	require.NotNil(t, loaded.LastTransition)
	assert.Equal(t, TriggerUser, loaded.LastTransition.Trigger)
	assert.Equal(t, "cli", loaded.LastTransition.Source)
	assert.NotZero(t, loaded.LastTransition.Timestamp)
}

func TestSharedState_Toggle(t *testing.T) {
	state := DefaultSharedState()
	assert.True(t, state.ToggleSilent(TriggerUser, "toggle", "tui"))
	assert.False(t, state.ToggleSilent(TriggerUser, "toggle", "tui"))
	assert.Equal(t, "tui", state.LastTransition.Source)
}

func TestDataDir_XDG(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/tmp/xdg")
	dir, err := DataDir()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/xdg/keyfx", dir)

	path, err := StateFilePath()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/xdg/keyfx/state.json", path)
}

func TestStateWatcher_ReportsChanges(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")

	changes := make(chan *SharedState, 16)
	w, err := NewStateWatcher(path, func(s *SharedState) { changes <- s }, nil)
	require.NoError(t, err)
	require.NoError(t, w.Start())
	defer func() { _ = w.Stop() }()

	state := DefaultSharedState()
	state.SetSilent(true, TriggerUser, "silent on", "test")
	require.NoError(t, SaveSharedStateFile(state, path))

	// The atomic save surfaces as a create of state.json.
	select {
	case got := <-changes:
		assert.True(t, got.Silent)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for state change")
	}
}
