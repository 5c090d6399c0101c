package ringer

import (
	"context"
	"log/slog"
	"sync"

	"github.com/jmylchreest/keyfx/internal/feedback"
	"github.com/jmylchreest/keyfx/internal/store"
)

// FromSharedState maps the shared silent flag to a ringer state.
func FromSharedState(state *store.SharedState) feedback.RingerState {
	if state.Silent {
		return feedback.RingerSilent
	}
	return feedback.RingerNormal
}

// StateFile follows the silent flag in the keyfx shared state file,
// for desktops without a ringer.
type StateFile struct {
	path   string
	logger *slog.Logger

	mu      sync.Mutex
	watcher *store.StateWatcher
}

// NewStateFile creates a state file source for path.
func NewStateFile(path string, logger *slog.Logger) *StateFile {
	if logger == nil {
		logger = slog.Default()
	}
	return &StateFile{path: path, logger: logger}
}

// Current implements Source.
func (s *StateFile) Current(context.Context) (feedback.RingerState, error) {
	state, err := store.LoadSharedStateFile(s.path)
	if err != nil {
		return feedback.RingerSilent, err
	}
	return FromSharedState(state), nil
}

// Start implements Source.
func (s *StateFile) Start(ctx context.Context, refresh RefreshFunc) error {
	w, err := store.NewStateWatcher(s.path, func(state *store.SharedState) {
		r := FromSharedState(state)
		s.logger.Info("ringer state changed", "silent", state.Silent, "state", r)
		refresh(r)
	}, s.logger)
	if err != nil {
		return err
	}
	if err := w.Start(); err != nil {
		_ = w.Stop()
		return err
	}

	s.mu.Lock()
	s.watcher = w
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		_ = s.Stop()
	}()

	if r, err := s.Current(ctx); err != nil {
		s.logger.Warn("failed to read state file, assuming silent", "path", s.path, "error", err)
	} else {
		refresh(r)
	}
	return nil
}

// Stop implements Source.
func (s *StateFile) Stop() error {
	s.mu.Lock()
	w := s.watcher
	s.watcher = nil
	s.mu.Unlock()

	if w == nil {
		return nil
	}
	return w.Stop()
}
