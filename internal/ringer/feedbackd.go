package ringer

import (
	"context"
	"log/slog"
	"sync"

	"github.com/godbus/dbus/v5"

	keyfxdbus "github.com/jmylchreest/keyfx/internal/dbus"
	"github.com/jmylchreest/keyfx/internal/feedback"
)

// FromProfile maps a feedbackd profile to a ringer state. Only the "full"
// profile plays sounds; "quiet" is vibrate-only and "silent" is silent.
func FromProfile(profile string) feedback.RingerState {
	if profile == keyfxdbus.ProfileFull {
		return feedback.RingerNormal
	}
	return feedback.RingerSilent
}

// ProfileFor maps a ringer state to the feedbackd profile that produces it.
func ProfileFor(state feedback.RingerState) string {
	if state == feedback.RingerNormal {
		return keyfxdbus.ProfileFull
	}
	return keyfxdbus.ProfileSilent
}

type profileReader interface {
	Profile() (string, error)
}

type profileWatcher interface {
	SetChangeHandler(handler keyfxdbus.ProfileHandler)
	Start(ctx context.Context) error
}

// Feedbackd follows the feedbackd profile as the ringer state.
type Feedbackd struct {
	reader  profileReader
	watcher profileWatcher
	logger  *slog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc

	// refreshMu orders the initial read against change signals.
	refreshMu sync.Mutex
	signalled bool
}

// NewFeedbackd creates a feedbackd ringer source on conn.
func NewFeedbackd(conn *dbus.Conn, appID string, logger *slog.Logger) *Feedbackd {
	return newFeedbackd(
		keyfxdbus.NewFeedbackd(conn, appID, logger),
		keyfxdbus.NewProfileMonitor(conn, logger),
		logger,
	)
}

func newFeedbackd(reader profileReader, watcher profileWatcher, logger *slog.Logger) *Feedbackd {
	if logger == nil {
		logger = slog.Default()
	}
	return &Feedbackd{reader: reader, watcher: watcher, logger: logger}
}

// Current implements Source.
func (f *Feedbackd) Current(context.Context) (feedback.RingerState, error) {
	profile, err := f.reader.Profile()
	if err != nil {
		return feedback.RingerSilent, err
	}
	return FromProfile(profile), nil
}

// Start implements Source. If the profile cannot be read the policy
// keeps its silent default until the first change signal arrives. A
// change signal that lands while the initial read is in flight wins
// over the read's result.
func (f *Feedbackd) Start(ctx context.Context, refresh RefreshFunc) error {
	ctx, cancel := context.WithCancel(ctx)

	f.refreshMu.Lock()
	f.signalled = false
	f.refreshMu.Unlock()

	f.watcher.SetChangeHandler(func(profile string) {
		state := FromProfile(profile)
		f.logger.Info("ringer state changed", "profile", profile, "state", state)

		f.refreshMu.Lock()
		defer f.refreshMu.Unlock()
		f.signalled = true
		refresh(state)
	})
	if err := f.watcher.Start(ctx); err != nil {
		cancel()
		return err
	}

	f.mu.Lock()
	f.cancel = cancel
	f.mu.Unlock()

	state, err := f.Current(ctx)
	if err != nil {
		f.logger.Warn("failed to read feedbackd profile, assuming silent", "error", err)
		return nil
	}

	f.refreshMu.Lock()
	defer f.refreshMu.Unlock()
	if f.signalled {
		f.logger.Debug("profile changed during initial read, keeping signalled state", "read", state)
		return nil
	}
	refresh(state)
	return nil
}

// Stop implements Source.
func (f *Feedbackd) Stop() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.cancel != nil {
		f.cancel()
		f.cancel = nil
	}
	return nil
}
