// Package ringer provides sources of the device ringer state.
//
// A Source delivers feedback.RingerState values to a refresh callback,
// normally feedback.Policy.RefreshRingerState. Delivery starts with the
// state at startup, when it can be determined, followed by every change.
package ringer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/godbus/dbus/v5"

	"github.com/jmylchreest/keyfx/internal/config"
	"github.com/jmylchreest/keyfx/internal/feedback"
	"github.com/jmylchreest/keyfx/internal/store"
)

// RefreshFunc receives ringer state updates.
type RefreshFunc func(state feedback.RingerState)

// Source reports the ringer state.
type Source interface {
	// Current queries the ringer state once.
	Current(ctx context.Context) (feedback.RingerState, error)
	// Start delivers the current state, if known, and then every change
	// to refresh until Stop is called or ctx is done.
	Start(ctx context.Context, refresh RefreshFunc) error
	// Stop ends delivery.
	Stop() error
}

// Fixed is a Source that always reports the same state.
type Fixed feedback.RingerState

// Current implements Source.
func (f Fixed) Current(context.Context) (feedback.RingerState, error) {
	return feedback.RingerState(f), nil
}

// Start implements Source.
func (f Fixed) Start(_ context.Context, refresh RefreshFunc) error {
	refresh(feedback.RingerState(f))
	return nil
}

// Stop implements Source.
func (Fixed) Stop() error { return nil }

// New returns the source selected by cfg. conn is required for the
// feedbackd source.
func New(cfg config.RingerConfig, conn *dbus.Conn, appID string, logger *slog.Logger) (Source, error) {
	switch config.RingerSource(cfg.Source) {
	case config.RingerSourceNormal:
		return Fixed(feedback.RingerNormal), nil
	case config.RingerSourceSilent:
		return Fixed(feedback.RingerSilent), nil
	case config.RingerSourceStateFile:
		path, err := store.StateFilePath()
		if err != nil {
			return nil, fmt.Errorf("failed to get state file path: %w", err)
		}
		return NewStateFile(path, logger), nil
	case config.RingerSourceFeedbackd:
		if conn == nil {
			return nil, fmt.Errorf("feedbackd ringer source needs a D-Bus connection")
		}
		return NewFeedbackd(conn, appID, logger), nil
	default:
		return nil, fmt.Errorf("unknown ringer source %q", cfg.Source)
	}
}
