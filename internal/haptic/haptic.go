// Package haptic implements vibration sinks for keypress feedback.
package haptic

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/godbus/dbus/v5"

	"github.com/jmylchreest/keyfx/internal/config"
	keyfxdbus "github.com/jmylchreest/keyfx/internal/dbus"
	"github.com/jmylchreest/keyfx/internal/feedback"
)

// feedbackdClient is the part of the feedbackd client a sink needs.
type feedbackdClient interface {
	TriggerFeedback(event string, hints map[string]dbus.Variant, timeout int32) (uint32, error)
	Vibrate(pattern []keyfxdbus.VibraStep) error
}

// Feedbackd vibrates through the feedbackd daemon.
//
// SystemDefault triggers the themed keypress event with the "important"
// hint so it fires even when the feedbackd profile would suppress it.
// Explicit durations are sent as a raw haptic pattern.
type Feedbackd struct {
	mu        sync.RWMutex
	client    feedbackdClient
	event     string
	magnitude float64
	logger    *slog.Logger
}

// NewFeedbackd creates a feedbackd-backed haptic sink.
func NewFeedbackd(client *keyfxdbus.Feedbackd, cfg config.HapticConfig, logger *slog.Logger) *Feedbackd {
	return newFeedbackd(client, cfg, logger)
}

func newFeedbackd(client feedbackdClient, cfg config.HapticConfig, logger *slog.Logger) *Feedbackd {
	if logger == nil {
		logger = slog.Default()
	}
	f := &Feedbackd{client: client, logger: logger}
	f.UpdateConfig(cfg)
	return f
}

// UpdateConfig applies a reloaded haptic configuration.
func (f *Feedbackd) UpdateConfig(cfg config.HapticConfig) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.event = cfg.Event
	f.magnitude = cfg.Magnitude
}

// Vibrate implements feedback.HapticSink.
func (f *Feedbackd) Vibrate(mode feedback.VibrationMode) error {
	f.mu.RLock()
	event, magnitude := f.event, f.magnitude
	f.mu.RUnlock()

	if mode.IsSystemDefault() {
		hints := map[string]dbus.Variant{"important": dbus.MakeVariant(true)}
		if _, err := f.client.TriggerFeedback(event, hints, keyfxdbus.TimeoutEventDefault); err != nil {
			return err
		}
		return nil
	}

	if mode.DurationMs <= 0 {
		f.logger.Debug("skipping zero-length vibration")
		return nil
	}

	pattern := []keyfxdbus.VibraStep{{Magnitude: magnitude, DurationMs: uint32(min(mode.DurationMs, feedback.MaxVibrationDurationMs))}}
	if err := f.client.Vibrate(pattern); err != nil {
		return fmt.Errorf("failed to vibrate for %dms: %w", mode.DurationMs, err)
	}
	return nil
}

// New returns the haptic sink selected by cfg. conn may be nil when no
// session bus is available, in which case vibration is a no-op.
func New(conn *dbus.Conn, appID string, cfg config.HapticConfig, logger *slog.Logger) feedback.HapticSink {
	if logger == nil {
		logger = slog.Default()
	}

	switch config.HapticBackend(cfg.Backend) {
	case config.HapticBackendFeedbackd:
		if conn == nil {
			logger.Warn("no D-Bus connection, haptic feedback disabled")
			return feedback.NopHaptic{}
		}
		return NewFeedbackd(keyfxdbus.NewFeedbackd(conn, appID, logger), cfg, logger)
	default:
		return feedback.NopHaptic{}
	}
}
