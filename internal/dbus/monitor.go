package dbus

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/godbus/dbus/v5"
)

// ProfileHandler is called with each new feedbackd profile.
type ProfileHandler func(profile string)

// ProfileMonitor follows feedbackd's Profile property through
// PropertiesChanged signals.
type ProfileMonitor struct {
	conn   *dbus.Conn
	logger *slog.Logger

	onChange ProfileHandler
}

// NewProfileMonitor creates a new profile monitor on conn.
func NewProfileMonitor(conn *dbus.Conn, logger *slog.Logger) *ProfileMonitor {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProfileMonitor{
		conn:   conn,
		logger: logger,
	}
}

// SetChangeHandler sets the callback for profile changes.
func (m *ProfileMonitor) SetChangeHandler(handler ProfileHandler) {
	m.onChange = handler
}

// Start subscribes to feedbackd property changes until ctx is done.
func (m *ProfileMonitor) Start(ctx context.Context) error {
	matchOpts := []dbus.MatchOption{
		dbus.WithMatchObjectPath(FeedbackdPath),
		dbus.WithMatchInterface("org.freedesktop.DBus.Properties"),
		dbus.WithMatchMember("PropertiesChanged"),
		dbus.WithMatchArg(0, FeedbackdInterface),
	}
	if err := m.conn.AddMatchSignal(matchOpts...); err != nil {
		return fmt.Errorf("failed to add match rule: %w", err)
	}

	ch := make(chan *dbus.Signal, 16)
	m.conn.Signal(ch)

	go func() {
		defer func() {
			m.conn.RemoveSignal(ch)
			if err := m.conn.RemoveMatchSignal(matchOpts...); err != nil {
				m.logger.Debug("failed to remove match rule", "error", err)
			}
		}()

		for {
			select {
			case <-ctx.Done():
				return
			case sig, ok := <-ch:
				if !ok {
					return
				}
				profile, ok := profileFromSignal(sig)
				if !ok {
					continue
				}
				m.logger.Debug("feedbackd profile changed", "profile", profile)
				if m.onChange != nil {
					m.onChange(profile)
				}
			}
		}
	}()

	m.logger.Info("watching feedbackd profile")
	return nil
}

// profileFromSignal extracts the new Profile value from a
// PropertiesChanged(sa{sv}as) signal emitted by feedbackd.
func profileFromSignal(sig *dbus.Signal) (string, bool) {
	if sig == nil || sig.Path != FeedbackdPath {
		return "", false
	}
	if sig.Name != "org.freedesktop.DBus.Properties.PropertiesChanged" {
		return "", false
	}
	if len(sig.Body) < 2 {
		return "", false
	}
	if iface, ok := sig.Body[0].(string); !ok || iface != FeedbackdInterface {
		return "", false
	}
	changed, ok := sig.Body[1].(map[string]dbus.Variant)
	if !ok {
		return "", false
	}
	v, ok := changed["Profile"]
	if !ok {
		return "", false
	}
	profile, ok := v.Value().(string)
	return profile, ok
}
