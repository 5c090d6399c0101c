package dbus

import (
	"context"
	"fmt"

	"github.com/godbus/dbus/v5"

	"github.com/jmylchreest/keyfx/internal/feedback"
)

// Client calls a running keyfxd over the session bus.
type Client struct {
	obj dbus.BusObject
}

// NewClient creates a client using the shared session bus connection.
func NewClient() (*Client, error) {
	conn, err := dbus.SessionBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to session bus: %w", err)
	}
	return &Client{obj: conn.Object(DBusBusName, DBusPath)}, nil
}

// KeyPressed asks the daemon to perform feedback for code.
func (c *Client) KeyPressed(ctx context.Context, code feedback.KeyCode) (feedback.Decision, error) {
	return c.decision(ctx, "KeyPressed", code)
}

// Decide asks the daemon what it would do for code, without doing it.
func (c *Client) Decide(ctx context.Context, code feedback.KeyCode) (feedback.Decision, error) {
	return c.decision(ctx, "Decide", code)
}

func (c *Client) decision(ctx context.Context, method string, code feedback.KeyCode) (feedback.Decision, error) {
	var w WireDecision
	call := c.obj.CallWithContext(ctx, DBusInterface+"."+method, 0, int32(code))
	if call.Err != nil {
		return feedback.Decision{}, fmt.Errorf("%s failed: %w", method, call.Err)
	}
	if err := call.Store(&w.PlaySound, &w.Sound, &w.Volume, &w.Vibrate, &w.DurationMs); err != nil {
		return feedback.Decision{}, fmt.Errorf("failed to read %s reply: %w", method, err)
	}
	return w.Decision(), nil
}

// RingerState returns the daemon's cached ringer state.
func (c *Client) RingerState(ctx context.Context) (feedback.RingerState, error) {
	var state string
	call := c.obj.CallWithContext(ctx, DBusInterface+".GetRingerState", 0)
	if call.Err != nil {
		return feedback.RingerSilent, fmt.Errorf("GetRingerState failed: %w", call.Err)
	}
	if err := call.Store(&state); err != nil {
		return feedback.RingerSilent, fmt.Errorf("failed to read ringer state: %w", err)
	}
	return feedback.ParseRingerState(state)
}

// SetRingerState overrides the daemon's ringer state.
func (c *Client) SetRingerState(ctx context.Context, state feedback.RingerState) error {
	call := c.obj.CallWithContext(ctx, DBusInterface+".SetRingerState", 0, state.String())
	if call.Err != nil {
		return fmt.Errorf("SetRingerState failed: %w", call.Err)
	}
	return nil
}

// SessionID returns the daemon's current keyboard session id.
func (c *Client) SessionID(ctx context.Context) (string, error) {
	var id string
	call := c.obj.CallWithContext(ctx, DBusInterface+".GetSessionID", 0)
	if call.Err != nil {
		return "", fmt.Errorf("GetSessionID failed: %w", call.Err)
	}
	if err := call.Store(&id); err != nil {
		return "", fmt.Errorf("failed to read session id: %w", err)
	}
	return id, nil
}

// StartSession asks the daemon to open a new keyboard session.
func (c *Client) StartSession(ctx context.Context) (string, error) {
	var id string
	call := c.obj.CallWithContext(ctx, DBusInterface+".StartSession", 0)
	if call.Err != nil {
		return "", fmt.Errorf("StartSession failed: %w", call.Err)
	}
	if err := call.Store(&id); err != nil {
		return "", fmt.Errorf("failed to read session id: %w", err)
	}
	return id, nil
}
