package dbus

import (
	"fmt"
	"log/slog"

	"github.com/godbus/dbus/v5"
)

const (
	// FeedbackdBusName is the feedbackd service name.
	FeedbackdBusName = "org.sigxcpu.Feedback"
	// FeedbackdPath is the feedbackd object path.
	FeedbackdPath = "/org/sigxcpu/Feedback"
	// FeedbackdInterface is the main feedbackd interface.
	FeedbackdInterface = "org.sigxcpu.Feedback"
	// FeedbackdHapticInterface exposes direct vibration patterns.
	FeedbackdHapticInterface = "org.sigxcpu.Feedback.Haptic"
	// FeedbackdProfileProperty names the feedback level property.
	FeedbackdProfileProperty = FeedbackdInterface + ".Profile"
)

// Feedbackd profile levels.
const (
	ProfileFull   = "full"
	ProfileQuiet  = "quiet"
	ProfileSilent = "silent"
)

// TimeoutEventDefault lets feedbackd pick the event's own duration.
const TimeoutEventDefault int32 = -1

// busObject is the subset of dbus.BusObject used by Feedbackd.
type busObject interface {
	Call(method string, flags dbus.Flags, args ...any) *dbus.Call
	GetProperty(p string) (dbus.Variant, error)
	SetProperty(p string, v any) error
}

// Feedbackd is a client for the feedbackd haptic/audio feedback daemon.
type Feedbackd struct {
	obj    busObject
	appID  string
	logger *slog.Logger
}

// NewFeedbackd creates a feedbackd client on conn, identifying as appID.
func NewFeedbackd(conn *dbus.Conn, appID string, logger *slog.Logger) *Feedbackd {
	return newFeedbackd(conn.Object(FeedbackdBusName, FeedbackdPath), appID, logger)
}

func newFeedbackd(obj busObject, appID string, logger *slog.Logger) *Feedbackd {
	if logger == nil {
		logger = slog.Default()
	}
	return &Feedbackd{obj: obj, appID: appID, logger: logger}
}

// TriggerFeedback triggers a themed feedback event and returns its id.
// D-Bus method: TriggerFeedback(ssa{sv}i) -> u
func (f *Feedbackd) TriggerFeedback(event string, hints map[string]dbus.Variant, timeout int32) (uint32, error) {
	if hints == nil {
		hints = map[string]dbus.Variant{}
	}

	var id uint32
	call := f.obj.Call(FeedbackdInterface+".TriggerFeedback", 0, f.appID, event, hints, timeout)
	if call.Err != nil {
		return 0, fmt.Errorf("failed to trigger feedback %q: %w", event, call.Err)
	}
	if err := call.Store(&id); err != nil {
		return 0, fmt.Errorf("failed to read feedback id: %w", err)
	}

	f.logger.Debug("triggered feedback", "event", event, "id", id)
	return id, nil
}

// Vibrate runs a raw haptic pattern, bypassing the event theme.
// D-Bus method: Vibrate(sa(du)) -> b
func (f *Feedbackd) Vibrate(pattern []VibraStep) error {
	var ok bool
	call := f.obj.Call(FeedbackdHapticInterface+".Vibrate", 0, f.appID, pattern)
	if call.Err != nil {
		return fmt.Errorf("failed to vibrate: %w", call.Err)
	}
	if err := call.Store(&ok); err != nil {
		return fmt.Errorf("failed to read vibrate result: %w", err)
	}
	if !ok {
		return fmt.Errorf("feedbackd rejected vibration pattern")
	}
	return nil
}

// Profile returns the current feedbackd profile ("full", "quiet" or "silent").
func (f *Feedbackd) Profile() (string, error) {
	v, err := f.obj.GetProperty(FeedbackdProfileProperty)
	if err != nil {
		return "", fmt.Errorf("failed to read feedbackd profile: %w", err)
	}
	profile, ok := v.Value().(string)
	if !ok {
		return "", fmt.Errorf("unexpected feedbackd profile type %s", v.Signature())
	}
	return profile, nil
}

// SetProfile changes the feedbackd profile.
func (f *Feedbackd) SetProfile(profile string) error {
	if err := f.obj.SetProperty(FeedbackdProfileProperty, dbus.MakeVariant(profile)); err != nil {
		return fmt.Errorf("failed to set feedbackd profile: %w", err)
	}
	return nil
}
