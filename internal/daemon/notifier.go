package daemon

import (
	"log/slog"
	"sync"
	"time"

	"github.com/jmylchreest/keyfx/internal/dbus"
)

// NotificationLevel indicates the severity of an internal notification.
type NotificationLevel int

const (
	NotificationLevelInfo NotificationLevel = iota
	NotificationLevelWarning
	NotificationLevelError
)

// InternalNotifier tells the user about daemon problems they would not
// otherwise see, such as a broken config edit. Repeats of the same
// notification are rate limited.
type InternalNotifier struct {
	mu     sync.Mutex
	logger *slog.Logger

	send func(n dbus.DesktopNotification) error

	lastNotifyTime map[string]time.Time
	minInterval    time.Duration
	now            func() time.Time
}

// NewInternalNotifier creates a new InternalNotifier.
func NewInternalNotifier(logger *slog.Logger) *InternalNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &InternalNotifier{
		logger:         logger,
		lastNotifyTime: make(map[string]time.Time),
		minInterval:    30 * time.Second,
		now:            time.Now,
	}
}

// SetSender sets the function used to deliver notifications.
func (n *InternalNotifier) SetSender(send func(n dbus.DesktopNotification) error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.send = send
}

// SetMinInterval sets the minimum interval between duplicate notifications.
func (n *InternalNotifier) SetMinInterval(interval time.Duration) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.minInterval = interval
}

// Notify sends a notification unless one with the same key was sent
// within the minimum interval.
func (n *InternalNotifier) Notify(key, summary, body string, level NotificationLevel) {
	n.mu.Lock()
	send := n.send
	if send == nil {
		n.mu.Unlock()
		n.logger.Debug("internal notification skipped: no sender", "summary", summary)
		return
	}
	now := n.now()
	if last, ok := n.lastNotifyTime[key]; ok && now.Sub(last) < n.minInterval {
		n.mu.Unlock()
		n.logger.Debug("internal notification rate-limited", "key", key)
		return
	}
	n.lastNotifyTime[key] = now
	n.mu.Unlock()

	notification := dbus.DesktopNotification{
		AppName:       "keyfxd",
		Summary:       summary,
		Body:          body,
		ExpireTimeout: 5000,
	}
	switch level {
	case NotificationLevelInfo:
		notification.Urgency = dbus.UrgencyLow
		notification.AppIcon = "dialog-information"
	case NotificationLevelWarning:
		notification.Urgency = dbus.UrgencyNormal
		notification.AppIcon = "dialog-warning"
	case NotificationLevelError:
		notification.Urgency = dbus.UrgencyCritical
		notification.AppIcon = "dialog-error"
	}

	if err := send(notification); err != nil {
		n.logger.Debug("failed to send internal notification", "key", key, "error", err)
	}
}

// NotifyConfigError reports a config file that failed to reload.
func (n *InternalNotifier) NotifyConfigError(err error) {
	n.Notify("config-error", "Keyboard feedback configuration error",
		"Keeping the previous settings: "+err.Error(), NotificationLevelWarning)
}

// NotifyAudioError reports that key clicks cannot be played.
func (n *InternalNotifier) NotifyAudioError(err error) {
	n.Notify("audio-error", "Key click sounds unavailable",
		err.Error(), NotificationLevelWarning)
}

// NotifyHapticError reports that vibration feedback failed.
func (n *InternalNotifier) NotifyHapticError(err error) {
	n.Notify("haptic-error", "Keyboard vibration unavailable",
		err.Error(), NotificationLevelWarning)
}
