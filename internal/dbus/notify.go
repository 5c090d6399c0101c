package dbus

import (
	"fmt"

	"github.com/godbus/dbus/v5"
)

const (
	notificationsBusName   = "org.freedesktop.Notifications"
	notificationsPath      = "/org/freedesktop/Notifications"
	notificationsInterface = "org.freedesktop.Notifications"
)

// Urgency levels from the freedesktop.org notification specification.
const (
	UrgencyLow      byte = 0
	UrgencyNormal   byte = 1
	UrgencyCritical byte = 2
)

// DesktopNotification is a notification sent to the desktop's notification daemon.
type DesktopNotification struct {
	AppName       string
	AppIcon       string
	Summary       string
	Body          string
	Urgency       byte
	ExpireTimeout int32 // milliseconds, -1 = server default
}

// hints builds the Notify hints for n. keyfx notifications are transient
// so they stay out of notification history.
func (n DesktopNotification) hints() map[string]dbus.Variant {
	return map[string]dbus.Variant{
		"urgency":       dbus.MakeVariant(n.Urgency),
		"category":      dbus.MakeVariant("device"),
		"transient":     dbus.MakeVariant(true),
		"desktop-entry": dbus.MakeVariant(n.AppName),
	}
}

// SendNotification delivers n through org.freedesktop.Notifications.
// D-Bus method: Notify(susssasa{sv}i) -> u
func SendNotification(conn *dbus.Conn, n DesktopNotification) (uint32, error) {
	obj := conn.Object(notificationsBusName, notificationsPath)

	var id uint32
	call := obj.Call(notificationsInterface+".Notify", 0,
		n.AppName, uint32(0), n.AppIcon, n.Summary, n.Body, []string{}, n.hints(), n.ExpireTimeout)
	if call.Err != nil {
		return 0, fmt.Errorf("failed to send notification: %w", call.Err)
	}
	if err := call.Store(&id); err != nil {
		return 0, fmt.Errorf("failed to read notification id: %w", err)
	}
	return id, nil
}
