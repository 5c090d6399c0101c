// Package dbus implements the keyfx D-Bus interface and the feedbackd
// client used for haptics and ringer profile tracking.
//
// The daemon exports io.github.jmylchreest.KeyFX on the session bus so
// on-screen keyboards can report key presses; the keyfx CLI talks to it
// through Client. Feedbackd wraps org.sigxcpu.Feedback for vibration, and
// ProfileMonitor follows its Profile property as the ringer state.
package dbus
