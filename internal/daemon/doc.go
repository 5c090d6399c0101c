// Package daemon provides the main orchestration for keyfxd.
// It owns the keyboard session, routes key presses from the D-Bus server
// to the feedback performer, feeds ringer updates into the policy, and
// applies configuration hot reloads.
package daemon
