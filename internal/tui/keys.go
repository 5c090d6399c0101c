package tui

import (
	"github.com/charmbracelet/bubbles/key"
)

// KeyMap defines the control bindings for the tester. Every other key is
// treated as a key press to give feedback for, so controls live on
// function keys.
type KeyMap struct {
	ToggleSound   key.Binding
	ToggleVibrate key.Binding
	ToggleRinger  key.Binding
	VolumeDown    key.Binding
	VolumeUp      key.Binding
	DurationDown  key.Binding
	DurationUp    key.Binding
	Repeat        key.Binding
	Clear         key.Binding

	// Global
	Quit key.Binding
	Help key.Binding
}

// ShortHelp returns a short help message.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Help, k.ToggleRinger, k.ToggleSound, k.ToggleVibrate, k.Quit}
}

// FullHelp returns a full help message.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.ToggleSound, k.ToggleVibrate, k.ToggleRinger},
		{k.VolumeDown, k.VolumeUp, k.DurationDown, k.DurationUp},
		{k.Repeat, k.Clear, k.Help, k.Quit},
	}
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		ToggleSound: key.NewBinding(
			key.WithKeys("f2"),
			key.WithHelp("f2", "sound"),
		),
		ToggleVibrate: key.NewBinding(
			key.WithKeys("f3"),
			key.WithHelp("f3", "vibration"),
		),
		ToggleRinger: key.NewBinding(
			key.WithKeys("f4"),
			key.WithHelp("f4", "ringer"),
		),
		VolumeDown: key.NewBinding(
			key.WithKeys("f5"),
			key.WithHelp("f5", "volume -"),
		),
		VolumeUp: key.NewBinding(
			key.WithKeys("f6"),
			key.WithHelp("f6", "volume +"),
		),
		DurationDown: key.NewBinding(
			key.WithKeys("f7"),
			key.WithHelp("f7", "duration -"),
		),
		DurationUp: key.NewBinding(
			key.WithKeys("f8"),
			key.WithHelp("f8", "duration +"),
		),
		Repeat: key.NewBinding(
			key.WithKeys("f9"),
			key.WithHelp("f9", "repeat haptic"),
		),
		Clear: key.NewBinding(
			key.WithKeys("ctrl+l"),
			key.WithHelp("ctrl+l", "clear"),
		),
		Quit: key.NewBinding(
			key.WithKeys("esc", "ctrl+c"),
			key.WithHelp("esc", "quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("f1"),
			key.WithHelp("f1", "help"),
		),
	}
}
