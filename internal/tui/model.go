// Package tui provides the BubbleTea-based interactive feedback tester.
package tui

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jmylchreest/keyfx/internal/feedback"
	"github.com/jmylchreest/keyfx/internal/ringer"
)

const (
	maxHistory   = 12
	maxTyped     = 60
	volumeStep   = 0.1
	durationStep = 10
	maxDuration  = 500
)

// liveSettings is the settings snapshot edited from the tester's controls.
type liveSettings struct {
	mu       sync.Mutex
	settings feedback.Settings
}

// Settings implements feedback.SettingsProvider.
func (l *liveSettings) Settings() feedback.Settings {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.settings
}

func (l *liveSettings) update(change func(s *feedback.Settings)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	change(&l.settings)
}

// entry is one line of the press history.
type entry struct {
	report feedback.Report
	err    string
	repeat bool
}

// Model is the main TUI model.
type Model struct {
	settings  *liveSettings
	policy    *feedback.Policy
	performer *feedback.Performer

	help help.Model
	keys KeyMap

	history []entry
	typed   []rune
	width   int
	height  int
	ready   bool
}

// ringerMsg delivers a ringer state from the ringer source.
type ringerMsg feedback.RingerState

// New creates a tester that performs feedback through audio and haptic.
func New(settings feedback.Settings, audio feedback.AudioSink, haptic feedback.HapticSink, logger *slog.Logger) Model {
	live := &liveSettings{settings: settings}
	policy := feedback.NewPolicy()
	return Model{
		settings:  live,
		policy:    policy,
		performer: feedback.NewPerformer(policy, live, audio, haptic, logger),
		help:      help.New(),
		keys:      DefaultKeyMap(),
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.ready = true
		return m, nil

	case ringerMsg:
		m.policy.RefreshRingerState(feedback.RingerState(msg))
		return m, nil
	}

	return m, nil
}

// handleKey handles control keys and performs feedback for everything else.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	case key.Matches(msg, m.keys.ToggleSound):
		m.settings.update(func(s *feedback.Settings) { s.SoundEnabled = !s.SoundEnabled })
		return m, nil
	case key.Matches(msg, m.keys.ToggleVibrate):
		m.settings.update(func(s *feedback.Settings) { s.VibrationEnabled = !s.VibrationEnabled })
		return m, nil
	case key.Matches(msg, m.keys.ToggleRinger):
		if m.policy.RingerState() == feedback.RingerNormal {
			m.policy.RefreshRingerState(feedback.RingerSilent)
		} else {
			m.policy.RefreshRingerState(feedback.RingerNormal)
		}
		return m, nil
	case key.Matches(msg, m.keys.VolumeDown):
		m.settings.update(func(s *feedback.Settings) { s.FxVolume = stepVolume(s.FxVolume, -volumeStep) })
		return m, nil
	case key.Matches(msg, m.keys.VolumeUp):
		m.settings.update(func(s *feedback.Settings) { s.FxVolume = stepVolume(s.FxVolume, volumeStep) })
		return m, nil
	case key.Matches(msg, m.keys.DurationDown):
		m.settings.update(func(s *feedback.Settings) { s.VibrationDurationMs = stepDuration(s.VibrationDurationMs, -durationStep) })
		return m, nil
	case key.Matches(msg, m.keys.DurationUp):
		m.settings.update(func(s *feedback.Settings) { s.VibrationDurationMs = stepDuration(s.VibrationDurationMs, durationStep) })
		return m, nil
	case key.Matches(msg, m.keys.Repeat):
		m.repeat()
		return m, nil
	case key.Matches(msg, m.keys.Clear):
		m.history = nil
		m.typed = nil
		return m, nil
	}

	for _, code := range keyCodes(msg) {
		m.press(code)
	}
	return m, nil
}

// press performs feedback for code and records the result.
func (m *Model) press(code feedback.KeyCode) {
	d, err := m.performer.Perform(code)
	e := entry{report: feedback.NewReport(code, m.policy.RingerState(), d)}
	if err != nil {
		e.err = err.Error()
	}
	m.record(e)

	switch code {
	case feedback.CodeDelete:
		if len(m.typed) > 0 {
			m.typed = m.typed[:len(m.typed)-1]
		}
	case feedback.CodeEnter:
		m.typed = append(m.typed, '↵')
	default:
		m.typed = append(m.typed, rune(code))
	}
	if len(m.typed) > maxTyped {
		m.typed = m.typed[len(m.typed)-maxTyped:]
	}
}

// repeat performs haptic-only feedback as for an auto-repeated key.
func (m *Model) repeat() {
	e := entry{repeat: true, report: feedback.Report{Key: "repeat", RingerState: m.policy.RingerState().String()}}
	if err := m.performer.PerformHaptic(); err != nil {
		e.err = err.Error()
	}
	m.record(e)
}

func (m *Model) record(e entry) {
	m.history = append(m.history, e)
	if len(m.history) > maxHistory {
		m.history = m.history[len(m.history)-maxHistory:]
	}
}

// keyCodes maps a terminal key event to the key codes it represents.
// Pasted text yields one code per rune.
func keyCodes(msg tea.KeyMsg) []feedback.KeyCode {
	switch msg.Type {
	case tea.KeyBackspace, tea.KeyDelete:
		return []feedback.KeyCode{feedback.CodeDelete}
	case tea.KeyEnter:
		return []feedback.KeyCode{feedback.CodeEnter}
	case tea.KeySpace:
		return []feedback.KeyCode{feedback.CodeSpace}
	case tea.KeyTab:
		return []feedback.KeyCode{'\t'}
	case tea.KeyRunes:
		if msg.Alt {
			return nil
		}
		codes := make([]feedback.KeyCode, 0, len(msg.Runes))
		for _, r := range msg.Runes {
			codes = append(codes, feedback.KeyCode(r))
		}
		return codes
	}
	return nil
}

func stepVolume(v, step float64) float64 {
	v += step
	switch {
	case v < 0.001:
		return 0
	case v > 0.999:
		return 1
	}
	// Keep steps on tenths so repeated presses don't drift.
	return float64(int(v*10+0.5)) / 10
}

func stepDuration(ms, step int) int {
	if ms < 0 {
		if step > 0 {
			return 0
		}
		return feedback.DefaultVibrationDuration
	}
	ms += step
	switch {
	case ms < 0:
		return feedback.DefaultVibrationDuration
	case ms > maxDuration:
		return maxDuration
	}
	return ms
}

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("12")).
			Padding(0, 1)
	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("8"))
	onStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("10"))
	offStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9"))
	typedStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("8")).
			Padding(0, 1)
	errStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9"))
)

// View renders the TUI.
func (m Model) View() string {
	var sb strings.Builder

	sb.WriteString(titleStyle.Render("keyfx tester") + "\n\n")
	sb.WriteString(m.viewSettings() + "\n\n")

	width := maxTyped + 4
	if m.width > 0 && m.width-2 < width {
		width = m.width - 2
	}
	sb.WriteString(typedStyle.Width(width).Render(string(m.typed)) + "\n\n")

	for _, e := range m.history {
		sb.WriteString(viewEntry(e) + "\n")
	}
	if len(m.history) == 0 {
		sb.WriteString(labelStyle.Render("Type to hear and feel key feedback.") + "\n")
	}

	sb.WriteString("\n" + m.help.View(m.keys))
	return sb.String()
}

func (m Model) viewSettings() string {
	s := m.settings.Settings()
	ringer := m.policy.RingerState()

	ringerText := offStyle.Render(ringer.String())
	if ringer == feedback.RingerNormal {
		ringerText = onStyle.Render(ringer.String())
	}

	duration := "default"
	if s.VibrationDurationMs >= 0 {
		duration = fmt.Sprintf("%dms", s.VibrationDurationMs)
	}

	return strings.Join([]string{
		labelStyle.Render("ringer ") + ringerText,
		labelStyle.Render("sound ") + onOff(s.SoundEnabled),
		labelStyle.Render("volume ") + fmt.Sprintf("%.0f%%", s.FxVolume*100),
		labelStyle.Render("vibration ") + onOff(s.VibrationEnabled),
		labelStyle.Render("duration ") + duration,
	}, "   ")
}

func onOff(b bool) string {
	if b {
		return onStyle.Render("on")
	}
	return offStyle.Render("off")
}

func viewEntry(e entry) string {
	r := e.report
	line := fmt.Sprintf("%-8s", r.Key)

	if e.repeat {
		line += "  repeat haptic"
	} else if r.PlaySound {
		line += fmt.Sprintf("  click %-8s %3.0f%%", r.Sound, r.Volume*100)
	} else {
		line += "  " + labelStyle.Render("no click      ")
	}

	if !e.repeat {
		switch {
		case !r.Vibrate:
			line += "  " + labelStyle.Render("no vibration")
		case r.Vibration == "explicit":
			line += fmt.Sprintf("  vibrate %dms", r.DurationMs)
		default:
			line += "  vibrate (system default)"
		}
	}

	if e.err != "" {
		line += "  " + errStyle.Render(e.err)
	}
	return line
}

// RunOptions configures the TUI.
type RunOptions struct {
	Settings feedback.Settings
	Audio    feedback.AudioSink
	Haptic   feedback.HapticSink
	// Ringer follows the ringer state while the tester runs. When nil the
	// ringer starts silent and is only changed with the ringer toggle.
	Ringer ringer.Source
	Logger *slog.Logger
}

// Run starts the TUI with the given options.
func Run(opts RunOptions) error {
	m := New(opts.Settings, opts.Audio, opts.Haptic, opts.Logger)
	p := tea.NewProgram(m, tea.WithAltScreen())

	if opts.Ringer != nil {
		logger := opts.Logger
		if logger == nil {
			logger = slog.Default()
		}
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		// Send blocks until the program is running.
		go func() {
			if err := opts.Ringer.Start(ctx, func(state feedback.RingerState) {
				p.Send(ringerMsg(state))
			}); err != nil {
				logger.Warn("failed to start ringer source", "error", err)
			}
		}()
		defer func() { _ = opts.Ringer.Stop() }()
	}

	_, err := p.Run()
	return err
}
