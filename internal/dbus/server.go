package dbus

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"

	"github.com/jmylchreest/keyfx/internal/feedback"
)

const (
	// DBusInterface is the keyfx interface name.
	DBusInterface = "io.github.jmylchreest.KeyFX"
	// DBusPath is the keyfx object path.
	DBusPath = "/io/github/jmylchreest/KeyFX"
	// DBusBusName is the bus name to claim.
	DBusBusName = "io.github.jmylchreest.KeyFX"
)

// Handler carries out the requests received by the Server.
type Handler interface {
	KeyPressed(code feedback.KeyCode) (feedback.Decision, error)
	KeyRepeated() error
	Decide(code feedback.KeyCode) feedback.Decision
	RingerState() feedback.RingerState
	SetRingerState(state feedback.RingerState)
	SessionID() string
	StartSession() string
}

// Server exports the keyfx interface on the session bus.
type Server struct {
	conn    *dbus.Conn
	logger  *slog.Logger
	handler Handler

	mu      sync.Mutex
	running bool
}

// NewServer creates a new Server dispatching to handler.
func NewServer(handler Handler, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		logger:  logger,
		handler: handler,
	}
}

// Start exports the keyfx object on conn and claims the bus name.
func (s *Server) Start(conn *dbus.Conn) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("server already running")
	}

	if err := conn.Export(s, DBusPath, DBusInterface); err != nil {
		return fmt.Errorf("failed to export object: %w", err)
	}

	node := &introspect.Node{
		Name: DBusPath,
		Interfaces: []introspect.Interface{
			introspect.IntrospectData,
			{
				Name:    DBusInterface,
				Methods: keyfxMethods(),
				Signals: keyfxSignals(),
			},
		},
	}
	if err := conn.Export(introspect.NewIntrospectable(node), DBusPath,
		"org.freedesktop.DBus.Introspectable"); err != nil {
		return fmt.Errorf("failed to export introspectable: %w", err)
	}

	reply, err := conn.RequestName(DBusBusName, dbus.NameFlagDoNotQueue)
	if err != nil {
		return fmt.Errorf("failed to request bus name: %w", err)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		return fmt.Errorf("bus name %s already taken", DBusBusName)
	}

	s.conn = conn
	s.running = true
	s.logger.Info("D-Bus server started", "interface", DBusInterface, "path", DBusPath)
	return nil
}

// Stop releases the bus name.
func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}
	s.running = false

	if _, err := s.conn.ReleaseName(DBusBusName); err != nil {
		s.logger.Warn("failed to release bus name", "error", err)
	}
	// Don't close the connection as it's shared (SessionBus)

	s.logger.Info("D-Bus server stopped")
	return nil
}

// KeyPressed performs feedback for a key press and returns the decision.
// D-Bus method: KeyPressed(i) -> (bsdbi)
func (s *Server) KeyPressed(code int32) (bool, string, float64, bool, int32, *dbus.Error) {
	d, err := s.handler.KeyPressed(feedback.KeyCode(code))
	if err != nil {
		// Sink failures are not the caller's problem; the decision stands.
		s.logger.Debug("feedback incomplete", "key", feedback.KeyCode(code), "error", err)
	}
	w := ToWire(d)
	return w.PlaySound, w.Sound, w.Volume, w.Vibrate, w.DurationMs, nil
}

// KeyRepeated performs haptic-only feedback for an auto-repeated key.
// D-Bus method: KeyRepeated() -> nothing
func (s *Server) KeyRepeated() *dbus.Error {
	if err := s.handler.KeyRepeated(); err != nil {
		s.logger.Debug("repeat haptic failed", "error", err)
	}
	return nil
}

// Decide returns the decision for a key press without performing it.
// D-Bus method: Decide(i) -> (bsdbi)
func (s *Server) Decide(code int32) (bool, string, float64, bool, int32, *dbus.Error) {
	w := ToWire(s.handler.Decide(feedback.KeyCode(code)))
	return w.PlaySound, w.Sound, w.Volume, w.Vibrate, w.DurationMs, nil
}

// GetRingerState returns the cached ringer state.
// D-Bus method: GetRingerState() -> s
func (s *Server) GetRingerState() (string, *dbus.Error) {
	return s.handler.RingerState().String(), nil
}

// SetRingerState overrides the cached ringer state.
// D-Bus method: SetRingerState(s) -> nothing
func (s *Server) SetRingerState(state string) *dbus.Error {
	r, err := feedback.ParseRingerState(state)
	if err != nil {
		return dbus.MakeFailedError(err)
	}
	s.handler.SetRingerState(r)
	s.logger.Info("ringer state set over D-Bus", "state", r)
	return nil
}

// GetSessionID returns the current keyboard session identifier.
// D-Bus method: GetSessionID() -> s
func (s *Server) GetSessionID() (string, *dbus.Error) {
	return s.handler.SessionID(), nil
}

// StartSession discards the current keyboard session and opens a new one.
// D-Bus method: StartSession() -> s
func (s *Server) StartSession() (string, *dbus.Error) {
	id := s.handler.StartSession()
	s.logger.Info("keyboard session started over D-Bus", "session", id)
	return id, nil
}

// keyfxMethods returns the D-Bus method introspection data.
func keyfxMethods() []introspect.Method {
	decisionOut := []introspect.Arg{
		{Name: "play_sound", Type: "b", Direction: "out"},
		{Name: "sound", Type: "s", Direction: "out"},
		{Name: "volume", Type: "d", Direction: "out"},
		{Name: "vibrate", Type: "b", Direction: "out"},
		{Name: "duration_ms", Type: "i", Direction: "out"},
	}

	return []introspect.Method{
		{
			Name: "KeyPressed",
			Args: append([]introspect.Arg{{Name: "code", Type: "i", Direction: "in"}}, decisionOut...),
		},
		{
			Name: "KeyRepeated",
		},
		{
			Name: "Decide",
			Args: append([]introspect.Arg{{Name: "code", Type: "i", Direction: "in"}}, decisionOut...),
		},
		{
			Name: "GetRingerState",
			Args: []introspect.Arg{
				{Name: "state", Type: "s", Direction: "out"},
			},
		},
		{
			Name: "SetRingerState",
			Args: []introspect.Arg{
				{Name: "state", Type: "s", Direction: "in"},
			},
		},
		{
			Name: "GetSessionID",
			Args: []introspect.Arg{
				{Name: "session_id", Type: "s", Direction: "out"},
			},
		},
		{
			Name: "StartSession",
			Args: []introspect.Arg{
				{Name: "session_id", Type: "s", Direction: "out"},
			},
		},
	}
}

// keyfxSignals returns the D-Bus signal introspection data.
func keyfxSignals() []introspect.Signal {
	return []introspect.Signal{
		{
			Name: "RingerStateChanged",
			Args: []introspect.Arg{
				{Name: "state", Type: "s"},
			},
		},
	}
}
