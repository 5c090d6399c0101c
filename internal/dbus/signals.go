package dbus

import (
	"fmt"

	"github.com/jmylchreest/keyfx/internal/feedback"
)

// EmitRingerStateChanged emits the RingerStateChanged signal.
func (s *Server) EmitRingerStateChanged(state feedback.RingerState) error {
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()

	if conn == nil {
		return fmt.Errorf("not connected to D-Bus")
	}

	if err := conn.Emit(DBusPath, DBusInterface+".RingerStateChanged", state.String()); err != nil {
		return fmt.Errorf("failed to emit RingerStateChanged signal: %w", err)
	}

	s.logger.Debug("emitted RingerStateChanged signal", "state", state)
	return nil
}
