package dbus

import (
	"fmt"

	"github.com/godbus/dbus/v5"
)

// EmitPlaybackRequested emits the PlaybackRequested signal.
// It is emitted when a start (true) or stop (false) request has been queued,
// before the worker has applied it.
func (s *Server) EmitPlaybackRequested(playing bool) error {
	if s.conn == nil {
		return fmt.Errorf("not connected to D-Bus")
	}

	err := s.conn.Emit(Path, Interface+"."+SignalPlaybackRequested, playing)
	if err != nil {
		return fmt.Errorf("failed to emit PlaybackRequested signal: %w", err)
	}

	s.logger.Debug("emitted PlaybackRequested signal", "playing", playing)
	return nil
}

// Connection returns the underlying D-Bus connection.
func (s *Server) Connection() *dbus.Conn {
	return s.conn
}
