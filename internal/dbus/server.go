package dbus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"

	"github.com/jmylchreest/audiokeep/internal/audio"
	"github.com/jmylchreest/audiokeep/internal/dispatch"
)

// Bridge is the playback command surface the server forwards to.
type Bridge interface {
	Start() error
	Stop() error
	IsPlaying(ctx context.Context) bool
	Session(ctx context.Context) audio.SessionInfo
}

// RequestHandler is called after a start or stop request has been accepted.
type RequestHandler func(playing bool)

// Server implements the io.github.jmylchreest.AudioKeep D-Bus interface.
type Server struct {
	conn   *dbus.Conn
	logger *slog.Logger
	bridge Bridge

	requestHandler RequestHandler

	mu      sync.Mutex
	running bool
}

// NewServer creates a server that forwards calls to bridge.
func NewServer(bridge Bridge, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		logger: logger,
		bridge: bridge,
	}
}

// SetRequestHandler sets the handler called after an accepted start or stop.
func (s *Server) SetRequestHandler(handler RequestHandler) {
	s.requestHandler = handler
}

// Start connects to the session bus and exports the command bridge.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("server already running")
	}

	conn, err := dbus.SessionBus()
	if err != nil {
		return fmt.Errorf("failed to connect to session bus: %w", err)
	}
	s.conn = conn

	if err := conn.Export(s, Path, Interface); err != nil {
		return fmt.Errorf("failed to export object: %w", err)
	}

	if err := conn.Export(introspect.NewIntrospectable(introspectNode()), Path,
		"org.freedesktop.DBus.Introspectable"); err != nil {
		return fmt.Errorf("failed to export introspectable: %w", err)
	}

	reply, err := conn.RequestName(BusName, dbus.NameFlagDoNotQueue)
	if err != nil {
		return fmt.Errorf("failed to request bus name: %w", err)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		return fmt.Errorf("bus name %s already taken, is another audiokeepd running?", BusName)
	}

	s.running = true
	s.logger.Info("D-Bus command bridge started", "interface", Interface, "path", Path)
	return nil
}

// Stop releases the bus name and unexports the object.
func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}
	s.running = false

	if s.conn != nil {
		if _, err := s.conn.ReleaseName(BusName); err != nil {
			s.logger.Warn("failed to release bus name", "error", err)
		}
		_ = s.conn.Export(nil, Path, Interface)
		_ = s.conn.Export(nil, Path, "org.freedesktop.DBus.Introspectable")
		// Don't close the connection as it's shared (SessionBus)
	}

	s.logger.Info("D-Bus command bridge stopped")
	return nil
}

// StartAudio queues a start request.
// D-Bus method: StartAudio() -> b
func (s *Server) StartAudio() (bool, *dbus.Error) {
	s.logger.Debug("StartAudio called")
	if err := s.bridge.Start(); err != nil {
		return false, commandError(err)
	}
	s.accepted(true)
	return true, nil
}

// StopAudio queues a stop request.
// D-Bus method: StopAudio() -> b
func (s *Server) StopAudio() (bool, *dbus.Error) {
	s.logger.Debug("StopAudio called")
	if err := s.bridge.Stop(); err != nil {
		return false, commandError(err)
	}
	s.accepted(false)
	return false, nil
}

// IsPlaying reports whether keep-alive playback is active. Failures to reach
// the worker report false.
// D-Bus method: IsPlaying() -> b
func (s *Server) IsPlaying() (bool, *dbus.Error) {
	playing := s.bridge.IsPlaying(context.Background())
	s.logger.Debug("IsPlaying called", "playing", playing)
	return playing, nil
}

// GetSession returns the current session.
// D-Bus method: GetSession() -> (b s s x)
func (s *Server) GetSession() (bool, string, string, int64, *dbus.Error) {
	s.logger.Debug("GetSession called")
	playing, id, strategy, started := sessionToWire(s.bridge.Session(context.Background()))
	return playing, id, strategy, started, nil
}

func (s *Server) accepted(playing bool) {
	if err := s.EmitPlaybackRequested(playing); err != nil {
		s.logger.Debug("PlaybackRequested not emitted", "error", err)
	}
	if s.requestHandler != nil {
		s.requestHandler(playing)
	}
}

// commandError maps a submit failure to a D-Bus error.
func commandError(err error) *dbus.Error {
	if errors.Is(err, dispatch.ErrWorkerGone) {
		return dbus.NewError(ErrorWorkerGone, []any{err.Error()})
	}
	return dbus.MakeFailedError(err)
}

// introspectNode describes the exported object.
func introspectNode() *introspect.Node {
	return &introspect.Node{
		Name: string(Path),
		Interfaces: []introspect.Interface{
			introspect.IntrospectData,
			{
				Name:    Interface,
				Methods: bridgeMethods(),
				Signals: bridgeSignals(),
			},
		},
	}
}

// bridgeMethods returns the D-Bus method introspection data.
func bridgeMethods() []introspect.Method {
	return []introspect.Method{
		{
			Name: MethodStartAudio,
			Args: []introspect.Arg{
				{Name: "playing", Type: "b", Direction: "out"},
			},
		},
		{
			Name: MethodStopAudio,
			Args: []introspect.Arg{
				{Name: "playing", Type: "b", Direction: "out"},
			},
		},
		{
			Name: MethodIsPlaying,
			Args: []introspect.Arg{
				{Name: "playing", Type: "b", Direction: "out"},
			},
		},
		{
			Name: MethodGetSession,
			Args: []introspect.Arg{
				{Name: "playing", Type: "b", Direction: "out"},
				{Name: "id", Type: "s", Direction: "out"},
				{Name: "strategy", Type: "s", Direction: "out"},
				{Name: "started_at", Type: "x", Direction: "out"},
			},
		},
	}
}

// bridgeSignals returns the D-Bus signal introspection data.
func bridgeSignals() []introspect.Signal {
	return []introspect.Signal{
		{
			Name: SignalPlaybackRequested,
			Args: []introspect.Arg{
				{Name: "playing", Type: "b"},
			},
		},
	}
}
