package dbus

import (
	"fmt"
	"log/slog"

	"github.com/godbus/dbus/v5"
)

// Watcher observes PlaybackRequested signals from the daemon without
// claiming any name on the bus.
type Watcher struct {
	conn   *dbus.Conn
	logger *slog.Logger
	ch     chan *dbus.Signal

	onRequest RequestHandler
}

// NewWatcher creates a new signal watcher.
func NewWatcher(logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		logger: logger,
	}
}

// SetRequestHandler sets the callback for observed requests.
func (w *Watcher) SetRequestHandler(handler RequestHandler) {
	w.onRequest = handler
}

// Start subscribes to PlaybackRequested on the session bus.
func (w *Watcher) Start() error {
	conn, err := dbus.SessionBus()
	if err != nil {
		return fmt.Errorf("failed to connect to session bus: %w", err)
	}
	w.conn = conn

	if err := conn.AddMatchSignal(matchOptions()...); err != nil {
		return fmt.Errorf("failed to add match rule: %w", err)
	}

	w.ch = make(chan *dbus.Signal, 16)
	conn.Signal(w.ch)
	go w.processSignals()

	w.logger.Debug("watching PlaybackRequested signals")
	return nil
}

func matchOptions() []dbus.MatchOption {
	return []dbus.MatchOption{
		dbus.WithMatchObjectPath(Path),
		dbus.WithMatchInterface(Interface),
		dbus.WithMatchMember(SignalPlaybackRequested),
	}
}

// processSignals reads signals until the channel is closed.
func (w *Watcher) processSignals() {
	for sig := range w.ch {
		playing, ok := parsePlaybackRequested(sig)
		if !ok {
			continue
		}

		w.logger.Debug("observed playback request", "playing", playing, "sender", sig.Sender)
		if w.onRequest != nil {
			w.onRequest(playing)
		}
	}
}

// parsePlaybackRequested extracts the requested state from a signal. It
// returns false for any other or malformed signal.
func parsePlaybackRequested(sig *dbus.Signal) (bool, bool) {
	if sig == nil || sig.Path != Path || sig.Name != Interface+"."+SignalPlaybackRequested {
		return false, false
	}
	if len(sig.Body) != 1 {
		return false, false
	}
	playing, ok := sig.Body[0].(bool)
	return playing, ok
}

// Stop unsubscribes and stops delivering signals.
func (w *Watcher) Stop() error {
	if w.conn == nil {
		return nil
	}

	w.conn.RemoveSignal(w.ch)
	close(w.ch)
	if err := w.conn.RemoveMatchSignal(matchOptions()...); err != nil {
		return fmt.Errorf("failed to remove match rule: %w", err)
	}
	w.conn = nil
	return nil
}
