package dbus

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/godbus/dbus/v5"

	"github.com/jmylchreest/audiokeep/internal/audio"
)

// ErrDaemonNotRunning is returned when no process owns BusName.
var ErrDaemonNotRunning = errors.New("audiokeepd is not running")

// Client calls the command bridge of a running daemon.
type Client struct {
	conn    *dbus.Conn
	obj     dbus.BusObject
	timeout time.Duration
}

// NewClient connects to the session bus. Each call is bounded by timeout
// when positive.
func NewClient(timeout time.Duration) (*Client, error) {
	conn, err := dbus.SessionBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to session bus: %w", err)
	}
	return &Client{
		conn:    conn,
		obj:     conn.Object(BusName, Path),
		timeout: timeout,
	}, nil
}

// Ping reports ErrDaemonNotRunning when the daemon has not claimed its name.
func (c *Client) Ping(ctx context.Context) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	var owned bool
	err := c.conn.BusObject().CallWithContext(ctx, "org.freedesktop.DBus.NameHasOwner", 0, BusName).Store(&owned)
	if err != nil {
		return fmt.Errorf("failed to query bus name owner: %w", err)
	}
	if !owned {
		return ErrDaemonNotRunning
	}
	return nil
}

// StartAudio asks the daemon to start playback.
func (c *Client) StartAudio(ctx context.Context) error {
	_, err := c.callBool(ctx, MethodStartAudio)
	return err
}

// StopAudio asks the daemon to stop playback.
func (c *Client) StopAudio(ctx context.Context) error {
	_, err := c.callBool(ctx, MethodStopAudio)
	return err
}

// IsPlaying asks the daemon whether playback is active.
func (c *Client) IsPlaying(ctx context.Context) (bool, error) {
	return c.callBool(ctx, MethodIsPlaying)
}

// Session fetches the current session from the daemon.
func (c *Client) Session(ctx context.Context) (audio.SessionInfo, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	var (
		playing  bool
		id       string
		strategy string
		started  int64
	)
	call := c.obj.CallWithContext(ctx, Interface+"."+MethodGetSession, 0)
	if err := call.Store(&playing, &id, &strategy, &started); err != nil {
		return audio.SessionInfo{}, c.wrap(MethodGetSession, err)
	}
	return sessionFromWire(playing, id, strategy, started), nil
}

func (c *Client) callBool(ctx context.Context, method string) (bool, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	var result bool
	if err := c.obj.CallWithContext(ctx, Interface+"."+method, 0).Store(&result); err != nil {
		return false, c.wrap(method, err)
	}
	return result, nil
}

// wrap maps "service unknown" replies to ErrDaemonNotRunning.
func (c *Client) wrap(method string, err error) error {
	if errorName(err) == "org.freedesktop.DBus.Error.ServiceUnknown" {
		return ErrDaemonNotRunning
	}
	return fmt.Errorf("%s failed: %w", method, err)
}

// errorName returns the D-Bus error name carried by err, if any.
func errorName(err error) string {
	var value dbus.Error
	if errors.As(err, &value) {
		return value.Name
	}
	var ptr *dbus.Error
	if errors.As(err, &ptr) && ptr != nil {
		return ptr.Name
	}
	return ""
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.timeout)
}
