package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jmylchreest/audiokeep/internal/audio"
)

// ErrWorkerGone is returned when a command is submitted after the worker has
// exited or the queue was closed.
var ErrWorkerGone = errors.New("dispatch worker is no longer running")

// ErrAlreadyRunning is returned by Run when a worker is already attached.
var ErrAlreadyRunning = errors.New("dispatch worker already running")

// DefaultQueryTimeout bounds how long a query waits for the worker.
const DefaultQueryTimeout = 2 * time.Second

// Player is the controller owned by the worker.
type Player interface {
	Start() error
	Stop()
	IsPlaying() bool
	Session() audio.SessionInfo
	Configure(settings audio.Settings) error
}

// ErrorHandler is called on the worker goroutine when a command fails.
type ErrorHandler func(kind Kind, err error)

// Dispatcher owns a Player on a single worker goroutine and feeds it
// commands from a FIFO queue.
type Dispatcher struct {
	logger *slog.Logger
	player Player
	queue  *queue

	mu           sync.RWMutex
	errorHandler ErrorHandler
	queryTimeout time.Duration

	runOnce sync.Once
	done    chan struct{}
}

// New creates a dispatcher for player. Commands may be submitted before Run
// is called; they are processed once the worker starts.
func New(player Player, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}

	return &Dispatcher{
		logger:       logger,
		player:       player,
		queue:        newQueue(),
		queryTimeout: DefaultQueryTimeout,
		done:         make(chan struct{}),
	}
}

// SetErrorHandler sets the callback for failed commands.
func (d *Dispatcher) SetErrorHandler(handler ErrorHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.errorHandler = handler
}

// SetQueryTimeout sets how long IsPlaying and Session wait for a reply.
// A non-positive timeout restores DefaultQueryTimeout.
func (d *Dispatcher) SetQueryTimeout(timeout time.Duration) {
	if timeout <= 0 {
		timeout = DefaultQueryTimeout
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.queryTimeout = timeout
}

// Run processes commands until ctx is cancelled or the queue is closed and
// drained. On exit it stops the player and rejects further commands.
func (d *Dispatcher) Run(ctx context.Context) error {
	started := false
	d.runOnce.Do(func() { started = true })
	if !started {
		return ErrAlreadyRunning
	}

	d.logger.Debug("dispatch worker started")
	defer func() {
		if n := d.queue.discard(); n > 0 {
			d.logger.Debug("dropped queued commands", "count", n)
		}
		d.player.Stop()
		close(d.done)
		d.logger.Debug("dispatch worker stopped")
	}()

	for {
		cmd, ok := d.queue.pop(ctx)
		if !ok {
			return nil
		}
		d.handle(cmd)
	}
}

// handle applies one command. Panics are contained so the worker survives.
func (d *Dispatcher) handle(cmd Command) {
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("panic handling %s command: %v", cmd.Kind, r)
			d.logger.Error("command panicked", "command", cmd.Kind, "panic", r)
			d.reportError(cmd.Kind, err)
		}
	}()

	switch cmd.Kind {
	case KindStart:
		if err := d.player.Start(); err != nil {
			d.logger.Warn("failed to start playback", "error", err)
			d.reportError(cmd.Kind, err)
		}
	case KindStop:
		d.player.Stop()
	case KindQueryStatus:
		cmd.status <- d.player.IsPlaying()
	case KindQuerySession:
		cmd.session <- d.player.Session()
	case KindConfigure:
		if err := d.player.Configure(cmd.Settings); err != nil {
			d.logger.Warn("failed to apply settings", "error", err)
			d.reportError(cmd.Kind, err)
		}
	default:
		d.logger.Warn("unknown command", "kind", int(cmd.Kind))
	}
}

func (d *Dispatcher) reportError(kind Kind, err error) {
	d.mu.RLock()
	handler := d.errorHandler
	d.mu.RUnlock()

	if handler != nil {
		handler(kind, err)
	}
}

// Submit enqueues a command without blocking.
func (d *Dispatcher) Submit(cmd Command) error {
	if !d.queue.push(cmd) {
		return ErrWorkerGone
	}
	return nil
}

// Start requests playback.
func (d *Dispatcher) Start() error {
	return d.Submit(StartCommand())
}

// Stop requests that playback end.
func (d *Dispatcher) Stop() error {
	return d.Submit(StopCommand())
}

// Configure replaces the controller settings from the next start.
func (d *Dispatcher) Configure(settings audio.Settings) error {
	return d.Submit(ConfigureCommand(settings))
}

// IsPlaying asks the worker whether playback is active. It returns false if
// the worker is gone, ctx ends, or no reply arrives within the query timeout.
func (d *Dispatcher) IsPlaying(ctx context.Context) bool {
	cmd, reply := QueryStatusCommand()
	playing, _ := await(d, ctx, cmd, reply)
	return playing
}

// Session asks the worker for the current session. It returns a zero
// SessionInfo under the same conditions IsPlaying returns false.
func (d *Dispatcher) Session(ctx context.Context) audio.SessionInfo {
	cmd, reply := QuerySessionCommand()
	info, _ := await(d, ctx, cmd, reply)
	return info
}

// await submits a query and waits for its reply.
func await[T any](d *Dispatcher, ctx context.Context, cmd Command, reply <-chan T) (T, bool) {
	var zero T

	if err := d.Submit(cmd); err != nil {
		d.logger.Debug("query not delivered", "command", cmd.Kind, "error", err)
		return zero, false
	}

	d.mu.RLock()
	timeout := d.queryTimeout
	d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	select {
	case v := <-reply:
		return v, true
	case <-ctx.Done():
		d.logger.Debug("query abandoned", "command", cmd.Kind, "error", ctx.Err())
		return zero, false
	case <-d.done:
		// The worker may have replied just before exiting
		select {
		case v := <-reply:
			return v, true
		default:
			return zero, false
		}
	}
}

// Close stops accepting commands. The worker drains what is queued and exits.
func (d *Dispatcher) Close() {
	d.queue.close()
}

// Done is closed once the worker has exited.
func (d *Dispatcher) Done() <-chan struct{} {
	return d.done
}
