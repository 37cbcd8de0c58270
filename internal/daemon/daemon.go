package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jmylchreest/audiokeep/internal/audio"
	"github.com/jmylchreest/audiokeep/internal/config"
	"github.com/jmylchreest/audiokeep/internal/dbus"
	"github.com/jmylchreest/audiokeep/internal/dispatch"
	"github.com/jmylchreest/audiokeep/internal/tray"
)

const (
	defaultPollInterval = time.Second
	shutdownTimeout     = 5 * time.Second
)

// Options configures a Daemon.
type Options struct {
	// ConfigPath is watched for hot reload. Empty disables reloading.
	ConfigPath string

	// Output overrides the speaker output.
	Output audio.Output

	// EnableBus exports the D-Bus command bridge.
	EnableBus bool

	// PollInterval is how often the playback status is refreshed.
	PollInterval time.Duration
}

// Daemon wires the playback worker to its control surfaces.
type Daemon struct {
	logger *slog.Logger
	opts   Options

	mu  sync.RWMutex
	cfg *config.DaemonConfig

	speaker    *audio.SpeakerOutput
	dispatcher *dispatch.Dispatcher
	notifier   *InternalNotifier
	watcher    *ConfigWatcher
	status     *StatusTracker

	quitOnce  sync.Once
	quitCh    chan struct{}
	refreshCh chan struct{}
}

// New creates a daemon from a validated configuration.
func New(cfg *config.DaemonConfig, opts Options, logger *slog.Logger) (*Daemon, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg == nil {
		cfg = config.DefaultDaemonConfig()
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = defaultPollInterval
	}

	settings := audio.SettingsFromConfig(cfg)
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("invalid audio settings: %w", err)
	}

	d := &Daemon{
		logger:    logger,
		opts:      opts,
		cfg:       cfg,
		notifier:  NewInternalNotifier(logger),
		status:    NewStatusTracker(),
		quitCh:    make(chan struct{}),
		refreshCh: make(chan struct{}, 1),
	}

	output := opts.Output
	if output == nil {
		d.speaker = audio.NewSpeakerOutput(cfg.Audio.Buffer.Duration(), logger)
		output = d.speaker
	}

	controller := audio.NewController(output, settings, logger)
	d.dispatcher = dispatch.New(controller, logger)
	d.dispatcher.SetErrorHandler(d.handleCommandError)

	if opts.ConfigPath != "" {
		d.watcher = NewConfigWatcher(opts.ConfigPath, logger)
		d.watcher.SetReloadCallback(d.ApplyConfig)
		d.watcher.SetErrorCallback(d.notifier.NotifyConfigError)
	}

	d.applyAmbient(cfg)
	return d, nil
}

// SetStatusHandler sets the callback invoked when playback starts or stops.
func (d *Daemon) SetStatusHandler(handler func(playing bool)) {
	d.status.SetChangeCallback(handler)
}

// Notifier returns the desktop notifier.
func (d *Daemon) Notifier() *InternalNotifier {
	return d.notifier
}

// Dispatcher returns the playback command dispatcher.
func (d *Daemon) Dispatcher() *dispatch.Dispatcher {
	return d.dispatcher
}

// Config returns the active configuration.
func (d *Daemon) Config() *config.DaemonConfig {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.cfg
}

// Run starts the worker and control surfaces and blocks until ctx is
// cancelled or Quit is called.
func (d *Daemon) Run(ctx context.Context) error {
	workerCtx, cancelWorker := context.WithCancel(context.Background())
	defer cancelWorker()

	go func() {
		if err := d.dispatcher.Run(workerCtx); err != nil {
			d.logger.Error("dispatch worker failed", "error", err)
		}
	}()

	if d.opts.EnableBus {
		server := dbus.NewServer(d.dispatcher, d.logger)
		server.SetRequestHandler(func(bool) { d.requestRefresh() })
		if err := server.Start(); err != nil {
			d.shutdown(cancelWorker)
			return fmt.Errorf("failed to start D-Bus server: %w", err)
		}
		defer func() { _ = server.Stop() }()
	}

	if d.watcher != nil {
		if err := d.watcher.Start(ctx, d.Config()); err != nil {
			d.logger.Warn("config hot reload disabled", "error", err)
		} else {
			defer d.watcher.Stop()
		}
	}

	if d.Config().Daemon.Autostart {
		d.logger.Info("autostart enabled, starting keep-alive")
		if err := d.dispatcher.Start(); err != nil {
			d.logger.Warn("autostart failed", "error", err)
		}
	}

	d.logger.Info("audiokeepd running")
	d.refreshStatus(ctx)

	ticker := time.NewTicker(d.opts.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("shutting down", "reason", ctx.Err())
			d.shutdown(cancelWorker)
			return nil
		case <-d.quitCh:
			d.logger.Info("quit requested, shutting down")
			d.shutdown(cancelWorker)
			return nil
		case <-ticker.C:
			d.refreshStatus(ctx)
		case <-d.refreshCh:
			d.refreshStatus(ctx)
		}
	}
}

// shutdown drains the worker and releases the audio device.
func (d *Daemon) shutdown(cancelWorker context.CancelFunc) {
	d.dispatcher.Close()

	select {
	case <-d.dispatcher.Done():
	case <-time.After(shutdownTimeout):
		d.logger.Warn("dispatch worker did not drain in time, cancelling")
		cancelWorker()
		<-d.dispatcher.Done()
	}

	if d.speaker != nil {
		d.speaker.Close()
	}
	d.status.Observe(false)
}

// Quit asks Run to return.
func (d *Daemon) Quit() {
	d.quitOnce.Do(func() { close(d.quitCh) })
}

// Toggle starts playback when stopped and stops it when playing.
func (d *Daemon) Toggle(ctx context.Context) error {
	var err error
	if d.dispatcher.IsPlaying(ctx) {
		err = d.dispatcher.Stop()
	} else {
		err = d.dispatcher.Start()
	}
	d.requestRefresh()
	return err
}

// HandleTrayAction applies a tray menu selection.
func (d *Daemon) HandleTrayAction(action tray.Action) {
	ctx := context.Background()

	switch action {
	case tray.ActionShow:
		d.notifier.NotifyStatus(d.dispatcher.Session(ctx))
	case tray.ActionToggle:
		if err := d.Toggle(ctx); err != nil {
			d.logger.Warn("failed to toggle playback", "error", err)
		}
	case tray.ActionQuit:
		d.Quit()
	default:
		d.logger.Warn("unknown tray action", "action", action)
	}
}

// ApplyConfig pushes a reloaded configuration to the running components.
// Audio settings apply from the next start. A configuration the worker would
// reject is not adopted, so Config keeps reporting the settings in effect.
func (d *Daemon) ApplyConfig(cfg *config.DaemonConfig) {
	settings := audio.SettingsFromConfig(cfg)
	if err := settings.Validate(); err != nil {
		d.logger.Warn("rejected new audio settings", "error", err)
		d.notifier.NotifyConfigError(err)
		return
	}

	if err := d.dispatcher.Configure(settings); err != nil {
		d.logger.Warn("failed to queue new audio settings", "error", err)
		return
	}

	d.mu.Lock()
	old := d.cfg
	d.cfg = cfg
	d.mu.Unlock()

	d.applyAmbient(cfg)

	if old != nil && old.Tray.Enabled != cfg.Tray.Enabled {
		d.logger.Info("tray setting changed, restart audiokeepd to apply")
	}
	if old != nil && old.Audio.Buffer != cfg.Audio.Buffer {
		d.logger.Info("speaker buffer changed, restart audiokeepd to apply")
	}

	d.notifier.NotifyConfigReloaded()
}

func (d *Daemon) applyAmbient(cfg *config.DaemonConfig) {
	d.dispatcher.SetQueryTimeout(cfg.Daemon.QueryTimeout.Duration())
	d.notifier.SetEnabled(cfg.Notifications.Enabled)
	d.notifier.SetMinInterval(cfg.Notifications.RateLimit.Duration())
}

// handleCommandError runs on the worker goroutine.
func (d *Daemon) handleCommandError(kind dispatch.Kind, err error) {
	switch kind {
	case dispatch.KindStart:
		d.notifier.NotifyStartFailed(err)
	case dispatch.KindConfigure:
		d.notifier.NotifyConfigError(err)
	}
	d.requestRefresh()
}

func (d *Daemon) requestRefresh() {
	select {
	case d.refreshCh <- struct{}{}:
	default:
	}
}

func (d *Daemon) refreshStatus(ctx context.Context) {
	d.status.Observe(d.dispatcher.IsPlaying(ctx))
}
