package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/jmylchreest/audiokeep/internal/config"
)

// defaultDebounce collapses the burst of events editors emit on save.
const defaultDebounce = 200 * time.Millisecond

// ConfigWatcher watches the daemon config file for changes and validates new configs.
type ConfigWatcher struct {
	mu     sync.RWMutex
	logger *slog.Logger

	// Path to watch
	configPath string

	// Current valid config
	currentConfig *config.DaemonConfig

	// Delay between the last event and the reload
	debounce time.Duration

	// Callbacks
	onReloadCallback func(newConfig *config.DaemonConfig)
	onErrorCallback  func(err error)

	watcher *fsnotify.Watcher

	// Control channels
	stopCh chan struct{}
	doneCh chan struct{}

	running bool
}

// NewConfigWatcher creates a new ConfigWatcher for the config file at path.
func NewConfigWatcher(path string, logger *slog.Logger) *ConfigWatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &ConfigWatcher{
		logger:     logger,
		configPath: path,
		debounce:   defaultDebounce,
	}
}

// SetDebounce sets how long to wait after the last change before reloading.
func (w *ConfigWatcher) SetDebounce(d time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.debounce = d
}

// SetReloadCallback sets the callback to invoke when config is successfully reloaded.
func (w *ConfigWatcher) SetReloadCallback(callback func(newConfig *config.DaemonConfig)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onReloadCallback = callback
}

// SetErrorCallback sets the callback to invoke when config reload fails validation.
func (w *ConfigWatcher) SetErrorCallback(callback func(err error)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onErrorCallback = callback
}

// Start begins watching the config file for changes. The parent directory
// is watched so the file may be created, replaced or renamed into place.
func (w *ConfigWatcher) Start(ctx context.Context, initialConfig *config.DaemonConfig) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return nil
	}

	dir := filepath.Dir(w.configPath)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	w.watcher = watcher
	w.currentConfig = initialConfig
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})
	w.running = true

	go w.watchLoop(ctx)

	w.logger.Debug("config watcher started", "path", w.configPath)
	return nil
}

// Stop stops watching the config file.
func (w *ConfigWatcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	close(w.stopCh)
	w.mu.Unlock()

	// Wait for goroutine to finish
	<-w.doneCh
	w.logger.Debug("config watcher stopped")
}

// GetCurrentConfig returns the current valid configuration.
func (w *ConfigWatcher) GetCurrentConfig() *config.DaemonConfig {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.currentConfig
}

// watchLoop is the main event loop.
func (w *ConfigWatcher) watchLoop(ctx context.Context) {
	defer close(w.doneCh)
	defer w.watcher.Close()

	filename := filepath.Base(w.configPath)

	w.mu.RLock()
	debounce := w.debounce
	w.mu.RUnlock()

	timer := time.NewTimer(debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}

			// Only care about our file
			if filepath.Base(event.Name) != filename {
				continue
			}

			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				w.logger.Debug("config file changed", "path", w.configPath, "op", event.Op.String())
				timer.Reset(debounce)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("config watcher error", "error", err)

		case <-timer.C:
			w.reload()
		}
	}
}

// reload loads and validates the config file and notifies the callbacks.
func (w *ConfigWatcher) reload() {
	w.mu.RLock()
	reloadCallback := w.onReloadCallback
	errorCallback := w.onErrorCallback
	w.mu.RUnlock()

	if _, err := os.Stat(w.configPath); os.IsNotExist(err) {
		// Renamed away; the replacement triggers another event
		return
	}

	newConfig, err := config.LoadDaemonConfigFrom(w.configPath)
	if err != nil {
		w.logger.Warn("config file changed but validation failed", "error", err)
		if errorCallback != nil {
			errorCallback(err)
		}
		return
	}

	// Config is valid - update current and notify
	w.mu.Lock()
	w.currentConfig = newConfig
	w.mu.Unlock()

	w.logger.Info("config reloaded successfully")
	if reloadCallback != nil {
		reloadCallback(newConfig)
	}
}
