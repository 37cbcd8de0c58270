package daemon

import (
	"log/slog"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gen2brain/beeep"

	"github.com/jmylchreest/audiokeep/internal/audio"
)

// NotificationLevel indicates the urgency/severity of an internal notification.
type NotificationLevel int

const (
	// NotificationLevelInfo is for informational messages.
	NotificationLevelInfo NotificationLevel = iota
	// NotificationLevelWarning is for warning messages.
	NotificationLevelWarning
	// NotificationLevelError is for error messages.
	NotificationLevelError
)

// icon returns the freedesktop icon name for the level.
func (l NotificationLevel) icon() string {
	switch l {
	case NotificationLevelWarning:
		return "dialog-warning"
	case NotificationLevelError:
		return "dialog-error"
	default:
		return "dialog-information"
	}
}

// NotifyFunc delivers a desktop notification.
type NotifyFunc func(title, message, icon string) error

// InternalNotifier sends desktop notifications about audiokeepd events.
// Notifications sharing a key are rate limited to prevent floods.
type InternalNotifier struct {
	mu     sync.Mutex
	logger *slog.Logger

	notify NotifyFunc

	// Rate limiting
	lastNotifyTime map[string]time.Time // key -> last notification time
	minInterval    time.Duration        // minimum time between same notifications

	enabled bool
	now     func() time.Time
}

// NewInternalNotifier creates a notifier that delivers through beeep.
func NewInternalNotifier(logger *slog.Logger) *InternalNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &InternalNotifier{
		logger: logger,
		notify: func(title, message, icon string) error {
			return beeep.Notify(title, message, icon)
		},
		lastNotifyTime: make(map[string]time.Time),
		minInterval:    time.Minute,
		enabled:        true,
		now:            time.Now,
	}
}

// SetNotifyFunc replaces the delivery function.
func (n *InternalNotifier) SetNotifyFunc(fn NotifyFunc) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notify = fn
}

// SetEnabled enables or disables internal notifications.
func (n *InternalNotifier) SetEnabled(enabled bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.enabled = enabled
}

// SetMinInterval sets the minimum interval between duplicate notifications.
func (n *InternalNotifier) SetMinInterval(interval time.Duration) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.minInterval = interval
}

// Notify sends a notification unless it is rate limited. An empty key
// bypasses rate limiting.
func (n *InternalNotifier) Notify(key, summary, body string, level NotificationLevel) {
	n.mu.Lock()
	if !n.enabled {
		n.mu.Unlock()
		return
	}

	if key != "" {
		if lastTime, ok := n.lastNotifyTime[key]; ok && n.now().Sub(lastTime) < n.minInterval {
			n.mu.Unlock()
			n.logger.Debug("internal notification rate-limited", "key", key, "summary", summary)
			return
		}
		n.lastNotifyTime[key] = n.now()
	}
	notify := n.notify
	n.mu.Unlock()

	if notify == nil {
		n.logger.Debug("internal notification skipped: no handler", "summary", summary)
		return
	}

	n.logger.Debug("sending internal notification", "key", key, "summary", summary, "level", level)
	if err := notify(summary, body, level.icon()); err != nil {
		n.logger.Warn("failed to send notification", "summary", summary, "error", err)
	}
}

// NotifyStatus reports the current playback state. It is never rate limited.
func (n *InternalNotifier) NotifyStatus(info audio.SessionInfo) {
	summary := "audiokeep: Inactive"
	body := "The audio device is allowed to sleep."
	if info.Playing {
		summary = "audiokeep: Active"
		body = "Keeping the audio device awake (" + string(info.Strategy) + ")"
		if !info.StartedAt.IsZero() {
			body += " since " + humanize.Time(info.StartedAt)
		}
		body += "."
	}
	n.Notify("", summary, body, NotificationLevelInfo)
}

// NotifyStartFailed reports that no output stream could be acquired.
func (n *InternalNotifier) NotifyStartFailed(err error) {
	n.Notify(
		"start-failed",
		"Audio Error",
		"Failed to keep the audio device awake: "+err.Error(),
		NotificationLevelError,
	)
}

// NotifyConfigReloaded sends a notification about config being reloaded.
func (n *InternalNotifier) NotifyConfigReloaded() {
	n.Notify(
		"config-reload",
		"Configuration Reloaded",
		"audiokeepd configuration has been reloaded. Changes apply from the next start.",
		NotificationLevelInfo,
	)
}

// NotifyConfigError sends a notification about config validation error.
func (n *InternalNotifier) NotifyConfigError(err error) {
	n.Notify(
		"config-error",
		"Configuration Error",
		"Failed to reload configuration: "+err.Error(),
		NotificationLevelWarning,
	)
}
