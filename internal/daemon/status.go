package daemon

import (
	"sync"
	"time"
)

// PlaybackStatus is the last playback state observed by the daemon.
type PlaybackStatus int

const (
	// StatusUnknown means no query has been answered yet.
	StatusUnknown PlaybackStatus = iota
	// StatusInactive means the device is allowed to sleep.
	StatusInactive
	// StatusActive means keep-alive playback is running.
	StatusActive
)

// String returns the string representation of PlaybackStatus.
func (s PlaybackStatus) String() string {
	switch s {
	case StatusInactive:
		return "inactive"
	case StatusActive:
		return "active"
	default:
		return "unknown"
	}
}

// StatusTracker records playback state transitions for the tray.
type StatusTracker struct {
	mu sync.RWMutex

	status    PlaybackStatus
	changedAt time.Time

	onChange func(playing bool)
	now      func() time.Time
}

// NewStatusTracker creates a tracker in the unknown state.
func NewStatusTracker() *StatusTracker {
	return &StatusTracker{now: time.Now}
}

// SetChangeCallback sets the callback invoked on every transition.
func (t *StatusTracker) SetChangeCallback(callback func(playing bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onChange = callback
}

// Observe records a queried state and reports whether it changed.
func (t *StatusTracker) Observe(playing bool) bool {
	next := StatusInactive
	if playing {
		next = StatusActive
	}

	t.mu.Lock()
	if t.status == next {
		t.mu.Unlock()
		return false
	}
	t.status = next
	t.changedAt = t.now()
	callback := t.onChange
	t.mu.Unlock()

	if callback != nil {
		callback(playing)
	}
	return true
}

// Status returns the last observed state.
func (t *StatusTracker) Status() PlaybackStatus {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.status
}

// ChangedAt returns when the state last changed.
func (t *StatusTracker) ChangedAt() time.Time {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.changedAt
}
