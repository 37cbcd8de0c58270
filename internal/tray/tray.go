package tray

import (
	"log/slog"
	"sync"

	"github.com/getlantern/systray"
)

// Tray owns the system tray icon. systray requires Run to be called from the
// main goroutine.
type Tray struct {
	logger  *slog.Logger
	handler Handler
	version string

	mu      sync.Mutex
	ready   bool
	playing bool
	toggle  *systray.MenuItem
	stopCh  chan struct{}
}

// New creates a tray that forwards menu selections to handler.
func New(handler Handler, version string, logger *slog.Logger) *Tray {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tray{
		logger:  logger,
		handler: handler,
		version: version,
		stopCh:  make(chan struct{}),
	}
}

// Run shows the tray icon and blocks until Quit is called. onReady runs once
// the menu exists.
func (t *Tray) Run(onReady func()) {
	t.logger.Debug("running in tray")
	systray.Run(func() {
		t.setup()
		if onReady != nil {
			onReady()
		}
	}, func() {
		t.logger.Debug("tray exited")
	})
}

func (t *Tray) setup() {
	_, inactive := icons()
	systray.SetIcon(inactive)
	systray.SetTitle("audiokeep")
	systray.SetTooltip(inactiveTooltip)

	show := systray.AddMenuItem(showTitle, showTooltip)
	toggle := systray.AddMenuItem(enableTitle, toggleTooltip)

	if t.version != "" {
		systray.AddSeparator()
		versionInfo := systray.AddMenuItem("audiokeep "+t.version, "")
		versionInfo.Disable()
	}

	systray.AddSeparator()
	quit := systray.AddMenuItem(quitTitle, quitTooltip)

	t.mu.Lock()
	t.toggle = toggle
	t.ready = true
	playing := t.playing
	t.mu.Unlock()

	// Apply a state that arrived before the menu existed
	t.render(playing)

	go t.handleActions(show, toggle, quit)
	t.logger.Debug("tray instance ready")
}

func (t *Tray) handleActions(show, toggle, quit *systray.MenuItem) {
	for {
		select {
		case <-show.ClickedCh:
			t.dispatch(ActionShow)
		case <-toggle.ClickedCh:
			t.dispatch(ActionToggle)
		case <-quit.ClickedCh:
			t.dispatch(ActionQuit)
		case <-t.stopCh:
			return
		}
	}
}

func (t *Tray) dispatch(action Action) {
	t.logger.Info("tray menu item clicked", "action", action)
	if t.handler != nil {
		t.handler(action)
	}
}

// SetPlaying updates the icon, tooltip and toggle label.
func (t *Tray) SetPlaying(playing bool) {
	t.mu.Lock()
	changed := t.playing != playing
	t.playing = playing
	ready := t.ready
	t.mu.Unlock()

	if ready && changed {
		t.render(playing)
	}
}

func (t *Tray) render(playing bool) {
	active, inactive := icons()
	if playing {
		systray.SetIcon(active)
	} else {
		systray.SetIcon(inactive)
	}
	systray.SetTooltip(statusTooltip(playing))

	t.mu.Lock()
	toggle := t.toggle
	t.mu.Unlock()
	if toggle != nil {
		toggle.SetTitle(toggleTitle(playing))
	}
}

// Quit removes the tray icon and makes Run return.
func (t *Tray) Quit() {
	t.mu.Lock()
	defer t.mu.Unlock()

	select {
	case <-t.stopCh:
		return
	default:
		close(t.stopCh)
	}

	t.logger.Debug("quitting tray")
	systray.Quit()
}
