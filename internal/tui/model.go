// Package tui provides the BubbleTea-based terminal user interface.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/jmylchreest/audiokeep/internal/audio"
	"github.com/jmylchreest/audiokeep/internal/config"
	"github.com/jmylchreest/audiokeep/internal/dbus"
)

// Backend controls a running daemon.
type Backend interface {
	Session(ctx context.Context) (audio.SessionInfo, error)
	StartAudio(ctx context.Context) error
	StopAudio(ctx context.Context) error
}

// Model is the main TUI model.
type Model struct {
	// Configuration
	cfg     *config.Config
	backend Backend

	// Components
	help    help.Model
	spinner spinner.Model

	// State
	session  audio.SessionInfo
	loaded   bool
	pending  bool
	connErr  error
	showHelp bool
	width    int
	height   int
	ready    bool

	// Key bindings
	keys KeyMap

	// Status message
	statusMsg string
	statusErr bool

	// Playback requests observed on the bus
	requestCh <-chan bool
}

// New creates a new TUI model. requests may be nil.
func New(cfg *config.Config, backend Backend, requests <-chan bool) Model {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	s := spinner.New()
	s.Spinner = spinner.Dot

	return Model{
		cfg:       cfg,
		backend:   backend,
		help:      help.New(),
		spinner:   s,
		keys:      DefaultKeyMap(),
		showHelp:  cfg.UI.ShowHelp,
		requestCh: requests,
	}
}

// Init initializes the TUI.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.fetchSession,
		m.tick(),
		m.watchRequests,
		m.spinner.Tick,
	)
}

type tickMsg time.Time

type sessionMsg struct {
	info audio.SessionInfo
	err  error
}

type toggleResultMsg struct {
	enable bool
	err    error
}

// requestMsg is sent when another client asked the daemon to start or stop.
type requestMsg struct {
	playing bool
}

type statusMsg struct {
	text  string
	isErr bool
}

type clearStatusMsg struct{}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.cfg.UI.PollInterval.Duration(), func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// fetchSession queries the daemon.
func (m Model) fetchSession() tea.Msg {
	info, err := m.backend.Session(context.Background())
	return sessionMsg{info: info, err: err}
}

// watchRequests waits for the next observed playback request.
func (m Model) watchRequests() tea.Msg {
	if m.requestCh == nil {
		return nil
	}
	playing, ok := <-m.requestCh
	if !ok {
		return nil
	}
	return requestMsg{playing: playing}
}

// setPlayback sends a start or stop request.
func (m Model) setPlayback(enable bool) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		var err error
		if enable {
			err = m.backend.StartAudio(ctx)
		} else {
			err = m.backend.StopAudio(ctx)
		}
		return toggleResultMsg{enable: enable, err: err}
	}
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.help.Width = msg.Width
		return m, nil

	case tickMsg:
		return m, tea.Batch(m.fetchSession, m.tick())

	case sessionMsg:
		m.loaded = true
		m.connErr = msg.err
		if msg.err == nil {
			m.session = msg.info
		}
		return m, nil

	case requestMsg:
		return m, tea.Batch(m.fetchSession, m.watchRequests)

	case toggleResultMsg:
		m.pending = false
		if msg.err != nil {
			return m, func() tea.Msg {
				return statusMsg{text: "Request failed: " + describeError(msg.err), isErr: true}
			}
		}
		text := "Disable requested"
		if msg.enable {
			text = "Enable requested"
		}
		return m, tea.Batch(m.fetchSession, func() tea.Msg {
			return statusMsg{text: text}
		})

	case statusMsg:
		m.statusMsg = msg.text
		m.statusErr = msg.isErr
		return m, tea.Tick(3*time.Second, func(t time.Time) tea.Msg {
			return clearStatusMsg{}
		})

	case clearStatusMsg:
		m.statusMsg = ""
		m.statusErr = false
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// handleKey handles key presses.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		return m, nil

	case key.Matches(msg, m.keys.Refresh):
		return m, m.fetchSession
	}

	if m.pending {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Toggle):
		m.pending = true
		return m, m.setPlayback(!m.session.Playing)
	case key.Matches(msg, m.keys.Start):
		m.pending = true
		return m, m.setPlayback(true)
	case key.Matches(msg, m.keys.Stop):
		m.pending = true
		return m, m.setPlayback(false)
	}

	return m, nil
}

// describeError shortens errors for the status line.
func describeError(err error) string {
	if errors.Is(err, dbus.ErrDaemonNotRunning) {
		return "audiokeepd is not running"
	}
	return err.Error()
}

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("12")).
			MarginBottom(1)

	activeStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("10"))

	inactiveStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("8"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("8"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9"))

	buttonStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(0, 2)
)

// View renders the TUI.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("audiokeep"))
	b.WriteString("\n")

	switch {
	case !m.loaded:
		b.WriteString(m.spinner.View() + " Connecting to audiokeepd...")
	case m.connErr != nil:
		b.WriteString(errorStyle.Render("Unavailable: " + describeError(m.connErr)))
	default:
		b.WriteString("Status: " + statusLabel(m.session.Playing))
		if m.session.Playing {
			b.WriteString("\n" + dimStyle.Render(sessionDetail(m.session)))
		}
	}
	b.WriteString("\n\n")

	button := buttonLabel(m.session.Playing)
	if m.pending {
		button = m.spinner.View() + " " + button
	}
	b.WriteString(buttonStyle.Render(button))
	b.WriteString("\n\n")

	switch {
	case m.statusMsg != "" && m.statusErr:
		b.WriteString(errorStyle.Render(m.statusMsg))
	case m.statusMsg != "":
		b.WriteString(m.statusMsg)
	case m.showHelp:
		b.WriteString(m.help.View(m.keys))
	default:
		b.WriteString(m.buildKeybindBar(m.width))
	}

	return b.String()
}

// statusLabel renders the Active/Inactive label.
func statusLabel(playing bool) string {
	if playing {
		return activeStyle.Render("Active")
	}
	return inactiveStyle.Render("Inactive")
}

// buttonLabel returns the toggle label for the current state.
func buttonLabel(playing bool) string {
	if playing {
		return "Disable"
	}
	return "Enable"
}

func sessionDetail(info audio.SessionInfo) string {
	detail := fmt.Sprintf("strategy %s", info.Strategy)
	if !info.StartedAt.IsZero() {
		detail += ", since " + humanize.Time(info.StartedAt)
	}
	return detail
}

// keybind represents a single keybind with priority for the status bar.
type keybind struct {
	key      string
	desc     string
	priority int // lower = more important (shown first)
}

// buildKeybindBar builds a keybind bar that fits within the given width.
func (m Model) buildKeybindBar(width int) string {
	style := lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	keyStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("10"))

	binds := []keybind{
		{"q", "quit", 1},
		{"space", buttonLabel(m.session.Playing), 2},
		{"?", "help", 3},
		{"r", "refresh", 4},
		{"s", "enable", 5},
		{"x", "disable", 6},
	}

	// Build the bar, adding keybinds until we run out of space
	const separator = "  "
	result := ""
	plainLen := 0
	for _, b := range binds {
		plainItem := b.key + " " + b.desc
		testLen := plainLen + len(plainItem)
		if result != "" {
			testLen += len(separator)
		}

		if width > 0 && testLen > width {
			break
		}
		if result != "" {
			result += separator
		}
		result += keyStyle.Render(b.key) + " " + b.desc
		plainLen = testLen
	}

	return style.Render(result)
}

// RunOptions configures the TUI.
type RunOptions struct {
	Config  *config.Config
	Backend Backend
	Watch   bool // Subscribe to PlaybackRequested signals
}

// Run starts the TUI with the given options.
func Run(opts RunOptions) error {
	var requests chan bool
	if opts.Watch {
		requests = make(chan bool, 8)
		watcher := dbus.NewWatcher(nil)
		watcher.SetRequestHandler(func(playing bool) {
			select {
			case requests <- playing:
			default:
			}
		})
		if err := watcher.Start(); err != nil {
			requests = nil
		} else {
			defer func() { _ = watcher.Stop() }()
		}
	}

	var reqCh <-chan bool
	if requests != nil {
		reqCh = requests
	}

	m := New(opts.Config, opts.Backend, reqCh)
	p := tea.NewProgram(m, tea.WithAltScreen())

	_, err := p.Run()
	return err
}
