package tui

import (
	"context"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/audiokeep/internal/audio"
	"github.com/jmylchreest/audiokeep/internal/dbus"
)

type fakeBackend struct {
	session  audio.SessionInfo
	err      error
	starts   int
	stops    int
	startErr error
}

func (b *fakeBackend) Session(context.Context) (audio.SessionInfo, error) {
	return b.session, b.err
}

func (b *fakeBackend) StartAudio(context.Context) error {
	b.starts++
	if b.startErr != nil {
		return b.startErr
	}
	b.session = audio.SessionInfo{Playing: true, Strategy: audio.StrategyContinuous}
	return nil
}

func (b *fakeBackend) StopAudio(context.Context) error {
	b.stops++
	b.session = audio.SessionInfo{}
	return nil
}

func ready(t *testing.T, backend *fakeBackend) Model {
	t.Helper()
	m := New(nil, backend, nil)
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	updated, _ = updated.Update(m.fetchSession())
	return updated.(Model)
}

func keyMsg(s string) tea.KeyMsg {
	if s == " " {
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestView_Inactive(t *testing.T) {
	m := ready(t, &fakeBackend{})

	view := m.View()
	assert.Contains(t, view, "Inactive")
	assert.Contains(t, view, "Enable")
	assert.NotContains(t, view, "Disable")
}

func TestView_Active(t *testing.T) {
	m := ready(t, &fakeBackend{session: audio.SessionInfo{
		Playing:   true,
		Strategy:  audio.StrategyBurst,
		StartedAt: time.Now().Add(-2 * time.Minute),
	}})

	view := m.View()
	assert.Contains(t, view, "Active")
	assert.Contains(t, view, "Disable")
	assert.Contains(t, view, "burst")
	assert.Contains(t, view, "minutes ago")
}

func TestView_DaemonUnavailable(t *testing.T) {
	m := ready(t, &fakeBackend{err: dbus.ErrDaemonNotRunning})
	assert.Contains(t, m.View(), "audiokeepd is not running")
}

func TestView_BeforeResize(t *testing.T) {
	m := New(nil, &fakeBackend{}, nil)
	assert.Equal(t, "Initializing...", m.View())
}

func TestToggle(t *testing.T) {
	backend := &fakeBackend{}
	m := ready(t, backend)

	updated, cmd := m.Update(keyMsg(" "))
	m = updated.(Model)
	require.NotNil(t, cmd)
	assert.True(t, m.pending)

	// Keys are ignored while a request is in flight
	_, ignored := m.Update(keyMsg("s"))
	assert.Nil(t, ignored)

	result := cmd()
	assert.Equal(t, toggleResultMsg{enable: true}, result)
	assert.Equal(t, 1, backend.starts)

	updated, _ = m.Update(result)
	updated, _ = updated.Update(m.fetchSession())
	m = updated.(Model)
	assert.False(t, m.pending)
	assert.Contains(t, m.View(), "Active")

	// Toggling again stops
	_, cmd = m.Update(keyMsg("t"))
	require.NotNil(t, cmd)
	assert.Equal(t, toggleResultMsg{enable: false}, cmd())
	assert.Equal(t, 1, backend.stops)
}

func TestExplicitStartStop(t *testing.T) {
	tests := []struct {
		key    string
		starts int
		stops  int
	}{
		{"s", 1, 0},
		{"x", 0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			backend := &fakeBackend{}
			m := ready(t, backend)

			_, cmd := m.Update(keyMsg(tt.key))
			require.NotNil(t, cmd)
			cmd()

			assert.Equal(t, tt.starts, backend.starts)
			assert.Equal(t, tt.stops, backend.stops)
		})
	}
}

func TestToggleFailureShowsStatus(t *testing.T) {
	backend := &fakeBackend{startErr: errors.New("StartAudio failed: worker gone")}
	m := ready(t, backend)

	_, cmd := m.Update(keyMsg(" "))
	updated, cmd := m.Update(cmd())
	require.NotNil(t, cmd)

	updated, _ = updated.Update(cmd())
	m = updated.(Model)
	assert.True(t, m.statusErr)
	assert.Contains(t, m.View(), "worker gone")

	updated, _ = m.Update(clearStatusMsg{})
	assert.Empty(t, updated.(Model).statusMsg)
}

func TestRequestMsgRefreshes(t *testing.T) {
	requests := make(chan bool, 1)
	backend := &fakeBackend{}
	m := New(nil, backend, requests)

	requests <- true
	msg := m.watchRequests()
	assert.Equal(t, requestMsg{playing: true}, msg)

	_, cmd := m.Update(msg)
	assert.NotNil(t, cmd)
}

func TestQuitAndHelp(t *testing.T) {
	m := ready(t, &fakeBackend{})

	_, cmd := m.Update(keyMsg("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())

	before := m.showHelp
	updated, _ := m.Update(keyMsg("?"))
	assert.Equal(t, !before, updated.(Model).showHelp)
}

func TestBuildKeybindBar(t *testing.T) {
	m := ready(t, &fakeBackend{})

	assert.Contains(t, m.buildKeybindBar(0), "disable")

	narrow := m.buildKeybindBar(12)
	assert.Contains(t, narrow, "quit")
	assert.NotContains(t, narrow, "refresh")
}
