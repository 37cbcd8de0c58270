// Package tray shows the audiokeep system tray icon and menu.
package tray

// Action is a tray menu selection.
type Action int

const (
	// ActionShow reports the current status to the user.
	ActionShow Action = iota
	// ActionToggle starts playback when stopped and stops it when playing.
	ActionToggle
	// ActionQuit shuts the daemon down.
	ActionQuit
)

// String returns the string representation of the action.
func (a Action) String() string {
	switch a {
	case ActionShow:
		return "show"
	case ActionToggle:
		return "toggle"
	case ActionQuit:
		return "quit"
	default:
		return "unknown"
	}
}

// Handler receives tray actions. It is called on the tray event goroutine.
type Handler func(Action)

// Menu labels.
const (
	showTitle       = "Show status"
	showTooltip     = "Show whether the audio device is being kept awake"
	enableTitle     = "Enable"
	disableTitle    = "Disable"
	toggleTooltip   = "Start or stop keep-alive playback"
	quitTitle       = "Quit"
	quitTooltip     = "Stop audiokeep and quit"
	activeTooltip   = "audiokeep: Active"
	inactiveTooltip = "audiokeep: Inactive"
)

// toggleTitle returns the toggle label for the given playback state.
func toggleTitle(playing bool) string {
	if playing {
		return disableTitle
	}
	return enableTitle
}

// statusTooltip returns the icon tooltip for the given playback state.
func statusTooltip(playing bool) string {
	if playing {
		return activeTooltip
	}
	return inactiveTooltip
}
