package dispatch

import (
	"github.com/jmylchreest/audiokeep/internal/audio"
)

// Kind identifies a command variant.
type Kind int

const (
	// KindUnknown is the zero value and is ignored by the worker.
	KindUnknown Kind = iota
	// KindStart requests playback.
	KindStart
	// KindStop ends playback.
	KindStop
	// KindQueryStatus asks whether playback is active.
	KindQueryStatus
	// KindQuerySession asks for the current session snapshot.
	KindQuerySession
	// KindConfigure replaces the controller settings.
	KindConfigure
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindStart:
		return "start"
	case KindStop:
		return "stop"
	case KindQueryStatus:
		return "query_status"
	case KindQuerySession:
		return "query_session"
	case KindConfigure:
		return "configure"
	default:
		return "unknown"
	}
}

// Command is a request for the worker. Construct commands with the helper
// functions below.
type Command struct {
	Kind Kind

	// Settings for KindConfigure
	Settings audio.Settings

	// Single-use reply channels, buffered with capacity 1
	status  chan bool
	session chan audio.SessionInfo
}

// StartCommand requests playback.
func StartCommand() Command {
	return Command{Kind: KindStart}
}

// StopCommand ends playback.
func StopCommand() Command {
	return Command{Kind: KindStop}
}

// QueryStatusCommand returns a status query and the channel its reply is
// delivered on.
func QueryStatusCommand() (Command, <-chan bool) {
	reply := make(chan bool, 1)
	return Command{Kind: KindQueryStatus, status: reply}, reply
}

// QuerySessionCommand returns a session query and the channel its reply is
// delivered on.
func QuerySessionCommand() (Command, <-chan audio.SessionInfo) {
	reply := make(chan audio.SessionInfo, 1)
	return Command{Kind: KindQuerySession, session: reply}, reply
}

// ConfigureCommand replaces the controller settings from the next start.
func ConfigureCommand(settings audio.Settings) Command {
	return Command{Kind: KindConfigure, Settings: settings}
}
