package dbus

import (
	"time"

	"github.com/godbus/dbus/v5"

	"github.com/jmylchreest/audiokeep/internal/audio"
)

const (
	// Interface is the command bridge interface name.
	Interface = "io.github.jmylchreest.AudioKeep"
	// Path is the command bridge object path.
	Path = dbus.ObjectPath("/io/github/jmylchreest/AudioKeep")
	// BusName is the bus name claimed by the daemon.
	BusName = "io.github.jmylchreest.AudioKeep"
)

// Member names on Interface.
const (
	MethodStartAudio = "StartAudio"
	MethodStopAudio  = "StopAudio"
	MethodIsPlaying  = "IsPlaying"
	MethodGetSession = "GetSession"

	SignalPlaybackRequested = "PlaybackRequested"
)

// ErrorWorkerGone is the D-Bus error name returned when the daemon can no
// longer accept playback commands.
const ErrorWorkerGone = Interface + ".Error.WorkerGone"

// sessionToWire flattens a session into the GetSession reply (b s s x).
// StartedAt is sent as unix seconds, 0 when stopped.
func sessionToWire(info audio.SessionInfo) (bool, string, string, int64) {
	var started int64
	if !info.StartedAt.IsZero() {
		started = info.StartedAt.Unix()
	}
	return info.Playing, info.ID, string(info.Strategy), started
}

// sessionFromWire rebuilds a session from a GetSession reply.
func sessionFromWire(playing bool, id, strategy string, started int64) audio.SessionInfo {
	info := audio.SessionInfo{
		Playing:  playing,
		ID:       id,
		Strategy: audio.Strategy(strategy),
	}
	if started > 0 {
		info.StartedAt = time.Unix(started, 0)
	}
	return info
}
