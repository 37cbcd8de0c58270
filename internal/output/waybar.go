package output

import (
	"encoding/json"
	"io"

	"github.com/jmylchreest/audiokeep/internal/audio"
)

// WaybarStatus represents the Waybar custom module JSON format.
type WaybarStatus struct {
	Text    string `json:"text"`
	Alt     string `json:"alt,omitempty"`
	Tooltip string `json:"tooltip,omitempty"`
	Class   string `json:"class,omitempty"`
}

// WaybarFormatter formats a session for a Waybar custom module.
type WaybarFormatter struct {
	opts FormatterOptions
}

// NewWaybarFormatter creates a new Waybar formatter.
func NewWaybarFormatter(opts FormatterOptions) *WaybarFormatter {
	return &WaybarFormatter{opts: opts}
}

// Format writes a single line of Waybar JSON.
func (f *WaybarFormatter) Format(w io.Writer, info audio.SessionInfo) error {
	return WriteWaybar(w, f.status(info))
}

func (f *WaybarFormatter) status(info audio.SessionInfo) WaybarStatus {
	if !info.Playing {
		return WaybarStatus{
			Text:    "",
			Alt:     "inactive",
			Tooltip: "audiokeep: inactive",
			Class:   "inactive",
		}
	}

	tooltip := "audiokeep: active"
	if since := relativeTime(info.StartedAt, f.opts.Now()); since != "" {
		tooltip += " since " + since
	}
	return WaybarStatus{
		Text:    "󰓃",
		Alt:     "active",
		Tooltip: tooltip,
		Class:   "active",
	}
}

// WriteWaybar writes status as a single line of JSON.
func WriteWaybar(w io.Writer, status WaybarStatus) error {
	return json.NewEncoder(w).Encode(status)
}

// WaybarError is shown when the daemon cannot be reached.
func WaybarError(err error) WaybarStatus {
	return WaybarStatus{Alt: "error", Class: "error", Tooltip: err.Error()}
}
