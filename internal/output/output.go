// Package output provides output formatters for keep-alive status.
package output

import (
	"fmt"
	"io"
	"time"

	"github.com/jmylchreest/audiokeep/internal/audio"
)

// Formatter formats a session for output.
type Formatter interface {
	// Format writes the formatted session to the writer.
	Format(w io.Writer, info audio.SessionInfo) error
}

// FormatType represents an output format type.
type FormatType string

const (
	FormatText   FormatType = "text"
	FormatJSON   FormatType = "json"
	FormatYAML   FormatType = "yaml"
	FormatWaybar FormatType = "waybar"
)

// NewFormatter creates a formatter for the specified format type.
func NewFormatter(format FormatType, opts FormatterOptions) (Formatter, error) {
	if opts.Now == nil {
		opts.Now = time.Now
	}

	switch format {
	case FormatText:
		return NewTextFormatter(opts)
	case FormatJSON:
		return NewJSONFormatter(opts), nil
	case FormatYAML:
		return NewYAMLFormatter(opts), nil
	case FormatWaybar:
		return NewWaybarFormatter(opts), nil
	default:
		return nil, fmt.Errorf("unknown output format %q", format)
	}
}

// FormatterOptions configures formatter behavior.
type FormatterOptions struct {
	Template string           // Custom template for text format
	Now      func() time.Time // Clock for relative times
}

// Report is the serialized form of a session.
type Report struct {
	State     string         `json:"state" yaml:"state"`
	Playing   bool           `json:"playing" yaml:"playing"`
	ID        string         `json:"id,omitempty" yaml:"id,omitempty"`
	Strategy  audio.Strategy `json:"strategy,omitempty" yaml:"strategy,omitempty"`
	StartedAt *time.Time     `json:"started_at,omitempty" yaml:"started_at,omitempty"`
	Uptime    string         `json:"uptime,omitempty" yaml:"uptime,omitempty"`
}

// NewReport builds the serialized form of info.
func NewReport(info audio.SessionInfo, now time.Time) Report {
	report := Report{
		State:    StateName(info.Playing),
		Playing:  info.Playing,
		ID:       info.ID,
		Strategy: info.Strategy,
	}
	if !info.StartedAt.IsZero() {
		started := info.StartedAt
		report.StartedAt = &started
		report.Uptime = now.Sub(started).Round(time.Second).String()
	}
	return report
}

// StateName returns "active" or "inactive".
func StateName(playing bool) string {
	if playing {
		return "active"
	}
	return "inactive"
}
