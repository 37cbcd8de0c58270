package output

import (
	"fmt"
	"io"
	"strings"
	"text/template"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/jmylchreest/audiokeep/internal/audio"
)

// TextFormatter formats a session as human readable text.
type TextFormatter struct {
	opts     FormatterOptions
	template *template.Template
}

// templateData is passed to custom text templates.
type templateData struct {
	Report
	Since string
}

// NewTextFormatter creates a new text formatter. A custom template that
// fails to parse is an error.
func NewTextFormatter(opts FormatterOptions) (*TextFormatter, error) {
	f := &TextFormatter{opts: opts}

	if opts.Template != "" {
		tmpl, err := template.New("text").Parse(opts.Template)
		if err != nil {
			return nil, fmt.Errorf("failed to parse template: %w", err)
		}
		f.template = tmpl
	}

	return f, nil
}

// Format writes the session as text.
func (f *TextFormatter) Format(w io.Writer, info audio.SessionInfo) error {
	now := f.opts.Now()

	if f.template != nil {
		data := templateData{
			Report: NewReport(info, now),
			Since:  relativeTime(info.StartedAt, now),
		}
		if err := f.template.Execute(w, data); err != nil {
			return err
		}
		_, err := io.WriteString(w, "\n")
		return err
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Keep-alive: %s\n", StateName(info.Playing))

	if info.Playing {
		if info.Strategy != "" {
			fmt.Fprintf(&sb, "  Strategy: %s\n", info.Strategy)
		}
		if !info.StartedAt.IsZero() {
			fmt.Fprintf(&sb, "  Since: %s (%s)\n",
				relativeTime(info.StartedAt, now), info.StartedAt.Format(time.DateTime))
		}
		if info.ID != "" {
			fmt.Fprintf(&sb, "  Session: %s\n", info.ID)
		}
	}

	_, err := io.WriteString(w, sb.String())
	return err
}

func relativeTime(t, now time.Time) string {
	if t.IsZero() {
		return ""
	}
	return humanize.RelTime(t, now, "ago", "from now")
}
