package output

import (
	"encoding/json"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/audiokeep/internal/audio"
)

// JSONFormatter formats a session as JSON.
type JSONFormatter struct {
	opts FormatterOptions
}

// NewJSONFormatter creates a new JSON formatter.
func NewJSONFormatter(opts FormatterOptions) *JSONFormatter {
	return &JSONFormatter{opts: opts}
}

// Format writes the session report as indented JSON.
func (f *JSONFormatter) Format(w io.Writer, info audio.SessionInfo) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(NewReport(info, f.opts.Now()))
}

// YAMLFormatter formats a session as YAML.
type YAMLFormatter struct {
	opts FormatterOptions
}

// NewYAMLFormatter creates a new YAML formatter.
func NewYAMLFormatter(opts FormatterOptions) *YAMLFormatter {
	return &YAMLFormatter{opts: opts}
}

// Format writes the session report as YAML.
func (f *YAMLFormatter) Format(w io.Writer, info audio.SessionInfo) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(NewReport(info, f.opts.Now())); err != nil {
		return err
	}
	return encoder.Close()
}
