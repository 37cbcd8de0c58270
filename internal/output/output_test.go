package output

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/audiokeep/internal/audio"
)

var testNow = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

func testOptions() FormatterOptions {
	return FormatterOptions{Now: func() time.Time { return testNow }}
}

func activeSession() audio.SessionInfo {
	return audio.SessionInfo{
		Playing:   true,
		ID:        "01JAZ3Q8W6X1S0M7V2D4K9H5TB",
		Strategy:  audio.StrategyContinuous,
		StartedAt: testNow.Add(-3 * time.Minute),
	}
}

func format(t *testing.T, ft FormatType, opts FormatterOptions, info audio.SessionInfo) string {
	t.Helper()

	f, err := NewFormatter(ft, opts)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, f.Format(&buf, info))
	return buf.String()
}

func TestNewFormatter_Unknown(t *testing.T) {
	_, err := NewFormatter("xml", testOptions())
	assert.Error(t, err)
}

func TestNewFormatter_DefaultClock(t *testing.T) {
	f, err := NewFormatter(FormatJSON, FormatterOptions{})
	require.NoError(t, err)

	var buf bytes.Buffer
	assert.NoError(t, f.Format(&buf, activeSession()))
}

func TestTextFormatter_Inactive(t *testing.T) {
	out := format(t, FormatText, testOptions(), audio.SessionInfo{})
	assert.Equal(t, "Keep-alive: inactive\n", out)
}

func TestTextFormatter_Active(t *testing.T) {
	out := format(t, FormatText, testOptions(), activeSession())

	assert.Contains(t, out, "Keep-alive: active")
	assert.Contains(t, out, "Strategy: continuous")
	assert.Contains(t, out, "Since: 3 minutes ago")
	assert.Contains(t, out, "Session: 01JAZ3Q8W6X1S0M7V2D4K9H5TB")
}

func TestTextFormatter_Template(t *testing.T) {
	tests := []struct {
		name     string
		template string
		info     audio.SessionInfo
		want     string
	}{
		{"state", "{{.State}}", activeSession(), "active\n"},
		{"inactive", "{{.State}}", audio.SessionInfo{}, "inactive\n"},
		{"since", "{{.Strategy}} {{.Since}}", activeSession(), "continuous 3 minutes ago\n"},
		{"uptime", "{{.Uptime}}", activeSession(), "3m0s\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := testOptions()
			opts.Template = tt.template
			assert.Equal(t, tt.want, format(t, FormatText, opts, tt.info))
		})
	}
}

func TestTextFormatter_InvalidTemplate(t *testing.T) {
	opts := testOptions()
	opts.Template = "{{.State"

	_, err := NewFormatter(FormatText, opts)
	assert.Error(t, err)
}

func TestJSONFormatter_Format(t *testing.T) {
	out := format(t, FormatJSON, testOptions(), activeSession())

	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "active", got["state"])
	assert.Equal(t, true, got["playing"])
	assert.Equal(t, "continuous", got["strategy"])
	assert.Equal(t, "3m0s", got["uptime"])
}

func TestJSONFormatter_InactiveOmitsSession(t *testing.T) {
	out := format(t, FormatJSON, testOptions(), audio.SessionInfo{})

	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "inactive", got["state"])
	assert.NotContains(t, got, "id")
	assert.NotContains(t, got, "started_at")
}

func TestYAMLFormatter_Format(t *testing.T) {
	out := format(t, FormatYAML, testOptions(), activeSession())

	var got map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(out), &got))
	assert.Equal(t, "active", got["state"])
	assert.Equal(t, "01JAZ3Q8W6X1S0M7V2D4K9H5TB", got["id"])
}

func TestWaybarFormatter_Format(t *testing.T) {
	tests := []struct {
		name      string
		info      audio.SessionInfo
		wantClass string
	}{
		{"inactive", audio.SessionInfo{}, "inactive"},
		{"active", activeSession(), "active"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := format(t, FormatWaybar, testOptions(), tt.info)

			var got WaybarStatus
			require.NoError(t, json.Unmarshal([]byte(out), &got))
			assert.Equal(t, tt.wantClass, got.Class)
			assert.Equal(t, tt.wantClass, got.Alt)
			assert.Contains(t, got.Tooltip, tt.wantClass)
		})
	}
}

func TestWaybarFormatter_ActiveTooltip(t *testing.T) {
	out := format(t, FormatWaybar, testOptions(), activeSession())

	var got WaybarStatus
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "audiokeep: active since 3 minutes ago", got.Tooltip)
}
