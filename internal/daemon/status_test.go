package daemon

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPlaybackStatus_String(t *testing.T) {
	assert.Equal(t, "unknown", StatusUnknown.String())
	assert.Equal(t, "inactive", StatusInactive.String())
	assert.Equal(t, "active", StatusActive.String())
}

func TestStatusTracker_Observe(t *testing.T) {
	tr := NewStatusTracker()
	assert.Equal(t, StatusUnknown, tr.Status())

	var changes []bool
	tr.SetChangeCallback(func(playing bool) { changes = append(changes, playing) })

	assert.True(t, tr.Observe(false), "first observation is a change")
	assert.False(t, tr.Observe(false))
	assert.True(t, tr.Observe(true))
	assert.False(t, tr.Observe(true))
	assert.True(t, tr.Observe(false))

	assert.Equal(t, []bool{false, true, false}, changes)
	assert.Equal(t, StatusInactive, tr.Status())
	assert.False(t, tr.ChangedAt().IsZero())
}
