package dispatch

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueue_FIFO(t *testing.T) {
	q := newQueue()
	kinds := []Kind{KindStart, KindStop, KindConfigure, KindStart}
	for _, k := range kinds {
		require.True(t, q.push(Command{Kind: k}))
	}
	assert.Equal(t, len(kinds), q.len())

	for _, expected := range kinds {
		cmd, ok := q.pop(context.Background())
		require.True(t, ok)
		assert.Equal(t, expected, cmd.Kind)
	}
	assert.Equal(t, 0, q.len())
}

func TestQueue_PopWaitsForPush(t *testing.T) {
	q := newQueue()

	got := make(chan Command, 1)
	go func() {
		cmd, ok := q.pop(context.Background())
		if ok {
			got <- cmd
		}
	}()

	select {
	case <-got:
		t.Fatal("pop returned before push")
	case <-time.After(20 * time.Millisecond):
	}

	q.push(StopCommand())

	select {
	case cmd := <-got:
		assert.Equal(t, KindStop, cmd.Kind)
	case <-time.After(time.Second):
		t.Fatal("pop did not wake up")
	}
}

func TestQueue_CloseDrainsThenEnds(t *testing.T) {
	q := newQueue()
	q.push(StartCommand())
	q.close()

	assert.False(t, q.push(StopCommand()), "push after close")

	cmd, ok := q.pop(context.Background())
	require.True(t, ok)
	assert.Equal(t, KindStart, cmd.Kind)

	_, ok = q.pop(context.Background())
	assert.False(t, ok)
}

func TestQueue_PopHonorsContext(t *testing.T) {
	q := newQueue()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, ok := q.pop(ctx)
	assert.False(t, ok)
}

func TestQueue_Discard(t *testing.T) {
	q := newQueue()
	q.push(StartCommand())
	q.push(StopCommand())

	assert.Equal(t, 2, q.discard())
	assert.False(t, q.push(StartCommand()))

	_, ok := q.pop(context.Background())
	assert.False(t, ok)
}
