package dispatch

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/audiokeep/internal/audio"
	"github.com/jmylchreest/audiokeep/internal/audio/audiotest"
)

// run starts the worker and stops it when the test ends.
func run(t *testing.T, d *Dispatcher) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- d.Run(ctx) }()

	t.Cleanup(func() {
		cancel()
		select {
		case err := <-errCh:
			assert.NoError(t, err)
		case <-time.After(2 * time.Second):
			t.Error("worker did not exit")
		}
	})
}

func newControllerDispatcher(t *testing.T, out *audiotest.Output) *Dispatcher {
	t.Helper()
	d := New(audio.NewController(out, audio.DefaultSettings(), nil), nil)
	run(t, d)
	return d
}

func TestDispatcher_StartStartStopStart(t *testing.T) {
	out := &audiotest.Output{}
	d := newControllerDispatcher(t, out)

	require.NoError(t, d.Start())
	require.NoError(t, d.Start())
	require.NoError(t, d.Stop())
	require.NoError(t, d.Start())

	assert.True(t, d.IsPlaying(context.Background()))
	assert.Equal(t, 2, out.Opens())
}

func TestDispatcher_RepeatedStartAcquiresOnce(t *testing.T) {
	out := &audiotest.Output{}
	d := newControllerDispatcher(t, out)

	for range 10 {
		require.NoError(t, d.Start())
	}

	assert.True(t, d.IsPlaying(context.Background()))
	assert.Equal(t, 1, out.Opens())
}

func TestDispatcher_StateMatchesLastCommand(t *testing.T) {
	tests := []struct {
		name     string
		commands []Command
		expected bool
	}{
		{"nothing", nil, false},
		{"start", []Command{StartCommand()}, true},
		{"stop only", []Command{StopCommand(), StopCommand()}, false},
		{"start then stop", []Command{StartCommand(), StopCommand()}, false},
		{"stop then start", []Command{StopCommand(), StartCommand()}, true},
		{"configure keeps state", []Command{StartCommand(), ConfigureCommand(audio.DefaultSettings())}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newControllerDispatcher(t, &audiotest.Output{})
			for _, cmd := range tt.commands {
				require.NoError(t, d.Submit(cmd))
			}
			assert.Equal(t, tt.expected, d.IsPlaying(context.Background()))
		})
	}
}

func TestDispatcher_Session(t *testing.T) {
	d := newControllerDispatcher(t, &audiotest.Output{})

	assert.Equal(t, audio.SessionInfo{}, d.Session(context.Background()))

	require.NoError(t, d.Start())
	info := d.Session(context.Background())

	assert.True(t, info.Playing)
	assert.NotEmpty(t, info.ID)
	assert.Equal(t, audio.StrategyContinuous, info.Strategy)
}

// recordingPlayer records configure calls in the order the worker applied them.
type recordingPlayer struct {
	mu           sync.Mutex
	playing      bool
	settings     []audio.Settings
	startErr     error
	panicOnStart bool
	starts       int
	stops        int
}

func (p *recordingPlayer) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.panicOnStart {
		panic("device exploded")
	}
	p.starts++
	if p.startErr != nil {
		return p.startErr
	}
	p.playing = true
	return nil
}

func (p *recordingPlayer) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stops++
	p.playing = false
}

func (p *recordingPlayer) IsPlaying() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playing
}

func (p *recordingPlayer) Session() audio.SessionInfo {
	return audio.SessionInfo{Playing: p.IsPlaying()}
}

func (p *recordingPlayer) Configure(settings audio.Settings) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.settings = append(p.settings, settings)
	return nil
}

func (p *recordingPlayer) applied() []audio.Settings {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]audio.Settings(nil), p.settings...)
}

func TestDispatcher_MultiProducerFIFO(t *testing.T) {
	const (
		producers = 8
		perProd   = 200
	)

	player := &recordingPlayer{}
	d := New(player, nil)
	run(t, d)

	var wg sync.WaitGroup
	for p := range producers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range perProd {
				// Producer in Frequency, sequence in Interval
				s := audio.Settings{Burst: audio.BurstSettings{
					Frequency: float64(p),
					Interval:  time.Duration(i),
				}}
				assert.NoError(t, d.Configure(s))
			}
		}()
	}
	wg.Wait()

	// Queries are ordered behind everything already queued
	d.IsPlaying(context.Background())

	applied := player.applied()
	require.Len(t, applied, producers*perProd, "no command may be lost")

	next := make([]time.Duration, producers)
	for _, s := range applied {
		p := int(s.Burst.Frequency)
		assert.Equal(t, next[p], s.Burst.Interval, "producer %d out of order", p)
		next[p] = s.Burst.Interval + 1
	}
}

func TestDispatcher_StartFailureIsReported(t *testing.T) {
	out := &audiotest.Output{OpenErr: errors.New("device busy")}
	d := New(audio.NewController(out, audio.DefaultSettings(), nil), nil)

	reported := make(chan error, 1)
	d.SetErrorHandler(func(kind Kind, err error) {
		assert.Equal(t, KindStart, kind)
		reported <- err
	})
	run(t, d)

	require.NoError(t, d.Start())

	select {
	case err := <-reported:
		var acqErr *audio.StreamAcquisitionError
		assert.ErrorAs(t, err, &acqErr)
		assert.Contains(t, err.Error(), "device busy")
	case <-time.After(time.Second):
		t.Fatal("start failure was not reported")
	}

	// The worker keeps serving
	assert.False(t, d.IsPlaying(context.Background()))

	out.SetOpenErr(nil)
	require.NoError(t, d.Start())
	assert.True(t, d.IsPlaying(context.Background()))
}

func TestDispatcher_ConfigureFailureIsReported(t *testing.T) {
	d := New(audio.NewController(&audiotest.Output{}, audio.DefaultSettings(), nil), nil)

	var kinds []Kind
	var mu sync.Mutex
	d.SetErrorHandler(func(kind Kind, err error) {
		mu.Lock()
		defer mu.Unlock()
		kinds = append(kinds, kind)
	})
	run(t, d)

	bad := audio.DefaultSettings()
	bad.Strategy = "unknown"
	require.NoError(t, d.Configure(bad))
	d.IsPlaying(context.Background())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []Kind{KindConfigure}, kinds)
}

func TestDispatcher_PanicDoesNotKillWorker(t *testing.T) {
	player := &recordingPlayer{panicOnStart: true}
	d := New(player, nil)

	var reported error
	d.SetErrorHandler(func(kind Kind, err error) { reported = err })
	run(t, d)

	require.NoError(t, d.Start())
	require.NoError(t, d.Stop())

	assert.False(t, d.IsPlaying(context.Background()))
	require.Error(t, reported)
	assert.Contains(t, reported.Error(), "device exploded")
}

func TestDispatcher_CloseDrainsQueue(t *testing.T) {
	player := &recordingPlayer{}
	d := New(player, nil)

	// Submitted before the worker exists
	require.NoError(t, d.Start())
	require.NoError(t, d.Configure(audio.DefaultSettings()))
	d.Close()

	assert.ErrorIs(t, d.Start(), ErrWorkerGone)

	require.NoError(t, d.Run(context.Background()))

	assert.Equal(t, 1, player.starts)
	assert.Len(t, player.applied(), 1)
	assert.Equal(t, 1, player.stops, "worker stops the player on exit")
	assert.False(t, player.IsPlaying())
}

func TestDispatcher_WorkerGone(t *testing.T) {
	out := &audiotest.Output{}
	d := New(audio.NewController(out, audio.DefaultSettings(), nil), nil)

	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = d.Run(ctx) }()

	require.NoError(t, d.Start())
	require.True(t, d.IsPlaying(context.Background()))

	cancel()
	select {
	case <-d.Done():
	case <-time.After(time.Second):
		t.Fatal("worker did not exit")
	}

	assert.ErrorIs(t, d.Start(), ErrWorkerGone)
	assert.ErrorIs(t, d.Stop(), ErrWorkerGone)
	query, _ := QueryStatusCommand()
	assert.ErrorIs(t, d.Submit(query), ErrWorkerGone)
	assert.False(t, d.IsPlaying(context.Background()))
	assert.Equal(t, audio.SessionInfo{}, d.Session(context.Background()))

	// Playback is released when the worker exits
	require.Len(t, out.Streams(), 1)
	assert.True(t, out.Streams()[0].Closed())
}

func TestDispatcher_QueryFallbacks(t *testing.T) {
	t.Run("timeout", func(t *testing.T) {
		// No worker is running, so the query is never answered
		d := New(&recordingPlayer{playing: true}, nil)
		d.SetQueryTimeout(20 * time.Millisecond)

		start := time.Now()
		assert.False(t, d.IsPlaying(context.Background()))
		assert.Less(t, time.Since(start), time.Second)
	})

	t.Run("cancelled context", func(t *testing.T) {
		d := New(&recordingPlayer{playing: true}, nil)
		d.SetQueryTimeout(time.Hour)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		assert.False(t, d.IsPlaying(ctx))
		assert.Equal(t, audio.SessionInfo{}, d.Session(ctx))
	})
}

func TestDispatcher_RunTwice(t *testing.T) {
	d := New(&recordingPlayer{}, nil)
	run(t, d)

	// Wait until the first worker is serving
	d.IsPlaying(context.Background())
	assert.ErrorIs(t, d.Run(context.Background()), ErrAlreadyRunning)
}

func TestKind_String(t *testing.T) {
	tests := []struct {
		kind     Kind
		expected string
	}{
		{KindStart, "start"},
		{KindStop, "stop"},
		{KindQueryStatus, "query_status"},
		{KindQuerySession, "query_session"},
		{KindConfigure, "configure"},
		{KindUnknown, "unknown"},
		{Kind(42), "unknown"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, tt.kind.String())
	}
}

func TestDispatcher_ZeroCommandIgnored(t *testing.T) {
	player := &recordingPlayer{}
	d := New(player, nil)

	var reported error
	d.SetErrorHandler(func(kind Kind, err error) { reported = err })

	require.NoError(t, d.Submit(Command{}))
	d.Close()
	require.NoError(t, d.Run(context.Background()))

	assert.Equal(t, 0, player.starts)
	assert.NoError(t, reported)
}

func TestDispatcher_NonPositiveQueryTimeoutUsesDefault(t *testing.T) {
	for _, timeout := range []time.Duration{0, -time.Second} {
		d := New(&recordingPlayer{}, nil)
		d.SetQueryTimeout(timeout)
		assert.Equal(t, DefaultQueryTimeout, d.queryTimeout)
	}
}
