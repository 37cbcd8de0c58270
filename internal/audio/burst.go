package audio

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
)

// runBursts plays a burst immediately and then once per interval until ctx
// is cancelled. It runs on its own goroutine so burst playback never blocks
// command processing.
func runBursts(ctx context.Context, stream Stream, format beep.Format, burst BurstSettings, done chan<- struct{}, logger *slog.Logger) {
	defer close(done)

	ticker := time.NewTicker(burst.Interval)
	defer ticker.Stop()

	logger.Debug("burst loop started", "interval", burst.Interval, "duration", burst.Duration)

	for {
		if !playBurst(ctx, stream, format, burst) {
			logger.Debug("burst loop stopped")
			return
		}

		select {
		case <-ctx.Done():
			logger.Debug("burst loop stopped")
			return
		case <-ticker.C:
		}
	}
}

// playBurst plays one burst and blocks until it finishes. It returns false
// if ctx was cancelled first.
func playBurst(ctx context.Context, stream Stream, format beep.Format, burst BurstSettings) bool {
	finished := make(chan struct{})
	var once sync.Once

	stream.Play(beep.Seq(
		NewBurst(format, burst),
		beep.Callback(func() { once.Do(func() { close(finished) }) }),
	))

	select {
	case <-ctx.Done():
		return false
	case <-finished:
		return true
	}
}
