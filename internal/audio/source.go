package audio

import (
	"math"
	"time"

	"github.com/gopxl/beep/v2"
)

// DefaultFormat is the fixed playback format: 48 kHz, stereo, 16-bit.
var DefaultFormat = beep.Format{
	SampleRate:  beep.SampleRate(48000),
	NumChannels: 2,
	Precision:   2,
}

// Source is a lazily generated, non-restartable sample stream.
//
// FrameLen and TotalDuration report false when the length is unknown.
// Generators in this package never end: Stream always fills the whole
// buffer and returns true.
type Source interface {
	beep.Streamer

	// Format describes the samples produced by the source.
	Format() beep.Format

	// FrameLen returns the number of samples until the format may change.
	FrameLen() (int, bool)

	// TotalDuration returns the total playing time of the source.
	TotalDuration() (time.Duration, bool)
}

// Silence is an infinite source of zero-amplitude samples.
type Silence struct {
	format beep.Format
}

// NewSilence creates an endless silent source in the given format.
func NewSilence(format beep.Format) *Silence {
	return &Silence{format: format}
}

// Stream fills samples with silence. It never signals end-of-stream.
func (s *Silence) Stream(samples [][2]float64) (int, bool) {
	clear(samples)
	return len(samples), true
}

// Err always returns nil.
func (s *Silence) Err() error { return nil }

// Format returns the source format.
func (s *Silence) Format() beep.Format { return s.format }

// FrameLen is unknown for an endless source.
func (s *Silence) FrameLen() (int, bool) { return 0, false }

// TotalDuration is unbounded.
func (s *Silence) TotalDuration() (time.Duration, bool) { return 0, false }

// Tone is an infinite sine source with a fixed frequency and amplitude.
type Tone struct {
	format    beep.Format
	amplitude float64
	step      float64 // cycles per sample
	phase     float64 // [0, 1)
}

// NewTone creates a sine source. Amplitude is a fraction of full scale and is
// clamped to [0, 1].
func NewTone(format beep.Format, frequency, amplitude float64) *Tone {
	amplitude = max(0, min(amplitude, 1))
	return &Tone{
		format:    format,
		amplitude: amplitude,
		step:      frequency / float64(format.SampleRate),
	}
}

// Stream fills samples with the tone, identical on both channels.
func (t *Tone) Stream(samples [][2]float64) (int, bool) {
	for i := range samples {
		v := t.amplitude * math.Sin(2*math.Pi*t.phase)
		samples[i][0] = v
		samples[i][1] = v

		t.phase += t.step
		t.phase -= math.Floor(t.phase)
	}
	return len(samples), true
}

// Err always returns nil.
func (t *Tone) Err() error { return nil }

// Format returns the source format.
func (t *Tone) Format() beep.Format { return t.format }

// FrameLen is unknown for an endless source.
func (t *Tone) FrameLen() (int, bool) { return 0, false }

// TotalDuration is unbounded.
func (t *Tone) TotalDuration() (time.Duration, bool) { return 0, false }

// NewBurst returns a finite clip of the configured tone lasting burst.Duration.
func NewBurst(format beep.Format, burst BurstSettings) beep.Streamer {
	return beep.Take(format.SampleRate.N(burst.Duration), NewTone(format, burst.Frequency, burst.Amplitude))
}
