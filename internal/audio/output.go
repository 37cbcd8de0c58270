package audio

import (
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/speaker"
)

// Output acquires streams on an audio output device.
type Output interface {
	// Open acquires a stream on the default output device.
	Open(format beep.Format) (Stream, error)
}

// Stream is an open handle on an output device.
type Stream interface {
	// Play appends a streamer to the stream.
	Play(s beep.Streamer)

	// SetVolume sets the playback volume (0.0 to 1.0) for current and future streamers.
	SetVolume(volume float64)

	// Close silences the stream and releases the device.
	Close() error
}

// SpeakerOutput opens streams on the default device through the beep speaker.
type SpeakerOutput struct {
	mu     sync.Mutex
	logger *slog.Logger

	// Speaker buffer length
	bufferDuration time.Duration

	// Whether speaker has been initialized
	initialized bool

	// Sample rate the speaker was initialized with
	sampleRate beep.SampleRate
}

// NewSpeakerOutput creates a speaker output with the given buffer length.
func NewSpeakerOutput(bufferDuration time.Duration, logger *slog.Logger) *SpeakerOutput {
	if logger == nil {
		logger = slog.Default()
	}
	if bufferDuration <= 0 {
		bufferDuration = 100 * time.Millisecond
	}

	return &SpeakerOutput{
		logger:         logger,
		bufferDuration: bufferDuration,
	}
}

// Open initializes the speaker on first use and resumes it on later calls.
func (o *SpeakerOutput) Open(format beep.Format) (Stream, error) {
	if err := o.ensureInitialized(format.SampleRate); err != nil {
		return nil, err
	}

	if err := speaker.Resume(); err != nil {
		return nil, fmt.Errorf("failed to resume speaker: %w", err)
	}

	o.mu.Lock()
	speakerRate := o.sampleRate
	o.mu.Unlock()

	return &speakerStream{
		logger:      o.logger,
		sourceRate:  format.SampleRate,
		speakerRate: speakerRate,
		volume:      1,
	}, nil
}

// ensureInitialized initializes the speaker if not already done.
// The underlying audio context can only be created once per process.
func (o *SpeakerOutput) ensureInitialized(sampleRate beep.SampleRate) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.initialized {
		return nil
	}

	bufferSize := sampleRate.N(o.bufferDuration)

	if err := speaker.Init(sampleRate, bufferSize); err != nil {
		return fmt.Errorf("failed to initialize speaker: %w", err)
	}

	o.sampleRate = sampleRate
	o.initialized = true
	o.logger.Debug("speaker initialized", "sample_rate", sampleRate, "buffer", o.bufferDuration)
	return nil
}

// Close stops all playback and releases the audio device.
func (o *SpeakerOutput) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.initialized {
		speaker.Close()
		o.initialized = false
	}
	o.logger.Debug("speaker output closed")
}

// speakerStream tracks the streamers one session has handed to the speaker.
type speakerStream struct {
	mu     sync.Mutex
	logger *slog.Logger

	sourceRate  beep.SampleRate
	speakerRate beep.SampleRate

	volume  float64
	playing map[*beep.Ctrl]*effects.Volume
	closed  bool
}

func (s *speakerStream) Play(streamer beep.Streamer) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}

	// Resample if necessary
	if s.sourceRate != s.speakerRate {
		streamer = beep.Resample(4, s.sourceRate, s.speakerRate, streamer)
	}

	vol := &effects.Volume{
		Streamer: streamer,
		Base:     2,
		Volume:   volumeToExponent(s.volume),
		Silent:   s.volume == 0,
	}
	ctrl := &beep.Ctrl{Streamer: vol}

	if s.playing == nil {
		s.playing = make(map[*beep.Ctrl]*effects.Volume)
	}
	s.playing[ctrl] = vol
	s.mu.Unlock()

	// The callback runs under the speaker lock, so forgetting happens elsewhere.
	speaker.Play(beep.Seq(ctrl, beep.Callback(func() { go s.forget(ctrl) })))
}

func (s *speakerStream) forget(ctrl *beep.Ctrl) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.playing, ctrl)
}

func (s *speakerStream) SetVolume(volume float64) {
	volume = max(0, min(volume, 1))

	s.mu.Lock()
	defer s.mu.Unlock()

	s.volume = volume

	speaker.Lock()
	for _, vol := range s.playing {
		vol.Volume = volumeToExponent(volume)
		vol.Silent = volume == 0
	}
	speaker.Unlock()

	s.logger.Debug("volume set", "volume", volume)
}

func (s *speakerStream) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true

	speaker.Lock()
	for ctrl := range s.playing {
		ctrl.Streamer = nil
	}
	speaker.Unlock()
	s.playing = nil
	s.mu.Unlock()

	speaker.Clear()
	if err := speaker.Suspend(); err != nil {
		return fmt.Errorf("failed to suspend speaker: %w", err)
	}
	return nil
}

// volumeToExponent converts a linear volume (0-1) to the base-2 exponent
// used by effects.Volume. 0.5 is one step down, 0.25 two steps.
func volumeToExponent(volume float64) float64 {
	if volume <= 0 {
		return -100 // Effectively silent
	}
	return math.Log2(volume)
}
