// Package audiotest provides in-memory audio outputs for tests.
package audiotest

import (
	"sync"

	"github.com/gopxl/beep/v2"

	"github.com/jmylchreest/audiokeep/internal/audio"
)

// Output is an audio.Output that records every acquisition.
type Output struct {
	mu sync.Mutex

	// OpenErr, when set, makes Open fail with this error.
	OpenErr error

	// Drain makes streams consume finite streamers in the background, so
	// completion callbacks fire as they would on a real device.
	Drain bool

	opens   int
	formats []beep.Format
	streams []*Stream
}

// Open records the acquisition and returns a new Stream.
func (o *Output) Open(format beep.Format) (audio.Stream, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.opens++
	o.formats = append(o.formats, format)

	if o.OpenErr != nil {
		return nil, o.OpenErr
	}

	s := &Stream{drain: o.Drain, volume: 1}
	o.streams = append(o.streams, s)
	return s, nil
}

// SetOpenErr changes the acquisition error for later calls.
func (o *Output) SetOpenErr(err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.OpenErr = err
}

// Opens returns the number of Open calls, failed ones included.
func (o *Output) Opens() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.opens
}

// Formats returns the formats requested by each Open call.
func (o *Output) Formats() []beep.Format {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]beep.Format(nil), o.formats...)
}

// Streams returns the streams handed out so far.
func (o *Output) Streams() []*Stream {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]*Stream(nil), o.streams...)
}

// Stream is an audio.Stream that records what was played on it.
type Stream struct {
	mu     sync.Mutex
	drain  bool
	volume float64
	played []beep.Streamer
	closes int
}

// Play records the streamer and drains it if the output asked for that.
func (s *Stream) Play(streamer beep.Streamer) {
	s.mu.Lock()
	s.played = append(s.played, streamer)
	drain := s.drain && s.closes == 0
	s.mu.Unlock()

	if drain {
		go s.consume(streamer)
	}
}

// consume pulls samples until the streamer ends or the stream is closed.
func (s *Stream) consume(streamer beep.Streamer) {
	buf := make([][2]float64, 4096)
	for !s.Closed() {
		if _, ok := streamer.Stream(buf); !ok {
			return
		}
	}
}

// SetVolume records the volume.
func (s *Stream) SetVolume(volume float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.volume = volume
}

// Close records the release.
func (s *Stream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closes++
	return nil
}

// Volume returns the last volume set.
func (s *Stream) Volume() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.volume
}

// Played returns the streamers played so far.
func (s *Stream) Played() []beep.Streamer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]beep.Streamer(nil), s.played...)
}

// Closed reports whether Close was called.
func (s *Stream) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closes > 0
}

// Closes returns the number of Close calls.
func (s *Stream) Closes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closes
}
