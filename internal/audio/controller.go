package audio

import (
	"context"
	"crypto/rand"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"
)

// SessionInfo is a snapshot of the current keep-alive session.
type SessionInfo struct {
	Playing   bool      `json:"playing" yaml:"playing"`
	ID        string    `json:"id,omitempty" yaml:"id,omitempty"`
	Strategy  Strategy  `json:"strategy,omitempty" yaml:"strategy,omitempty"`
	StartedAt time.Time `json:"started_at,omitzero" yaml:"started_at,omitempty"`
}

// session holds the stream for one Start..Stop span.
type session struct {
	info   SessionInfo
	stream Stream

	// Burst loop control, nil for the continuous strategy
	cancel context.CancelFunc
	done   chan struct{}
}

// Controller starts and stops keep-alive playback on an Output.
//
// A Controller is not safe for concurrent use. It is meant to be owned by a
// single goroutine, such as the dispatch worker.
type Controller struct {
	logger   *slog.Logger
	output   Output
	settings Settings
	session  *session

	now func() time.Time
}

// NewController creates a stopped controller.
func NewController(output Output, settings Settings, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}

	return &Controller{
		logger:   logger,
		output:   output,
		settings: settings,
		now:      time.Now,
	}
}

// Start acquires an output stream and begins keep-alive playback.
// It is a no-op when already playing. Acquisition failures are returned as
// *StreamAcquisitionError and leave the controller stopped.
func (c *Controller) Start() error {
	if c.session != nil {
		c.logger.Debug("keep-alive already playing", "session", c.session.info.ID)
		return nil
	}

	settings := c.settings
	stream, err := c.output.Open(settings.Format)
	if err != nil {
		c.logger.Warn("failed to open output stream", "error", err)
		return &StreamAcquisitionError{Err: err}
	}

	s := &session{
		info: SessionInfo{
			Playing:   true,
			ID:        newSessionID(),
			Strategy:  settings.Strategy,
			StartedAt: c.now(),
		},
		stream: stream,
	}

	switch settings.Strategy {
	case StrategyBurst:
		stream.SetVolume(1)
		ctx, cancel := context.WithCancel(context.Background())
		s.cancel = cancel
		s.done = make(chan struct{})
		go runBursts(ctx, stream, settings.Format, settings.Burst, s.done, c.logger)
	default:
		stream.SetVolume(0)
		stream.Play(NewSilence(settings.Format))
	}

	c.session = s
	c.logger.Info("keep-alive started",
		"session", s.info.ID,
		"strategy", settings.Strategy,
		"sample_rate", settings.Format.SampleRate,
	)
	return nil
}

// Stop ends playback and releases the output stream. It is a no-op when
// stopped and never fails.
func (c *Controller) Stop() {
	s := c.session
	if s == nil {
		return
	}
	c.session = nil

	if s.cancel != nil {
		s.cancel()
		<-s.done
	}

	if err := s.stream.Close(); err != nil {
		c.logger.Warn("failed to close output stream", "session", s.info.ID, "error", err)
	}

	c.logger.Info("keep-alive stopped", "session", s.info.ID, "uptime", c.now().Sub(s.info.StartedAt).Round(time.Second))
}

// IsPlaying reports whether a session is active.
func (c *Controller) IsPlaying() bool {
	return c.session != nil
}

// Session returns the current session, or a zero SessionInfo when stopped.
func (c *Controller) Session() SessionInfo {
	if c.session == nil {
		return SessionInfo{}
	}
	return c.session.info
}

// Configure replaces the controller settings. A running session keeps its
// settings; the new ones apply from the next Start.
func (c *Controller) Configure(settings Settings) error {
	if err := settings.Validate(); err != nil {
		return err
	}
	c.settings = settings
	c.logger.Debug("controller settings updated", "strategy", settings.Strategy)
	return nil
}

// Settings returns the settings used for the next session.
func (c *Controller) Settings() Settings {
	return c.settings
}

func newSessionID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader).String()
}
