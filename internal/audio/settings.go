package audio

import (
	"fmt"
	"time"

	"github.com/gopxl/beep/v2"

	"github.com/jmylchreest/audiokeep/internal/config"
)

// Strategy selects how the device is kept awake.
type Strategy string

const (
	// StrategyContinuous plays endless silence at volume 0 on a held stream.
	StrategyContinuous Strategy = "continuous"
	// StrategyBurst plays a short quiet tone on a fixed interval.
	StrategyBurst Strategy = "burst"
)

// BurstSettings describes the periodic tone used by StrategyBurst.
type BurstSettings struct {
	Interval  time.Duration
	Duration  time.Duration
	Frequency float64 // Hz
	Amplitude float64 // fraction of full scale
}

// Settings configures a Controller.
type Settings struct {
	Strategy Strategy
	Format   beep.Format
	Burst    BurstSettings
}

// DefaultSettings returns the continuous strategy at 48 kHz stereo, with the
// burst defaults of a 2s 15 Hz tone at 0.1% amplitude every 5 minutes.
func DefaultSettings() Settings {
	return Settings{
		Strategy: StrategyContinuous,
		Format:   DefaultFormat,
		Burst: BurstSettings{
			Interval:  5 * time.Minute,
			Duration:  2 * time.Second,
			Frequency: 15,
			Amplitude: 0.001,
		},
	}
}

// SettingsFromConfig converts the daemon configuration into controller settings.
func SettingsFromConfig(cfg *config.DaemonConfig) Settings {
	s := DefaultSettings()
	if cfg == nil {
		return s
	}

	s.Strategy = Strategy(cfg.Audio.Strategy)
	if cfg.Audio.SampleRate > 0 {
		s.Format.SampleRate = beep.SampleRate(cfg.Audio.SampleRate)
	}
	s.Burst = BurstSettings{
		Interval:  cfg.Audio.Burst.Interval.Duration(),
		Duration:  cfg.Audio.Burst.Duration.Duration(),
		Frequency: cfg.Audio.Burst.Frequency,
		Amplitude: cfg.Audio.Burst.Amplitude,
	}
	return s
}

// Validate reports whether the settings can drive playback.
func (s Settings) Validate() error {
	switch s.Strategy {
	case StrategyContinuous:
	case StrategyBurst:
		if s.Burst.Duration <= 0 {
			return fmt.Errorf("burst duration must be positive, got %s", s.Burst.Duration)
		}
		if s.Burst.Interval < s.Burst.Duration {
			return fmt.Errorf("burst interval %s is shorter than burst duration %s", s.Burst.Interval, s.Burst.Duration)
		}
	default:
		return fmt.Errorf("unknown strategy %q", s.Strategy)
	}

	if s.Format.SampleRate <= 0 {
		return fmt.Errorf("sample rate must be positive, got %d", s.Format.SampleRate)
	}
	return nil
}
