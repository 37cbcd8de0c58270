package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Duration is a time.Duration that can be unmarshaled from human-readable strings.
// Supports formats like "2s", "100ms", "5m", or integer milliseconds.
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler for TOML parsing.
func (d *Duration) UnmarshalText(text []byte) error {
	s := string(text)

	// Plain integers are milliseconds
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		*d = Duration(time.Duration(ms) * time.Millisecond)
		return nil
	}

	dur, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: must be like '2s', '5m', '1h30m' or milliseconds: %w", s, err)
	}
	*d = Duration(dur)
	return nil
}

// MarshalText implements encoding.TextMarshaler for TOML output.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Duration returns the underlying time.Duration.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// Strategy names accepted in [audio] strategy.
const (
	StrategyContinuous = "continuous"
	StrategyBurst      = "burst"
)

// DaemonConfig is the configuration for audiokeepd.
// Loaded from ~/.config/audiokeep/audiokeepd.toml
type DaemonConfig struct {
	Audio         AudioConfig         `toml:"audio"`
	Daemon        ControlConfig       `toml:"daemon"`
	Tray          TrayConfig          `toml:"tray"`
	Notifications NotificationsConfig `toml:"notifications"`
}

// AudioConfig contains keep-alive playback settings.
type AudioConfig struct {
	Strategy   string      `toml:"strategy"`    // "continuous" or "burst"
	SampleRate int         `toml:"sample_rate"` // Hz
	Buffer     Duration    `toml:"buffer"`      // Speaker buffer length
	Burst      BurstConfig `toml:"burst"`
}

// BurstConfig contains settings for the burst strategy.
type BurstConfig struct {
	Interval  Duration `toml:"interval"`  // Time between bursts
	Duration  Duration `toml:"duration"`  // Length of each burst
	Frequency float64  `toml:"frequency"` // Hz
	Amplitude float64  `toml:"amplitude"` // 0.0-1.0 of full scale
}

// ControlConfig contains daemon behavior settings.
type ControlConfig struct {
	Autostart    bool     `toml:"autostart"`     // Start playback when the daemon starts
	QueryTimeout Duration `toml:"query_timeout"` // Max wait for a status reply
}

// TrayConfig contains system tray settings.
type TrayConfig struct {
	Enabled bool `toml:"enabled"`
}

// NotificationsConfig contains desktop notification settings.
type NotificationsConfig struct {
	Enabled   bool     `toml:"enabled"`
	RateLimit Duration `toml:"rate_limit"` // Minimum gap between identical notifications
}

// DefaultDaemonConfig returns the default daemon configuration.
func DefaultDaemonConfig() *DaemonConfig {
	return &DaemonConfig{
		Audio: AudioConfig{
			Strategy:   StrategyContinuous,
			SampleRate: 48000,
			Buffer:     Duration(100 * time.Millisecond),
			Burst: BurstConfig{
				Interval:  Duration(5 * time.Minute),
				Duration:  Duration(2 * time.Second),
				Frequency: 15,
				Amplitude: 0.001,
			},
		},
		Daemon: ControlConfig{
			Autostart:    false,
			QueryTimeout: Duration(2 * time.Second),
		},
		Tray: TrayConfig{
			Enabled: true,
		},
		Notifications: NotificationsConfig{
			Enabled:   true,
			RateLimit: Duration(time.Minute),
		},
	}
}

// DaemonConfigPath returns the path to the daemon config file.
func DaemonConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "audiokeep", "audiokeepd.toml"), nil
}

// LoadDaemonConfig loads the daemon configuration from the default path.
// If the file doesn't exist, returns the default configuration.
func LoadDaemonConfig() (*DaemonConfig, error) {
	path, err := DaemonConfigPath()
	if err != nil {
		return nil, fmt.Errorf("failed to get config path: %w", err)
	}
	return LoadDaemonConfigFrom(path)
}

// LoadDaemonConfigFrom loads the daemon configuration from path.
// If the file doesn't exist, returns the default configuration.
func LoadDaemonConfigFrom(path string) (*DaemonConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultDaemonConfig(), nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Start with defaults, then overlay with file contents
	config := DefaultDaemonConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// SaveDaemonConfig saves the daemon configuration to the default path.
func SaveDaemonConfig(config *DaemonConfig) error {
	path, err := DaemonConfigPath()
	if err != nil {
		return fmt.Errorf("failed to get config path: %w", err)
	}
	return SaveDaemonConfigTo(path, config)
}

// SaveDaemonConfigTo saves the daemon configuration to path.
func SaveDaemonConfigTo(path string, config *DaemonConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := toml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Write atomically via temp file
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return os.Rename(tmpPath, path)
}

// Validate checks if the configuration is valid.
func (c *DaemonConfig) Validate() error {
	switch c.Audio.Strategy {
	case StrategyContinuous, StrategyBurst:
	default:
		return fmt.Errorf("invalid strategy %q, must be %q or %q", c.Audio.Strategy, StrategyContinuous, StrategyBurst)
	}

	if c.Audio.SampleRate < 8000 || c.Audio.SampleRate > 192000 {
		return fmt.Errorf("sample_rate must be between 8000 and 192000, got %d", c.Audio.SampleRate)
	}
	if c.Audio.Buffer.Duration() <= 0 || c.Audio.Buffer.Duration() > time.Second {
		return fmt.Errorf("buffer must be between 0 and 1s, got %s", c.Audio.Buffer.Duration())
	}

	burst := c.Audio.Burst
	if burst.Duration.Duration() <= 0 {
		return fmt.Errorf("burst duration must be positive, got %s", burst.Duration.Duration())
	}
	if burst.Interval.Duration() < burst.Duration.Duration() {
		return fmt.Errorf("burst interval %s must not be shorter than burst duration %s",
			burst.Interval.Duration(), burst.Duration.Duration())
	}
	if burst.Frequency <= 0 || burst.Frequency >= float64(c.Audio.SampleRate)/2 {
		return fmt.Errorf("burst frequency must be between 0 and %d Hz, got %g", c.Audio.SampleRate/2, burst.Frequency)
	}
	if burst.Amplitude < 0 || burst.Amplitude > 1 {
		return fmt.Errorf("burst amplitude must be between 0 and 1, got %g", burst.Amplitude)
	}

	if c.Daemon.QueryTimeout.Duration() <= 0 {
		return fmt.Errorf("query_timeout must be positive, got %s", c.Daemon.QueryTimeout.Duration())
	}

	return nil
}
