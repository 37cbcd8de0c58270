// Package config handles configuration file loading and parsing.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Default CLI configuration values.
const (
	DefaultStatusOutput = "text"
	DefaultPollInterval = Duration(time.Second)
	DefaultBusTimeout   = Duration(5 * time.Second)
)

// Config represents the audiokeep CLI configuration.
type Config struct {
	Status StatusConfig `toml:"status"`
	UI     UIConfig     `toml:"ui"`
	Bus    BusConfig    `toml:"bus"`
}

// StatusConfig holds defaults for the status command.
type StatusConfig struct {
	Output string `toml:"output"` // text, json, yaml, waybar
}

// UIConfig holds terminal UI settings.
type UIConfig struct {
	PollInterval Duration `toml:"poll_interval"`
	ShowHelp     bool     `toml:"show_help"`
}

// BusConfig holds D-Bus client settings.
type BusConfig struct {
	Timeout Duration `toml:"timeout"` // Per-call timeout
}

// ValidOutputs returns the accepted status output formats.
func ValidOutputs() []string {
	return []string{"text", "json", "yaml", "waybar"}
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Status: StatusConfig{
			Output: DefaultStatusOutput,
		},
		UI: UIConfig{
			PollInterval: DefaultPollInterval,
			ShowHelp:     true,
		},
		Bus: BusConfig{
			Timeout: DefaultBusTimeout,
		},
	}
}

// ConfigDir returns the audiokeep configuration directory.
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config.
func ConfigDir() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, "audiokeep")
}

// ConfigPath returns the path to the CLI config file.
func ConfigPath() string {
	dir := ConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.toml")
}

// LoadConfig loads configuration from the specified path.
// If path is empty, uses the default config path.
// Returns default config if file doesn't exist.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		path = ConfigPath()
	}

	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, err
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes the configuration to the specified path.
// Creates parent directories if needed.
func (c *Config) Save(path string) error {
	if path == "" {
		path = ConfigPath()
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if !slices.Contains(ValidOutputs(), c.Status.Output) {
		return fmt.Errorf("invalid status output %q, must be one of: %v", c.Status.Output, ValidOutputs())
	}
	if c.UI.PollInterval.Duration() < 100*time.Millisecond {
		return fmt.Errorf("ui poll_interval must be at least 100ms, got %s", c.UI.PollInterval.Duration())
	}
	if c.Bus.Timeout.Duration() <= 0 {
		return fmt.Errorf("bus timeout must be positive, got %s", c.Bus.Timeout.Duration())
	}
	return nil
}
