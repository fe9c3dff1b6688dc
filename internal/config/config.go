package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Drop handling modes.
const (
	ModeClassification = "classification"
	ModeLearning       = "learning"
)

// Config defines polling, thumbnail, directory expansion and UI settings.
type Config struct {
	PollInterval    time.Duration
	ThumbnailHeight float32
	WindowWidth     float32
	WindowHeight    float32
	ShowHidden      bool
	SortEntries     bool
	MaxEntries      int
	LogLevel        string
	DefaultMode     string
}

// DefaultConfig returns a configuration with sensible defaults: 100ms polling, 120px thumbnails, classification mode.
func DefaultConfig() *Config {
	return &Config{
		PollInterval:    100 * time.Millisecond,
		ThumbnailHeight: 120,
		WindowWidth:     800,
		WindowHeight:    600,
		ShowHidden:      false,
		SortEntries:     true,
		MaxEntries:      1000,
		LogLevel:        "info",
		DefaultMode:     ModeClassification,
	}
}

// DefaultPath returns the per-user config file location.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "config.yaml"
	}
	return filepath.Join(dir, "drop-inspector", "config.yaml")
}

type fileConfig struct {
	PollInterval    string  `yaml:"poll_interval"`
	ThumbnailHeight float32 `yaml:"thumbnail_height"`
	WindowWidth     float32 `yaml:"window_width"`
	WindowHeight    float32 `yaml:"window_height"`
	ShowHidden      *bool   `yaml:"show_hidden"`
	SortEntries     *bool   `yaml:"sort_entries"`
	MaxEntries      int     `yaml:"max_entries"`
	LogLevel        string  `yaml:"log_level"`
	DefaultMode     string  `yaml:"default_mode"`
}

// LoadConfig loads configuration from path on top of the defaults.
// A missing file yields the defaults; a malformed or invalid one is an error.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if fc.PollInterval != "" {
		interval, err := time.ParseDuration(fc.PollInterval)
		if err != nil {
			return nil, fmt.Errorf("invalid poll_interval %q: %w", fc.PollInterval, err)
		}
		cfg.PollInterval = interval
	}
	if fc.ThumbnailHeight != 0 {
		cfg.ThumbnailHeight = fc.ThumbnailHeight
	}
	if fc.WindowWidth != 0 {
		cfg.WindowWidth = fc.WindowWidth
	}
	if fc.WindowHeight != 0 {
		cfg.WindowHeight = fc.WindowHeight
	}
	if fc.ShowHidden != nil {
		cfg.ShowHidden = *fc.ShowHidden
	}
	if fc.SortEntries != nil {
		cfg.SortEntries = *fc.SortEntries
	}
	if fc.MaxEntries != 0 {
		cfg.MaxEntries = fc.MaxEntries
	}
	if fc.LogLevel != "" {
		cfg.LogLevel = fc.LogLevel
	}
	if fc.DefaultMode != "" {
		cfg.DefaultMode = fc.DefaultMode
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports the first setting that cannot be used.
func (c *Config) Validate() error {
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll_interval must be positive, got %v", c.PollInterval)
	}
	if c.ThumbnailHeight <= 0 {
		return fmt.Errorf("thumbnail_height must be positive, got %v", c.ThumbnailHeight)
	}
	if c.WindowWidth <= 0 || c.WindowHeight <= 0 {
		return fmt.Errorf("window size must be positive, got %vx%v", c.WindowWidth, c.WindowHeight)
	}
	if c.MaxEntries < 0 {
		return fmt.Errorf("max_entries must not be negative, got %d", c.MaxEntries)
	}
	switch c.DefaultMode {
	case ModeClassification, ModeLearning:
	default:
		return fmt.Errorf("unknown default_mode %q", c.DefaultMode)
	}
	return nil
}
