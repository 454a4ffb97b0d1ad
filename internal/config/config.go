// Package config loads the user configuration from the data directory.
package config

import (
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// Config is the user-tunable configuration.
type Config struct {
	// Label is printed before the input line.
	Label string `yaml:"label"`

	// Multi collects paths until the user cancels.
	Multi bool `yaml:"multi"`

	// DirectoryOnly restricts completion to directories.
	DirectoryOnly bool `yaml:"directory_only"`

	// HistoryLimit caps how many recent paths recall searches. Zero
	// disables the recent path store entirely.
	HistoryLimit int `yaml:"history_limit"`

	// LogLevel is a zap level string ("debug", "info", "warn", "error").
	LogLevel string `yaml:"log_level"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		Label:        "path: ",
		HistoryLimit: 50,
		LogLevel:     "info",
	}
}

// Load reads the configuration file at path. A missing file yields the
// defaults; a malformed one is an error rather than a silent fallback.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("error reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Default(), fmt.Errorf("error parsing config file: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Default(), err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.HistoryLimit < 0 {
		return fmt.Errorf("history_limit must not be negative, got %d", c.HistoryLimit)
	}
	if _, err := c.ZapLevel(); err != nil {
		return err
	}
	return nil
}

// ZapLevel parses LogLevel into a zap level.
func (c Config) ZapLevel() (zapcore.Level, error) {
	level, err := zapcore.ParseLevel(c.LogLevel)
	if err != nil {
		return zapcore.InfoLevel, fmt.Errorf("invalid log_level %q: %w", c.LogLevel, err)
	}
	return level, nil
}
