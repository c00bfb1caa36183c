// Package config loads the bot daemon's YAML configuration. Every field
// has a sensible default and can be overridden by a CLI flag.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so YAML values like "30s" parse.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Config holds the bot daemon's settings.
type Config struct {
	// Token is the Telegram bot token.
	Token string `yaml:"token"`

	// Database is the directory the embedded store lives in.
	Database string `yaml:"database"`

	// PollTimeout is the long-poll timeout for getUpdates.
	PollTimeout Duration `yaml:"poll_timeout"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Database:    "hearsay.db",
		PollTimeout: Duration(30 * time.Second),
	}
}

// Load reads a YAML config file over the defaults. Fields the file leaves
// out keep their default values.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}
