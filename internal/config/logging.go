package config

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/rshade/rankline/internal/logging"
)

// LoggingConfig defines logging preferences.
type LoggingConfig struct {
	Level  string `json:"level" yaml:"level" env:"LEVEL"`
	Format string `json:"format" yaml:"format" env:"FORMAT"`
	File   string `json:"file,omitempty" yaml:"file,omitempty" env:"FILE"`
}

// Validate checks the level and format.
func (l LoggingConfig) Validate() error {
	if _, err := zerolog.ParseLevel(strings.ToLower(l.Level)); err != nil || l.Level == "" {
		return fmt.Errorf("logging.level %q is not a valid level", l.Level)
	}
	switch strings.ToLower(l.Format) {
	case logging.FormatConsole, logging.FormatJSON:
		return nil
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", l.Format)
	}
}

// ToLogging converts the section into the logger builder's configuration.
func (l LoggingConfig) ToLogging(debug bool) logging.Config {
	cfg := logging.Config{Level: l.Level, Format: l.Format, File: l.File}
	if debug {
		cfg.Level = zerolog.LevelDebugValue
		cfg.Caller = true
	}
	return cfg
}
