package app

import (
	"errors"
	"fmt"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	ProjectFile string // .hcl, .cfg/.ini or .yaml/.yml
	RepoDir     string // shared template repository
	DevicesFile string // optional device catalogue file or directory

	// PadSlots overrides the pad_slots key of the project when set.
	PadSlots *bool

	LogFormat string
	LogLevel  string
	Workers   int
}

// NewConfig validates cfg and returns a copy of it.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.ProjectFile == "" {
		return nil, errors.New("ProjectFile is a required configuration field and cannot be empty")
	}
	switch cfg.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		return nil, fmt.Errorf("invalid log level %q: must be 'debug', 'info', 'warn', or 'error'", cfg.LogLevel)
	}
	switch cfg.LogFormat {
	case "", "text", "json":
	default:
		return nil, fmt.Errorf("invalid log format %q: must be 'text' or 'json'", cfg.LogFormat)
	}
	if cfg.Workers < 0 {
		return nil, fmt.Errorf("invalid worker count %d: must not be negative", cfg.Workers)
	}
	return &cfg, nil
}
