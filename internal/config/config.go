// Package config holds the pipeline configuration and its layered loader.
package config

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/pable/go-fight-metrics/internal/dataset"
	"github.com/pable/go-fight-metrics/internal/parser"
	"github.com/pable/go-fight-metrics/internal/storage"
)

// ErrInvalidConfig is returned when a loaded configuration fails validation.
var ErrInvalidConfig = errors.New("invalid config")

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFormat is "console" or "json".
	LogFormat string `koanf:"log_format"`

	DBDriver string `koanf:"db_driver"`
	// DBDSN overrides the --db path. Required for postgres.
	DBDSN string `koanf:"db_dsn"`

	// Workers bounds the number of fighter timelines built at once.
	Workers int `koanf:"workers"`
	// MissingThreshold flags rows whose missing-feature share exceeds it.
	MissingThreshold float64 `koanf:"missing_threshold"`
	Mirror           bool    `koanf:"mirror"`
	KeepUnlabeled    bool    `koanf:"keep_unlabeled"`
	// Orientation is "corner" or "hashed".
	Orientation string `koanf:"orientation"`

	// RoundSeconds is the round length assumed for fights with an unknown
	// time format.
	RoundSeconds int `koanf:"round_seconds"`
}

// New returns a Config holding the defaults.
func New() *Config {
	return &Config{
		LogLevel:         "info",
		LogFormat:        "console",
		DBDriver:         storage.DriverSQLite,
		Workers:          runtime.NumCPU(),
		MissingThreshold: 0.5,
		Orientation:      string(dataset.OrientCorner),
		RoundSeconds:     parser.DefaultRoundSeconds,
	}
}

// Validate checks field ranges.
func (c *Config) Validate() error {
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: log_level %q", ErrInvalidConfig, c.LogLevel)
	}
	switch c.LogFormat {
	case "console", "json":
	default:
		return fmt.Errorf("%w: log_format %q", ErrInvalidConfig, c.LogFormat)
	}
	switch c.DBDriver {
	case storage.DriverSQLite:
	case storage.DriverPostgres:
		if c.DBDSN == "" {
			return fmt.Errorf("%w: db_dsn is required for postgres", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: db_driver %q", ErrInvalidConfig, c.DBDriver)
	}
	if c.Workers < 1 {
		return fmt.Errorf("%w: workers must be >= 1, got %d", ErrInvalidConfig, c.Workers)
	}
	if c.MissingThreshold < 0 || c.MissingThreshold > 1 {
		return fmt.Errorf("%w: missing_threshold must be in [0,1], got %g", ErrInvalidConfig, c.MissingThreshold)
	}
	switch dataset.Orientation(c.Orientation) {
	case dataset.OrientCorner, dataset.OrientHashed:
	default:
		return fmt.Errorf("%w: orientation %q", ErrInvalidConfig, c.Orientation)
	}
	if c.RoundSeconds <= 0 {
		return fmt.Errorf("%w: round_seconds must be > 0, got %d", ErrInvalidConfig, c.RoundSeconds)
	}
	return nil
}

// DatasetOptions converts the assembly fields to dataset options.
func (c *Config) DatasetOptions() dataset.Options {
	return dataset.Options{
		Workers:          c.Workers,
		Mirror:           c.Mirror,
		KeepUnlabeled:    c.KeepUnlabeled,
		Orientation:      dataset.Orientation(c.Orientation),
		MissingThreshold: c.MissingThreshold,
	}
}
