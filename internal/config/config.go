// Package config defines service configuration structures and loading hooks.
package config

import (
	"fmt"
	"strings"
)

// Store drivers.
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects text or json output.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// StoreDriver selects the snapshot store: memory or sqlite.
	StoreDriver string `koanf:"store_driver"`

	// StoreDSN is the database file or DSN for the sqlite driver.
	StoreDSN string `koanf:"store_dsn"`

	// FixturePath points to a YAML dataset loaded into the store at startup.
	FixturePath string `koanf:"fixture_path"`

	// EditorToken grants edit rights (and so real names) to bearer requests.
	EditorToken string `koanf:"editor_token"`

	// TournamentMinGames is K: players need more than K games to be ranked.
	TournamentMinGames int `koanf:"tournament_min_games"`

	// TournamentLimit caps the tournament ranking.
	TournamentLimit int `koanf:"tournament_limit"`

	// LabelLayout is the Go time layout of series labels.
	LabelLayout string `koanf:"label_layout"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:           "info",
		LogFormat:          "text",
		Addr:               ":9080",
		StoreDriver:        DriverMemory,
		StoreDSN:           "chipledger.db",
		TournamentMinGames: 2,
		TournamentLimit:    12,
		LabelLayout:        "2006-01-02",
	}
}

// Validate checks field combinations that Load cannot express as defaults.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.TournamentMinGames < 0:
		return fmt.Errorf("%w: tournament_min_games must not be negative", ErrInvalidConfig)
	case c.TournamentLimit < 1:
		return fmt.Errorf("%w: tournament_limit must be positive", ErrInvalidConfig)
	case strings.TrimSpace(c.LabelLayout) == "":
		return fmt.Errorf("%w: label_layout must not be empty", ErrInvalidConfig)
	}
	switch c.StoreDriver {
	case DriverMemory:
	case DriverSQLite:
		if c.StoreDSN == "" {
			return fmt.Errorf("%w: store_dsn is required for the sqlite driver", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown store_driver %q", ErrInvalidConfig, c.StoreDriver)
	}
	return nil
}
