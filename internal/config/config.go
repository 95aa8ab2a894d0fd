// Package config defines service configuration and its loading order.
package config

import "runtime"

// Config contains process configuration for the prediction service.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// DBPath is the sqlite database location. ":memory:" is allowed.
	DBPath string `koanf:"db_path"`

	// Seed fixes the random streams of the simulators. 0 means derive one
	// from the wall clock at startup.
	Seed int64 `koanf:"seed"`

	// MonteCarloIterations bounds uncertainty simulation requests.
	MonteCarloIterations int `koanf:"monte_carlo_iterations"`

	// SeasonTrials bounds season simulation requests.
	SeasonTrials int `koanf:"season_trials"`

	// RequestTimeoutMS caps how long a simulation request may run.
	RequestTimeoutMS int `koanf:"request_timeout_ms"`

	// Workers sets the simulation worker pool size.
	Workers int `koanf:"workers"`
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:             "info",
		Addr:                 ":8080",
		DBPath:               "scorecast.db",
		MonteCarloIterations: 10_000,
		SeasonTrials:         1_000,
		RequestTimeoutMS:     30_000,
		Workers:              runtime.NumCPU(),
	}
}
