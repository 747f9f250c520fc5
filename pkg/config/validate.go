package config

import (
	"errors"
	"fmt"
)

// Validate checks the configuration for required fields and valid values.
// Returns an error with a descriptive field path on failure.
func (c *Config) Validate() error {
	var errs []error

	// server.port must be positive.
	if c.Server.Port <= 0 {
		errs = append(errs, fmt.Errorf("server.port must be > 0, got %d", c.Server.Port))
	}

	// storage.type must be a known value.
	switch c.Storage.Type {
	case "memory", "postgres", "sqlite":
		// valid
	default:
		errs = append(errs, fmt.Errorf("storage.type must be \"memory\", \"postgres\", or \"sqlite\", got %q", c.Storage.Type))
	}

	// If storage.type is "postgres", DSN or DSNFile must be set.
	if c.Storage.Type == "postgres" {
		if c.Storage.Postgres.DSN == "" && c.Storage.Postgres.DSNFile == "" {
			errs = append(errs, fmt.Errorf("storage.postgres.dsn or storage.postgres.dsn_file is required when storage.type is \"postgres\""))
		}
	}

	// If storage.type is "sqlite", a database path must be set.
	if c.Storage.Type == "sqlite" && c.Storage.SQLite.Path == "" {
		errs = append(errs, fmt.Errorf("storage.sqlite.path is required when storage.type is \"sqlite\""))
	}

	// stream settings must not be negative.
	if c.Stream.MaxSessionDuration < 0 {
		errs = append(errs, fmt.Errorf("stream.max_session_duration must not be negative, got %s", c.Stream.MaxSessionDuration))
	}
	if c.Stream.MaxLimit < 0 {
		errs = append(errs, fmt.Errorf("stream.max_limit must not be negative, got %d", c.Stream.MaxLimit))
	}

	// seed.count must be positive when seeding is on.
	if c.Seed.Enabled && c.Seed.Count <= 0 {
		errs = append(errs, fmt.Errorf("seed.count must be > 0 when seeding is enabled, got %d", c.Seed.Count))
	}

	// observability.metrics.path is required when metrics are enabled.
	if c.Observability.Metrics.Enabled && c.Observability.Metrics.Path == "" {
		errs = append(errs, fmt.Errorf("observability.metrics.path is required when metrics are enabled"))
	}

	return errors.Join(errs...)
}
