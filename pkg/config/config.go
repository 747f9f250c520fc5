// Package config provides unified configuration for the strom server.
//
// Configuration is loaded with a layered approach:
//  1. Built-in defaults
//  2. YAML config file (discovered or explicitly specified)
//  3. Environment variable overrides (STROM_ prefix)
//  4. File reference resolution (_file suffix fields)
//  5. Validation
package config

import "time"

// Config holds all configuration for the strom server.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Storage       StorageConfig       `yaml:"storage"`
	Stream        StreamConfig        `yaml:"stream"`
	Seed          SeedConfig          `yaml:"seed"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port        int           `yaml:"port"`         // default: 8080
	ReadTimeout time.Duration `yaml:"read_timeout"` // default: 30s

	// WriteTimeout defaults to 0: a write timeout would cut off every
	// long-running stream response. Session duration is bounded by
	// stream.max_session_duration instead.
	WriteTimeout time.Duration `yaml:"write_timeout"`

	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"` // default: 30s
}

// StorageConfig holds record store settings.
type StorageConfig struct {
	Type     string         `yaml:"type"` // "memory", "postgres", or "sqlite", default: "memory"
	Postgres PostgresConfig `yaml:"postgres"`
	SQLite   SQLiteConfig   `yaml:"sqlite"`
}

// PostgresConfig holds PostgreSQL-specific settings.
type PostgresConfig struct {
	DSN            string `yaml:"dsn"`
	DSNFile        string `yaml:"dsn_file"`         // _file variant for dsn
	MaxConns       int32  `yaml:"max_conns"`        // default: 25
	MinConns       int32  `yaml:"min_conns"`        // default: 5
	MigrateOnStart bool   `yaml:"migrate_on_start"` // default: false
}

// SQLiteConfig holds SQLite-specific settings.
type SQLiteConfig struct {
	Path string `yaml:"path"` // default: "strom.db"
}

// StreamConfig holds stream session settings.
type StreamConfig struct {
	// MaxSessionDuration bounds how long one stream may hold its
	// cursor. Zero disables the bound.
	MaxSessionDuration time.Duration `yaml:"max_session_duration"` // default: 5m

	// MaxLimit caps the per-request limit parameter. Zero disables the cap.
	MaxLimit int `yaml:"max_limit"`
}

// SeedConfig controls startup seeding of generated records.
type SeedConfig struct {
	Enabled bool `yaml:"enabled"` // default: false
	Count   int  `yaml:"count"`   // default: 1000
}

// ObservabilityConfig holds monitoring and instrumentation settings.
type ObservabilityConfig struct {
	Metrics MetricsConfig `yaml:"metrics"`

	// Debug lists enabled debug categories, comma separated.
	// See pkg/debug for the category names.
	Debug string `yaml:"debug"`

	// LogLevel sets the slog level: ERROR, WARN, INFO, DEBUG, or TRACE.
	LogLevel string `yaml:"log_level"` // default: "INFO"
}

// MetricsConfig holds Prometheus metrics endpoint settings.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"` // default: true
	Path    string `yaml:"path"`    // default: "/metrics"
}

// Defaults returns a Config with all default values filled in.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    0,
			ShutdownTimeout: 30 * time.Second,
		},
		Storage: StorageConfig{
			Type: "memory",
			Postgres: PostgresConfig{
				MaxConns: 25,
				MinConns: 5,
			},
			SQLite: SQLiteConfig{
				Path: "strom.db",
			},
		},
		Stream: StreamConfig{
			MaxSessionDuration: 5 * time.Minute,
		},
		Seed: SeedConfig{
			Enabled: false,
			Count:   1000,
		},
		Observability: ObservabilityConfig{
			Metrics: MetricsConfig{
				Enabled: true,
				Path:    "/metrics",
			},
		},
	}
}
