// Command server runs the strom record streaming service.
//
// Configuration is layered: built-in defaults, then a YAML config file
// (-config flag, STROM_CONFIG, ./config.yaml, /etc/strom/config.yaml),
// then STROM_* environment overrides. See pkg/config for the full set
// of options.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/strom-dev/strom/pkg/config"
	"github.com/strom-dev/strom/pkg/debug"
	"github.com/strom-dev/strom/pkg/export"
	"github.com/strom-dev/strom/pkg/seed"
	"github.com/strom-dev/strom/pkg/storage"
	"github.com/strom-dev/strom/pkg/storage/memory"
	"github.com/strom-dev/strom/pkg/storage/postgres"
	"github.com/strom-dev/strom/pkg/storage/sqlite"
	transporthttp "github.com/strom-dev/strom/pkg/transport/http"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	debug.Init(cfg.Observability.Debug, cfg.Observability.LogLevel)
	logger := slog.Default()
	ctx := context.Background()

	store, err := openStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer store.Close()
	logger.Info("storage ready", slog.String("type", cfg.Storage.Type))

	if cfg.Seed.Enabled {
		seeder := seed.New(store, seed.WithLogger(logger))
		if _, err := seeder.Seed(ctx, cfg.Seed.Count); err != nil {
			return fmt.Errorf("seeding store: %w", err)
		}
	}

	svc, err := export.New(store, export.Config{
		MaxSessionDuration: cfg.Stream.MaxSessionDuration,
		MaxLimit:           cfg.Stream.MaxLimit,
		Logger:             logger,
	})
	if err != nil {
		return fmt.Errorf("creating export service: %w", err)
	}

	opts := []transporthttp.ServerOption{
		transporthttp.WithAddr(fmt.Sprintf(":%d", cfg.Server.Port)),
		transporthttp.WithReadTimeout(cfg.Server.ReadTimeout),
		transporthttp.WithWriteTimeout(cfg.Server.WriteTimeout),
		transporthttp.WithShutdownTimeout(cfg.Server.ShutdownTimeout),
		transporthttp.WithLogger(logger),
	}
	if !cfg.Observability.Metrics.Enabled {
		opts = append(opts, transporthttp.WithMetricsPath(""))
	} else {
		opts = append(opts, transporthttp.WithMetricsPath(cfg.Observability.Metrics.Path))
	}

	srv := transporthttp.NewServer(svc, store, opts...)
	return srv.ListenAndServe()
}

// openStore builds the record store named by storage.type.
func openStore(ctx context.Context, cfg *config.Config) (storage.Store, error) {
	switch cfg.Storage.Type {
	case "memory":
		return memory.New(), nil
	case "postgres":
		return postgres.New(ctx, postgres.Config{
			DSN:            cfg.Storage.Postgres.DSN,
			MaxConns:       cfg.Storage.Postgres.MaxConns,
			MinConns:       cfg.Storage.Postgres.MinConns,
			MigrateOnStart: cfg.Storage.Postgres.MigrateOnStart,
		})
	case "sqlite":
		return sqlite.New(ctx, sqlite.Config{
			Path: cfg.Storage.SQLite.Path,
		})
	default:
		return nil, fmt.Errorf("unknown storage type %q", cfg.Storage.Type)
	}
}
