package main

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/creamcroissant/xpref/internal/bootstrap"
	"github.com/creamcroissant/xpref/internal/migrations"
	"github.com/creamcroissant/xpref/internal/support/logging"
)

// app 是各子命令共享的运行时依赖。
type app struct {
	logger   *slog.Logger
	database *bootstrap.Database
	infra    *bootstrap.Infrastructure
}

func newLogger() *slog.Logger {
	return logging.New(logging.Options{
		Level:       cfg.Log.SlogLevel(),
		Format:      cfg.Log.Format,
		AddSource:   cfg.Log.AddSource,
		Environment: cfg.Log.Environment,
		Writer:      os.Stderr,
	})
}

// openApp opens the database, applies pending migrations and builds the infrastructure.
func openApp(ctx context.Context, reg prometheus.Registerer) (*app, error) {
	logger := newLogger()
	database, err := bootstrap.OpenDatabase(ctx, cfg.DB, logger)
	if err != nil {
		return nil, err
	}
	if err := migrations.Up(database.DB, database.Dialect); err != nil {
		_ = database.Close()
		return nil, err
	}
	infra, err := bootstrap.BuildInfrastructure(ctx, cfg, database, logger, reg)
	if err != nil {
		_ = database.Close()
		return nil, err
	}
	return &app{logger: logger, database: database, infra: infra}, nil
}

func (a *app) Close() error {
	return errors.Join(a.infra.Close(), a.database.Close())
}
