// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package main is the pmt command: the HTTP server plus admin subcommands
// that operate on the same database.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/olegiv/pmt-go/internal/cache"
	"github.com/olegiv/pmt-go/internal/config"
	"github.com/olegiv/pmt-go/internal/logging"
	"github.com/olegiv/pmt-go/internal/service"
	"github.com/olegiv/pmt-go/internal/store"
)

// Build-time injected values.
var (
	appVersion   = "dev"
	appGitCommit = "unknown"
	appBuildTime = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "pmt",
		Short:         "Project and time tracking server",
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", appVersion, appGitCommit, appBuildTime),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			// Load .env files if present (development)
			_ = godotenv.Load()
		},
	}

	root.AddCommand(
		newServeCmd(),
		newMigrateCmd(),
		newUsersCmd(),
		newTasksCmd(),
		newEventsCmd(),
	)
	return root
}

// app is the state shared by every subcommand.
type app struct {
	cfg    *config.Config
	db     *sql.DB
	cache  cache.Cacher
	svc    *service.Services
	logger *slog.Logger
}

// openApp loads configuration, opens and migrates the database and wires
// the core services. Callers must call close.
func openApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o750); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbCfg := store.DefaultDBConfig()
	dbCfg.Driver = cfg.DBDriver
	db, err := store.NewDBWithConfig(cfg.DBPath, dbCfg)
	if err != nil {
		return nil, fmt.Errorf("initializing database: %w", err)
	}

	if err := store.Migrate(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	// WARN and ERROR records are also written to the event log table.
	logger := logging.NewLogger(os.Stderr, logging.ParseLevel(cfg.LogLevel), db)
	slog.SetDefault(logger)

	c, err := cache.NewCache(cacheConfig(cfg))
	if err != nil {
		logger.Warn("cache unavailable, aggregates will not be cached", "error", err)
		c = cache.NewNoopCache()
	}

	svc := service.New(db, service.Options{
		Logger:            logger,
		Cache:             c,
		CacheTTL:          cfg.CacheDuration(),
		InvalidateOnWrite: cfg.CacheInvalidateOnWrite,
	})

	if cfg.Seed {
		seeded, err := svc.Users.Bootstrap(ctx)
		if err != nil {
			_ = c.Close()
			_ = db.Close()
			return nil, fmt.Errorf("seeding database: %w", err)
		}
		if seeded {
			logger.Info("default accounts created")
		}
	}

	return &app{cfg: cfg, db: db, cache: c, svc: svc, logger: logger}, nil
}

func (a *app) close() {
	if err := a.cache.Close(); err != nil {
		slog.Error("error closing cache", "error", err)
	}
	if err := a.db.Close(); err != nil {
		slog.Error("error closing database connection", "error", err)
	}
}

func cacheConfig(cfg *config.Config) cache.Config {
	cc := cache.DefaultConfig()
	cc.Type = ""
	cc.RedisURL = cfg.RedisURL
	cc.Prefix = cfg.CachePrefix
	cc.DefaultTTL = cfg.CacheDuration()
	cc.MaxSize = cfg.CacheMaxSize
	cc.CleanupInterval = time.Minute
	return cc
}
