// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/olegiv/pmt-go/internal/cache"
	"github.com/olegiv/pmt-go/internal/handler/api"
	"github.com/olegiv/pmt-go/internal/middleware"
	"github.com/olegiv/pmt-go/internal/scheduler"
	"github.com/olegiv/pmt-go/internal/session"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServer(cmd.Context())
		},
	}
}

func runServer(ctx context.Context) error {
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	cfg := a.cfg
	if err := cfg.ValidateSessionSecret(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	backend := cache.BackendName(a.cache)
	if cfg.UseRedisCache() && cfg.CacheTTL > 0 && backend != cache.TypeRedis {
		slog.Warn("cache initialized", "backend", backend, "note", "Redis unavailable, using fallback")
	} else {
		slog.Info("cache initialized", "backend", backend, "ttl", cfg.CacheDuration())
	}

	sessionManager := session.New(a.db, cfg.IsDevelopment())
	slog.Info("session manager initialized")

	sched := scheduler.New(a.logger)
	if cfg.EventRetentionDays > 0 {
		job := scheduler.PurgeEventsJob(a.svc.Events, cfg.EventRetention(), cfg.HousekeepingSchedule, a.logger)
		if err := sched.Add(job); err != nil {
			return fmt.Errorf("scheduling event retention: %w", err)
		}
	}
	sched.Start()
	defer sched.Stop()

	loginProtection := middleware.NewLoginProtection(middleware.DefaultLoginProtectionConfig())
	defer loginProtection.Close()

	h := api.NewHandler(a.db, a.svc, sessionManager, a.cache, loginProtection, a.logger)
	router := api.NewRouter(h, api.RouterConfig{
		IsDevelopment: cfg.IsDevelopment(),
		ServerAddr:    cfg.ServerAddr(),
		CSRFKey:       []byte(cfg.SessionSecret),
		RateLimit:     cfg.APIRateLimit,
		RateBurst:     cfg.APIRateBurst,
		Timeout:       30 * time.Second,
		RequestLog:    cfg.IsDevelopment(),
	})

	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("starting server", "addr", cfg.ServerAddr(), "env", cfg.Env, "version", appVersion)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err, ok := <-serverErr:
		if ok {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-quit:
	}

	slog.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped")
	return nil
}
