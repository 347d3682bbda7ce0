// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package service implements the project tracking core: the user directory,
// the task and time-log stores, and the aggregated task view. Every
// operation takes the acting identity explicitly and asks the policy package
// before touching storage.
package service

import (
	"database/sql"
	"log/slog"
	"time"

	"github.com/olegiv/pmt-go/internal/cache"
)

// Options configures New.
type Options struct {
	Logger *slog.Logger

	// Cache backs the aggregation view. Nil disables caching.
	Cache cache.Cacher

	// CacheTTL bounds how stale an aggregated read may be.
	CacheTTL time.Duration

	// InvalidateOnWrite clears cached aggregates after every task or hour write.
	InvalidateOnWrite bool

	// Now overrides the clock in tests.
	Now func() time.Time
}

// Services bundles the core services over one database.
type Services struct {
	Users   *UserService
	Tasks   *TaskService
	TimeLog *TimeLogService
	View    *View
	Events  *EventService
}

// New wires every core service.
func New(db *sql.DB, opts Options) *Services {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	view := NewView(db, opts.Cache, opts.CacheTTL, opts.InvalidateOnWrite, opts.Logger)
	users := NewUserService(db, opts.Logger)
	timelog := NewTimeLogService(db, view, opts.Logger)
	tasks := NewTaskService(db, view, timelog, opts.Logger)

	users.now = opts.Now
	timelog.now = opts.Now
	tasks.now = opts.Now

	return &Services{
		Users:   users,
		Tasks:   tasks,
		TimeLog: timelog,
		View:    view,
		Events:  NewEventService(db),
	}
}
