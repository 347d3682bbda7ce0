// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/olegiv/pmt-go/internal/cache"
	"github.com/olegiv/pmt-go/internal/metrics"
	"github.com/olegiv/pmt-go/internal/model"
	"github.com/olegiv/pmt-go/internal/store"
)

// Cache keys of the aggregation view.
const (
	cacheKeyPrefix   = "tasks:"
	cacheKeyAll      = cacheKeyPrefix + "all"
	cacheKeyAssignee = cacheKeyPrefix + "assignee:"
)

// View derives per-task hour totals at read time. Lists may be served from a
// cache for up to its TTL; single-task reads always hit the database.
type View struct {
	queries           *store.Queries
	cache             *cache.TypedCache[[]model.TaskSummary]
	invalidateOnWrite bool
	logger            *slog.Logger
}

// NewView creates the aggregation view. A nil cacher or a non-positive ttl
// disables caching.
func NewView(db *sql.DB, c cache.Cacher, ttl time.Duration, invalidateOnWrite bool, logger *slog.Logger) *View {
	if c == nil || ttl <= 0 {
		c = cache.NewNoopCache()
	}
	return &View{
		queries:           store.New(db),
		cache:             cache.NewTypedCache[[]model.TaskSummary](c, ttl),
		invalidateOnWrite: invalidateOnWrite,
		logger:            logger,
	}
}

// AllTasks returns every task with its total hours.
func (v *View) AllTasks(ctx context.Context) ([]model.TaskSummary, error) {
	return v.cached(ctx, cacheKeyAll, func() ([]store.TaskSummary, error) {
		return v.queries.ListTaskSummaries(ctx)
	})
}

// TasksAssignedTo returns the tasks assigned to email with their total hours.
func (v *View) TasksAssignedTo(ctx context.Context, email string) ([]model.TaskSummary, error) {
	return v.cached(ctx, cacheKeyAssignee+email, func() ([]store.TaskSummary, error) {
		return v.queries.ListTaskSummariesByAssignee(ctx, email)
	})
}

// Task returns one task with its total hours, or ErrNotFound.
func (v *View) Task(ctx context.Context, id string) (model.TaskSummary, error) {
	row, err := v.queries.GetTaskSummary(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return model.TaskSummary{}, ErrNotFound
	}
	if err != nil {
		return model.TaskSummary{}, err
	}
	return summaryFromRow(row), nil
}

// Invalidate drops every cached aggregate.
func (v *View) Invalidate(ctx context.Context) error {
	return v.cache.DeleteByPrefix(ctx, cacheKeyPrefix)
}

// written is called after a task or hour write.
func (v *View) written(ctx context.Context) {
	if !v.invalidateOnWrite {
		return
	}
	if err := v.Invalidate(ctx); err != nil {
		v.logger.Warn("cache invalidation failed", "error", err, "category", model.EventCategoryCache)
	}
}

func (v *View) cached(ctx context.Context, key string, load func() ([]store.TaskSummary, error)) ([]model.TaskSummary, error) {
	items, hit, err := v.cache.GetOrSet(ctx, key, func() ([]model.TaskSummary, error) {
		rows, err := load()
		if err != nil {
			return nil, err
		}
		return summariesFromRows(rows), nil
	})
	if err != nil {
		return nil, err
	}
	metrics.ObserveCache(hit)

	if items == nil {
		items = []model.TaskSummary{}
	}
	return items, nil
}
