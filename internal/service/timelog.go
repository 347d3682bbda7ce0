// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/olegiv/pmt-go/internal/metrics"
	"github.com/olegiv/pmt-go/internal/model"
	"github.com/olegiv/pmt-go/internal/policy"
	"github.com/olegiv/pmt-go/internal/store"
)

// TimeLogService appends and lists hour entries. Entries are never edited;
// they disappear only when their task is deleted.
type TimeLogService struct {
	queries *store.Queries
	view    *View
	logger  *slog.Logger
	now     func() time.Time
}

// NewTimeLogService creates a TimeLogService.
func NewTimeLogService(db *sql.DB, view *View, logger *slog.Logger) *TimeLogService {
	return &TimeLogService{
		queries: store.New(db),
		view:    view,
		logger:  logger,
		now:     time.Now,
	}
}

// AppendEntry logs hours against a task assigned to actor. A zero date means today.
func (s *TimeLogService) AppendEntry(ctx context.Context, actor model.Identity, taskID string, hours float64, date time.Time) (entry model.TimeLogEntry, err error) {
	defer func(start time.Time) { metrics.ObserveOperation("append_entry", start, err) }(time.Now())

	if err := requireCapability(s.logger, actor, policy.TasksUpdateOwn, model.EventCategoryHours); err != nil {
		return model.TimeLogEntry{}, err
	}
	if hours <= 0 {
		return model.TimeLogEntry{}, newValidationError(ErrInvalidHours, "hours", "must be greater than zero")
	}

	if _, err := loadOwnTask(ctx, s.queries, s.logger, actor, taskID); err != nil {
		return model.TimeLogEntry{}, err
	}

	now := s.now()
	if date.IsZero() {
		date = now
	}

	row, err := s.queries.CreateTaskHour(ctx, store.CreateTaskHourParams{
		TaskID:     taskID,
		UserEmail:  actor.Email,
		HoursSpent: hours,
		LogDate:    date.Format(model.DateLayout),
		CreatedAt:  now,
	})
	if err != nil {
		return model.TimeLogEntry{}, fmt.Errorf("logging hours: %w", err)
	}

	s.logger.Info("hours logged", "task", taskID, "hours", hours, "by", actor.Email)
	s.view.written(ctx)
	return entryFromRow(row), nil
}

// ListEntries returns the entries of a task actor may see, oldest log date first.
func (s *TimeLogService) ListEntries(ctx context.Context, actor model.Identity, taskID string) ([]model.TimeLogEntry, error) {
	if policy.Require(actor, policy.TasksViewAll) != nil {
		if err := requireCapability(s.logger, actor, policy.TasksViewOwn, model.EventCategoryHours); err != nil {
			return nil, err
		}
	}

	task, err := loadTask(ctx, s.queries, taskID)
	if err != nil {
		return nil, err
	}
	if !policy.CanView(actor, &task) {
		return nil, deny(s.logger, actor, policy.TasksViewOwn, model.EventCategoryHours)
	}

	rows, err := s.queries.ListTaskHoursByTask(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("listing hours: %w", err)
	}

	entries := make([]model.TimeLogEntry, 0, len(rows))
	for _, r := range rows {
		entries = append(entries, entryFromRow(r))
	}
	return entries, nil
}
