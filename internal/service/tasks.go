// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/olegiv/pmt-go/internal/metrics"
	"github.com/olegiv/pmt-go/internal/model"
	"github.com/olegiv/pmt-go/internal/policy"
	"github.com/olegiv/pmt-go/internal/store"
)

// TaskInput is the complete set of task fields accepted on creation.
type TaskInput struct {
	AssignedTo    string           `json:"assigned_to" validate:"required"`
	ProjectName   string           `json:"project_name" validate:"required"`
	ExpectedHours float64          `json:"expected_hours" validate:"gte=0"`
	Status        model.Status     `json:"status" validate:"enum"`
	Department    model.Department `json:"department" validate:"enum"`
	Remark        model.Remark     `json:"remark" validate:"enum"`
	Message       string           `json:"message" validate:"max=100"`
}

// TaskUpdate changes the non-nil fields of a task.
type TaskUpdate struct {
	AssignedTo    *string           `json:"assigned_to,omitempty"`
	ProjectName   *string           `json:"project_name,omitempty"`
	ExpectedHours *float64          `json:"expected_hours,omitempty"`
	Status        *model.Status     `json:"status,omitempty"`
	Department    *model.Department `json:"department,omitempty"`
	Remark        *model.Remark     `json:"remark,omitempty"`
	Message       *string           `json:"message,omitempty"`
}

// StatusUpdate is what an assignee submits from their panel: a new status and
// message, plus optional hours worked.
type StatusUpdate struct {
	Status  model.Status `json:"status"`
	Message string       `json:"message"`
	Hours   float64      `json:"hours"`
	LogDate time.Time    `json:"log_date"` // zero means today
}

// TaskService manages tasks.
type TaskService struct {
	db      *sql.DB
	queries *store.Queries
	view    *View
	timelog *TimeLogService
	logger  *slog.Logger
	now     func() time.Time
}

// NewTaskService creates a TaskService.
func NewTaskService(db *sql.DB, view *View, timelog *TimeLogService, logger *slog.Logger) *TaskService {
	return &TaskService{
		db:      db,
		queries: store.New(db),
		view:    view,
		timelog: timelog,
		logger:  logger,
		now:     time.Now,
	}
}

func (in *TaskInput) normalize() error {
	in.AssignedTo = strings.TrimSpace(in.AssignedTo)
	in.ProjectName = strings.TrimSpace(in.ProjectName)
	msg, err := normalizeMessage(in.Message)
	if err != nil {
		return err
	}
	in.Message = msg
	return nil
}

func inputFromTask(t model.Task) TaskInput {
	return TaskInput{
		AssignedTo:    t.AssignedTo,
		ProjectName:   t.ProjectName,
		ExpectedHours: t.ExpectedHours,
		Status:        t.Status,
		Department:    t.Department,
		Remark:        t.Remark,
		Message:       t.Message,
	}
}

// apply overlays the non-nil fields of u onto in.
func (u TaskUpdate) apply(in TaskInput) TaskInput {
	if u.AssignedTo != nil {
		in.AssignedTo = *u.AssignedTo
	}
	if u.ProjectName != nil {
		in.ProjectName = *u.ProjectName
	}
	if u.ExpectedHours != nil {
		in.ExpectedHours = *u.ExpectedHours
	}
	if u.Status != nil {
		in.Status = *u.Status
	}
	if u.Department != nil {
		in.Department = *u.Department
	}
	if u.Remark != nil {
		in.Remark = *u.Remark
	}
	if u.Message != nil {
		in.Message = *u.Message
	}
	return in
}

// CreateTask validates in and stores a new task, returning its id.
func (s *TaskService) CreateTask(ctx context.Context, actor model.Identity, in TaskInput) (id string, err error) {
	defer func(start time.Time) { metrics.ObserveOperation("create_task", start, err) }(time.Now())

	if err := s.requireCap(actor, policy.TasksCreate); err != nil {
		return "", err
	}

	if err := in.normalize(); err != nil {
		return "", err
	}
	if err := taskValidate.Struct(in); err != nil {
		return "", validationError(err)
	}
	if err := s.checkAssignee(ctx, in.AssignedTo); err != nil {
		return "", err
	}

	now := s.now()
	row, err := s.queries.CreateTask(ctx, store.CreateTaskParams{
		ID:            uuid.New().String(),
		AssignedTo:    in.AssignedTo,
		ProjectName:   in.ProjectName,
		ExpectedHours: in.ExpectedHours,
		Status:        string(in.Status),
		Department:    string(in.Department),
		Remark:        string(in.Remark),
		Message:       in.Message,
		CreatedAt:     now,
		UpdatedAt:     now,
	})
	if err != nil {
		return "", fmt.Errorf("creating task: %w", err)
	}

	s.logger.Info("task created", "id", row.ID, "project", row.ProjectName, "assigned_to", row.AssignedTo, "by", actor.Email)
	s.view.written(ctx)
	return row.ID, nil
}

// UpdateTask overlays upd onto the stored task. Last writer wins. An update
// that changes nothing leaves the row untouched.
func (s *TaskService) UpdateTask(ctx context.Context, actor model.Identity, id string, upd TaskUpdate) (err error) {
	defer func(start time.Time) { metrics.ObserveOperation("update_task", start, err) }(time.Now())

	if err := s.requireCap(actor, policy.TasksEdit); err != nil {
		return err
	}

	current, err := s.loadTask(ctx, id)
	if err != nil {
		return err
	}

	before := inputFromTask(current)
	after := upd.apply(before)
	if err := after.normalize(); err != nil {
		return err
	}
	if err := taskValidate.Struct(after); err != nil {
		return validationError(err)
	}
	if err := policy.CheckTransition(current.Status, after.Status); err != nil {
		return newValidationError(ErrInvalidValue, "status", err.Error())
	}
	if after.AssignedTo != current.AssignedTo {
		if err := s.checkAssignee(ctx, after.AssignedTo); err != nil {
			return err
		}
	}

	if after == before {
		return nil
	}

	n, err := s.queries.UpdateTask(ctx, store.UpdateTaskParams{
		ID:            id,
		AssignedTo:    after.AssignedTo,
		ProjectName:   after.ProjectName,
		ExpectedHours: after.ExpectedHours,
		Status:        string(after.Status),
		Department:    string(after.Department),
		Remark:        string(after.Remark),
		Message:       after.Message,
		UpdatedAt:     s.now(),
	})
	if err != nil {
		return fmt.Errorf("updating task: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}

	s.logger.Info("task updated", "id", id, "by", actor.Email)
	s.view.written(ctx)
	return nil
}

// UpdateStatusAndMessage is the assignee's restricted edit path.
func (s *TaskService) UpdateStatusAndMessage(ctx context.Context, actor model.Identity, id string, status model.Status, message string) (err error) {
	defer func(start time.Time) { metrics.ObserveOperation("update_status", start, err) }(time.Now())

	task, err := s.loadOwnTask(ctx, actor, id)
	if err != nil {
		return err
	}

	if !status.Valid() {
		return newValidationError(ErrInvalidValue, "status", "is not an allowed value")
	}
	message, err = normalizeMessage(message)
	if err != nil {
		return err
	}
	if n := len([]rune(message)); n > model.MaxMessageLength {
		return newValidationError(ErrInvalidValue, "message", fmt.Sprintf("must be at most %d characters", model.MaxMessageLength))
	}
	if err := policy.CheckTransition(task.Status, status); err != nil {
		return newValidationError(ErrInvalidValue, "status", err.Error())
	}

	n, err := s.queries.UpdateTaskStatusMessage(ctx, store.UpdateTaskStatusMessageParams{
		ID:        id,
		Status:    string(status),
		Message:   message,
		UpdatedAt: s.now(),
	})
	if err != nil {
		return fmt.Errorf("updating task status: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}

	s.logger.Info("task status updated", "id", id, "status", status, "by", actor.Email)
	s.view.written(ctx)
	return nil
}

// SubmitUpdate sets status and message, then logs hours when Hours > 0.
// The two writes are independent: if logging hours fails, the status change
// stays and the returned error names the failed step.
func (s *TaskService) SubmitUpdate(ctx context.Context, actor model.Identity, id string, upd StatusUpdate) (err error) {
	defer func(start time.Time) { metrics.ObserveOperation("submit_update", start, err) }(time.Now())

	if upd.Hours < 0 {
		return newValidationError(ErrInvalidHours, "hours", "must not be negative")
	}

	if err := s.UpdateStatusAndMessage(ctx, actor, id, upd.Status, upd.Message); err != nil {
		return err
	}

	if upd.Hours == 0 {
		return nil
	}
	if _, err := s.timelog.AppendEntry(ctx, actor, id, upd.Hours, upd.LogDate); err != nil {
		return fmt.Errorf("status updated but logging hours failed: %w", err)
	}
	return nil
}

// DeleteTask removes a task and every hour entry logged against it in one transaction.
func (s *TaskService) DeleteTask(ctx context.Context, actor model.Identity, id string) (err error) {
	defer func(start time.Time) { metrics.ObserveOperation("delete_task", start, err) }(time.Now())

	if err := s.requireCap(actor, policy.TasksDelete); err != nil {
		return err
	}

	entries, err := store.DeleteTaskCascade(ctx, s.db, id)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("deleting task: %w", err)
	}

	s.logger.Info("task deleted", "id", id, "entries", entries, "by", actor.Email)
	s.view.written(ctx)
	return nil
}

// ListTasks returns the tasks visible to actor with their total hours.
// Users only ever see tasks assigned to themselves.
func (s *TaskService) ListTasks(ctx context.Context, actor model.Identity) (items []model.TaskSummary, err error) {
	defer func(start time.Time) { metrics.ObserveOperation("list_tasks", start, err) }(time.Now())

	switch {
	case policy.Require(actor, policy.TasksViewAll) == nil:
		return s.view.AllTasks(ctx)
	case policy.Require(actor, policy.TasksViewOwn) == nil:
		return s.view.TasksAssignedTo(ctx, actor.Email)
	default:
		return nil, s.requireCap(actor, policy.TasksViewAll)
	}
}

// GetTask returns one task with its total hours if actor may see it.
func (s *TaskService) GetTask(ctx context.Context, actor model.Identity, id string) (summary model.TaskSummary, err error) {
	defer func(start time.Time) { metrics.ObserveOperation("get_task", start, err) }(time.Now())

	if policy.Require(actor, policy.TasksViewAll) != nil {
		if err := s.requireCap(actor, policy.TasksViewOwn); err != nil {
			return model.TaskSummary{}, err
		}
	}

	task, err := s.view.Task(ctx, id)
	if err != nil {
		return model.TaskSummary{}, err
	}
	if !policy.CanView(actor, &task.Task) {
		return model.TaskSummary{}, deny(s.logger, actor, policy.TasksViewOwn, model.EventCategoryTask)
	}
	return task, nil
}

// checkAssignee requires email to be an existing account with role=user.
func (s *TaskService) checkAssignee(ctx context.Context, email string) error {
	u, err := s.queries.GetUserByEmail(ctx, email)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && u.Role != string(model.RoleUser)) {
		return newValidationError(ErrInvalidValue, "assigned_to", "must be an existing user-role account")
	}
	if err != nil {
		return fmt.Errorf("loading assignee: %w", err)
	}
	return nil
}

func (s *TaskService) loadTask(ctx context.Context, id string) (model.Task, error) {
	return loadTask(ctx, s.queries, id)
}

// loadOwnTask loads a task the actor may update as its assignee.
func (s *TaskService) loadOwnTask(ctx context.Context, actor model.Identity, id string) (model.Task, error) {
	return loadOwnTask(ctx, s.queries, s.logger, actor, id)
}

func (s *TaskService) requireCap(actor model.Identity, c policy.Capability) error {
	return requireCapability(s.logger, actor, c, model.EventCategoryTask)
}

func loadTask(ctx context.Context, q *store.Queries, id string) (model.Task, error) {
	row, err := q.GetTask(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Task{}, ErrNotFound
	}
	if err != nil {
		return model.Task{}, fmt.Errorf("loading task: %w", err)
	}
	return taskFromRow(row), nil
}

func loadOwnTask(ctx context.Context, q *store.Queries, logger *slog.Logger, actor model.Identity, id string) (model.Task, error) {
	if err := requireCapability(logger, actor, policy.TasksUpdateOwn, model.EventCategoryTask); err != nil {
		return model.Task{}, err
	}

	task, err := loadTask(ctx, q, id)
	if err != nil {
		return model.Task{}, err
	}

	if policy.RequireAssignee(actor, &task) != nil {
		return model.Task{}, deny(logger, actor, policy.TasksUpdateOwn, model.EventCategoryTask)
	}
	return task, nil
}

// requireCapability checks c and logs a denial at WARN so the event log records it.
func requireCapability(logger *slog.Logger, actor model.Identity, c policy.Capability, category string) error {
	if policy.Require(actor, c) != nil {
		return deny(logger, actor, c, category)
	}
	return nil
}

func deny(logger *slog.Logger, actor model.Identity, c policy.Capability, category string) error {
	logger.Warn("access denied", "email", actor.Email, "role", actor.Role, "capability", c, "category", category)
	return &policy.DeniedError{Capability: c, Role: actor.Role}
}
