// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"
)

const taskColumns = `id, assigned_to, project_name, expected_hours, status, department, remark, message, created_at, updated_at`

func scanTask(row interface{ Scan(...any) error }) (Task, error) {
	var t Task
	err := row.Scan(
		&t.ID,
		&t.AssignedTo,
		&t.ProjectName,
		&t.ExpectedHours,
		&t.Status,
		&t.Department,
		&t.Remark,
		&t.Message,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	return t, err
}

// CreateTaskParams holds the fields of a new task row.
type CreateTaskParams struct {
	ID            string
	AssignedTo    string
	ProjectName   string
	ExpectedHours float64
	Status        string
	Department    string
	Remark        string
	Message       string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

const createTask = `INSERT INTO tasks (` + taskColumns + `)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

// CreateTask inserts a task row and returns it as stored.
func (q *Queries) CreateTask(ctx context.Context, arg CreateTaskParams) (Task, error) {
	if _, err := q.db.ExecContext(ctx, createTask,
		arg.ID,
		arg.AssignedTo,
		arg.ProjectName,
		arg.ExpectedHours,
		arg.Status,
		arg.Department,
		arg.Remark,
		arg.Message,
		arg.CreatedAt,
		arg.UpdatedAt,
	); err != nil {
		return Task{}, err
	}
	return q.GetTask(ctx, arg.ID)
}

const getTask = `SELECT ` + taskColumns + ` FROM tasks WHERE id = ?`

// GetTask returns the task with the given id, or sql.ErrNoRows.
func (q *Queries) GetTask(ctx context.Context, id string) (Task, error) {
	return scanTask(q.db.QueryRowContext(ctx, getTask, id))
}

// UpdateTaskParams replaces every mutable field of a task.
type UpdateTaskParams struct {
	ID            string
	AssignedTo    string
	ProjectName   string
	ExpectedHours float64
	Status        string
	Department    string
	Remark        string
	Message       string
	UpdatedAt     time.Time
}

const updateTask = `UPDATE tasks SET
    assigned_to = ?,
    project_name = ?,
    expected_hours = ?,
    status = ?,
    department = ?,
    remark = ?,
    message = ?,
    updated_at = ?
WHERE id = ?`

// UpdateTask overwrites a task row and returns the affected row count.
func (q *Queries) UpdateTask(ctx context.Context, arg UpdateTaskParams) (int64, error) {
	res, err := q.db.ExecContext(ctx, updateTask,
		arg.AssignedTo,
		arg.ProjectName,
		arg.ExpectedHours,
		arg.Status,
		arg.Department,
		arg.Remark,
		arg.Message,
		arg.UpdatedAt,
		arg.ID,
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// UpdateTaskStatusMessageParams holds the fields the assignee may change.
type UpdateTaskStatusMessageParams struct {
	ID        string
	Status    string
	Message   string
	UpdatedAt time.Time
}

const updateTaskStatusMessage = `UPDATE tasks SET status = ?, message = ?, updated_at = ? WHERE id = ?`

// UpdateTaskStatusMessage changes only status and message.
func (q *Queries) UpdateTaskStatusMessage(ctx context.Context, arg UpdateTaskStatusMessageParams) (int64, error) {
	res, err := q.db.ExecContext(ctx, updateTaskStatusMessage, arg.Status, arg.Message, arg.UpdatedAt, arg.ID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const deleteTask = `DELETE FROM tasks WHERE id = ?`

// DeleteTask removes a task row. Callers must remove its task_hours first.
func (q *Queries) DeleteTask(ctx context.Context, id string) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteTask, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const taskSummarySelect = `SELECT
    t.id, t.assigned_to, t.project_name, t.expected_hours, t.status,
    t.department, t.remark, t.message, t.created_at, t.updated_at,
    COALESCE(SUM(h.hours_spent), 0.0) AS total_hours_spent
FROM tasks t
LEFT JOIN task_hours h ON h.task_id = t.id`

const listTaskSummaries = taskSummarySelect + `
GROUP BY t.id
ORDER BY t.created_at, t.id`

// ListTaskSummaries returns every task with its aggregated hours.
func (q *Queries) ListTaskSummaries(ctx context.Context) ([]TaskSummary, error) {
	return q.queryTaskSummaries(ctx, listTaskSummaries)
}

const listTaskSummariesByAssignee = taskSummarySelect + `
WHERE t.assigned_to = ?
GROUP BY t.id
ORDER BY t.created_at, t.id`

// ListTaskSummariesByAssignee returns the tasks assigned to email with their aggregated hours.
func (q *Queries) ListTaskSummariesByAssignee(ctx context.Context, email string) ([]TaskSummary, error) {
	return q.queryTaskSummaries(ctx, listTaskSummariesByAssignee, email)
}

const getTaskSummary = taskSummarySelect + `
WHERE t.id = ?
GROUP BY t.id`

// GetTaskSummary returns one task with its aggregated hours, or sql.ErrNoRows.
func (q *Queries) GetTaskSummary(ctx context.Context, id string) (TaskSummary, error) {
	items, err := q.queryTaskSummaries(ctx, getTaskSummary, id)
	if err != nil {
		return TaskSummary{}, err
	}
	if len(items) == 0 {
		return TaskSummary{}, sql.ErrNoRows
	}
	return items[0], nil
}

func (q *Queries) queryTaskSummaries(ctx context.Context, query string, args ...any) ([]TaskSummary, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var items []TaskSummary
	for rows.Next() {
		var s TaskSummary
		if err := rows.Scan(
			&s.ID,
			&s.AssignedTo,
			&s.ProjectName,
			&s.ExpectedHours,
			&s.Status,
			&s.Department,
			&s.Remark,
			&s.Message,
			&s.CreatedAt,
			&s.UpdatedAt,
			&s.TotalHoursSpent,
		); err != nil {
			return nil, err
		}
		items = append(items, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
