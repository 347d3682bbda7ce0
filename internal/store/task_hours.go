// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

const taskHourColumns = `id, task_id, user_email, hours_spent, log_date, created_at`

func scanTaskHour(row interface{ Scan(...any) error }) (TaskHour, error) {
	var h TaskHour
	err := row.Scan(&h.ID, &h.TaskID, &h.UserEmail, &h.HoursSpent, &h.LogDate, &h.CreatedAt)
	return h, err
}

// CreateTaskHourParams holds the fields of a new hour-log entry.
type CreateTaskHourParams struct {
	TaskID     string
	UserEmail  string
	HoursSpent float64
	LogDate    string // YYYY-MM-DD
	CreatedAt  time.Time
}

const createTaskHour = `INSERT INTO task_hours (task_id, user_email, hours_spent, log_date, created_at)
VALUES (?, ?, ?, ?, ?)`

// CreateTaskHour appends an hour-log entry and returns it as stored.
func (q *Queries) CreateTaskHour(ctx context.Context, arg CreateTaskHourParams) (TaskHour, error) {
	res, err := q.db.ExecContext(ctx, createTaskHour,
		arg.TaskID,
		arg.UserEmail,
		arg.HoursSpent,
		arg.LogDate,
		arg.CreatedAt,
	)
	if err != nil {
		return TaskHour{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return TaskHour{}, err
	}
	return scanTaskHour(q.db.QueryRowContext(ctx, getTaskHour, id))
}

const getTaskHour = `SELECT ` + taskHourColumns + ` FROM task_hours WHERE id = ?`

const listTaskHoursByTask = `SELECT ` + taskHourColumns + ` FROM task_hours
WHERE task_id = ?
ORDER BY log_date, id`

// ListTaskHoursByTask returns the entries of a task in log order.
func (q *Queries) ListTaskHoursByTask(ctx context.Context, taskID string) ([]TaskHour, error) {
	rows, err := q.db.QueryContext(ctx, listTaskHoursByTask, taskID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var items []TaskHour
	for rows.Next() {
		h, err := scanTaskHour(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, h)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const deleteTaskHoursByTask = `DELETE FROM task_hours WHERE task_id = ?`

// DeleteTaskHoursByTask removes every entry of a task and returns the count deleted.
// It is only used by DeleteTaskCascade.
func (q *Queries) DeleteTaskHoursByTask(ctx context.Context, taskID string) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteTaskHoursByTask, taskID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// DeleteTaskCascade removes a task and all of its hour-log entries in one
// transaction. It returns sql.ErrNoRows when the task does not exist, in
// which case nothing is deleted.
func DeleteTaskCascade(ctx context.Context, db *sql.DB, taskID string) (int64, error) {
	var deleted int64
	err := ExecTx(ctx, db, func(q *Queries) error {
		n, err := q.DeleteTaskHoursByTask(ctx, taskID)
		if err != nil {
			return fmt.Errorf("deleting task hours: %w", err)
		}

		affected, err := q.DeleteTask(ctx, taskID)
		if err != nil {
			return fmt.Errorf("deleting task: %w", err)
		}
		if affected == 0 {
			return sql.ErrNoRows
		}

		deleted = n
		return nil
	})
	return deleted, err
}
