// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"time"
)

const userColumns = `email, password_hash, role, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (User, error) {
	var u User
	err := row.Scan(&u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

// CreateUserParams holds the fields of a new user row.
type CreateUserParams struct {
	Email        string
	PasswordHash string
	Role         string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

const createUser = `INSERT INTO users (` + userColumns + `) VALUES (?, ?, ?, ?, ?)`

// CreateUser inserts a user row and returns it as stored.
func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (User, error) {
	if _, err := q.db.ExecContext(ctx, createUser,
		arg.Email,
		arg.PasswordHash,
		arg.Role,
		arg.CreatedAt,
		arg.UpdatedAt,
	); err != nil {
		return User{}, err
	}
	return q.GetUserByEmail(ctx, arg.Email)
}

const getUserByEmail = `SELECT ` + userColumns + ` FROM users WHERE email = ?`

// GetUserByEmail returns the user with the exact email, or sql.ErrNoRows.
func (q *Queries) GetUserByEmail(ctx context.Context, email string) (User, error) {
	return scanUser(q.db.QueryRowContext(ctx, getUserByEmail, email))
}

const listUsers = `SELECT ` + userColumns + ` FROM users ORDER BY email`

// ListUsers returns every user ordered by email.
func (q *Queries) ListUsers(ctx context.Context) ([]User, error) {
	return q.queryUsers(ctx, listUsers)
}

const listUsersByRole = `SELECT ` + userColumns + ` FROM users WHERE role = ? ORDER BY email`

// ListUsersByRole returns users with the given role ordered by email.
func (q *Queries) ListUsersByRole(ctx context.Context, role string) ([]User, error) {
	return q.queryUsers(ctx, listUsersByRole, role)
}

func (q *Queries) queryUsers(ctx context.Context, query string, args ...any) ([]User, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var items []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const countUsers = `SELECT COUNT(*) FROM users`

// CountUsers returns the number of users.
func (q *Queries) CountUsers(ctx context.Context) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countUsers).Scan(&count)
	return count, err
}

// UpdateUserPasswordParams holds the fields for a password change.
type UpdateUserPasswordParams struct {
	Email        string
	PasswordHash string
	UpdatedAt    time.Time
}

const updateUserPassword = `UPDATE users SET password_hash = ?, updated_at = ? WHERE email = ?`

// UpdateUserPassword replaces a user's credential and returns the affected row count.
func (q *Queries) UpdateUserPassword(ctx context.Context, arg UpdateUserPasswordParams) (int64, error) {
	res, err := q.db.ExecContext(ctx, updateUserPassword, arg.PasswordHash, arg.UpdatedAt, arg.Email)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const deleteUser = `DELETE FROM users WHERE email = ?`

// DeleteUser removes a user and returns the affected row count.
func (q *Queries) DeleteUser(ctx context.Context, email string) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteUser, email)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
