// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/olegiv/pmt-go/internal/auth"
)

// Default account credentials seeded into an empty directory.
const (
	DefaultAdminEmail    = "admin@example.com"
	DefaultAdminPassword = "admin123"

	DefaultSubadminEmail    = "subadmin@example.com"
	DefaultSubadminPassword = "sub123"

	DefaultUserEmail    = "user@example.com"
	DefaultUserPassword = "user123"
)

// DefaultAccount is one seeded directory entry.
type DefaultAccount struct {
	Email    string
	Password string
	Role     string
}

// DefaultAccounts returns the accounts seeded on first run, one per role.
func DefaultAccounts() []DefaultAccount {
	return []DefaultAccount{
		{Email: DefaultAdminEmail, Password: DefaultAdminPassword, Role: "admin"},
		{Email: DefaultSubadminEmail, Password: DefaultSubadminPassword, Role: "subadmin"},
		{Email: DefaultUserEmail, Password: DefaultUserPassword, Role: "user"},
	}
}

// Seed creates the default accounts when the users table is empty.
// It reports whether anything was inserted.
func Seed(ctx context.Context, db *sql.DB) (bool, error) {
	count, err := New(db).CountUsers(ctx)
	if err != nil {
		return false, fmt.Errorf("counting users: %w", err)
	}
	if count > 0 {
		slog.Info("user directory not empty, skipping seed", "users", count)
		return false, nil
	}

	accounts := DefaultAccounts()
	now := time.Now()

	err = ExecTx(ctx, db, func(q *Queries) error {
		for _, a := range accounts {
			passwordHash, err := auth.HashPassword(a.Password)
			if err != nil {
				return fmt.Errorf("hashing password: %w", err)
			}

			if _, err := q.CreateUser(ctx, CreateUserParams{
				Email:        a.Email,
				PasswordHash: passwordHash,
				Role:         a.Role,
				CreatedAt:    now,
				UpdatedAt:    now,
			}); err != nil {
				return fmt.Errorf("creating %s user: %w", a.Role, err)
			}
		}
		return nil
	})
	if err != nil {
		return false, err
	}

	for _, a := range accounts {
		slog.Info("created default user", "email", a.Email, "role", a.Role)
	}
	return true, nil
}
