// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/olegiv/pmt-go/internal/auth"
	"github.com/olegiv/pmt-go/internal/metrics"
	"github.com/olegiv/pmt-go/internal/model"
	"github.com/olegiv/pmt-go/internal/policy"
	"github.com/olegiv/pmt-go/internal/store"
)

// BootstrapAdminEmail is the seeded admin account. It can never be deleted.
const BootstrapAdminEmail = store.DefaultAdminEmail

var emailPattern = regexp.MustCompile(`(?i)^[a-z0-9._%+-]+@[a-z0-9.-]+\.[a-z]{2,}$`)

// ValidEmail reports whether email has the accepted address shape.
func ValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// UserService is the user directory.
type UserService struct {
	db      *sql.DB
	queries *store.Queries
	logger  *slog.Logger
	now     func() time.Time
}

// NewUserService creates a UserService.
func NewUserService(db *sql.DB, logger *slog.Logger) *UserService {
	return &UserService{
		db:      db,
		queries: store.New(db),
		logger:  logger,
		now:     time.Now,
	}
}

// Authenticate checks email and password for an exact match and returns the
// identity to act as. Any mismatch yields ErrAuthFailure.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (id model.Identity, err error) {
	defer func(start time.Time) { metrics.ObserveOperation("authenticate", start, err) }(time.Now())

	u, err := s.queries.GetUserByEmail(ctx, email)
	if errors.Is(err, sql.ErrNoRows) {
		s.logger.Warn("login failed", "email", email, "reason", "unknown email")
		return model.Identity{}, ErrAuthFailure
	}
	if err != nil {
		return model.Identity{}, fmt.Errorf("loading user: %w", err)
	}

	ok, err := auth.CheckPassword(password, u.PasswordHash)
	if err != nil {
		return model.Identity{}, fmt.Errorf("checking password: %w", err)
	}
	if !ok {
		s.logger.Warn("login failed", "email", email, "reason", "wrong password")
		return model.Identity{}, ErrAuthFailure
	}

	if auth.NeedsRehash(u.PasswordHash) {
		s.rehash(ctx, email, password)
	}

	s.logger.Info("login succeeded", "email", email, "role", u.Role)
	return model.Identity{Email: u.Email, Role: model.Role(u.Role)}, nil
}

func (s *UserService) rehash(ctx context.Context, email, password string) {
	hash, err := auth.HashPassword(password)
	if err == nil {
		_, err = s.queries.UpdateUserPassword(ctx, store.UpdateUserPasswordParams{
			Email:        email,
			PasswordHash: hash,
			UpdatedAt:    s.now(),
		})
	}
	if err != nil {
		s.logger.Warn("password rehash failed", "email", email, "error", err)
	}
}

// CreateUser adds an account. Email and password must be non-empty, the
// email well formed and unused, and the role known.
func (s *UserService) CreateUser(ctx context.Context, actor model.Identity, email, password string, role model.Role) (u model.User, err error) {
	defer func(start time.Time) { metrics.ObserveOperation("create_user", start, err) }(time.Now())

	if err := s.requireCap(actor, policy.UsersManage); err != nil {
		return model.User{}, err
	}

	switch {
	case email == "":
		return model.User{}, newValidationError(ErrEmptyField, "email", "is required")
	case password == "":
		return model.User{}, newValidationError(ErrEmptyField, "password", "is required")
	case !ValidEmail(email):
		return model.User{}, newValidationError(ErrInvalidEmail, "email", "is not a valid email address")
	case !role.Valid():
		return model.User{}, newValidationError(ErrInvalidValue, "role", "must be one of admin, subadmin, user")
	}

	if _, err := s.queries.GetUserByEmail(ctx, email); err == nil {
		return model.User{}, ErrDuplicateEmail
	} else if !errors.Is(err, sql.ErrNoRows) {
		return model.User{}, fmt.Errorf("checking email: %w", err)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return model.User{}, fmt.Errorf("hashing password: %w", err)
	}

	now := s.now()
	row, err := s.queries.CreateUser(ctx, store.CreateUserParams{
		Email:        email,
		PasswordHash: hash,
		Role:         string(role),
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		// Lost a race with a concurrent insert of the same email.
		if isUniqueViolation(err) {
			return model.User{}, ErrDuplicateEmail
		}
		return model.User{}, fmt.Errorf("creating user: %w", err)
	}

	s.logger.Info("user created", "email", email, "role", role, "by", actor.Email)
	return userFromRow(row), nil
}

// DeleteUser removes an account. The bootstrap admin is refused before any
// permission check. Tasks assigned to the user keep the dangling email.
// Deleting an unknown email succeeds.
func (s *UserService) DeleteUser(ctx context.Context, actor model.Identity, email string) (err error) {
	defer func(start time.Time) { metrics.ObserveOperation("delete_user", start, err) }(time.Now())

	if email == BootstrapAdminEmail {
		s.logger.Warn("attempt to delete bootstrap admin", "by", actor.Email, "role", actor.Role, "category", model.EventCategoryUser)
		return ErrProtectedAccount
	}

	if err := s.requireCap(actor, policy.UsersManage); err != nil {
		return err
	}

	n, err := s.queries.DeleteUser(ctx, email)
	if err != nil {
		return fmt.Errorf("deleting user: %w", err)
	}
	if n > 0 {
		s.logger.Info("user deleted", "email", email, "by", actor.Email)
	}
	return nil
}

// UpdatePassword replaces a user's password. Whitespace-only passwords are rejected.
func (s *UserService) UpdatePassword(ctx context.Context, actor model.Identity, email, newPassword string) (err error) {
	defer func(start time.Time) { metrics.ObserveOperation("update_password", start, err) }(time.Now())

	if err := s.requireCap(actor, policy.UsersPassword); err != nil {
		return err
	}

	if strings.TrimSpace(newPassword) == "" {
		return newValidationError(ErrEmptyPassword, "password", "must not be empty")
	}

	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	n, err := s.queries.UpdateUserPassword(ctx, store.UpdateUserPasswordParams{
		Email:        email,
		PasswordHash: hash,
		UpdatedAt:    s.now(),
	})
	if err != nil {
		return fmt.Errorf("updating password: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}

	s.logger.Info("password updated", "email", email, "by", actor.Email)
	return nil
}

// ListUsers returns every account ordered by email. Credentials are never included.
func (s *UserService) ListUsers(ctx context.Context, actor model.Identity) (users []model.User, err error) {
	defer func(start time.Time) { metrics.ObserveOperation("list_users", start, err) }(time.Now())

	if err := s.requireCap(actor, policy.UsersView); err != nil {
		return nil, err
	}

	rows, err := s.queries.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}

	users = make([]model.User, 0, len(rows))
	for _, r := range rows {
		users = append(users, userFromRow(r))
	}
	return users, nil
}

// ListAssignees returns the emails tasks may be assigned to.
func (s *UserService) ListAssignees(ctx context.Context, actor model.Identity) ([]string, error) {
	if err := s.requireCap(actor, policy.TasksCreate); err != nil {
		return nil, err
	}
	return s.assignees(ctx)
}

func (s *UserService) assignees(ctx context.Context) ([]string, error) {
	rows, err := s.queries.ListUsersByRole(ctx, string(model.RoleUser))
	if err != nil {
		return nil, fmt.Errorf("listing assignees: %w", err)
	}

	emails := make([]string, 0, len(rows))
	for _, r := range rows {
		emails = append(emails, r.Email)
	}
	return emails, nil
}

// Bootstrap seeds the default accounts when the directory is empty.
func (s *UserService) Bootstrap(ctx context.Context) (bool, error) {
	return store.Seed(ctx, s.db)
}

func (s *UserService) requireCap(actor model.Identity, c policy.Capability) error {
	return requireCapability(s.logger, actor, c, model.EventCategoryUser)
}

func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
