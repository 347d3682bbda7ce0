// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"errors"
	"maps"
	"slices"
	"strings"

	"github.com/olegiv/pmt-go/internal/policy"
)

// Validation failures. Each is wrapped by a *ValidationError.
var (
	ErrEmptyField       = errors.New("required field is empty")
	ErrInvalidEmail     = errors.New("invalid email address")
	ErrEmptyPassword    = errors.New("password is empty")
	ErrEmptyProjectName = errors.New("project name is empty")
	ErrInvalidHours     = errors.New("hours must be greater than zero")
	ErrInvalidValue     = errors.New("invalid value")
)

// Non-validation failures.
var (
	ErrDuplicateEmail   = errors.New("email already exists")
	ErrNotFound         = errors.New("not found")
	ErrProtectedAccount = errors.New("account is protected")
	ErrAuthFailure      = errors.New("invalid email or password")

	// ErrPermissionDenied is wrapped by every *PermissionError.
	ErrPermissionDenied = policy.ErrDenied
)

// PermissionError reports which capability the acting role lacked.
type PermissionError = policy.DeniedError

// ValidationError carries per-field messages and the sentinel that best
// describes the failure.
type ValidationError struct {
	Err    error
	Fields map[string]string
}

func newValidationError(err error, field, msg string) *ValidationError {
	return &ValidationError{Err: err, Fields: map[string]string{field: msg}}
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Err.Error()
	}
	parts := make([]string, 0, len(e.Fields))
	for _, k := range slices.Sorted(maps.Keys(e.Fields)) {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return e.Err.Error() + " (" + strings.Join(parts, "; ") + ")"
}

func (e *ValidationError) Unwrap() error { return e.Err }
