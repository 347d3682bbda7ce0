// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package policy holds the role to capability matrix and the task status
// transition rule. Every core operation asks this package before mutating or
// reading anything.
package policy

import (
	"errors"
	"fmt"

	"github.com/olegiv/pmt-go/internal/model"
)

// Capability names an action a role may be granted.
type Capability string

// Capabilities.
const (
	UsersManage   Capability = "users:manage"
	UsersPassword Capability = "users:password"
	UsersView     Capability = "users:view"

	TasksCreate    Capability = "tasks:create"
	TasksEdit      Capability = "tasks:edit"
	TasksDelete    Capability = "tasks:delete"
	TasksViewAll   Capability = "tasks:view_all"
	TasksViewOwn   Capability = "tasks:view_own"
	TasksUpdateOwn Capability = "tasks:update_own"
)

// Capabilities lists every capability in matrix order.
var Capabilities = []Capability{
	UsersManage, UsersPassword, UsersView,
	TasksCreate, TasksEdit, TasksDelete, TasksViewAll, TasksViewOwn, TasksUpdateOwn,
}

var matrix = map[model.Role]map[Capability]bool{
	model.RoleAdmin: {
		UsersManage:   true,
		UsersPassword: true,
		UsersView:     true,
		TasksCreate:   true,
		TasksEdit:     true,
		TasksDelete:   true,
		TasksViewAll:  true,
	},
	model.RoleSubadmin: {
		UsersView:    true,
		TasksCreate:  true,
		TasksViewAll: true,
	},
	model.RoleUser: {
		TasksViewOwn:   true,
		TasksUpdateOwn: true,
	},
}

// ErrDenied is wrapped by every *DeniedError.
var ErrDenied = errors.New("permission denied")

// DeniedError reports which capability a role lacked.
type DeniedError struct {
	Capability Capability
	Role       model.Role
}

func (e *DeniedError) Error() string {
	role := string(e.Role)
	if role == "" {
		role = "anonymous"
	}
	return fmt.Sprintf("permission denied: %s lacks %s", role, e.Capability)
}

func (e *DeniedError) Unwrap() error { return ErrDenied }

// Can reports whether role holds capability. Unknown roles hold nothing.
func Can(role model.Role, c Capability) bool {
	return matrix[role][c]
}

// Require returns a *DeniedError when id lacks capability.
func Require(id model.Identity, c Capability) error {
	if id.Email == "" || !Can(id.Role, c) {
		return &DeniedError{Capability: c, Role: id.Role}
	}
	return nil
}

// RequireAssignee checks the update-own capability and that id is the task's assignee.
func RequireAssignee(id model.Identity, t *model.Task) error {
	if err := Require(id, TasksUpdateOwn); err != nil {
		return err
	}
	if !t.IsAssignedTo(id.Email) {
		return &DeniedError{Capability: TasksUpdateOwn, Role: id.Role}
	}
	return nil
}

// CanView reports whether id may read t.
func CanView(id model.Identity, t *model.Task) bool {
	if id.Email == "" {
		return false
	}
	if Can(id.Role, TasksViewAll) {
		return true
	}
	return Can(id.Role, TasksViewOwn) && t.IsAssignedTo(id.Email)
}

// ErrTransition is wrapped when a status change is not allowed.
var ErrTransition = errors.New("status transition not allowed")

// CheckTransition validates a status change. Any known status may move to any
// known status, including itself.
func CheckTransition(from, to model.Status) error {
	if !to.Valid() {
		return fmt.Errorf("%w: %q to %q", ErrTransition, from, to)
	}
	return nil
}
