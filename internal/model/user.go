// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package model defines domain models and types used throughout the application
// including User, Task, TimeLogEntry and the enumerations they are built from.
package model

import "time"

// Role is a user's role. It determines the capability matrix in the policy package.
type Role string

// User roles.
const (
	RoleAdmin    Role = "admin"
	RoleSubadmin Role = "subadmin"
	RoleUser     Role = "user"
)

// Roles contains all valid user roles in display order.
var Roles = []Role{RoleAdmin, RoleSubadmin, RoleUser}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleSubadmin, RoleUser:
		return true
	}
	return false
}

func (r Role) String() string {
	return string(r)
}

// User represents a directory account.
type User struct {
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsAdmin returns true if the user has admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Identity is the authenticated principal acting on the core.
// It is produced once by a successful authentication and trusted afterwards.
type Identity struct {
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// IsZero reports whether the identity carries no principal.
func (i Identity) IsZero() bool {
	return i.Email == "" && i.Role == ""
}
