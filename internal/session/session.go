// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package session configures the scs session manager and stores the
// authenticated identity in it.
package session

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"

	"github.com/olegiv/pmt-go/internal/model"
)

// Session keys.
const (
	KeyEmail = "email"
	KeyRole  = "role"
)

// New creates a new session manager configured with SQLite store.
func New(db *sql.DB, isDev bool) *scs.SessionManager {
	sm := scs.New()

	sm.Store = sqlite3store.New(db)

	sm.Lifetime = 24 * time.Hour
	sm.IdleTimeout = 2 * time.Hour
	sm.Cookie.HttpOnly = true
	sm.Cookie.SameSite = http.SameSiteLaxMode
	sm.Cookie.Path = "/"
	sm.Cookie.Secure = !isDev

	// __Host- prefix requires Secure and Path=/ without Domain.
	if !isDev {
		sm.Cookie.Name = "__Host-session"
	}

	return sm
}

// Login renews the session token and stores the identity.
func Login(ctx context.Context, sm *scs.SessionManager, id model.Identity) error {
	if err := sm.RenewToken(ctx); err != nil {
		return err
	}
	sm.Put(ctx, KeyEmail, id.Email)
	sm.Put(ctx, KeyRole, string(id.Role))
	return nil
}

// Logout destroys the session.
func Logout(ctx context.Context, sm *scs.SessionManager) error {
	return sm.Destroy(ctx)
}

// Identity returns the identity stored in the session, if any.
func Identity(ctx context.Context, sm *scs.SessionManager) (model.Identity, bool) {
	email := sm.GetString(ctx, KeyEmail)
	role := model.Role(sm.GetString(ctx, KeyRole))
	if email == "" || !role.Valid() {
		return model.Identity{}, false
	}
	return model.Identity{Email: email, Role: role}, true
}
