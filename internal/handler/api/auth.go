// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/olegiv/pmt-go/internal/model"
	"github.com/olegiv/pmt-go/internal/service"
	"github.com/olegiv/pmt-go/internal/session"
)

// LoginRequest is the body of POST /api/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login handles POST /api/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if h.login != nil {
		if locked, remaining := h.login.IsAccountLocked(req.Email); locked {
			w.Header().Set("Retry-After", fmt.Sprintf("%d", int(remaining.Round(time.Second).Seconds())))
			WriteError(w, http.StatusTooManyRequests, "account_locked", "Too many failed attempts. Try again later.", nil)
			return
		}
	}

	id, err := h.svc.Users.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrAuthFailure) && h.login != nil {
			h.login.RecordFailedAttempt(req.Email)
		}
		h.writeServiceError(w, r, err)
		return
	}

	if h.login != nil {
		h.login.RecordSuccessfulLogin(req.Email)
	}

	if err := session.Login(r.Context(), h.sm, id); err != nil {
		h.logger.Error("failed to store session", "error", err)
		WriteInternalError(w, "Failed to start session")
		return
	}

	client := parseClient(r)
	if err := h.svc.Events.LogInfo(r.Context(), model.EventCategoryAuth, "user logged in", map[string]any{
		"email":   id.Email,
		"role":    id.Role,
		"browser": client.Browser,
		"os":      client.OS,
		"device":  client.DeviceType,
	}); err != nil {
		h.logger.Error("failed to record login event", "error", err, "email", id.Email)
	}
	WriteSuccess(w, id, nil)
}

// Logout handles POST /api/logout.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := session.Logout(r.Context(), h.sm); err != nil {
		h.logger.Error("failed to destroy session", "error", err)
		WriteInternalError(w, "Failed to end session")
		return
	}
	WriteNoContent(w)
}

// Me handles GET /api/me.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	WriteSuccess(w, actor(r), nil)
}
