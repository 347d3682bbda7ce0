// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/pmt-go/internal/model"
)

// CreateUserRequest is the body of POST /api/users.
type CreateUserRequest struct {
	Email    string     `json:"email"`
	Password string     `json:"password"`
	Role     model.Role `json:"role"`
}

// UpdatePasswordRequest is the body of PUT /api/users/{email}/password.
type UpdatePasswordRequest struct {
	Password string `json:"password"`
}

// ListUsers handles GET /api/users.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.svc.Users.ListUsers(r.Context(), actor(r))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteList(w, users)
}

// ListAssignees handles GET /api/users/assignees.
func (h *Handler) ListAssignees(w http.ResponseWriter, r *http.Request) {
	emails, err := h.svc.Users.ListAssignees(r.Context(), actor(r))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteList(w, emails)
}

// CreateUser handles POST /api/users.
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	u, err := h.svc.Users.CreateUser(r.Context(), actor(r), req.Email, req.Password, req.Role)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteCreated(w, u)
}

// DeleteUser handles DELETE /api/users/{email}.
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Users.DeleteUser(r.Context(), actor(r), emailParam(r)); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteNoContent(w)
}

// UpdatePassword handles PUT /api/users/{email}/password.
func (h *Handler) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	var req UpdatePasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.svc.Users.UpdatePassword(r.Context(), actor(r), emailParam(r), req.Password); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteNoContent(w)
}

// emailParam returns the unescaped {email} path parameter.
func emailParam(r *http.Request) string {
	raw := chi.URLParam(r, "email")
	if email, err := url.PathUnescape(raw); err == nil {
		return email
	}
	return raw
}
