// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package api provides the JSON HTTP API over the project tracking core.
package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/alexedwards/scs/v2"

	"github.com/olegiv/pmt-go/internal/cache"
	"github.com/olegiv/pmt-go/internal/middleware"
	"github.com/olegiv/pmt-go/internal/model"
	"github.com/olegiv/pmt-go/internal/service"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// Handler holds shared dependencies for all API handlers.
type Handler struct {
	db        *sql.DB
	svc       *service.Services
	sm        *scs.SessionManager
	cache     cache.Cacher
	login     *middleware.LoginProtection
	logger    *slog.Logger
	startTime time.Time
}

// NewHandler creates a new API handler. c may be nil when caching is disabled.
func NewHandler(db *sql.DB, svc *service.Services, sm *scs.SessionManager, c cache.Cacher, login *middleware.LoginProtection, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		db:        db,
		svc:       svc,
		sm:        sm,
		cache:     c,
		login:     login,
		logger:    logger,
		startTime: time.Now(),
	}
}

// Response is the standard API response wrapper.
type Response struct {
	Data any   `json:"data,omitempty"`
	Meta *Meta `json:"meta,omitempty"`
}

// Meta contains list metadata.
type Meta struct {
	Total int `json:"total"`
}

// ErrorResponse is the standard API error response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information.
type ErrorDetail struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// WriteSuccess writes a successful JSON response.
func WriteSuccess(w http.ResponseWriter, data any, meta *Meta) {
	WriteJSON(w, http.StatusOK, Response{Data: data, Meta: meta})
}

// WriteList writes a list with its length as metadata.
func WriteList[T any](w http.ResponseWriter, items []T) {
	if items == nil {
		items = []T{}
	}
	WriteSuccess(w, items, &Meta{Total: len(items)})
}

// WriteCreated writes a 201 Created JSON response.
func WriteCreated(w http.ResponseWriter, data any) {
	WriteJSON(w, http.StatusCreated, Response{Data: data})
}

// WriteNoContent writes a 204 No Content response.
func WriteNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// WriteError writes an error JSON response.
func WriteError(w http.ResponseWriter, statusCode int, code, message string, details map[string]string) {
	WriteJSON(w, statusCode, ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

// WriteBadRequest writes a 400 Bad Request response.
func WriteBadRequest(w http.ResponseWriter, message string, details map[string]string) {
	WriteError(w, http.StatusBadRequest, "bad_request", message, details)
}

// WriteNotFound writes a 404 Not Found response.
func WriteNotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, "not_found", message, nil)
}

// WriteUnauthorized writes a 401 Unauthorized response.
func WriteUnauthorized(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusUnauthorized, "unauthorized", message, nil)
}

// WriteForbidden writes a 403 Forbidden response.
func WriteForbidden(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusForbidden, "forbidden", message, nil)
}

// WriteConflict writes a 409 Conflict response.
func WriteConflict(w http.ResponseWriter, code, message string) {
	WriteError(w, http.StatusConflict, code, message, nil)
}

// WriteInternalError writes a 500 Internal Server Error response.
func WriteInternalError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, "internal_error", message, nil)
}

// WriteValidationError writes a 422 Unprocessable Entity response with field errors.
func WriteValidationError(w http.ResponseWriter, message string, fieldErrors map[string]string) {
	WriteError(w, http.StatusUnprocessableEntity, "validation_error", message, fieldErrors)
}

// writeServiceError maps a core error to its HTTP status.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *service.ValidationError
	var perr *service.PermissionError

	switch {
	case errors.As(err, &verr):
		WriteValidationError(w, verr.Err.Error(), verr.Fields)
	case errors.As(err, &perr):
		WriteForbidden(w, fmt.Sprintf("Role %s may not %s", roleLabel(perr.Role), perr.Capability))
	case errors.Is(err, service.ErrPermissionDenied):
		WriteForbidden(w, "Permission denied")
	case errors.Is(err, service.ErrNotFound):
		WriteNotFound(w, "Not found")
	case errors.Is(err, service.ErrProtectedAccount):
		WriteConflict(w, "protected_account", "The bootstrap admin account cannot be deleted")
	case errors.Is(err, service.ErrDuplicateEmail):
		WriteConflict(w, "duplicate_email", "Email already exists")
	case errors.Is(err, service.ErrAuthFailure):
		WriteUnauthorized(w, "Invalid email or password")
	default:
		h.logger.Error("api request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		WriteInternalError(w, "Internal server error")
	}
}

func roleLabel(r model.Role) string {
	if r == "" {
		return "anonymous"
	}
	return string(r)
}

// decodeJSON reads a single JSON object into dst, rejecting unknown fields.
// It writes a 400 response and returns false on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			WriteError(w, http.StatusRequestEntityTooLarge, "body_too_large", "Request body too large", nil)
		case errors.Is(err, io.EOF):
			WriteBadRequest(w, "Request body is empty", nil)
		default:
			WriteBadRequest(w, "Invalid JSON body", map[string]string{"body": err.Error()})
		}
		return false
	}

	if dec.More() {
		WriteBadRequest(w, "Request body must contain a single JSON object", nil)
		return false
	}
	return true
}

// actor returns the identity placed in the context by middleware.RequireIdentity.
func actor(r *http.Request) model.Identity {
	id, _ := middleware.GetIdentity(r)
	return id
}
