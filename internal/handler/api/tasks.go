// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/pmt-go/internal/model"
	"github.com/olegiv/pmt-go/internal/service"
)

// CreateTaskResponse is returned by POST /api/tasks.
type CreateTaskResponse struct {
	ID string `json:"id"`
}

// SubmitUpdateRequest is the body of POST /api/tasks/{id}/updates.
type SubmitUpdateRequest struct {
	Status  model.Status `json:"status"`
	Message string       `json:"message"`
	Hours   float64      `json:"hours"`
	LogDate string       `json:"log_date,omitempty"` // YYYY-MM-DD, empty means today
}

// ListTasks handles GET /api/tasks.
func (h *Handler) ListTasks(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.Tasks.ListTasks(r.Context(), actor(r))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteList(w, items)
}

// CreateTask handles POST /api/tasks.
func (h *Handler) CreateTask(w http.ResponseWriter, r *http.Request) {
	var req service.TaskInput
	if !decodeJSON(w, r, &req) {
		return
	}

	id, err := h.svc.Tasks.CreateTask(r.Context(), actor(r), req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteCreated(w, CreateTaskResponse{ID: id})
}

// GetTask handles GET /api/tasks/{id}.
func (h *Handler) GetTask(w http.ResponseWriter, r *http.Request) {
	task, err := h.svc.Tasks.GetTask(r.Context(), actor(r), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteSuccess(w, task, nil)
}

// UpdateTask handles PATCH /api/tasks/{id}. Absent fields keep their value.
func (h *Handler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	var req service.TaskUpdate
	if !decodeJSON(w, r, &req) {
		return
	}

	ctx := r.Context()
	id := chi.URLParam(r, "id")
	if err := h.svc.Tasks.UpdateTask(ctx, actor(r), id, req); err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	task, err := h.svc.Tasks.GetTask(ctx, actor(r), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteSuccess(w, task, nil)
}

// DeleteTask handles DELETE /api/tasks/{id}.
func (h *Handler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Tasks.DeleteTask(r.Context(), actor(r), chi.URLParam(r, "id")); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteNoContent(w)
}

// SubmitUpdate handles POST /api/tasks/{id}/updates.
func (h *Handler) SubmitUpdate(w http.ResponseWriter, r *http.Request) {
	var req SubmitUpdateRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	logDate, ok := parseLogDate(w, req.LogDate)
	if !ok {
		return
	}

	ctx := r.Context()
	id := chi.URLParam(r, "id")
	err := h.svc.Tasks.SubmitUpdate(ctx, actor(r), id, service.StatusUpdate{
		Status:  req.Status,
		Message: req.Message,
		Hours:   req.Hours,
		LogDate: logDate,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	task, err := h.svc.Tasks.GetTask(ctx, actor(r), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteSuccess(w, task, nil)
}

// parseLogDate parses an optional calendar date in the local time zone.
func parseLogDate(w http.ResponseWriter, s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, true
	}
	d, err := time.ParseInLocation(model.DateLayout, s, time.Local)
	if err != nil {
		WriteValidationError(w, "invalid date", map[string]string{"log_date": "must be a date in YYYY-MM-DD format"})
		return time.Time{}, false
	}
	return d, true
}
