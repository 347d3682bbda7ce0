// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/pmt-go/internal/model"
	"github.com/olegiv/pmt-go/internal/store"
)

func TestTasks_EndToEnd(t *testing.T) {
	s := newTestServer(t)
	admin := s.admin(t)
	user := s.user(t)

	id := s.createTask(t, admin, store.DefaultUserEmail)

	total := func() float64 {
		t.Helper()
		resp := s.do(t, admin, http.MethodGet, "/api/tasks/"+id, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode, string(resp.Body))
		var task model.TaskSummary
		resp.data(t, &task)
		return task.TotalHoursSpent
	}
	assert.Zero(t, total())

	resp := s.do(t, user, http.MethodPost, "/api/tasks/"+id+"/hours", map[string]any{"hours": 3})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(resp.Body))
	var entry model.TimeLogEntry
	resp.data(t, &entry)
	assert.Equal(t, store.DefaultUserEmail, entry.UserEmail)
	assert.InDelta(t, 3.0, total(), 1e-9)

	resp = s.do(t, user, http.MethodPost, "/api/tasks/"+id+"/updates", map[string]any{
		"status": "Progressing", "message": "<b>halfway</b>", "hours": 2.5, "log_date": "2020-02-01",
	})
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode, string(resp.Body))
	assert.Equal(t, "validation_error", resp.errorCode(t))
	assert.InDelta(t, 3.0, total(), 1e-9, "a rejected update must not log hours")

	resp = s.do(t, user, http.MethodPost, "/api/tasks/"+id+"/updates", map[string]any{
		"status": "Progressing", "message": " halfway ", "hours": 2.5, "log_date": "2020-02-01",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(resp.Body))
	var updated model.TaskSummary
	resp.data(t, &updated)
	assert.Equal(t, model.StatusProgressing, updated.Status)
	assert.Equal(t, "halfway", updated.Message)
	assert.InDelta(t, 5.5, updated.TotalHoursSpent, 1e-9)

	resp = s.do(t, user, http.MethodGet, "/api/tasks/"+id+"/hours", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var entries []model.TimeLogEntry
	resp.data(t, &entries)
	require.Len(t, entries, 2)
	assert.Equal(t, "2020-02-01", entries[0].LogDate.Format(model.DateLayout))

	resp = s.do(t, admin, http.MethodDelete, "/api/tasks/"+id, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = s.do(t, admin, http.MethodGet, "/api/tasks/"+id, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp = s.do(t, admin, http.MethodGet, "/api/tasks/"+id+"/hours", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestTasks_ListIsScopedByRole(t *testing.T) {
	s := newTestServer(t)
	admin := s.admin(t)

	resp := s.do(t, admin, http.MethodPost, "/api/users", map[string]string{
		"email": "other@example.com", "password": "pw", "role": "user",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	mine := s.createTask(t, admin, store.DefaultUserEmail)
	theirs := s.createTask(t, admin, "other@example.com")

	list := func(c *http.Client) []string {
		resp := s.do(t, c, http.MethodGet, "/api/tasks", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var items []model.TaskSummary
		resp.data(t, &items)
		ids := make([]string, 0, len(items))
		for _, it := range items {
			ids = append(ids, it.ID)
		}
		return ids
	}

	assert.ElementsMatch(t, []string{mine, theirs}, list(admin))
	assert.ElementsMatch(t, []string{mine, theirs}, list(s.subadmin(t)))

	user := s.user(t)
	assert.Equal(t, []string{mine}, list(user))

	resp = s.do(t, user, http.MethodGet, "/api/tasks/"+theirs, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestTasks_EmptyListIsArray(t *testing.T) {
	s := newTestServer(t)

	resp := s.do(t, s.user(t), http.MethodGet, "/api/tasks", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"data":[],"meta":{"total":0}}`, string(resp.Body))
}

func TestTasks_Patch(t *testing.T) {
	s := newTestServer(t)
	admin := s.admin(t)
	id := s.createTask(t, admin, store.DefaultUserEmail)

	resp := s.do(t, admin, http.MethodPatch, "/api/tasks/"+id, map[string]any{"remark": "Red Flag", "expected_hours": 12})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(resp.Body))
	var task model.TaskSummary
	resp.data(t, &task)
	assert.Equal(t, model.RemarkRedFlag, task.Remark)
	assert.InDelta(t, 12.0, task.ExpectedHours, 1e-9)
	assert.Equal(t, "Website", task.ProjectName, "absent fields keep their value")
}

func TestTasks_ErrorMapping(t *testing.T) {
	s := newTestServer(t)
	admin := s.admin(t)
	sub := s.subadmin(t)
	user := s.user(t)
	id := s.createTask(t, admin, store.DefaultUserEmail)

	invalid := taskBody(store.DefaultUserEmail)
	invalid["department"] = "Legal"

	noProject := taskBody(store.DefaultUserEmail)
	noProject["project_name"] = "   "

	tests := []struct {
		name     string
		client   *http.Client
		method   string
		path     string
		body     any
		wantCode int
	}{
		{"invalid department", admin, http.MethodPost, "/api/tasks", invalid, http.StatusUnprocessableEntity},
		{"blank project", admin, http.MethodPost, "/api/tasks", noProject, http.StatusUnprocessableEntity},
		{"unknown field", admin, http.MethodPost, "/api/tasks", `{"project_name":"x","owner":"y"}`, http.StatusBadRequest},
		{"user cannot create", user, http.MethodPost, "/api/tasks", taskBody(store.DefaultUserEmail), http.StatusForbidden},
		{"subadmin cannot edit", sub, http.MethodPatch, "/api/tasks/" + id, map[string]any{"remark": "Red Flag"}, http.StatusForbidden},
		{"subadmin cannot delete", sub, http.MethodDelete, "/api/tasks/" + id, nil, http.StatusForbidden},
		{"admin cannot log hours", admin, http.MethodPost, "/api/tasks/" + id + "/hours", map[string]any{"hours": 1}, http.StatusForbidden},
		{"zero hours", user, http.MethodPost, "/api/tasks/" + id + "/hours", map[string]any{"hours": 0}, http.StatusUnprocessableEntity},
		{"bad log date", user, http.MethodPost, "/api/tasks/" + id + "/hours", map[string]any{"hours": 1, "log_date": "01/02/2026"}, http.StatusUnprocessableEntity},
		{"negative update hours", user, http.MethodPost, "/api/tasks/" + id + "/updates", map[string]any{"status": "Started", "hours": -1}, http.StatusUnprocessableEntity},
		{"long message", user, http.MethodPost, "/api/tasks/" + id + "/updates", map[string]any{"status": "Started", "message": strings.Repeat("x", 101)}, http.StatusUnprocessableEntity},
		{"missing task", admin, http.MethodGet, "/api/tasks/missing", nil, http.StatusNotFound},
		{"delete missing task", admin, http.MethodDelete, "/api/tasks/missing", nil, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := s.do(t, tt.client, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.wantCode, resp.StatusCode, string(resp.Body))
		})
	}
}
