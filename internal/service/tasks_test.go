// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/pmt-go/internal/metrics"
	"github.com/olegiv/pmt-go/internal/model"
	"github.com/olegiv/pmt-go/internal/store"
)

func TestCreateTask(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()

	for _, actor := range []model.Identity{f.admin, f.sub} {
		id, err := f.svc.Tasks.CreateTask(ctx, actor, validInput(f.user.Email))
		require.NoError(t, err)
		assert.NotEmpty(t, id)

		task, err := f.svc.Tasks.GetTask(ctx, f.admin, id)
		require.NoError(t, err)
		assert.Equal(t, "P1", task.ProjectName)
		assert.Equal(t, model.StatusStarted, task.Status)
		assert.Empty(t, task.Message)
		assert.Zero(t, task.TotalHoursSpent)
	}

	_, err := f.svc.Tasks.CreateTask(ctx, f.user, validInput(f.user.Email))
	assert.ErrorIs(t, err, ErrPermissionDenied)
}

func TestCreateTask_Validation(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()

	tests := []struct {
		name    string
		mutate  func(*TaskInput)
		wantErr error
		field   string
	}{
		{"empty project", func(in *TaskInput) { in.ProjectName = "" }, ErrEmptyProjectName, "project_name"},
		{"blank project", func(in *TaskInput) { in.ProjectName = "   \t" }, ErrEmptyProjectName, "project_name"},
		{"negative hours", func(in *TaskInput) { in.ExpectedHours = -1 }, ErrInvalidValue, "expected_hours"},
		{"bad status", func(in *TaskInput) { in.Status = "Done" }, ErrInvalidValue, "status"},
		{"bad department", func(in *TaskInput) { in.Department = "Legal" }, ErrInvalidValue, "department"},
		{"bad remark", func(in *TaskInput) { in.Remark = "Yellow Flag" }, ErrInvalidValue, "remark"},
		{"long message", func(in *TaskInput) { in.Message = strings.Repeat("x", 101) }, ErrInvalidValue, "message"},
		{"unknown assignee", func(in *TaskInput) { in.AssignedTo = "ghost@example.com" }, ErrInvalidValue, "assigned_to"},
		{"assignee not a user", func(in *TaskInput) { in.AssignedTo = store.DefaultSubadminEmail }, ErrInvalidValue, "assigned_to"},
		{"missing assignee", func(in *TaskInput) { in.AssignedTo = "" }, ErrInvalidValue, "assigned_to"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput(f.user.Email)
			tt.mutate(&in)

			_, err := f.svc.Tasks.CreateTask(ctx, f.admin, in)
			require.ErrorIs(t, err, tt.wantErr)

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, verr.Fields, tt.field)
		})
	}

	assert.Equal(t, 0, f.countRows(t, "SELECT COUNT(*) FROM tasks"), "rejected creates must not write")
}

func TestTaskMessage_StoredVerbatim(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()

	in := validInput(f.user.Email)
	in.Message = `  R&D kickoff, don't "slip"  `
	id, err := f.svc.Tasks.CreateTask(ctx, f.admin, in)
	require.NoError(t, err)

	task, err := f.svc.Tasks.GetTask(ctx, f.admin, id)
	require.NoError(t, err)
	assert.Equal(t, `R&D kickoff, don't "slip"`, task.Message)

	// An unrelated admin edit must leave the message untouched.
	require.NoError(t, f.svc.Tasks.UpdateTask(ctx, f.admin, id, TaskUpdate{ExpectedHours: ptr(42.0)}))
	task, err = f.svc.Tasks.GetTask(ctx, f.admin, id)
	require.NoError(t, err)
	assert.Equal(t, `R&D kickoff, don't "slip"`, task.Message)
	assert.Equal(t, 42.0, task.ExpectedHours)

	require.NoError(t, f.svc.Tasks.UpdateStatusAndMessage(ctx, f.user, id, model.StatusProgressing, task.Message))
	task, err = f.svc.Tasks.GetTask(ctx, f.user, id)
	require.NoError(t, err)
	assert.Equal(t, `R&D kickoff, don't "slip"`, task.Message)
}

func TestTaskMessage_MarkupRejected(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	id := f.createTask(t, f.user.Email)

	for _, msg := range []string{
		"<script>alert(1)</script>",
		"&lt;script&gt;x&lt;/script&gt;",
		"see <main> branch",
		"<b>bold</b>",
	} {
		t.Run(msg, func(t *testing.T) {
			in := validInput(f.user.Email)
			in.Message = msg
			_, err := f.svc.Tasks.CreateTask(ctx, f.admin, in)
			require.ErrorIs(t, err, ErrInvalidValue)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, verr.Fields, "message")

			err = f.svc.Tasks.UpdateTask(ctx, f.admin, id, TaskUpdate{Message: ptr(msg)})
			assert.ErrorIs(t, err, ErrInvalidValue)

			err = f.svc.Tasks.UpdateStatusAndMessage(ctx, f.user, id, model.StatusStarted, msg)
			assert.ErrorIs(t, err, ErrInvalidValue)
		})
	}

	task, err := f.svc.Tasks.GetTask(ctx, f.admin, id)
	require.NoError(t, err)
	assert.Empty(t, task.Message, "rejected messages must not be written")
}

func TestUpdateTask(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	id := f.createTask(t, f.user.Email)
	other := f.addUser(t, "other@example.com", model.RoleUser)

	err := f.svc.Tasks.UpdateTask(ctx, f.admin, id, TaskUpdate{
		Status:     ptr(model.StatusCompleted),
		Remark:     ptr(model.RemarkRedFlag),
		AssignedTo: ptr(other.Email),
	})
	require.NoError(t, err)

	task, err := f.svc.Tasks.GetTask(ctx, f.admin, id)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, task.Status)
	assert.Equal(t, model.RemarkRedFlag, task.Remark)
	assert.Equal(t, other.Email, task.AssignedTo)
	assert.Equal(t, "P1", task.ProjectName, "unset fields are unchanged")
}

func TestUpdateTask_Idempotent(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	id := f.createTask(t, f.user.Email)

	upd := TaskUpdate{
		ProjectName:   ptr("P2"),
		ExpectedHours: ptr(12.5),
		Status:        ptr(model.StatusProgressing),
		Department:    ptr(model.DepartmentHR),
		Remark:        ptr(model.RemarkRedFlag),
		Message:       ptr("halfway"),
		AssignedTo:    ptr(f.user.Email),
	}

	require.NoError(t, f.svc.Tasks.UpdateTask(ctx, f.admin, id, upd))
	once, err := f.svc.Tasks.GetTask(ctx, f.admin, id)
	require.NoError(t, err)

	require.NoError(t, f.svc.Tasks.UpdateTask(ctx, f.admin, id, upd))
	twice, err := f.svc.Tasks.GetTask(ctx, f.admin, id)
	require.NoError(t, err)

	assert.True(t, once.UpdatedAt.Equal(twice.UpdatedAt), "second identical update must not touch the row")
	once.CreatedAt, once.UpdatedAt = twice.CreatedAt, twice.UpdatedAt
	assert.Equal(t, once, twice)
}

func TestUpdateTask_AllStatusTransitions(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	id := f.createTask(t, f.user.Email)

	for _, to := range []model.Status{
		model.StatusCompleted, model.StatusStarted, model.StatusIncomplete,
		model.StatusProgressing, model.StatusStarted,
	} {
		require.NoError(t, f.svc.Tasks.UpdateTask(ctx, f.admin, id, TaskUpdate{Status: ptr(to)}), "to %s", to)
	}
}

func TestUpdateTask_Rejections(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	id := f.createTask(t, f.user.Email)

	assert.ErrorIs(t, f.svc.Tasks.UpdateTask(ctx, f.admin, "missing", TaskUpdate{}), ErrNotFound)
	assert.ErrorIs(t, f.svc.Tasks.UpdateTask(ctx, f.sub, id, TaskUpdate{Status: ptr(model.StatusCompleted)}), ErrPermissionDenied)
	assert.ErrorIs(t, f.svc.Tasks.UpdateTask(ctx, f.user, id, TaskUpdate{Status: ptr(model.StatusCompleted)}), ErrPermissionDenied)
	assert.ErrorIs(t, f.svc.Tasks.UpdateTask(ctx, f.admin, id, TaskUpdate{ProjectName: ptr(" ")}), ErrEmptyProjectName)
	assert.ErrorIs(t, f.svc.Tasks.UpdateTask(ctx, f.admin, id, TaskUpdate{Status: ptr(model.Status("Archived"))}), ErrInvalidValue)
	assert.ErrorIs(t, f.svc.Tasks.UpdateTask(ctx, f.admin, id, TaskUpdate{AssignedTo: ptr(store.DefaultAdminEmail)}), ErrInvalidValue)

	task, err := f.svc.Tasks.GetTask(ctx, f.admin, id)
	require.NoError(t, err)
	assert.Equal(t, model.StatusStarted, task.Status)
	assert.Equal(t, "P1", task.ProjectName)
}

func TestUpdateStatusAndMessage(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	id := f.createTask(t, f.user.Email)
	stranger := f.addUser(t, "stranger@example.com", model.RoleUser)

	require.NoError(t, f.svc.Tasks.UpdateStatusAndMessage(ctx, f.user, id, model.StatusProgressing, "on it"))

	task, err := f.svc.Tasks.GetTask(ctx, f.user, id)
	require.NoError(t, err)
	assert.Equal(t, model.StatusProgressing, task.Status)
	assert.Equal(t, "on it", task.Message)

	for _, actor := range []model.Identity{f.admin, f.sub, stranger} {
		err := f.svc.Tasks.UpdateStatusAndMessage(ctx, actor, id, model.StatusCompleted, "")
		assert.ErrorIs(t, err, ErrPermissionDenied, "actor %s", actor.Email)
	}

	assert.ErrorIs(t, f.svc.Tasks.UpdateStatusAndMessage(ctx, f.user, "missing", model.StatusCompleted, ""), ErrNotFound)
	assert.ErrorIs(t, f.svc.Tasks.UpdateStatusAndMessage(ctx, f.user, id, "Done", ""), ErrInvalidValue)
}

func TestUpdateStatusAndMessage_MessageLength(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	id := f.createTask(t, f.user.Email)

	exact := strings.Repeat("é", model.MaxMessageLength)
	require.NoError(t, f.svc.Tasks.UpdateStatusAndMessage(ctx, f.user, id, model.StatusStarted, exact))

	err := f.svc.Tasks.UpdateStatusAndMessage(ctx, f.user, id, model.StatusStarted, exact+"x")
	assert.ErrorIs(t, err, ErrInvalidValue)

	// Surrounding whitespace does not count against the limit.
	padded := "  " + strings.Repeat("y", model.MaxMessageLength) + "\n"
	require.NoError(t, f.svc.Tasks.UpdateStatusAndMessage(ctx, f.user, id, model.StatusStarted, padded))

	task, err := f.svc.Tasks.GetTask(ctx, f.user, id)
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("y", model.MaxMessageLength), task.Message)
}

func TestSubmitUpdate(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	id := f.createTask(t, f.user.Email)

	require.NoError(t, f.svc.Tasks.SubmitUpdate(ctx, f.user, id, StatusUpdate{
		Status:  model.StatusProgressing,
		Message: "day one",
		Hours:   4,
	}))
	// Zero hours updates status only.
	require.NoError(t, f.svc.Tasks.SubmitUpdate(ctx, f.user, id, StatusUpdate{
		Status: model.StatusCompleted,
	}))

	task, err := f.svc.Tasks.GetTask(ctx, f.user, id)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, task.Status)
	assert.Empty(t, task.Message)
	assert.InDelta(t, 4, task.TotalHoursSpent, 1e-9)
	assert.Equal(t, 1, f.countRows(t, "SELECT COUNT(*) FROM task_hours WHERE task_id = ?", id))
}

func TestSubmitUpdate_NegativeHoursWritesNothing(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	id := f.createTask(t, f.user.Email)

	err := f.svc.Tasks.SubmitUpdate(ctx, f.user, id, StatusUpdate{Status: model.StatusCompleted, Hours: -1})
	require.ErrorIs(t, err, ErrInvalidHours)

	task, err := f.svc.Tasks.GetTask(ctx, f.user, id)
	require.NoError(t, err)
	assert.Equal(t, model.StatusStarted, task.Status)
}

func TestSubmitUpdate_PartialFailureKeepsStatus(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	id := f.createTask(t, f.user.Email)

	// Make the second write fail while the first still succeeds.
	_, err := f.db.Exec(`CREATE TRIGGER fail_hours BEFORE INSERT ON task_hours
BEGIN SELECT RAISE(ABORT, 'hours unavailable'); END`)
	require.NoError(t, err)

	err = f.svc.Tasks.SubmitUpdate(ctx, f.user, id, StatusUpdate{Status: model.StatusIncomplete, Hours: 2})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "logging hours failed")

	task, err := f.svc.Tasks.GetTask(ctx, f.user, id)
	require.NoError(t, err)
	assert.Equal(t, model.StatusIncomplete, task.Status)
	assert.Zero(t, task.TotalHoursSpent)
}

func TestDeleteTask_Cascade(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	id := f.createTask(t, f.user.Email)
	keep := f.createTask(t, f.user.Email)

	for _, h := range []float64{1, 2, 3} {
		_, err := f.svc.TimeLog.AppendEntry(ctx, f.user, id, h, zeroTime)
		require.NoError(t, err)
	}
	_, err := f.svc.TimeLog.AppendEntry(ctx, f.user, keep, 1, zeroTime)
	require.NoError(t, err)

	assert.ErrorIs(t, f.svc.Tasks.DeleteTask(ctx, f.sub, id), ErrPermissionDenied)
	assert.ErrorIs(t, f.svc.Tasks.DeleteTask(ctx, f.user, id), ErrPermissionDenied)

	require.NoError(t, f.svc.Tasks.DeleteTask(ctx, f.admin, id))

	tasks, err := f.svc.Tasks.ListTasks(ctx, f.admin)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, keep, tasks[0].ID)

	assert.Equal(t, 0, f.countRows(t, "SELECT COUNT(*) FROM task_hours WHERE task_id = ?", id))
	assert.Equal(t, 1, f.countRows(t, "SELECT COUNT(*) FROM task_hours WHERE task_id = ?", keep))

	assert.ErrorIs(t, f.svc.Tasks.DeleteTask(ctx, f.admin, id), ErrNotFound)
}

func TestListTasks_UserScope(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	other := f.addUser(t, "other@example.com", model.RoleUser)

	mine := f.createTask(t, f.user.Email)
	theirs := f.createTask(t, other.Email)

	all, err := f.svc.Tasks.ListTasks(ctx, f.sub)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	own, err := f.svc.Tasks.ListTasks(ctx, f.user)
	require.NoError(t, err)
	require.Len(t, own, 1)
	assert.Equal(t, mine, own[0].ID)
	for _, task := range own {
		assert.Equal(t, f.user.Email, task.AssignedTo)
	}

	_, err = f.svc.Tasks.GetTask(ctx, f.user, theirs)
	assert.ErrorIs(t, err, ErrPermissionDenied)

	_, err = f.svc.Tasks.ListTasks(ctx, model.Identity{})
	assert.ErrorIs(t, err, ErrPermissionDenied)

	none, err := f.svc.Tasks.ListTasks(ctx, model.Identity{Email: "fresh@example.com", Role: model.RoleUser})
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestGetTask_NotFound(t *testing.T) {
	f := newFixture(t, Options{})

	_, err := f.svc.Tasks.GetTask(context.Background(), f.admin, "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReadAndSubmitOperationsAreObserved(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	id := f.createTask(t, f.user.Email)

	submitOK := operationCount(t, "submit_update", metrics.ResultOK)
	getOK := operationCount(t, "get_task", metrics.ResultOK)
	getDenied := operationCount(t, "get_task", metrics.ResultDenied)
	listOK := operationCount(t, "list_users", metrics.ResultOK)
	listDenied := operationCount(t, "list_users", metrics.ResultDenied)

	require.NoError(t, f.svc.Tasks.SubmitUpdate(ctx, f.user, id, StatusUpdate{Status: model.StatusProgressing, Hours: 1}))
	_, err := f.svc.Tasks.GetTask(ctx, f.user, id)
	require.NoError(t, err)
	_, err = f.svc.Tasks.GetTask(ctx, model.Identity{Email: "ghost@example.com", Role: model.Role("guest")}, id)
	require.ErrorIs(t, err, ErrPermissionDenied)
	_, err = f.svc.Users.ListUsers(ctx, f.admin)
	require.NoError(t, err)
	_, err = f.svc.Users.ListUsers(ctx, f.user)
	require.ErrorIs(t, err, ErrPermissionDenied)

	assert.Equal(t, submitOK+1, operationCount(t, "submit_update", metrics.ResultOK))
	assert.Equal(t, getOK+1, operationCount(t, "get_task", metrics.ResultOK))
	assert.Equal(t, getDenied+1, operationCount(t, "get_task", metrics.ResultDenied))
	assert.Equal(t, listOK+1, operationCount(t, "list_users", metrics.ResultOK))
	assert.Equal(t, listDenied+1, operationCount(t, "list_users", metrics.ResultDenied))
}
