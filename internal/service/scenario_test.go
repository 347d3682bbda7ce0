package service

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/pmt-go/internal/logging"
	"github.com/olegiv/pmt-go/internal/model"
	"github.com/olegiv/pmt-go/internal/store"
	"github.com/olegiv/pmt-go/internal/testutil"
)

func findTask(items []model.TaskSummary, id string) (model.TaskSummary, bool) {
	for _, it := range items {
		if it.ID == id {
			return it, true
		}
	}
	return model.TaskSummary{}, false
}

func TestScenario_BootstrapToDelete(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()

	svc := New(db, Options{Logger: testutil.TestLoggerSilent()})
	ctx := context.Background()

	seeded, err := svc.Users.Bootstrap(ctx)
	require.NoError(t, err)
	require.True(t, seeded)

	admin, err := svc.Users.Authenticate(ctx, store.DefaultAdminEmail, store.DefaultAdminPassword)
	require.NoError(t, err)
	user, err := svc.Users.Authenticate(ctx, store.DefaultUserEmail, store.DefaultUserPassword)
	require.NoError(t, err)

	users, err := svc.Users.ListUsers(ctx, admin)
	require.NoError(t, err)
	require.Len(t, users, 3)

	id, err := svc.Tasks.CreateTask(ctx, admin, TaskInput{
		AssignedTo:    "user@example.com",
		ProjectName:   "P1",
		ExpectedHours: 10,
		Status:        model.StatusStarted,
		Department:    model.DepartmentIT,
		Remark:        model.RemarkGreenFlag,
	})
	require.NoError(t, err)

	assertTotal := func(want float64) {
		t.Helper()
		items, err := svc.Tasks.ListTasks(ctx, admin)
		require.NoError(t, err)
		task, ok := findTask(items, id)
		require.True(t, ok)
		assert.InDelta(t, want, task.TotalHoursSpent, 1e-9)
	}

	assertTotal(0)

	_, err = svc.TimeLog.AppendEntry(ctx, user, id, 3, zeroTime)
	require.NoError(t, err)
	assertTotal(3)

	_, err = svc.TimeLog.AppendEntry(ctx, user, id, 2.5, zeroTime)
	require.NoError(t, err)
	assertTotal(5.5)

	require.NoError(t, svc.Tasks.DeleteTask(ctx, admin, id))

	items, err := svc.Tasks.ListTasks(ctx, admin)
	require.NoError(t, err)
	_, ok := findTask(items, id)
	assert.False(t, ok)

	var remaining int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM task_hours WHERE task_id = ?", id).Scan(&remaining))
	assert.Zero(t, remaining)
}

func TestDenialsAreRecordedAsEvents(t *testing.T) {
	db, cleanup := testutil.SeededDB(t)
	defer cleanup()

	logger := logging.NewLogger(io.Discard, logging.ParseLevel("error"), db)
	svc := New(db, Options{Logger: logger})
	ctx := context.Background()

	sub := model.Identity{Email: store.DefaultSubadminEmail, Role: model.RoleSubadmin}
	require.ErrorIs(t, svc.Users.DeleteUser(ctx, sub, store.DefaultAdminEmail), ErrProtectedAccount)
	require.ErrorIs(t, svc.Users.DeleteUser(ctx, sub, store.DefaultUserEmail), ErrPermissionDenied)

	events, err := svc.Events.ListEvents(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 2)
	for _, e := range events {
		assert.Equal(t, model.EventLevelWarning, e.Level)
		assert.Equal(t, model.EventCategoryUser, e.Category)
	}
}
