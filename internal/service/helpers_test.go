package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/pmt-go/internal/model"
	"github.com/olegiv/pmt-go/internal/store"
	"github.com/olegiv/pmt-go/internal/testutil"
)

type fixture struct {
	db    *sql.DB
	svc   *Services
	admin model.Identity
	sub   model.Identity
	user  model.Identity
}

// newFixture returns services over a seeded database.
func newFixture(t *testing.T, opts Options) *fixture {
	t.Helper()

	db, cleanup := testutil.SeededDB(t)
	t.Cleanup(cleanup)

	if opts.Logger == nil {
		opts.Logger = testutil.TestLoggerSilent()
	}

	return &fixture{
		db:    db,
		svc:   New(db, opts),
		admin: model.Identity{Email: store.DefaultAdminEmail, Role: model.RoleAdmin},
		sub:   model.Identity{Email: store.DefaultSubadminEmail, Role: model.RoleSubadmin},
		user:  model.Identity{Email: store.DefaultUserEmail, Role: model.RoleUser},
	}
}

func validInput(assignee string) TaskInput {
	return TaskInput{
		AssignedTo:    assignee,
		ProjectName:   "P1",
		ExpectedHours: 10,
		Status:        model.StatusStarted,
		Department:    model.DepartmentIT,
		Remark:        model.RemarkGreenFlag,
	}
}

func (f *fixture) createTask(t *testing.T, assignee string) string {
	t.Helper()
	id, err := f.svc.Tasks.CreateTask(context.Background(), f.admin, validInput(assignee))
	require.NoError(t, err)
	return id
}

// addUser creates an account and returns its identity.
func (f *fixture) addUser(t *testing.T, email string, role model.Role) model.Identity {
	t.Helper()
	_, err := f.svc.Users.CreateUser(context.Background(), f.admin, email, "secret", role)
	require.NoError(t, err)
	return model.Identity{Email: email, Role: role}
}

func (f *fixture) countRows(t *testing.T, query string, args ...any) int {
	t.Helper()
	var n int
	require.NoError(t, f.db.QueryRow(query, args...).Scan(&n))
	return n
}

// operationCount reads pmt_core_operations_total for op and result.
func operationCount(t *testing.T, op, result string) float64 {
	t.Helper()
	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != "pmt_core_operations_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			labels := map[string]string{}
			for _, lp := range m.GetLabel() {
				labels[lp.GetName()] = lp.GetValue()
			}
			if labels["op"] == op && labels["result"] == result {
				return m.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func ptr[T any](v T) *T { return &v }
