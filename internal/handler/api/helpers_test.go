package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/olegiv/pmt-go/internal/middleware"
	"github.com/olegiv/pmt-go/internal/model"
	"github.com/olegiv/pmt-go/internal/service"
	"github.com/olegiv/pmt-go/internal/session"
	"github.com/olegiv/pmt-go/internal/store"
	"github.com/olegiv/pmt-go/internal/testutil"
)

type testServer struct {
	*httptest.Server
	svc *service.Services
}

// newTestServer serves the full router over a seeded database.
func newTestServer(t *testing.T) *testServer {
	t.Helper()

	db, cleanup := testutil.SeededDB(t)
	t.Cleanup(cleanup)

	logger := testutil.TestLoggerSilent()
	svc := service.New(db, service.Options{Logger: logger})
	sm := session.New(db, true)
	lp := middleware.NewLoginProtection(middleware.LoginProtectionConfig{IPRateLimit: 1000, IPBurst: 1000, MaxFailedAttempts: 3})
	t.Cleanup(lp.Close)

	h := NewHandler(db, svc, sm, nil, lp, logger)
	srv := httptest.NewServer(NewRouter(h, RouterConfig{IsDevelopment: true, RateLimit: 1000, RateBurst: 1000}))
	t.Cleanup(srv.Close)

	return &testServer{Server: srv, svc: svc}
}

// client returns an HTTP client with its own cookie jar.
func (s *testServer) client(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{Jar: jar}
}

// loginAs returns a client with an authenticated session.
func (s *testServer) loginAs(t *testing.T, email, password string) *http.Client {
	t.Helper()
	c := s.client(t)
	resp := s.do(t, c, http.MethodPost, "/api/login", map[string]string{"email": email, "password": password})
	require.Equal(t, http.StatusOK, resp.StatusCode, "login %s", email)
	return c
}

func (s *testServer) admin(t *testing.T) *http.Client {
	return s.loginAs(t, store.DefaultAdminEmail, store.DefaultAdminPassword)
}

func (s *testServer) subadmin(t *testing.T) *http.Client {
	return s.loginAs(t, store.DefaultSubadminEmail, store.DefaultSubadminPassword)
}

func (s *testServer) user(t *testing.T) *http.Client {
	return s.loginAs(t, store.DefaultUserEmail, store.DefaultUserPassword)
}

type testResponse struct {
	StatusCode int
	Body       []byte
}

// do sends body as JSON (or a raw string) and reads the whole response.
func (s *testServer) do(t *testing.T, c *http.Client, method, path string, body any) testResponse {
	t.Helper()

	var r io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		r = bytes.NewBufferString(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		r = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, s.URL+path, r)
	require.NoError(t, err)
	if r != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return testResponse{StatusCode: resp.StatusCode, Body: data}
}

// data decodes the "data" member of a success envelope.
func (r testResponse) data(t *testing.T, dst any) {
	t.Helper()
	var env struct {
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(r.Body, &env), string(r.Body))
	require.NoError(t, json.Unmarshal(env.Data, dst), string(r.Body))
}

// errorCode decodes the code of an error envelope.
func (r testResponse) errorCode(t *testing.T) string {
	t.Helper()
	var env ErrorResponse
	require.NoError(t, json.Unmarshal(r.Body, &env), string(r.Body))
	return env.Error.Code
}

func taskBody(assignee string) map[string]any {
	return map[string]any{
		"assigned_to":    assignee,
		"project_name":   "Website",
		"expected_hours": 8,
		"status":         "Started",
		"department":     "IT",
		"remark":         "Green Flag",
		"message":        "kickoff",
	}
}

// createTask creates a task as admin and returns its id.
func (s *testServer) createTask(t *testing.T, admin *http.Client, assignee string) string {
	t.Helper()
	resp := s.do(t, admin, http.MethodPost, "/api/tasks", taskBody(assignee))
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(resp.Body))
	var created CreateTaskResponse
	resp.data(t, &created)
	require.NotEmpty(t, created.ID)
	return created.ID
}

func jsonUnmarshal(data []byte, dst any) error {
	return json.Unmarshal(data, dst)
}

// withAdmin returns the request context carrying the seeded admin identity.
func withAdmin(r *http.Request) context.Context {
	return middleware.WithIdentity(r.Context(), model.Identity{Email: store.DefaultAdminEmail, Role: model.RoleAdmin})
}
