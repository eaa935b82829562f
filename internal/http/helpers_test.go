package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tazhibayda/profile-service/internal/auth"
	api "github.com/tazhibayda/profile-service/internal/http"
	"github.com/tazhibayda/profile-service/internal/profile"
	"github.com/tazhibayda/profile-service/internal/repo"
	"github.com/tazhibayda/profile-service/internal/validate"
)

var clock = func() time.Time { return time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC) }

type testEnv struct {
	T      *testing.T
	Store  *repo.Memory
	Router *gin.Engine
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Status  int             `json:"status"`
	Errors  []string        `json:"errors"`
	Data    json.RawMessage `json:"data"`
}

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func newTestEnv(t *testing.T, mutate func(*api.RouterOptions, map[string]api.Pinger)) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := repo.NewMemory()
	bridge := auth.NewBridge(store, auth.Options{JWTSecret: "test-secret-0123456789", Log: zap.NewNop()})
	svc := profile.NewService(store, validate.New(clock), nil, zap.NewNop())

	opts := api.RouterOptions{CORSOrigins: []string{"http://localhost:5173"}, RequireOwner: true}
	health := map[string]api.Pinger{"store": store}
	if mutate != nil {
		mutate(&opts, health)
	}
	h := api.NewHandler(svc, bridge, health, zap.NewNop())
	return &testEnv{T: t, Store: store, Router: api.NewRouter(h, opts)}
}

func (e *testEnv) do(method, path, body, token string) *httptest.ResponseRecorder {
	e.T.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	e.Router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) decode(w *httptest.ResponseRecorder) envelope {
	e.T.Helper()
	var env envelope
	require.NoError(e.T, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env
}

// signup registers and logs in a local account, returning its id and token.
func (e *testEnv) signup(username string) (string, string) {
	e.T.Helper()
	creds := `{"username":"` + username + `","password":"pw"}`
	w := e.do("POST", "/api/auth/register", creds, "")
	require.Equal(e.T, 201, w.Code, w.Body.String())

	w = e.do("POST", "/api/auth/login", creds, "")
	require.Equal(e.T, 200, w.Code, w.Body.String())
	var login struct {
		UserID      string `json:"userId"`
		AccessToken string `json:"accessToken"`
	}
	require.NoError(e.T, json.Unmarshal(e.decode(w).Data, &login))
	require.NotEmpty(e.T, login.AccessToken)
	return login.UserID, login.AccessToken
}
