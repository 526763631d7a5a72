package helpers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"messaging_backend/database"
	"messaging_backend/internal/app"
	"messaging_backend/internal/auth"
	"messaging_backend/internal/config"
	"messaging_backend/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// TestServer is the whole application on an in-memory sqlite database.
type TestServer struct {
	Server *httptest.Server
	DB     *gorm.DB
	Config *config.Config
	Tokens *auth.TokenManager

	sink *Buffer

	mu  sync.Mutex
	now time.Time
}

// Buffer collects request-log lines.
type Buffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *Buffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *Buffer) Lines() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	s := strings.TrimSpace(b.buf.String())
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

// NewTestServer starts the application. The clock is pinned to midday so the
// time window is open; mutate may adjust the config first.
func NewTestServer(t *testing.T, mutate func(*config.Config)) *TestServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger.Init("test")

	cfg := config.Default()
	cfg.Server.Env = "test"
	cfg.Database.Driver = "sqlite"
	cfg.JWT.Secret = "integration-secret"
	cfg.Pipeline.RateLimit = 1000
	if mutate != nil {
		mutate(&cfg)
	}

	db, err := database.OpenInMemory()
	require.NoError(t, err)

	tokens, err := auth.NewTokenManager(cfg.JWT.Secret, time.Hour)
	require.NoError(t, err)

	ts := &TestServer{
		DB:     db,
		Config: &cfg,
		Tokens: tokens,
		sink:   &Buffer{},
		now:    time.Date(2024, 5, 1, 12, 0, 0, 0, time.Local),
	}

	ctx, cancel := context.WithCancel(context.Background())
	router := app.SetupRouter(ctx, app.Deps{
		Config: &cfg,
		DB:     db,
		Tokens: tokens,
		Sink:   logger.NewRequestLog(ts.sink),
		Now:    ts.Now,
	})
	ts.Server = httptest.NewServer(router)

	t.Cleanup(func() {
		ts.Server.Close()
		cancel()
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return ts
}

func (ts *TestServer) Now() time.Time {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return ts.now
}

func (ts *TestServer) SetNow(now time.Time) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	ts.now = now
}

func (ts *TestServer) RequestLog() []string {
	return ts.sink.Lines()
}

// SendRequest sends body as JSON and returns the response with its body.
func (ts *TestServer) SendRequest(t *testing.T, method, path, token string, body interface{}) (*http.Response, string) {
	t.Helper()

	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		require.NoError(t, err)
		reqBody = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequest(method, ts.Server.URL+path, reqBody)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	res, err := ts.Server.Client().Do(req)
	require.NoError(t, err)
	defer res.Body.Close()

	data, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return res, string(data)
}

// Decode unmarshals a response body into out.
func Decode(t *testing.T, body string, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal([]byte(body), out), "body: %s", body)
}
