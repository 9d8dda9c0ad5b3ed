package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"productcatalog/internal/accounts"
	"productcatalog/internal/catalog"
	"productcatalog/internal/config"
	"productcatalog/internal/db"
	"productcatalog/internal/db/dbtest"
	"productcatalog/internal/logger"
	"productcatalog/internal/respond"
)

func testConfig(t *testing.T) *config.Config {
	return &config.Config{
		App:     config.AppConfig{Env: config.AppEnvDev, Port: "0"},
		DB:      config.DBConfig{Driver: config.DriverSQLite},
		Session: config.SessionConfig{Secret: "test-secret", CookieName: "catalog_admin"},
		Media:   config.MediaConfig{Root: t.TempDir(), MaxUploadMB: 1},
	}
}

func newTestServer(t *testing.T, client *db.Client, logs *bytes.Buffer) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logg := logger.Nop()
	if logs != nil {
		logg = logger.New(logger.Options{ServiceName: "test", Output: logs})
	}
	return New(Deps{
		Config:   testConfig(t),
		Logger:   logg,
		DB:       client,
		Accounts: accounts.NewService(client, logg, accounts.CreateProfile),
		Catalog:  catalog.NewService(client, logg),
		Registry: prometheus.NewRegistry(),
	})
}

func get(s *Server, path string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, dbtest.Open(t), nil)
	rec := get(s, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ok":true}`, rec.Body.String())
}

func TestRequestIDAndLogging(t *testing.T) {
	var logs bytes.Buffer
	s := newTestServer(t, dbtest.Open(t), &logs)

	rec := get(s, "/health", http.Header{requestIDHeader: {"abc-123"}})
	assert.Equal(t, "abc-123", rec.Header().Get(requestIDHeader))

	rec = get(s, "/health", nil)
	assert.Len(t, rec.Header().Get(requestIDHeader), 36)

	var events []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(logs.String()), "\n") {
		var ev map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &ev), line)
		events = append(events, ev)
	}
	require.NotEmpty(t, events)
	first := events[0]
	assert.Equal(t, "request.start", first["message"])
	assert.Equal(t, "abc-123", first["request_id"])
	assert.Equal(t, "/health", first["path"])

	var completed int
	for _, ev := range events {
		if ev["message"] == "request.complete" {
			completed++
			assert.EqualValues(t, http.StatusOK, ev["status"])
		}
	}
	assert.Equal(t, 2, completed)
}

func TestRecoveryRendersInternalError(t *testing.T) {
	s := newTestServer(t, dbtest.Open(t), nil)
	s.engine.GET("/boom", func(c *gin.Context) { panic("kaboom") })

	rec := get(s, "/boom", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var env respond.ErrorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, "INTERNAL_ERROR", env.Error.Code)
	assert.NotContains(t, rec.Body.String(), "kaboom")
}

func TestNoRouteAndMetrics(t *testing.T) {
	s := newTestServer(t, dbtest.Open(t), nil)

	rec := get(s, "/nowhere", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "NOT_FOUND")

	get(s, "/health", nil)
	rec = get(s, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `http_requests_total{method="GET",route="/health",status="200"} 1`)
	assert.Contains(t, body, "catalog")
}

func TestMediaIsServed(t *testing.T) {
	s := newTestServer(t, dbtest.Open(t), nil)
	dir := filepath.Join(s.cfg.Media.Root, "product_images")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.png"), []byte("png"), 0o644))

	rec := get(s, "/media/product_images/a.png", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "png", rec.Body.String())
}

func TestAdminIsMounted(t *testing.T) {
	s := newTestServer(t, dbtest.Open(t), nil)
	assert.Equal(t, http.StatusUnauthorized, get(s, "/admin/products", nil).Code)
}

func TestRunShutsDownOnCancel(t *testing.T) {
	client, err := db.New(context.Background(), config.DBConfig{
		Driver: config.DriverSQLite,
		DSN:    "file:server_run?mode=memory&cache=shared",
	}, nil)
	require.NoError(t, err)

	s := newTestServer(t, client, nil)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	s.http.Addr = ln.Addr().String()
	require.NoError(t, ln.Close())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + s.http.Addr + "/health")
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(ShutdownTimeout + time.Second):
		t.Fatal("server did not stop")
	}
	assert.Error(t, client.Ping(context.Background()), "database closed on shutdown")
}
