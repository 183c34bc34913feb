package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"github.com/Zachkp/folio/internal/config"
	"github.com/Zachkp/folio/internal/content"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func testConfig() config.Config {
	cfg := config.Default()
	cfg.Mode = "test"
	cfg.DatabasePath = ":memory:"
	cfg.Port = "127.0.0.1:0"
	cfg.EnableRequestLogging = false
	cfg.Admin.Password = "s3cret"
	cfg.Admin.SessionSecret = "test-secret"
	cfg.ShutdownGracePeriod = time.Second
	return cfg
}

func TestNewServesSite(t *testing.T) {
	a, err := New(context.Background(), testConfig(), zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	for path, want := range map[string]int{
		"/healthz":         http.StatusOK,
		"/":                http.StatusOK,
		"/sections/hero":   http.StatusOK,
		"/admin/login":     http.StatusOK,
		"/admin/dashboard": http.StatusFound,
		"/no-such-page":    http.StatusNotFound,
	} {
		rec := httptest.NewRecorder()
		a.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, want, rec.Code, path)
	}

	sections, err := a.Repository().Sections.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, sections, len(content.SectionNames()))
}

func TestNewRejectsUnknownDriver(t *testing.T) {
	cfg := testConfig()
	cfg.Store.Driver = "mongo"
	_, err := New(context.Background(), cfg, zaptest.NewLogger(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown store driver")
}

func TestAuthFallbacks(t *testing.T) {
	logger := zaptest.NewLogger(t)

	cfg := testConfig()
	cfg.Mode = "debug"
	cfg.Admin.Username = ""
	cfg.Admin.Password = ""
	m, err := newAuthManager(cfg, logger)
	require.NoError(t, err)
	assert.NoError(t, m.Verify(devAdminUsername, devAdminPassword))

	cfg.Mode = "release"
	m, err = newAuthManager(cfg, logger)
	require.NoError(t, err)
	assert.Error(t, m.Verify(devAdminUsername, devAdminPassword))

	cfg.Admin.Password = "configured"
	m, err = newAuthManager(cfg, logger)
	require.NoError(t, err)
	assert.NoError(t, m.Verify(devAdminUsername, "configured"))
}

func TestRunStopsOnCancel(t *testing.T) {
	a, err := New(context.Background(), testConfig(), zaptest.NewLogger(t))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	// Run closed the storage already.
	assert.NoError(t, a.Close())
}
