package analytics

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/Zachkp/folio/internal/sqlitedb"
)

type clock struct{ now time.Time }

func (c *clock) Now() time.Time { return c.now }

func newTestTracker(t *testing.T, c *clock) (*Tracker, *sql.DB) {
	t.Helper()
	db, err := sqlitedb.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewTracker(db, "pepper", zaptest.NewLogger(t), WithClock(c.Now)), db
}

func TestHashIP(t *testing.T) {
	a := HashIP("203.0.113.7", "salt")
	assert.Len(t, a, 16)
	assert.Equal(t, a, HashIP("203.0.113.7", "salt"))
	assert.NotEqual(t, a, HashIP("203.0.113.7", "other"))
	assert.NotEqual(t, a, HashIP("203.0.113.8", "salt"))
	assert.NotContains(t, a, "203")
}

func TestRandomSaltWhenUnset(t *testing.T) {
	tr := NewTracker(nil, "", nil)
	assert.Len(t, tr.salt, 64)
}

func TestStats(t *testing.T) {
	ctx := context.Background()
	c := &clock{now: time.Date(2025, 5, 20, 15, 0, 0, 0, time.UTC)}
	tr, _ := newTestTracker(t, c)

	c.now = c.now.Add(-10 * 24 * time.Hour)
	require.NoError(t, tr.Record(ctx, "1.1.1.1", "ua", "/"))
	c.now = c.now.Add(7 * 24 * time.Hour)
	require.NoError(t, tr.Record(ctx, "1.1.1.1", "ua", "/blog"))
	c.now = c.now.Add(3*24*time.Hour - 2*time.Hour)
	require.NoError(t, tr.Record(ctx, "2.2.2.2", "ua", "/"))
	require.NoError(t, tr.Record(ctx, "2.2.2.2", "ua", "/"))

	require.NoError(t, tr.RecordClick(ctx, "p1:repo", "Folio", "https://github.com/x/folio"))
	require.NoError(t, tr.RecordClick(ctx, "p1:repo", "Folio v2", "https://github.com/x/folio"))
	require.NoError(t, tr.RecordClick(ctx, "p2:live", "Demo", "https://demo.example.com"))

	stats, err := tr.Stats(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 4, stats.TotalVisitors)
	assert.EqualValues(t, 2, stats.UniqueVisitors)
	assert.EqualValues(t, 2, stats.VisitorsToday)
	assert.EqualValues(t, 3, stats.VisitorsThisWeek)
	assert.EqualValues(t, 2, stats.TotalLinks)
	assert.EqualValues(t, 3, stats.TotalClicks)
	require.Len(t, stats.TopLinks, 2)
	assert.Equal(t, "p1:repo", stats.TopLinks[0].Target)
	assert.Equal(t, "Folio v2", stats.TopLinks[0].Label)
	assert.EqualValues(t, 2, stats.TopLinks[0].Clicks)
	require.NotEmpty(t, stats.TopPaths)
	assert.Equal(t, PathStat{Path: "/", Views: 3}, stats.TopPaths[0])
	require.Len(t, stats.RecentVisitors, 4)
	assert.Equal(t, HashIP("2.2.2.2", "pepper"), stats.RecentVisitors[0].HashedIP)
}

func TestCleanup(t *testing.T) {
	ctx := context.Background()
	c := &clock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	tr, _ := newTestTracker(t, c)

	require.NoError(t, tr.Record(ctx, "1.1.1.1", "ua", "/old"))
	c.now = c.now.AddDate(1, 1, 0)
	require.NoError(t, tr.Record(ctx, "1.1.1.1", "ua", "/new"))

	n, err := tr.Cleanup(ctx, 365*24*time.Hour)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	visits, err := tr.Visitors(ctx, 10)
	require.NoError(t, err)
	require.Len(t, visits, 1)
	assert.Equal(t, "/new", visits[0].Path)
}

func TestRecorderDrainsOnShutdown(t *testing.T) {
	// Queued visits must all survive a cancelled context, whichever way
	// the select in Run resolves.
	for round := 0; round < 20; round++ {
		c := &clock{now: time.Now().UTC()}
		tr, _ := newTestTracker(t, c)
		rec := NewRecorder(tr, zaptest.NewLogger(t))

		for i := 0; i < 5; i++ {
			assert.True(t, rec.Track("9.9.9.9", "ua", "/"))
		}

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		require.NoError(t, rec.Run(ctx))

		stats, err := tr.Stats(context.Background())
		require.NoError(t, err)
		require.EqualValues(t, 5, stats.TotalVisitors, "round %d", round)
	}
}

func TestRecorderWritesWhileRunning(t *testing.T) {
	c := &clock{now: time.Now().UTC()}
	tr, _ := newTestTracker(t, c)
	rec := NewRecorder(tr, zaptest.NewLogger(t))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- rec.Run(ctx) }()

	for i := 0; i < 10; i++ {
		require.True(t, rec.Track("9.9.9.9", "ua", "/"))
	}
	cancel()
	require.NoError(t, <-done)

	stats, err := tr.Stats(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 10, stats.TotalVisitors)
}

func TestRecorderDropsWhenFull(t *testing.T) {
	rec := NewRecorder(nil, zaptest.NewLogger(t))
	for i := 0; i < recorderBuffer; i++ {
		require.True(t, rec.Track("ip", "ua", "/"))
	}
	assert.False(t, rec.Track("ip", "ua", "/"))
}

func TestMiddlewareSkipsUntracked(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec := NewRecorder(nil, zaptest.NewLogger(t))

	r := gin.New()
	r.Use(Middleware(rec))
	ok := func(c *gin.Context) { c.String(http.StatusOK, "ok") }
	r.GET("/", ok)
	r.GET("/blog/:slug", func(c *gin.Context) { c.String(http.StatusNotFound, "missing") })
	r.GET("/static/site.css", ok)
	r.GET("/admin/dashboard", ok)
	r.POST("/contact", ok)

	do := func(method, path string, headers map[string]string) {
		req := httptest.NewRequest(method, path, nil)
		for k, v := range headers {
			req.Header.Set(k, v)
		}
		r.ServeHTTP(httptest.NewRecorder(), req)
	}

	do(http.MethodGet, "/", nil)
	do(http.MethodGet, "/", map[string]string{"DNT": "1"})
	do(http.MethodGet, "/", map[string]string{"HX-Request": "true"})
	do(http.MethodGet, "/blog/missing", nil)
	do(http.MethodGet, "/static/site.css", nil)
	do(http.MethodGet, "/admin/dashboard", nil)
	do(http.MethodPost, "/contact", nil)

	require.Len(t, rec.events, 1)
	ev := <-rec.events
	assert.Equal(t, "/", ev.path)
}
