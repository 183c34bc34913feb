package web

import (
	"context"
	"io"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func renderString(t *testing.T, r *Renderer, name string, data any) string {
	t.Helper()
	rec := httptest.NewRecorder()
	require.NoError(t, r.Instance(name, data).Render(rec))
	return rec.Body.String()
}

func TestEmbeddedTemplates(t *testing.T) {
	r, err := NewRenderer("", zaptest.NewLogger(t))
	require.NoError(t, err)

	for _, name := range []string{
		"index.html", "section", "carousel.html", "game.html", "contact.html",
		"contact-success.html", "contact-error.html", "blog.html", "post.html",
		"project.html", "privacy.html", "error.html", "admin-login.html",
		"admin-dashboard.html", "admin-visitors.html", "admin-links.html",
		"admin-messages.html", "admin-content.html", "admin-edit.html", "admin-error.html",
	} {
		assert.True(t, r.Has(name), name)
	}

	out := renderString(t, r, "contact-success.html", gin.H{"success": "Thanks <friend>"})
	assert.Contains(t, out, "Thanks &lt;friend&gt;")
}

func TestReloadFromDir(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hello.html")
	require.NoError(t, os.WriteFile(path, []byte(`hello {{.}}`), 0o644))

	r, err := NewRenderer(dir, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.Equal(t, "hello world", renderString(t, r, "hello.html", "world"))

	require.NoError(t, os.WriteFile(path, []byte(`{{if}}`), 0o644))
	require.Error(t, r.Reload())
	assert.Equal(t, "hello world", renderString(t, r, "hello.html", "world"), "broken reload keeps previous set")
}

func TestWatchReloads(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hello.html")
	require.NoError(t, os.WriteFile(path, []byte(`v1`), 0o644))

	r, err := NewRenderer(dir, zaptest.NewLogger(t))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Watch(ctx) }()
	defer func() {
		cancel()
		require.NoError(t, <-done)
	}()

	// Give the watcher time to register before writing.
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte(`v2`), 0o644))

	assert.Eventually(t, func() bool {
		rec := httptest.NewRecorder()
		if err := r.Instance("hello.html", nil).Render(rec); err != nil {
			return false
		}
		return rec.Body.String() == "v2"
	}, 3*time.Second, 50*time.Millisecond)
}

func TestWatchEmbeddedReturns(t *testing.T) {
	r, err := NewRenderer("", nil)
	require.NoError(t, err)
	assert.NoError(t, r.Watch(context.Background()))
}

func TestStatic(t *testing.T) {
	f, err := Static().Open("site.css")
	require.NoError(t, err)
	defer f.Close()
	body, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), ".carousel-track"))
}

func TestFuncs(t *testing.T) {
	assert.Equal(t, []int{0, 1, 2}, seq(3))
	assert.Empty(t, seq(-1))
	assert.Equal(t, "", formatDate(time.Time{}))
	assert.Equal(t, "Mar 4, 2025", formatDate(time.Date(2025, 3, 4, 0, 0, 0, 0, time.UTC)))

	percent := Funcs()["percent"].(func(int64, int64) int64)
	assert.Equal(t, int64(25), percent(1, 4))
	assert.Equal(t, int64(0), percent(1, 0))
}
