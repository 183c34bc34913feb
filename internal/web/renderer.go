// Package web holds the HTML templates and static assets shared by the public
// site and the admin dashboard.
package web

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/gin-gonic/gin/render"
	"go.uber.org/zap"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

const (
	templatePattern = "*.html"
	debounceDur     = 300 * time.Millisecond
)

// Renderer implements gin's render.HTMLRender over a template set that can
// be swapped while requests are in flight.
type Renderer struct {
	dir    string
	logger *zap.Logger
	funcs  template.FuncMap
	tmpl   atomic.Pointer[template.Template]
}

// NewRenderer parses the embedded templates, or the *.html files in dir when
// dir is set.
func NewRenderer(dir string, logger *zap.Logger) (*Renderer, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Renderer{dir: dir, logger: logger, funcs: Funcs()}
	if err := r.Reload(); err != nil {
		return nil, err
	}
	return r, nil
}

// Instance satisfies render.HTMLRender.
func (r *Renderer) Instance(name string, data any) render.Render {
	return render.HTML{Template: r.tmpl.Load(), Name: name, Data: data}
}

// Has reports whether a template is defined.
func (r *Renderer) Has(name string) bool {
	return r.tmpl.Load().Lookup(name) != nil
}

// Reload re-parses the template set. On error the previous set stays live.
func (r *Renderer) Reload() error {
	var fsys fs.FS
	if r.dir != "" {
		fsys = os.DirFS(r.dir)
	} else {
		sub, err := fs.Sub(templateFS, "templates")
		if err != nil {
			return fmt.Errorf("open embedded templates: %w", err)
		}
		fsys = sub
	}

	t, err := template.New("").Funcs(r.funcs).ParseFS(fsys, templatePattern)
	if err != nil {
		return fmt.Errorf("parse templates: %w", err)
	}
	r.tmpl.Store(t)
	return nil
}

// Watch reloads templates from disk when files in dir change. It returns
// immediately when templates are embedded.
func (r *Renderer) Watch(ctx context.Context) error {
	if r.dir == "" {
		return nil
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create template watcher: %w", err)
	}
	defer watcher.Close()
	if err := watcher.Add(r.dir); err != nil {
		return fmt.Errorf("watch %s: %w", r.dir, err)
	}
	r.logger.Info("watching templates", zap.String("dir", r.dir))

	ticker := time.NewTicker(debounceDur / 3)
	defer ticker.Stop()
	var pending time.Time

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Ext(event.Name) != ".html" {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) != 0 {
				pending = time.Now()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			r.logger.Warn("template watcher error", zap.Error(err))
		case <-ticker.C:
			if pending.IsZero() || time.Since(pending) < debounceDur {
				continue
			}
			pending = time.Time{}
			if err := r.Reload(); err != nil {
				r.logger.Error("template reload failed", zap.Error(err))
				continue
			}
			r.logger.Info("templates reloaded")
		}
	}
}

// Static serves the embedded assets.
func Static() http.FileSystem {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.FS(sub)
}
