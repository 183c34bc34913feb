// Package admin is the authenticated dashboard: analytics, messages, content
// editing and a JSON API over the same content.
package admin

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Zachkp/folio/internal/analytics"
	"github.com/Zachkp/folio/internal/auth"
	"github.com/Zachkp/folio/internal/content"
	"github.com/Zachkp/folio/internal/ratelimit"
)

const visitorPageSize = 200

// Deps are the collaborators of the dashboard. Tracker may be nil when
// analytics is disabled.
type Deps struct {
	Repo         *content.Repository
	Auth         *auth.Manager
	Tracker      *analytics.Tracker
	LoginLimiter *ratelimit.Limiter
	Retention    time.Duration
	Logger       *zap.Logger
}

// Handler serves everything under /admin.
type Handler struct {
	repo         *content.Repository
	auth         *auth.Manager
	tracker      *analytics.Tracker
	loginLimiter *ratelimit.Limiter
	retention    time.Duration
	logger       *zap.Logger
}

// New builds a Handler.
func New(d Deps) *Handler {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		repo:         d.Repo,
		auth:         d.Auth,
		tracker:      d.Tracker,
		loginLimiter: d.LoginLimiter,
		retention:    d.Retention,
		logger:       logger,
	}
}

// Register mounts the login pages and the protected dashboard.
func (h *Handler) Register(r gin.IRouter) {
	r.GET("/admin", func(c *gin.Context) { c.Redirect(http.StatusFound, "/admin/dashboard") })
	r.GET("/admin/login", h.loginPage)
	r.POST("/admin/login", ratelimit.Middleware(h.loginLimiter, h.loginLimited), h.login)
	r.GET("/admin/logout", h.logout)

	g := r.Group("/admin", h.auth.Middleware())
	g.GET("/dashboard", h.dashboard)
	g.GET("/visitors", h.visitors)
	g.GET("/links", h.links)
	g.GET("/messages", h.messages)
	g.POST("/messages/:id/read", h.markRead)

	g.GET("/content/:collection", h.contentList)
	g.GET("/content/:collection/:id", h.contentEdit)
	g.POST("/content/:collection/:id", h.contentSave)
	g.POST("/content/:collection/:id/delete", h.contentDelete)

	api := g.Group("/api")
	api.GET("/stats", h.apiStats)
	api.GET("/sections/:name", h.apiGetSection)
	api.PUT("/sections/:name", h.apiPutSection)
	api.GET("/profile", h.apiGetProfile)
	api.PUT("/profile", h.apiPutProfile)
	api.GET("/:collection", h.apiList)
	api.POST("/:collection", h.apiCreate)
	api.GET("/:collection/:id", h.apiGet)
	api.PUT("/:collection/:id", h.apiPut)
	api.DELETE("/:collection/:id", h.apiDelete)

	g.GET("/export/stats", h.exportStats)
	g.GET("/export/content", h.exportContent)
	g.POST("/privacy/cleanup", h.privacyCleanup)
}

// clientID is what logs record about a client: a hash, never the address.
func (h *Handler) clientID(c *gin.Context) zap.Field {
	if h.tracker == nil {
		return zap.Skip()
	}
	return zap.String("client", h.tracker.HashIP(c.ClientIP()))
}

func (h *Handler) loginPage(c *gin.Context) {
	c.HTML(http.StatusOK, "admin-login.html", gin.H{"Title": "Admin Login"})
}

func (h *Handler) login(c *gin.Context) {
	if err := h.auth.Login(c, c.PostForm("username"), c.PostForm("password")); err != nil {
		h.logger.Warn("failed admin login attempt", h.clientID(c))
		c.HTML(http.StatusUnauthorized, "admin-login.html", gin.H{
			"Title": "Admin Login",
			"error": "Invalid credentials",
		})
		return
	}
	h.logger.Info("admin login successful", h.clientID(c))
	c.Redirect(http.StatusFound, "/admin/dashboard")
}

func (h *Handler) loginLimited(c *gin.Context) {
	c.HTML(http.StatusTooManyRequests, "admin-login.html", gin.H{
		"Title": "Admin Login",
		"error": "Too many attempts. Please wait a minute.",
	})
}

func (h *Handler) logout(c *gin.Context) {
	h.auth.Logout(c)
	h.logger.Info("admin logout", h.clientID(c))
	c.Redirect(http.StatusFound, "/admin/login")
}

type collectionCount struct {
	Name  string
	Count int
}

func (h *Handler) stats(ctx context.Context) (*analytics.Stats, error) {
	if h.tracker == nil {
		return &analytics.Stats{}, nil
	}
	return h.tracker.Stats(ctx)
}

func (h *Handler) dashboard(c *gin.Context) {
	ctx := c.Request.Context()
	stats, err := h.stats(ctx)
	if err != nil {
		h.renderError(c, "Failed to load statistics", err)
		return
	}

	counts := make([]collectionCount, 0, len(h.repo.Editors()))
	for _, e := range h.repo.Editors() {
		n, err := e.Count(ctx)
		if err != nil {
			h.renderError(c, "Failed to load content", err)
			return
		}
		counts = append(counts, collectionCount{Name: e.Name(), Count: n})
	}

	messages, err := h.repo.Messages.List(ctx)
	if err != nil {
		h.renderError(c, "Failed to load messages", err)
		return
	}
	unread := 0
	for _, m := range messages {
		if !m.Read {
			unread++
		}
	}

	c.HTML(http.StatusOK, "admin-dashboard.html", gin.H{
		"Title":         "Dashboard",
		"stats":         stats,
		"counts":        counts,
		"unread":        unread,
		"retentionDays": int(h.retention.Hours() / 24),
	})
}

func (h *Handler) visitors(c *gin.Context) {
	var visitors []analytics.Visit
	if h.tracker != nil {
		var err error
		if visitors, err = h.tracker.Visitors(c.Request.Context(), visitorPageSize); err != nil {
			h.renderError(c, "Failed to load visitors", err)
			return
		}
	}
	c.HTML(http.StatusOK, "admin-visitors.html", gin.H{"Title": "Visitors", "visitors": visitors})
}

func (h *Handler) links(c *gin.Context) {
	var links []analytics.LinkStat
	if h.tracker != nil {
		var err error
		if links, err = h.tracker.Links(c.Request.Context()); err != nil {
			h.renderError(c, "Failed to load links", err)
			return
		}
	}
	c.HTML(http.StatusOK, "admin-links.html", gin.H{"Title": "Links", "links": links})
}

func (h *Handler) messages(c *gin.Context) {
	messages, err := h.repo.Messages.List(c.Request.Context())
	if err != nil {
		h.renderError(c, "Failed to load messages", err)
		return
	}
	c.HTML(http.StatusOK, "admin-messages.html", gin.H{"Title": "Messages", "messages": messages})
}

func (h *Handler) markRead(c *gin.Context) {
	ctx := c.Request.Context()
	msg, err := h.repo.Messages.Get(ctx, c.Param("id"))
	if err != nil {
		if content.IsNotFound(err) {
			c.HTML(http.StatusNotFound, "admin-error.html", gin.H{"Title": "Not found", "error": "Message not found"})
			return
		}
		h.renderError(c, "Failed to load message", err)
		return
	}
	msg.Read = true
	if err := h.repo.Messages.Save(ctx, &msg); err != nil {
		h.renderError(c, "Failed to update message", err)
		return
	}
	c.Redirect(http.StatusSeeOther, "/admin/messages")
}

func (h *Handler) exportStats(c *gin.Context) {
	stats, err := h.stats(c.Request.Context())
	if err != nil {
		h.apiError(c, err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename=admin-stats.json")
	h.logger.Info("admin stats exported", h.clientID(c))
	c.JSON(http.StatusOK, stats)
}

func (h *Handler) exportContent(c *gin.Context) {
	bundle, err := h.repo.Export(c.Request.Context())
	if err != nil {
		h.apiError(c, err)
		return
	}
	c.Header("Content-Type", "application/yaml")
	c.Header("Content-Disposition", "attachment; filename=content.yaml")
	c.Status(http.StatusOK)
	if err := bundle.WriteYAML(c.Writer); err != nil {
		h.logger.Error("error writing content export", zap.Error(err))
		return
	}
	h.logger.Info("admin content exported", h.clientID(c))
}

func (h *Handler) privacyCleanup(c *gin.Context) {
	if h.tracker == nil {
		c.JSON(http.StatusOK, gin.H{"message": "Analytics is disabled", "removed": 0})
		return
	}
	removed, err := h.tracker.Cleanup(c.Request.Context(), h.retention)
	if err != nil {
		h.apiError(c, err)
		return
	}
	h.logger.Info("privacy cleanup", zap.Int64("removed", removed), h.clientID(c))
	c.JSON(http.StatusOK, gin.H{"message": "Privacy cleanup complete", "removed": removed})
}

func (h *Handler) renderError(c *gin.Context, message string, err error) {
	_ = c.Error(err)
	h.logger.Error(message, zap.Error(err))
	c.HTML(http.StatusInternalServerError, "admin-error.html", gin.H{"Title": "Error", "error": message})
}
