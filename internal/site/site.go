// Package site serves the public portfolio: full pages, per-section HTMX
// fragments, the interactive widgets and the live update stream.
package site

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Zachkp/folio/internal/analytics"
	"github.com/Zachkp/folio/internal/content"
	"github.com/Zachkp/folio/internal/live"
	"github.com/Zachkp/folio/internal/mail"
	"github.com/Zachkp/folio/internal/ratelimit"
	"github.com/Zachkp/folio/internal/web"
)

// Deps are the collaborators of the public site. Tracker may be nil when
// analytics is disabled.
type Deps struct {
	Repo           *content.Repository
	Hub            *live.Hub
	Tracker        *analytics.Tracker
	Mailer         mail.Mailer
	ContactLimiter *ratelimit.Limiter
	Retention      time.Duration
	Logger         *zap.Logger
}

// Server holds the public handlers.
type Server struct {
	repo           *content.Repository
	hub            *live.Hub
	tracker        *analytics.Tracker
	mailer         mail.Mailer
	contactLimiter *ratelimit.Limiter
	retention      time.Duration
	logger         *zap.Logger
}

// New builds a Server. A nil Mailer falls back to logging submissions.
func New(d Deps) *Server {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	mailer := d.Mailer
	if mailer == nil {
		mailer = mail.LogMailer{Logger: logger}
	}
	return &Server{
		repo:           d.Repo,
		hub:            d.Hub,
		tracker:        d.Tracker,
		mailer:         mailer,
		contactLimiter: d.ContactLimiter,
		retention:      d.Retention,
		logger:         logger,
	}
}

// Register mounts the public routes.
func (s *Server) Register(r gin.IRouter) {
	r.StaticFS("/static", web.Static())

	r.GET("/", s.index)
	r.GET("/sections/:name", s.sectionFragment)
	r.GET("/blog", s.blog)
	r.GET("/blog/:slug", s.post)
	r.GET("/projects/:id", s.project)
	r.GET("/testimonials", s.testimonials)
	r.GET("/game", s.newGame)
	r.POST("/game/move", s.move)
	r.GET("/contact-form", s.contactForm)
	r.POST("/contact", ratelimit.Middleware(s.contactLimiter, s.contactLimited), s.contact)
	r.GET("/live", s.stream)
	r.GET("/go/:id", s.outbound)
	r.GET("/privacy", s.privacy)
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}

// page is the chrome shared by full pages.
type page struct {
	Title   string
	Profile content.Profile
	Nav     []content.SectionSettings
}

func (s *Server) page(ctx context.Context, title string, sections []content.SectionSettings) (page, error) {
	profile, err := s.repo.Profile(ctx)
	if err != nil {
		return page{}, err
	}
	if sections == nil {
		if sections, err = s.repo.SectionsInOrder(ctx); err != nil {
			return page{}, err
		}
	}
	p := page{Title: profile.Name, Profile: profile}
	if title != "" {
		p.Title = title + " | " + profile.Name
	}
	for _, sec := range sections {
		if sec.Enabled && sec.ShowInNav {
			p.Nav = append(p.Nav, sec)
		}
	}
	return p, nil
}

func (s *Server) index(c *gin.Context) {
	ctx := c.Request.Context()
	sections, err := s.repo.SectionsInOrder(ctx)
	if err != nil {
		s.fail(c, err)
		return
	}
	pg, err := s.page(ctx, "", sections)
	if err != nil {
		s.fail(c, err)
		return
	}

	views := make([]sectionView, 0, len(sections))
	for _, settings := range sections {
		if !settings.Enabled {
			continue
		}
		v, err := s.loadSection(ctx, settings, pg.Profile)
		if err != nil {
			s.fail(c, err)
			return
		}
		views = append(views, v)
	}
	c.HTML(http.StatusOK, "index.html", gin.H{"Page": pg, "Sections": views})
}

func (s *Server) sectionFragment(c *gin.Context) {
	ctx := c.Request.Context()
	settings, err := s.repo.Section(ctx, c.Param("name"))
	if errors.Is(err, content.ErrUnknownSection) {
		c.String(http.StatusNotFound, "unknown section")
		return
	}
	if err != nil {
		s.fail(c, err)
		return
	}
	if !settings.Enabled {
		// An empty 200 lets HTMX swap the disabled section out of the page.
		c.Status(http.StatusOK)
		return
	}
	profile, err := s.repo.Profile(ctx)
	if err != nil {
		s.fail(c, err)
		return
	}
	v, err := s.loadSection(ctx, settings, profile)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.HTML(http.StatusOK, "section", v)
}

func (s *Server) blog(c *gin.Context) {
	ctx := c.Request.Context()
	posts, err := s.repo.PublishedPosts(ctx)
	if err != nil {
		s.fail(c, err)
		return
	}
	pg, err := s.page(ctx, "Blog", nil)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.HTML(http.StatusOK, "blog.html", gin.H{"Page": pg, "Posts": posts})
}

func (s *Server) post(c *gin.Context) {
	ctx := c.Request.Context()
	post, err := s.repo.PostBySlug(ctx, c.Param("slug"), false)
	if err != nil {
		s.fail(c, err)
		return
	}
	pg, err := s.page(ctx, post.Title, nil)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.HTML(http.StatusOK, "post.html", gin.H{"Page": pg, "Post": post})
}

func (s *Server) project(c *gin.Context) {
	ctx := c.Request.Context()
	project, err := s.repo.Projects.Get(ctx, c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	pg, err := s.page(ctx, project.Title, nil)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.HTML(http.StatusOK, "project.html", gin.H{"Page": pg, "Project": project})
}

// outbound counts a click on a project link and redirects to it.
func (s *Server) outbound(c *gin.Context) {
	ctx := c.Request.Context()
	project, err := s.repo.Projects.Get(ctx, c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}

	to := c.DefaultQuery("to", "repo")
	var url string
	switch to {
	case "repo":
		url = project.RepoURL
	case "live":
		url = project.LiveURL
	}
	if url == "" {
		s.renderError(c, http.StatusNotFound, "That link does not exist.")
		return
	}

	if s.tracker != nil && c.GetHeader("DNT") != "1" {
		target := project.ID + ":" + to
		if err := s.tracker.RecordClick(ctx, target, project.Title+" ("+to+")", url); err != nil {
			s.logger.Warn("error recording link click", zap.String("target", target), zap.Error(err))
		}
	}
	c.Redirect(http.StatusFound, url)
}

func (s *Server) privacy(c *gin.Context) {
	pg, err := s.page(c.Request.Context(), "Privacy Policy", nil)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.HTML(http.StatusOK, "privacy.html", gin.H{
		"Page":          pg,
		"RetentionDays": int(s.retention.Hours() / 24),
	})
}

// fail maps an error to a status and renders the error page. Details only
// go to the log.
func (s *Server) fail(c *gin.Context, err error) {
	if content.IsNotFound(err) {
		s.renderError(c, http.StatusNotFound, "The page you are looking for does not exist.")
		return
	}
	_ = c.Error(err)
	s.logger.Error("request failed", zap.String("path", c.Request.URL.Path), zap.Error(err))
	s.renderError(c, http.StatusInternalServerError, "Something went wrong. Please try again later.")
}

// NotFound answers unknown routes with the error page.
func (s *Server) NotFound(c *gin.Context) {
	s.renderError(c, http.StatusNotFound, "The page you are looking for does not exist.")
}

func (s *Server) renderError(c *gin.Context, status int, message string) {
	if c.GetHeader("HX-Request") == "true" {
		c.String(status, message)
		return
	}
	pg := page{Title: http.StatusText(status), Profile: content.DefaultProfile()}
	if profile, err := s.repo.Profile(c.Request.Context()); err == nil {
		pg.Profile = profile
	}
	c.HTML(status, "error.html", gin.H{"Page": pg, "Status": status, "Message": message})
}
