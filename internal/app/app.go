// Package app wires configuration, storage and handlers into a runnable
// server.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Zachkp/folio/internal/admin"
	"github.com/Zachkp/folio/internal/analytics"
	"github.com/Zachkp/folio/internal/auth"
	"github.com/Zachkp/folio/internal/config"
	"github.com/Zachkp/folio/internal/content"
	"github.com/Zachkp/folio/internal/docstore"
	"github.com/Zachkp/folio/internal/live"
	"github.com/Zachkp/folio/internal/logging"
	"github.com/Zachkp/folio/internal/mail"
	"github.com/Zachkp/folio/internal/ratelimit"
	"github.com/Zachkp/folio/internal/site"
	"github.com/Zachkp/folio/internal/sqlitedb"
	"github.com/Zachkp/folio/internal/web"
)

const (
	devAdminUsername = "admin"
	devAdminPassword = "admin123"
)

// App wires all components together.
type App struct {
	cfg      config.Config
	logger   *zap.Logger
	db       *sql.DB
	store    docstore.Store
	repo     *content.Repository
	hub      *live.Hub
	tracker  *analytics.Tracker
	recorder *analytics.Recorder
	renderer *web.Renderer
	engine   *gin.Engine
	server   *http.Server
}

// New builds the application. The returned App owns the database and the
// document store; Run closes them on the way out, Close does so when Run is
// never called.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := sqlitedb.Open(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	a := &App{cfg: cfg, logger: logger, db: db}
	if err := a.build(ctx); err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) build(ctx context.Context) error {
	cfg, logger := a.cfg, a.logger

	store, err := OpenStore(ctx, cfg, a.db, logger)
	if err != nil {
		return err
	}
	a.store = store
	a.repo = content.NewRepository(store)
	seeded, err := a.repo.EnsureDefaults(ctx)
	if err != nil {
		return fmt.Errorf("seed default content: %w", err)
	}
	if seeded > 0 {
		logger.Info("seeded default content", zap.Int("documents", seeded))
	}

	a.hub = live.NewHub(logger)
	if cfg.Analytics.Enabled {
		a.tracker = analytics.NewTracker(a.db, cfg.Analytics.Salt, logger)
		a.recorder = analytics.NewRecorder(a.tracker, logger)
	}

	if a.renderer, err = web.NewRenderer(cfg.TemplatesDir, logger); err != nil {
		return fmt.Errorf("load templates: %w", err)
	}

	manager, err := newAuthManager(cfg, logger)
	if err != nil {
		return err
	}

	var mailer mail.Mailer = mail.LogMailer{Logger: logger}
	if cfg.SMTP.Configured() {
		smtpMailer, err := mail.NewSMTP(mail.SMTPConfig{
			Host: cfg.SMTP.Host,
			Port: cfg.SMTP.Port,
			User: cfg.SMTP.User,
			Pass: cfg.SMTP.Pass,
			To:   cfg.SMTP.To,
		}, logger)
		if err != nil {
			return fmt.Errorf("configure smtp: %w", err)
		}
		mailer = smtpMailer
	} else {
		logger.Warn("SMTP credentials not configured, contact messages are only stored")
	}

	gin.SetMode(cfg.Mode)
	engine := gin.New()
	engine.Use(logging.GinRecovery(logger))
	if cfg.EnableRequestLogging {
		engine.Use(logging.GinLogger(logger))
	}
	if a.recorder != nil {
		engine.Use(analytics.Middleware(a.recorder))
	}
	engine.HTMLRender = a.renderer

	public := site.New(site.Deps{
		Repo:           a.repo,
		Hub:            a.hub,
		Tracker:        a.tracker,
		Mailer:         mailer,
		ContactLimiter: ratelimit.New(cfg.RateLimit.ContactRPS, cfg.RateLimit.ContactBurst),
		Retention:      cfg.Analytics.Retention,
		Logger:         logger,
	})
	public.Register(engine)
	admin.New(admin.Deps{
		Repo:         a.repo,
		Auth:         manager,
		Tracker:      a.tracker,
		LoginLimiter: ratelimit.New(cfg.RateLimit.LoginRPS, cfg.RateLimit.LoginBurst),
		Retention:    cfg.Analytics.Retention,
		Logger:       logger,
	}).Register(engine)
	engine.NoRoute(public.NotFound)
	a.engine = engine

	a.server = &http.Server{
		Addr:              cfg.Addr(),
		Handler:           engine,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}
	return nil
}

// OpenStore returns the document store selected by cfg.Store.Driver. The
// sqlite driver shares db.
func OpenStore(ctx context.Context, cfg config.Config, db *sql.DB, logger *zap.Logger) (docstore.Store, error) {
	switch cfg.Store.Driver {
	case config.DriverFirestore:
		store, err := docstore.NewFirestore(ctx, cfg.Store.FirestoreProject, cfg.Store.CredentialsFile, logger)
		if err != nil {
			return nil, fmt.Errorf("open firestore: %w", err)
		}
		return store, nil
	case config.DriverSQLite, "":
		return docstore.NewSQLite(db, logger), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

func newAuthManager(cfg config.Config, logger *zap.Logger) (*auth.Manager, error) {
	creds := auth.Credentials{
		Username:     cfg.Admin.Username,
		Password:     cfg.Admin.Password,
		PasswordHash: cfg.Admin.PasswordHash,
	}
	dev := cfg.Mode != gin.ReleaseMode
	if creds.Username == "" {
		creds.Username = devAdminUsername
		if dev {
			logger.Warn("using default admin username, set ADMIN_USERNAME")
		}
	}
	if creds.Password == "" && creds.PasswordHash == "" {
		if dev {
			creds.Password = devAdminPassword
			logger.Warn("using default admin password, set ADMIN_PASSWORD or ADMIN_PASSWORD_HASH")
		} else {
			// Nobody knows this password, so the dashboard stays locked.
			creds.Password = analytics.RandomToken()
			logger.Warn("admin password not configured, admin login is disabled")
		}
	}

	secret := cfg.Admin.SessionSecret
	if secret == "" {
		secret = analytics.RandomToken()
		logger.Info("session secret not configured, admin sessions end on restart")
	}

	manager, err := auth.NewManager(creds, secret, cfg.Admin.SessionTTL, logger)
	if err != nil {
		return nil, fmt.Errorf("configure admin auth: %w", err)
	}
	return manager, nil
}

// Handler exposes the HTTP handler, mainly for tests.
func (a *App) Handler() http.Handler { return a.engine }

// Repository exposes the content repository.
func (a *App) Repository() *content.Repository { return a.repo }

// Run serves HTTP and runs the background jobs until ctx is done, then
// shuts the server down within the configured grace period.
func (a *App) Run(ctx context.Context) error {
	defer func() {
		if err := a.Close(); err != nil {
			a.logger.Warn("error closing storage", zap.Error(err))
		}
	}()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return a.hub.Run(ctx, a.store, content.LiveCollections())
	})
	g.Go(func() error {
		return a.renderer.Watch(ctx)
	})
	if a.recorder != nil {
		g.Go(func() error { return a.recorder.Run(ctx) })
		g.Go(func() error { return a.retentionLoop(ctx) })
	}

	g.Go(func() error {
		a.logger.Info("starting HTTP server", zap.String("addr", a.server.Addr), zap.String("mode", a.cfg.Mode))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		return a.shutdown()
	})

	return g.Wait()
}

func (a *App) shutdown() error {
	a.logger.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := a.server.Shutdown(ctx); err != nil {
		a.logger.Error("graceful shutdown failed", zap.Error(err))
		if closeErr := a.server.Close(); closeErr != nil {
			return fmt.Errorf("close server: %w", closeErr)
		}
		return nil
	}
	a.logger.Info("server stopped gracefully")
	return nil
}

// retentionLoop removes analytics older than the retention window once at
// start and then every cleanup interval.
func (a *App) retentionLoop(ctx context.Context) error {
	interval := a.cfg.Analytics.CleanupInterval
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		removed, err := a.tracker.Cleanup(ctx, a.cfg.Analytics.Retention)
		switch {
		case err != nil && ctx.Err() == nil:
			a.logger.Error("privacy cleanup failed", zap.Error(err))
		case removed > 0:
			a.logger.Info("privacy cleanup", zap.Int64("removed", removed))
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// Close releases the document store and the database.
func (a *App) Close() error {
	var errs []error
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close store: %w", err))
		}
		a.store = nil
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close database: %w", err))
		}
		a.db = nil
	}
	return errors.Join(errs...)
}
