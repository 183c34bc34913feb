package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

const (
	defaultPort         = "8080"
	defaultDatabasePath = "folio.db"

	DriverSQLite    = "sqlite"
	DriverFirestore = "firestore"
)

// Config aggregates runtime configuration resolved from multiple sources.
// Precedence: CLI flags > Environment variables > YAML config > Defaults
type Config struct {
	Port                 string        `yaml:"port" env:"PORT"`
	Mode                 string        `yaml:"mode" env:"GIN_MODE"`
	DatabasePath         string        `yaml:"database_path" env:"DATABASE_PATH"`
	TemplatesDir         string        `yaml:"templates_dir" env:"TEMPLATES_DIR"`
	ShutdownGracePeriod  time.Duration `yaml:"shutdown_grace_period" env:"SHUTDOWN_GRACE_PERIOD"`
	ReadHeaderTimeout    time.Duration `yaml:"read_header_timeout" env:"READ_HEADER_TIMEOUT"`
	WriteTimeout         time.Duration `yaml:"write_timeout" env:"WRITE_TIMEOUT"`
	IdleTimeout          time.Duration `yaml:"idle_timeout" env:"IDLE_TIMEOUT"`
	EnableRequestLogging bool          `yaml:"enable_request_logging" env:"ENABLE_REQUEST_LOGGING"`

	Store     Store     `yaml:"store"`
	Admin     Admin     `yaml:"admin"`
	SMTP      SMTP      `yaml:"smtp"`
	Analytics Analytics `yaml:"analytics"`
	RateLimit RateLimit `yaml:"rate_limit"`
}

// Store selects the content backend.
type Store struct {
	Driver           string `yaml:"driver" env:"STORE_DRIVER"`
	FirestoreProject string `yaml:"firestore_project" env:"FIRESTORE_PROJECT"`
	CredentialsFile  string `yaml:"credentials_file" env:"FIREBASE_CREDENTIALS_PATH"`
}

// Admin holds dashboard credentials and session settings.
type Admin struct {
	Username      string        `yaml:"username" env:"ADMIN_USERNAME"`
	Password      string        `yaml:"password" env:"ADMIN_PASSWORD"`
	PasswordHash  string        `yaml:"password_hash" env:"ADMIN_PASSWORD_HASH"`
	SessionSecret string        `yaml:"session_secret" env:"ADMIN_SESSION_SECRET"`
	SessionTTL    time.Duration `yaml:"session_ttl" env:"ADMIN_SESSION_TTL"`
}

// SMTP configures contact form delivery.
type SMTP struct {
	Host string `yaml:"host" env:"SMTP_HOST"`
	Port string `yaml:"port" env:"SMTP_PORT"`
	User string `yaml:"user" env:"SMTP_USER"`
	Pass string `yaml:"pass" env:"SMTP_PASS"`
	To   string `yaml:"to" env:"TO_EMAIL"`
}

// Configured reports whether credentials are present.
func (s SMTP) Configured() bool {
	return s.User != "" && s.Pass != ""
}

// Analytics configures visitor tracking.
type Analytics struct {
	Enabled         bool          `yaml:"enabled" env:"ANALYTICS_ENABLED"`
	Salt            string        `yaml:"salt" env:"ANALYTICS_SALT"`
	Retention       time.Duration `yaml:"retention" env:"ANALYTICS_RETENTION"`
	CleanupInterval time.Duration `yaml:"cleanup_interval" env:"ANALYTICS_CLEANUP_INTERVAL"`
}

// RateLimit configures per-client limits on write endpoints.
type RateLimit struct {
	ContactRPS   float64 `yaml:"contact_rps" env:"RATE_LIMIT_CONTACT_RPS"`
	ContactBurst int     `yaml:"contact_burst" env:"RATE_LIMIT_CONTACT_BURST"`
	LoginRPS     float64 `yaml:"login_rps" env:"RATE_LIMIT_LOGIN_RPS"`
	LoginBurst   int     `yaml:"login_burst" env:"RATE_LIMIT_LOGIN_BURST"`
}

// CLIOverrides holds command-line flag overrides.
type CLIOverrides struct {
	ConfigFile   string
	Port         *string
	DatabasePath *string
	StoreDriver  *string
	TemplatesDir *string
	Mode         *string
}

// Load extracts configuration from multiple sources with precedence:
// CLI flags > Environment variables > YAML config > Defaults
func Load(overrides *CLIOverrides) (Config, error) {
	cfg := Default()

	if overrides != nil && overrides.ConfigFile != "" {
		if err := loadFromFile(overrides.ConfigFile, &cfg); err != nil {
			return Config{}, fmt.Errorf("load YAML config: %w", err)
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}

	if overrides != nil {
		applyCLIOverrides(&cfg, overrides)
	}

	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Default returns a Config with default values.
func Default() Config {
	return Config{
		Port:                 defaultPort,
		Mode:                 "release",
		DatabasePath:         defaultDatabasePath,
		ShutdownGracePeriod:  10 * time.Second,
		ReadHeaderTimeout:    5 * time.Second,
		IdleTimeout:          60 * time.Second,
		EnableRequestLogging: true,
		Store: Store{
			Driver: DriverSQLite,
		},
		Admin: Admin{
			SessionTTL: 24 * time.Hour,
		},
		SMTP: SMTP{
			Host: "smtp.gmail.com",
			Port: "587",
		},
		Analytics: Analytics{
			Enabled:         true,
			Retention:       365 * 24 * time.Hour,
			CleanupInterval: 24 * time.Hour,
		},
		RateLimit: RateLimit{
			ContactRPS:   0.05,
			ContactBurst: 3,
			LoginRPS:     0.2,
			LoginBurst:   5,
		},
	}
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse YAML: %w", err)
	}
	return nil
}

func applyCLIOverrides(cfg *Config, overrides *CLIOverrides) {
	set := func(dst *string, src *string) {
		if src != nil && strings.TrimSpace(*src) != "" {
			*dst = strings.TrimSpace(*src)
		}
	}
	set(&cfg.Port, overrides.Port)
	set(&cfg.DatabasePath, overrides.DatabasePath)
	set(&cfg.Store.Driver, overrides.StoreDriver)
	set(&cfg.TemplatesDir, overrides.TemplatesDir)
	set(&cfg.Mode, overrides.Mode)
}

func (c *Config) normalize() {
	c.Mode = strings.ToLower(strings.TrimSpace(c.Mode))
	c.Store.Driver = strings.ToLower(strings.TrimSpace(c.Store.Driver))
	c.Port = strings.TrimPrefix(strings.TrimSpace(c.Port), ":")
}

// Addr returns the listen address for the HTTP server.
func (c Config) Addr() string {
	if strings.Contains(c.Port, ":") {
		return c.Port
	}
	return ":" + c.Port
}

// Validate validates the final configuration.
func (c Config) Validate() error {
	switch c.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("mode must be one of debug, release, test; got %q", c.Mode)
	}
	switch c.Store.Driver {
	case DriverSQLite:
	case DriverFirestore:
		if c.Store.FirestoreProject == "" {
			return fmt.Errorf("store.firestore_project is required for the firestore driver")
		}
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}
	if c.Port == "" {
		return fmt.Errorf("port cannot be empty")
	}
	if c.DatabasePath == "" {
		return fmt.Errorf("database_path cannot be empty")
	}
	if c.Admin.SessionTTL <= 0 {
		return fmt.Errorf("admin.session_ttl must be positive")
	}
	if c.Analytics.Retention <= 0 {
		return fmt.Errorf("analytics.retention must be positive")
	}
	if c.RateLimit.ContactRPS < 0 || c.RateLimit.LoginRPS < 0 {
		return fmt.Errorf("rate limits must be >= 0")
	}
	if c.RateLimit.ContactBurst < 0 || c.RateLimit.LoginBurst < 0 {
		return fmt.Errorf("rate limit bursts must be >= 0")
	}
	return nil
}
