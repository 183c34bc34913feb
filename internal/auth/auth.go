// Package auth guards the admin dashboard with a signed session cookie.
package auth

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	// CookieName holds the session token.
	CookieName = "admin_session"
	cookiePath = "/admin"
	issuer     = "folio-admin"

	// ContextUserKey stores the signed-in username on the gin context.
	ContextUserKey = "admin_user"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidSession     = errors.New("invalid session")
)

// Credentials identifies the single admin account. When PasswordHash is set
// it wins over Password.
type Credentials struct {
	Username     string
	Password     string
	PasswordHash string
}

// Manager verifies logins and issues session cookies.
type Manager struct {
	creds  Credentials
	secret []byte
	ttl    time.Duration
	secure bool
	now    func() time.Time
	logger *zap.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock overrides the time source, primarily for tests.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithSecureCookie marks the session cookie Secure (HTTPS only).
func WithSecureCookie(secure bool) Option {
	return func(m *Manager) { m.secure = secure }
}

// NewManager signs sessions with secret. An empty secret is rejected; the
// caller decides whether to generate one.
func NewManager(creds Credentials, secret string, ttl time.Duration, logger *zap.Logger, opts ...Option) (*Manager, error) {
	if secret == "" {
		return nil, fmt.Errorf("session secret is required")
	}
	if creds.Username == "" || (creds.Password == "" && creds.PasswordHash == "") {
		return nil, fmt.Errorf("admin username and password are required")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("session ttl must be positive")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Manager{
		creds:  creds,
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
		logger: logger,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// HashPassword returns a bcrypt hash for the admin password setting.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// Verify checks a username and password pair.
func (m *Manager) Verify(username, password string) error {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(m.creds.Username)) == 1
	var passOK bool
	if m.creds.PasswordHash != "" {
		passOK = bcrypt.CompareHashAndPassword([]byte(m.creds.PasswordHash), []byte(password)) == nil
	} else {
		passOK = subtle.ConstantTimeCompare([]byte(password), []byte(m.creds.Password)) == 1
	}
	if !userOK || !passOK {
		return ErrInvalidCredentials
	}
	return nil
}

// Issue returns a signed session token for username.
func (m *Manager) Issue(username string) (string, error) {
	now := m.now()
	claims := jwt.RegisteredClaims{
		Issuer:    issuer,
		Subject:   username,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign session: %w", err)
	}
	return token, nil
}

// Parse validates a session token and returns its username.
func (m *Manager) Parse(token string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return m.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}
	if claims.Subject != m.creds.Username {
		return "", fmt.Errorf("%w: unknown subject", ErrInvalidSession)
	}
	return claims.Subject, nil
}

// Login verifies credentials and sets the session cookie.
func (m *Manager) Login(c *gin.Context, username, password string) error {
	if err := m.Verify(username, password); err != nil {
		return err
	}
	token, err := m.Issue(username)
	if err != nil {
		return err
	}
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(CookieName, token, int(m.ttl.Seconds()), cookiePath, "", m.secure, true)
	return nil
}

// Logout clears the session cookie.
func (m *Manager) Logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(CookieName, "", -1, cookiePath, "", m.secure, true)
}

// Middleware admits requests with a valid session. API requests get a JSON
// 401; page requests are redirected to the login page.
func (m *Manager) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(CookieName)
		if err == nil {
			var user string
			if user, err = m.Parse(token); err == nil {
				c.Set(ContextUserKey, user)
				c.Next()
				return
			}
			m.logger.Debug("rejected admin session", zap.Error(err))
		}

		if strings.HasPrefix(c.Request.URL.Path, "/admin/api/") || strings.HasPrefix(c.Request.URL.Path, "/admin/export/") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		if c.GetHeader("HX-Request") == "true" {
			c.Header("HX-Redirect", "/admin/login")
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		c.Redirect(http.StatusFound, "/admin/login")
		c.Abort()
	}
}
