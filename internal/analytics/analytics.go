// Package analytics is the privacy-conscious visitor tracking behind the
// admin dashboard. Raw IP addresses are never stored: visits keep a salted,
// truncated hash so unique visitors can be counted without identifying
// anyone.
package analytics

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Visit is one tracked page view.
type Visit struct {
	ID        int64     `json:"id"`
	HashedIP  string    `json:"hashed_ip"`
	UserAgent string    `json:"user_agent"`
	Path      string    `json:"path"`
	Timestamp time.Time `json:"timestamp"`
	Country   string    `json:"country,omitempty"`
}

// LinkStat counts clicks on an outbound project link.
type LinkStat struct {
	Target      string    `json:"target"`
	Label       string    `json:"label"`
	URL         string    `json:"url"`
	Clicks      int64     `json:"clicks"`
	FirstSeen   time.Time `json:"first_seen"`
	LastClicked time.Time `json:"last_clicked"`
}

// Stats is the dashboard summary.
type Stats struct {
	TotalVisitors    int64      `json:"total_visitors"`
	UniqueVisitors   int64      `json:"unique_visitors"`
	VisitorsToday    int64      `json:"visitors_today"`
	VisitorsThisWeek int64      `json:"visitors_this_week"`
	TotalLinks       int64      `json:"total_links"`
	TotalClicks      int64      `json:"total_clicks"`
	TopLinks         []LinkStat `json:"top_links"`
	TopPaths         []PathStat `json:"top_paths"`
	RecentVisitors   []Visit    `json:"recent_visitors"`
}

// PathStat counts views of one path.
type PathStat struct {
	Path  string `json:"path"`
	Views int64  `json:"views"`
}

// Tracker reads and writes the visitors and link_clicks tables.
type Tracker struct {
	db     *sql.DB
	salt   string
	logger *zap.Logger
	now    func() time.Time
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithClock overrides the time source, primarily for tests.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

// NewTracker uses salt for IP hashing; an empty salt is replaced by a random
// one, which resets unique-visitor identity on every restart.
func NewTracker(db *sql.DB, salt string, logger *zap.Logger, opts ...Option) *Tracker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if salt == "" {
		salt = RandomToken()
		logger.Info("analytics salt not configured, using a per-process salt")
	}
	t := &Tracker{
		db:     db,
		salt:   salt,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// RandomToken returns 32 random bytes hex encoded.
func RandomToken() string {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		panic(fmt.Sprintf("read random bytes: %v", err))
	}
	return hex.EncodeToString(buf)
}

// HashIP is consistent per IP for a given salt.
func (t *Tracker) HashIP(ip string) string {
	return HashIP(ip, t.salt)
}

// HashIP returns the first 16 hex chars of sha256(ip + salt).
func HashIP(ip, salt string) string {
	sum := sha256.Sum256([]byte(ip + salt))
	return hex.EncodeToString(sum[:])[:16]
}

// Record stores a visit.
func (t *Tracker) Record(ctx context.Context, ip, userAgent, path string) error {
	_, err := t.db.ExecContext(ctx, `
		INSERT INTO visitors (hashed_ip, user_agent, path, visited_at)
		VALUES (?, ?, ?, ?)
	`, t.HashIP(ip), userAgent, path, t.now().UnixMilli())
	if err != nil {
		return fmt.Errorf("record visit: %w", err)
	}
	return nil
}

// RecordClick counts a click on target, refreshing its label and URL.
func (t *Tracker) RecordClick(ctx context.Context, target, label, url string) error {
	now := t.now().UnixMilli()
	_, err := t.db.ExecContext(ctx, `
		INSERT INTO link_clicks (target, label, url, clicks, first_seen, last_clicked)
		VALUES (?, ?, ?, 1, ?, ?)
		ON CONFLICT (target) DO UPDATE SET
			clicks = clicks + 1,
			label = excluded.label,
			url = excluded.url,
			last_clicked = excluded.last_clicked
	`, target, label, url, now, now)
	if err != nil {
		return fmt.Errorf("record click: %w", err)
	}
	return nil
}

// Cleanup deletes visits older than retention and returns how many went.
func (t *Tracker) Cleanup(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := t.now().Add(-retention).UnixMilli()
	result, err := t.db.ExecContext(ctx, `DELETE FROM visitors WHERE visited_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("cleanup visitors: %w", err)
	}
	n, _ := result.RowsAffected()
	if n > 0 {
		t.logger.Info("privacy cleanup removed old visitor records",
			zap.Int64("rows", n), zap.Duration("retention", retention))
	}
	return n, nil
}

// Stats gathers the dashboard summary.
func (t *Tracker) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}
	now := t.now()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	counts := []struct {
		dst   *int64
		query string
		args  []any
	}{
		{&stats.TotalVisitors, `SELECT COUNT(*) FROM visitors`, nil},
		{&stats.UniqueVisitors, `SELECT COUNT(DISTINCT hashed_ip) FROM visitors`, nil},
		{&stats.VisitorsToday, `SELECT COUNT(*) FROM visitors WHERE visited_at >= ?`, []any{startOfDay.UnixMilli()}},
		{&stats.VisitorsThisWeek, `SELECT COUNT(*) FROM visitors WHERE visited_at >= ?`, []any{now.Add(-7 * 24 * time.Hour).UnixMilli()}},
		{&stats.TotalLinks, `SELECT COUNT(*) FROM link_clicks`, nil},
		{&stats.TotalClicks, `SELECT COALESCE(SUM(clicks), 0) FROM link_clicks`, nil},
	}
	for _, c := range counts {
		if err := t.db.QueryRowContext(ctx, c.query, c.args...).Scan(c.dst); err != nil {
			return nil, fmt.Errorf("stats: %w", err)
		}
	}

	var err error
	if stats.TopLinks, err = t.links(ctx, 10); err != nil {
		return nil, err
	}
	if stats.TopPaths, err = t.topPaths(ctx, 10); err != nil {
		return nil, err
	}
	if stats.RecentVisitors, err = t.Visitors(ctx, 50); err != nil {
		return nil, err
	}
	return stats, nil
}

// Visitors returns the most recent visits.
func (t *Tracker) Visitors(ctx context.Context, limit int) ([]Visit, error) {
	rows, err := t.db.QueryContext(ctx, `
		SELECT id, hashed_ip, user_agent, path, country, visited_at
		FROM visitors
		ORDER BY visited_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list visitors: %w", err)
	}
	defer rows.Close()

	var visits []Visit
	for rows.Next() {
		var v Visit
		var at int64
		if err := rows.Scan(&v.ID, &v.HashedIP, &v.UserAgent, &v.Path, &v.Country, &at); err != nil {
			return nil, fmt.Errorf("list visitors: %w", err)
		}
		v.Timestamp = time.UnixMilli(at).UTC()
		visits = append(visits, v)
	}
	return visits, rows.Err()
}

// Links returns every tracked link, most clicked first.
func (t *Tracker) Links(ctx context.Context) ([]LinkStat, error) {
	return t.links(ctx, -1)
}

func (t *Tracker) links(ctx context.Context, limit int) ([]LinkStat, error) {
	rows, err := t.db.QueryContext(ctx, `
		SELECT target, label, url, clicks, first_seen, last_clicked
		FROM link_clicks
		ORDER BY clicks DESC, last_clicked DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list links: %w", err)
	}
	defer rows.Close()

	var links []LinkStat
	for rows.Next() {
		var l LinkStat
		var first, last int64
		if err := rows.Scan(&l.Target, &l.Label, &l.URL, &l.Clicks, &first, &last); err != nil {
			return nil, fmt.Errorf("list links: %w", err)
		}
		l.FirstSeen = time.UnixMilli(first).UTC()
		l.LastClicked = time.UnixMilli(last).UTC()
		links = append(links, l)
	}
	return links, rows.Err()
}

func (t *Tracker) topPaths(ctx context.Context, limit int) ([]PathStat, error) {
	rows, err := t.db.QueryContext(ctx, `
		SELECT path, COUNT(*) AS views
		FROM visitors
		GROUP BY path
		ORDER BY views DESC, path ASC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("top paths: %w", err)
	}
	defer rows.Close()

	var paths []PathStat
	for rows.Next() {
		var p PathStat
		if err := rows.Scan(&p.Path, &p.Views); err != nil {
			return nil, fmt.Errorf("top paths: %w", err)
		}
		paths = append(paths, p)
	}
	return paths, rows.Err()
}
