package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// SQLiteStore keeps documents as JSON rows in the documents table. Changes
// are published in-process, so watchers only see writes made through the
// same store value.
type SQLiteStore struct {
	db     *sql.DB
	feed   *feed
	logger *zap.Logger
	now    func() time.Time
}

// NewSQLite wraps a migrated database. The caller owns db.
func NewSQLite(db *sql.DB, logger *zap.Logger) *SQLiteStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SQLiteStore{
		db:     db,
		feed:   newFeed(logger),
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (s *SQLiteStore) Get(ctx context.Context, collection, id string) (Document, error) {
	if err := checkKey(collection, id); err != nil {
		return Document{}, err
	}
	var raw string
	var updated int64
	err := s.db.QueryRowContext(ctx,
		`SELECT data, updated_at FROM documents WHERE collection = ? AND id = ?`,
		collection, id,
	).Scan(&raw, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return Document{}, ErrNotFound
	}
	if err != nil {
		return Document{}, fmt.Errorf("get %s/%s: %w", collection, id, err)
	}
	return decodeRow(id, raw, updated)
}

func (s *SQLiteStore) List(ctx context.Context, collection string) ([]Document, error) {
	if collection == "" {
		return nil, ErrInvalidKey
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, data, updated_at FROM documents WHERE collection = ? ORDER BY id`,
		collection,
	)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", collection, err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var id, raw string
		var updated int64
		if err := rows.Scan(&id, &raw, &updated); err != nil {
			return nil, fmt.Errorf("list %s: %w", collection, err)
		}
		doc, err := decodeRow(id, raw, updated)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list %s: %w", collection, err)
	}
	return docs, nil
}

func (s *SQLiteStore) Set(ctx context.Context, collection, id string, data map[string]any) error {
	if err := checkKey(collection, id); err != nil {
		return err
	}
	if data == nil {
		data = map[string]any{}
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("set %s/%s: %w", collection, id, err)
	}
	now := s.now()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("set %s/%s: %w", collection, id, err)
	}
	defer func() { _ = tx.Rollback() }()

	var exists int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM documents WHERE collection = ? AND id = ?`, collection, id,
	).Scan(&exists); err != nil {
		return fmt.Errorf("set %s/%s: %w", collection, id, err)
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO documents (collection, id, data, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (collection, id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at
	`, collection, id, string(raw), now.UnixMilli(), now.UnixMilli()); err != nil {
		return fmt.Errorf("set %s/%s: %w", collection, id, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("set %s/%s: %w", collection, id, err)
	}

	kind := Added
	if exists > 0 {
		kind = Modified
	}
	s.feed.publish(Change{
		Kind:       kind,
		Collection: collection,
		ID:         id,
		Doc:        Document{ID: id, Data: data, UpdatedAt: time.UnixMilli(now.UnixMilli()).UTC()},
	})
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, collection, id string) error {
	if err := checkKey(collection, id); err != nil {
		return err
	}
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM documents WHERE collection = ? AND id = ?`, collection, id,
	)
	if err != nil {
		return fmt.Errorf("delete %s/%s: %w", collection, id, err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	s.feed.publish(Change{Kind: Removed, Collection: collection, ID: id})
	return nil
}

func (s *SQLiteStore) Watch(ctx context.Context, collection string) (<-chan Change, error) {
	if collection == "" {
		return nil, ErrInvalidKey
	}
	return s.feed.subscribe(ctx, collection), nil
}

// Close ends all watches. The database itself is left open.
func (s *SQLiteStore) Close() error {
	s.feed.close()
	return nil
}

func decodeRow(id, raw string, updated int64) (Document, error) {
	var data map[string]any
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return Document{}, fmt.Errorf("decode %s: %w", id, err)
	}
	return Document{ID: id, Data: data, UpdatedAt: time.UnixMilli(updated).UTC()}, nil
}
