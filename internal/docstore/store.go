// Package docstore is the document database behind the site content: named
// collections of JSON-like documents with live change subscriptions.
// Two drivers exist: SQLite for self-hosting and Firestore.
package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNotFound is returned when a document does not exist.
	ErrNotFound = errors.New("document not found")
	// ErrInvalidKey is returned for an empty collection or document id.
	ErrInvalidKey = errors.New("collection and id must be non-empty")
)

// Document is a stored record.
type Document struct {
	ID        string
	Data      map[string]any
	UpdatedAt time.Time
}

// ChangeKind describes what happened to a document.
type ChangeKind string

const (
	Added    ChangeKind = "added"
	Modified ChangeKind = "modified"
	Removed  ChangeKind = "removed"
)

// Change is delivered to watchers. Doc is the zero value for removals.
type Change struct {
	Kind       ChangeKind
	Collection string
	ID         string
	Doc        Document
}

// Store is implemented by every driver.
type Store interface {
	Get(ctx context.Context, collection, id string) (Document, error)
	List(ctx context.Context, collection string) ([]Document, error)
	Set(ctx context.Context, collection, id string, data map[string]any) error
	Delete(ctx context.Context, collection, id string) error
	// Watch streams changes made after the call returns. The channel is
	// closed once ctx is done.
	Watch(ctx context.Context, collection string) (<-chan Change, error)
	Close() error
}

func checkKey(collection, id string) error {
	if collection == "" || id == "" {
		return ErrInvalidKey
	}
	return nil
}

// Encode converts a JSON-tagged struct into document data.
func Encode(v any) (map[string]any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	var data map[string]any
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return data, nil
}

// Decode fills v from document data. Values produced by either driver
// (JSON numbers, Firestore int64 and timestamps) decode the same way.
func Decode(doc Document, v any) error {
	raw, err := json.Marshal(doc.Data)
	if err != nil {
		return fmt.Errorf("decode document %s: %w", doc.ID, err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode document %s: %w", doc.ID, err)
	}
	return nil
}
