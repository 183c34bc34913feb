package content

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/Zachkp/folio/internal/docstore"
)

type entity interface {
	meta() *Meta
}

type entityPtr[T any] interface {
	*T
	entity
}

// Collection is a typed view over one document store collection.
type Collection[T any, P entityPtr[T]] struct {
	name       string
	store      docstore.Store
	now        func() time.Time
	less       func(a, b *T) bool
	beforeSave func(ctx context.Context, v *T) error
}

func newCollection[T any, P entityPtr[T]](name string, store docstore.Store, now func() time.Time, less func(a, b *T) bool) *Collection[T, P] {
	return &Collection[T, P]{name: name, store: store, now: now, less: less}
}

// Name returns the collection name.
func (c *Collection[T, P]) Name() string { return c.name }

// List returns every document in display order.
func (c *Collection[T, P]) List(ctx context.Context) ([]T, error) {
	docs, err := c.store.List(ctx, c.name)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(docs))
	for _, doc := range docs {
		v, err := c.decode(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	if c.less != nil {
		sort.SliceStable(out, func(i, j int) bool { return c.less(&out[i], &out[j]) })
	}
	return out, nil
}

// Get returns one document or docstore.ErrNotFound.
func (c *Collection[T, P]) Get(ctx context.Context, id string) (T, error) {
	doc, err := c.store.Get(ctx, c.name, id)
	if err != nil {
		var zero T
		return zero, err
	}
	return c.decode(doc)
}

// Save validates and stores v, assigning an ID when it has none.
func (c *Collection[T, P]) Save(ctx context.Context, v *T) error {
	m := P(v).meta()
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	now := c.now()
	m.UpdatedAt = now
	if n, ok := any(v).(interface{ normalize(time.Time) }); ok {
		n.normalize(now)
	}
	if err := Validate(v); err != nil {
		return err
	}
	if c.beforeSave != nil {
		if err := c.beforeSave(ctx, v); err != nil {
			return err
		}
	}
	data, err := docstore.Encode(v)
	if err != nil {
		return err
	}
	if err := c.store.Set(ctx, c.name, m.ID, data); err != nil {
		return fmt.Errorf("save %s/%s: %w", c.name, m.ID, err)
	}
	return nil
}

// Delete removes a document.
func (c *Collection[T, P]) Delete(ctx context.Context, id string) error {
	return c.store.Delete(ctx, c.name, id)
}

// Count returns the number of stored documents.
func (c *Collection[T, P]) Count(ctx context.Context) (int, error) {
	docs, err := c.store.List(ctx, c.name)
	if err != nil {
		return 0, err
	}
	return len(docs), nil
}

func (c *Collection[T, P]) decode(doc docstore.Document) (T, error) {
	var v T
	if err := docstore.Decode(doc, &v); err != nil {
		return v, err
	}
	m := P(&v).meta()
	m.ID = doc.ID
	if m.UpdatedAt.IsZero() {
		m.UpdatedAt = doc.UpdatedAt
	}
	return v, nil
}

// Editor is the untyped editing surface used by the admin dashboard.
type Editor interface {
	Name() string
	New() any
	ListAny(ctx context.Context) ([]any, error)
	GetAny(ctx context.Context, id string) (any, error)
	// SaveJSON and SaveYAML decode raw into a fresh document. A non-empty
	// id overrides whatever id the payload carries.
	SaveJSON(ctx context.Context, id string, raw []byte) (any, error)
	SaveYAML(ctx context.Context, id string, raw []byte) (any, error)
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
}

func (c *Collection[T, P]) New() any { return new(T) }

func (c *Collection[T, P]) ListAny(ctx context.Context) ([]any, error) {
	items, err := c.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]any, len(items))
	for i := range items {
		out[i] = &items[i]
	}
	return out, nil
}

func (c *Collection[T, P]) GetAny(ctx context.Context, id string) (any, error) {
	v, err := c.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (c *Collection[T, P]) SaveJSON(ctx context.Context, id string, raw []byte) (any, error) {
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return c.saveDecoded(ctx, id, &v)
}

func (c *Collection[T, P]) SaveYAML(ctx context.Context, id string, raw []byte) (any, error) {
	var v T
	if err := yaml.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return c.saveDecoded(ctx, id, &v)
}

func (c *Collection[T, P]) saveDecoded(ctx context.Context, id string, v *T) (any, error) {
	if id != "" {
		P(v).meta().ID = id
	}
	if err := c.Save(ctx, v); err != nil {
		return nil, err
	}
	return v, nil
}

// IsNotFound reports whether err means the document does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, docstore.ErrNotFound)
}
