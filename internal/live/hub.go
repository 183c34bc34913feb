// Package live turns document store changes into per-section events that
// connected browsers use to refresh fragments.
package live

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Zachkp/folio/internal/content"
	"github.com/Zachkp/folio/internal/docstore"
)

const subscriberBuffer = 16

// Event says that a section's content changed.
type Event struct {
	Section    string              `json:"section"`
	Collection string              `json:"collection"`
	ID         string              `json:"id"`
	Kind       docstore.ChangeKind `json:"kind"`
}

// Hub broadcasts events to subscribers.
type Hub struct {
	logger *zap.Logger

	mu     sync.Mutex
	subs   map[chan Event]struct{}
	closed bool
}

// NewHub returns an idle hub; call Run to start watching.
func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{logger: logger, subs: make(map[chan Event]struct{})}
}

// Run watches each collection until ctx is done. All subscriber channels are
// closed when it returns.
func (h *Hub) Run(ctx context.Context, store docstore.Store, collections []string) error {
	defer h.closeAll()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	for _, collection := range collections {
		changes, err := store.Watch(ctx, collection)
		if err != nil {
			cancel()
			_ = g.Wait()
			return fmt.Errorf("watch %s: %w", collection, err)
		}
		g.Go(func() error {
			for change := range changes {
				h.dispatch(change)
			}
			return nil
		})
	}
	h.logger.Info("live hub started", zap.Strings("collections", collections))
	err := g.Wait()
	h.logger.Info("live hub stopped")
	return err
}

func (h *Hub) dispatch(change docstore.Change) {
	for _, section := range content.SectionsFor(change.Collection, change.ID) {
		h.Publish(Event{
			Section:    section,
			Collection: change.Collection,
			ID:         change.ID,
			Kind:       change.Kind,
		})
	}
}

// Publish delivers ev to every subscriber without blocking.
func (h *Hub) Publish(ev Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		select {
		case ch <- ev:
		default:
			h.logger.Debug("dropping live event for slow subscriber", zap.String("section", ev.Section))
		}
	}
}

// Subscribe registers a listener. cancel is idempotent and closes the
// channel. Once Run has returned the channel comes back already closed.
func (h *Hub) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if _, ok := h.subs[ch]; ok {
				delete(h.subs, ch)
				close(ch)
			}
		})
	}
	return ch, cancel
}

// Subscribers reports the number of connected listeners.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for ch := range h.subs {
		delete(h.subs, ch)
		close(ch)
	}
}
