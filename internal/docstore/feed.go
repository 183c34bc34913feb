package docstore

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

const watchBuffer = 64

// feed fans out in-process changes to watchers of a collection.
type feed struct {
	logger *zap.Logger

	mu     sync.Mutex
	subs   map[string]map[chan Change]struct{}
	done   chan struct{}
	closed bool
}

func newFeed(logger *zap.Logger) *feed {
	return &feed{
		logger: logger,
		subs:   make(map[string]map[chan Change]struct{}),
		done:   make(chan struct{}),
	}
}

func (f *feed) subscribe(ctx context.Context, collection string) <-chan Change {
	ch := make(chan Change, watchBuffer)

	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		close(ch)
		return ch
	}
	if f.subs[collection] == nil {
		f.subs[collection] = make(map[chan Change]struct{})
	}
	f.subs[collection][ch] = struct{}{}
	f.mu.Unlock()

	go func() {
		select {
		case <-ctx.Done():
		case <-f.done:
		}
		f.mu.Lock()
		if _, ok := f.subs[collection][ch]; ok {
			delete(f.subs[collection], ch)
			close(ch)
		}
		f.mu.Unlock()
	}()
	return ch
}

// publish never blocks: a watcher with a full buffer misses the change.
func (f *feed) publish(change Change) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for ch := range f.subs[change.Collection] {
		select {
		case ch <- change:
		default:
			f.logger.Warn("dropping change for slow watcher",
				zap.String("collection", change.Collection),
				zap.String("id", change.ID),
			)
		}
	}
}

func (f *feed) close() {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	f.closed = true
	f.mu.Unlock()
	close(f.done)
}
