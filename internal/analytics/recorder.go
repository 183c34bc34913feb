package analytics

import (
	"context"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const recorderBuffer = 256

type visitEvent struct {
	ip, userAgent, path string
}

// Recorder writes visits off the request path. Visits that arrive while the
// buffer is full are dropped.
type Recorder struct {
	tracker *Tracker
	logger  *zap.Logger
	events  chan visitEvent
}

// NewRecorder creates a Recorder; call Run to start writing.
func NewRecorder(tracker *Tracker, logger *zap.Logger) *Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recorder{
		tracker: tracker,
		logger:  logger,
		events:  make(chan visitEvent, recorderBuffer),
	}
}

// Track queues a visit without blocking.
func (r *Recorder) Track(ip, userAgent, path string) bool {
	select {
	case r.events <- visitEvent{ip: ip, userAgent: userAgent, path: path}:
		return true
	default:
		r.logger.Warn("visitor buffer full, dropping visit", zap.String("path", path))
		return false
	}
}

// Run writes queued visits until ctx is done, then drains what is left.
func (r *Recorder) Run(ctx context.Context) error {
	// Writes outlive cancellation so a visit picked up during shutdown is
	// not aborted half way.
	writeCtx := context.WithoutCancel(ctx)
	for {
		if ctx.Err() != nil {
			r.drain()
			return nil
		}
		select {
		case ev := <-r.events:
			r.write(writeCtx, ev)
		case <-ctx.Done():
			r.drain()
			return nil
		}
	}
}

func (r *Recorder) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for {
		select {
		case ev := <-r.events:
			r.write(ctx, ev)
		default:
			return
		}
	}
}

func (r *Recorder) write(ctx context.Context, ev visitEvent) {
	if err := r.tracker.Record(ctx, ev.ip, ev.userAgent, ev.path); err != nil {
		r.logger.Error("error recording visitor", zap.Error(err))
	}
}

var untrackedPrefixes = []string{
	"/static/", "/images/", "/admin", "/favicon", "/privacy", "/live", "/healthz", "/go/",
}

// Middleware queues a visit for every successful GET of a page. Static
// assets, admin pages, the live stream and Do-Not-Track requests are skipped.
func Middleware(r *Recorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if r == nil || c.Request.Method != "GET" || c.Writer.Status() >= 400 {
			return
		}
		path := c.Request.URL.Path
		for _, prefix := range untrackedPrefixes {
			if strings.HasPrefix(path, prefix) {
				return
			}
		}
		if c.GetHeader("DNT") == "1" || c.GetHeader("HX-Request") == "true" {
			return
		}
		r.Track(c.ClientIP(), c.GetHeader("User-Agent"), path)
	}
}
