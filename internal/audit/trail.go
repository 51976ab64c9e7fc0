package audit

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Storage is where batches of events end up.
type Storage interface {
	WriteBatch(ctx context.Context, events []Event) error
}

// Recorder accepts audit events from request handlers.
type Recorder interface {
	Record(event Event)
}

// Trail collects console audit events off the request path. Events are
// buffered on a channel and flushed to storage in batches, by size or
// by timer, so a slow database never adds latency to a request. Stop
// drains the buffer completely before returning.
type Trail struct {
	ch     chan Event
	repo   Storage
	logger *zap.Logger
	wg     sync.WaitGroup

	isClosed int32 // atomic; guards Record after Stop
}

const (
	bufferSize    = 4096
	batchSize     = 100
	flushInterval = 500 * time.Millisecond
)

func NewTrail(repo Storage, logger *zap.Logger) *Trail {
	return &Trail{
		ch:     make(chan Event, bufferSize),
		repo:   repo,
		logger: logger.With(zap.String("mod", "audit-trail")),
	}
}

func (t *Trail) Start() {
	t.wg.Add(1)
	go t.worker()
}

// Stop closes the intake and waits until the worker has flushed
// everything still queued.
func (t *Trail) Stop() {
	atomic.StoreInt32(&t.isClosed, 1)

	// Let Record calls already past the flag check slip in.
	time.Sleep(10 * time.Millisecond)

	t.logger.Info("stopping audit trail: flushing buffer")
	close(t.ch)
	t.wg.Wait()
	t.logger.Info("audit trail stopped")
}

func (t *Trail) Record(event Event) {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	if atomic.LoadInt32(&t.isClosed) == 1 {
		t.logger.Warn("audit event dropped: trail is stopping", zap.String("id", event.ID))
		return
	}

	// Load shedding: a full buffer drops to the logger instead of
	// blocking the request.
	select {
	case t.ch <- event:
	default:
		t.logger.Error("audit_buffer_overflow",
			zap.String("user_id", event.UserID),
			zap.String("action", event.Action),
		)
	}
}

func (t *Trail) worker() {
	defer t.wg.Done()

	batch := make([]Event, 0, batchSize)
	ticker := time.NewTicker(flushInterval)
	defer ticker.Stop()

	flush := func() {
		if len(batch) > 0 {
			// Background context: the request contexts that produced
			// these events may be long gone, and Stop must still flush.
			if err := t.repo.WriteBatch(context.Background(), batch); err != nil {
				t.logger.Error("audit flush failed", zap.Error(err))
			}
			batch = batch[:0]
		}
	}

	for {
		select {
		case event, ok := <-t.ch:
			if !ok {
				// Channel closed by Stop: final flush, then exit.
				flush()
				t.logger.Info("audit worker finished")
				return
			}
			batch = append(batch, event)
			if len(batch) >= batchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		}
	}
}
