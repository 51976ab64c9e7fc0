package refresh

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/dmko-sec/secdash/internal/domain"
	"github.com/dmko-sec/secdash/internal/infra"
)

// SnapshotWatcher keeps an in-memory copy of the latest snapshot per
// kind, so table queries don't round-trip to Redis on every request.
// It reloads a kind whenever a dataset-update signal names it.
type SnapshotWatcher struct {
	mu    sync.RWMutex
	cache map[domain.RecordKind][]domain.RawRecord

	sink   *RedisSink
	logger *zap.Logger
}

func NewSnapshotWatcher(sink *RedisSink, logger *zap.Logger) *SnapshotWatcher {
	return &SnapshotWatcher{
		cache:  make(map[domain.RecordKind][]domain.RawRecord),
		sink:   sink,
		logger: logger.Named("snapshot-watch"),
	}
}

// Init primes the cache from Redis at service start.
func (w *SnapshotWatcher) Init(ctx context.Context) error {
	for _, kind := range []domain.RecordKind{
		domain.KindDevice, domain.KindViolation, domain.KindIncident, domain.KindWipe,
	} {
		rows, err := w.sink.LoadSnapshot(ctx, kind)
		if err != nil {
			return err
		}
		w.store(kind, rows)
	}
	return nil
}

// LoadSnapshot serves the cached copy. A kind never seen falls back to
// Redis once and is cached from then on.
func (w *SnapshotWatcher) LoadSnapshot(ctx context.Context, kind domain.RecordKind) ([]domain.RawRecord, error) {
	w.mu.RLock()
	rows, ok := w.cache[kind]
	w.mu.RUnlock()
	if ok {
		return rows, nil
	}

	rows, err := w.sink.LoadSnapshot(ctx, kind)
	if err != nil {
		return nil, err
	}
	w.store(kind, rows)
	return rows, nil
}

func (w *SnapshotWatcher) store(kind domain.RecordKind, rows []domain.RawRecord) {
	w.mu.Lock()
	w.cache[kind] = rows
	w.mu.Unlock()
}

// StartListener subscribes to the dataset-update channel and refreshes
// the named kind. The payload must match what RedisSink publishes.
func (w *SnapshotWatcher) StartListener(ctx context.Context) {
	pubsub := w.sink.rdb.Subscribe(ctx, infra.RedisChanDatasetUpdate)
	defer pubsub.Close()

	ch := pubsub.Channel()
	w.logger.Info("dataset-update listener started")

	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				w.logger.Warn("dataset-update channel closed")
				return
			}

			kind := domain.RecordKind(msg.Payload)
			rows, err := w.sink.LoadSnapshot(ctx, kind)
			if err != nil {
				w.logger.Warn("snapshot reload failed",
					zap.String("kind", string(kind)),
					zap.Error(err))
				continue
			}
			w.store(kind, rows)
			w.logger.Info("snapshot reloaded",
				zap.String("kind", string(kind)),
				zap.Int("records", len(rows)))

		case <-ctx.Done():
			w.logger.Info("dataset-update listener stopping")
			return
		}
	}
}
