package refresh

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/dmko-sec/secdash/internal/domain"
	"github.com/dmko-sec/secdash/internal/metrics"
)

// Sink receives a snapshot only when its content actually changed
// since the last applied one.
type Sink interface {
	Publish(ctx context.Context, kind domain.RecordKind, rows []domain.RawRecord) error
}

// Scheduler periodically re-fetches the export feed in the background.
// Every cycle is tagged with a generation number; a fetch that resolves
// after a newer generation has already been applied is discarded, so a
// slow response can never clobber fresher data. Unchanged payloads are
// detected by digest and skipped silently.
type Scheduler struct {
	fetcher  Fetcher
	sink     Sink
	kinds    []domain.RecordKind
	interval time.Duration
	logger   *zap.Logger
	m        *metrics.Metrics

	mu         sync.Mutex
	generation uint64
	applied    map[domain.RecordKind]uint64
	digests    map[domain.RecordKind]string

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewScheduler(fetcher Fetcher, sink Sink, kinds []domain.RecordKind, interval time.Duration, m *metrics.Metrics, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		fetcher:  fetcher,
		sink:     sink,
		kinds:    kinds,
		interval: interval,
		logger:   logger.Named("refresh"),
		m:        m,
		applied:  make(map[domain.RecordKind]uint64),
		digests:  make(map[domain.RecordKind]string),
	}
}

// Start launches the periodic loop. Call Stop to shut it down.
func (s *Scheduler) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	s.wg.Add(1)

	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				s.logger.Info("refresh loop stopped")
				return
			case <-ticker.C:
				s.RunOnce(ctx)
			}
		}
	}()

	s.logger.Info("refresh loop started", zap.Duration("interval", s.interval))
}

// Stop cancels the loop and waits for an in-flight cycle to finish.
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

// RunOnce executes one refresh cycle across all kinds.
func (s *Scheduler) RunOnce(ctx context.Context) {
	gen := s.nextGeneration()

	for _, kind := range s.kinds {
		rows, err := s.fetcher.Fetch(ctx, kind)
		if err != nil {
			s.m.RefreshCycles.WithLabelValues("error").Inc()
			s.logger.Warn("refresh fetch failed",
				zap.String("kind", string(kind)),
				zap.Error(err))
			continue
		}
		s.apply(ctx, kind, gen, rows)
	}
}

func (s *Scheduler) nextGeneration() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	return s.generation
}

// apply commits one fetched snapshot, enforcing the stale-generation
// and unchanged-digest rules.
func (s *Scheduler) apply(ctx context.Context, kind domain.RecordKind, gen uint64, rows []domain.RawRecord) {
	digest := snapshotDigest(rows)

	s.mu.Lock()
	if gen <= s.applied[kind] {
		s.mu.Unlock()
		s.m.RefreshCycles.WithLabelValues("stale").Inc()
		s.logger.Debug("stale refresh discarded",
			zap.String("kind", string(kind)),
			zap.Uint64("generation", gen))
		return
	}
	s.applied[kind] = gen

	if digest == s.digests[kind] {
		s.mu.Unlock()
		s.m.RefreshCycles.WithLabelValues("unchanged").Inc()
		return
	}
	s.mu.Unlock()

	if err := s.sink.Publish(ctx, kind, rows); err != nil {
		// Digest stays uncommitted so the next cycle retries.
		s.m.RefreshCycles.WithLabelValues("error").Inc()
		s.logger.Error("snapshot publish failed",
			zap.String("kind", string(kind)),
			zap.Error(err))
		return
	}

	s.mu.Lock()
	if s.applied[kind] == gen {
		s.digests[kind] = digest
	}
	s.mu.Unlock()

	s.m.RefreshCycles.WithLabelValues("changed").Inc()
	s.m.DatasetRecords.WithLabelValues(string(kind)).Set(float64(len(rows)))
	s.logger.Info("snapshot updated",
		zap.String("kind", string(kind)),
		zap.Int("records", len(rows)),
		zap.Uint64("generation", gen))
}

// snapshotDigest hashes the canonical JSON form of the rows.
// encoding/json sorts map keys, so equal content hashes equal.
func snapshotDigest(rows []domain.RawRecord) string {
	h := sha256.New()
	enc := json.NewEncoder(h)
	for _, r := range rows {
		_ = enc.Encode(r)
	}
	return hex.EncodeToString(h.Sum(nil))
}
