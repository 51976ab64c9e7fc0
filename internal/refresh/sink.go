package refresh

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/dmko-sec/secdash/internal/domain"
	"github.com/dmko-sec/secdash/internal/infra"
)

// RedisSink caches the latest snapshot per kind and announces the
// change on the dataset-update channel so API instances reload.
type RedisSink struct {
	rdb    *redis.Client
	logger *zap.Logger
}

func NewRedisSink(rdb *redis.Client, logger *zap.Logger) *RedisSink {
	return &RedisSink{rdb: rdb, logger: logger.Named("snapshot-sink")}
}

func (s *RedisSink) Publish(ctx context.Context, kind domain.RecordKind, rows []domain.RawRecord) error {
	payload, err := json.Marshal(rows)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	if err := s.rdb.Set(ctx, infra.GetSnapshotKey(string(kind)), payload, 0).Err(); err != nil {
		return fmt.Errorf("cache snapshot: %w", err)
	}

	// Signal delivery is best effort; the cache is already current and
	// consumers also reload on their own schedule.
	if err := s.rdb.Publish(ctx, infra.RedisChanDatasetUpdate, string(kind)).Err(); err != nil {
		s.logger.Warn("dataset-update signal failed",
			zap.String("kind", string(kind)),
			zap.Error(err))
	}

	return nil
}

// LoadSnapshot reads the cached rows for one kind. A missing key
// yields an empty slice, not an error.
func (s *RedisSink) LoadSnapshot(ctx context.Context, kind domain.RecordKind) ([]domain.RawRecord, error) {
	payload, err := s.rdb.Get(ctx, infra.GetSnapshotKey(string(kind))).Bytes()
	if err == redis.Nil {
		return []domain.RawRecord{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}

	var rows []domain.RawRecord
	if err := json.Unmarshal(payload, &rows); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return rows, nil
}
