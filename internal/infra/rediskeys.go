package infra

import "fmt"

const (
	// RedisNamespace isolates this project's keys inside a shared Redis.
	RedisNamespace = "secdash"
)

// Keys for cached state.
const (
	// RedisKeySnapshot holds the latest raw snapshot per record kind,
	// written by the refresh scheduler and by dataset uploads.
	RedisKeySnapshot = RedisNamespace + ":snapshot:"
)

// Pub/Sub channels.
const (
	// RedisChanDatasetUpdate announces that a dataset was uploaded,
	// replaced or deleted and caches must be refreshed.
	RedisChanDatasetUpdate = RedisNamespace + ":datasets:update"
)

// GetSnapshotKey builds the cache key for one record kind.
func GetSnapshotKey(kind string) string {
	return fmt.Sprintf("%s%s", RedisKeySnapshot, kind)
}
