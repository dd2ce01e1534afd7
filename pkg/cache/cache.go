// Package cache provides the process-wide stores that let repeated renders
// of the same media skip remote lookups.
//
// Two kinds of store exist:
//
//   - Store holds raw bytes keyed by media id (metadata records). The
//     default backend is in-memory; a Redis backend is available for
//     multi-instance deployments and a Null backend disables caching.
//   - Images holds decoded pixel buffers keyed by media id. It is always
//     in-process: serializing pixels through a shared backend would force a
//     re-decode on every hit, which is exactly the cost the cache exists to
//     avoid.
//
// Entries are append-only for the lifetime of the process: never evicted,
// never invalidated. Concurrent misses for the same key may race and fetch
// twice; whichever write lands last wins. Cached values are immutable
// snapshots, so this is harmless.
package cache

import (
	"context"
	"errors"
)

// ErrUnavailable is returned when a store backend cannot be reached.
var ErrUnavailable = errors.New("cache backend unavailable")

// Store is a byte-oriented key/value store.
type Store interface {
	// Get retrieves a value. The second return reports whether the key
	// was present.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value. Entries never expire.
	Set(ctx context.Context, key string, data []byte) error

	// Close releases backend resources.
	Close() error
}
