// Package cache stores compiled icon fragments between runs.
//
// Compiling an icon is cheap, but large icon trees are rebuilt on every
// change while watching or serving, and most files have not changed since
// the previous build. Fragments are keyed by the content hash of the raw
// markup plus everything that affects compilation, so a hit can be reused
// without re-reading the compilation inputs.
//
// Three backends are provided:
//
//   - [FileCache] under the user's cache directory (CLI default)
//   - [RedisCache] for sharing fragments between machines or CI workers
//   - [NullCache] when caching is disabled
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key/value store with optional expiry.
// Implementations must be safe for concurrent use.
type Cache interface {
	// Get returns the stored value and true, or false on a miss. Expired
	// and unreadable entries count as misses.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases any resources held by the cache.
	Close() error
}

// TTLFragment is how long a compiled fragment stays cached. Keys already
// change with the input content, so this only bounds disk usage.
const TTLFragment = 30 * 24 * time.Hour
