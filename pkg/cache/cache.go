// Package cache provides byte-oriented response caching with pluggable
// backends: a file cache for single-machine CLI use, a Redis cache for
// multi-instance deployments, and a null cache for disabling caching
// entirely. Keys are hashed with SHA-256 before they touch a backend, so
// arbitrary strings (URLs, query paths) are safe keys.
package cache

import (
	"context"
	"time"
)

// DefaultTTL is the expiry applied when callers have no better idea.
const DefaultTTL = 24 * time.Hour

// Cache is the interface implemented by all caching backends.
// Implementations must treat a missing key as (nil, false, nil), not as an
// error: a miss is an ordinary outcome.
type Cache interface {
	// Get retrieves the value for key. The second return value reports
	// whether the key was present and unexpired.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}
