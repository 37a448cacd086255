// Package cache provides the generic read-through/write-through cache used
// for scan results and upstream quotes.
package cache

import (
	"context"
	"time"
)

// Cache is a key-value cache with per-entry expiry.
type Cache[K comparable, V any] interface {
	Get(ctx context.Context, key K) (V, bool, error)
	SetWithTTL(ctx context.Context, key K, value V, ttl time.Duration) error
}
