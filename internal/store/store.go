package store

import (
	"context"
	"time"
)

// Store is the durable key-value backend behind the result cache.
type Store interface {
	// Get returns the value for key. A missing or expired key is not an error.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	// SetWithExpiry stores value under key until ttl elapses.
	SetWithExpiry(ctx context.Context, key, value string, ttl time.Duration) error
	Close() error
}
