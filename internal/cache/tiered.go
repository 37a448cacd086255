package cache

import (
	"context"
	"log"
	"time"
)

// Tiered puts a fast local cache in front of a durable one. Reads fall
// through to the durable tier and back-fill the local tier; writes go to the
// local tier first and the durable tier best effort. Durable-tier errors are
// logged and never returned.
type Tiered[K comparable, V any] struct {
	local    Cache[K, V]
	durable  Cache[K, V]
	localTTL time.Duration
	name     string
}

// NewTiered composes local and durable. localTTL bounds how long a value
// back-filled from the durable tier stays local.
func NewTiered[K comparable, V any](name string, local, durable Cache[K, V], localTTL time.Duration) *Tiered[K, V] {
	return &Tiered[K, V]{local: local, durable: durable, localTTL: localTTL, name: name}
}

func (t *Tiered[K, V]) Get(ctx context.Context, key K) (V, bool, error) {
	if v, ok, err := t.local.Get(ctx, key); err == nil && ok {
		return v, true, nil
	}
	var zero V
	if t.durable == nil {
		return zero, false, nil
	}
	v, ok, err := t.durable.Get(ctx, key)
	if err != nil {
		log.Printf("[WARN] %s cache: durable read %v failed, treating as miss: %v", t.name, key, err)
		return zero, false, nil
	}
	if !ok {
		return zero, false, nil
	}
	if err := t.local.SetWithTTL(ctx, key, v, t.localTTL); err != nil {
		log.Printf("[WARN] %s cache: back-fill %v: %v", t.name, key, err)
	}
	return v, true, nil
}

func (t *Tiered[K, V]) SetWithTTL(ctx context.Context, key K, value V, ttl time.Duration) error {
	localTTL := t.localTTL
	if localTTL <= 0 || localTTL > ttl {
		localTTL = ttl
	}
	if err := t.local.SetWithTTL(ctx, key, value, localTTL); err != nil {
		return err
	}
	if t.durable == nil {
		return nil
	}
	if err := t.durable.SetWithTTL(ctx, key, value, ttl); err != nil {
		log.Printf("[WARN] %s cache: durable write %v failed, keeping local copy only: %v", t.name, key, err)
	}
	return nil
}
