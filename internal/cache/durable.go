package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"GapSentinel/internal/store"
)

// Durable stores JSON-encoded values in a store.Store under prefix + key.
type Durable[V any] struct {
	store  store.Store
	prefix string
}

// NewDurable wraps st. Keys are written as prefix + ":" + key.
func NewDurable[V any](st store.Store, prefix string) *Durable[V] {
	return &Durable[V]{store: st, prefix: prefix}
}

// Key returns the backend key for key.
func (d *Durable[V]) Key(key string) string {
	if d.prefix == "" {
		return key
	}
	return d.prefix + ":" + key
}

func (d *Durable[V]) Get(ctx context.Context, key string) (V, bool, error) {
	var zero V
	raw, ok, err := d.store.Get(ctx, d.Key(key))
	if err != nil || !ok {
		return zero, false, err
	}
	var v V
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return zero, false, fmt.Errorf("decode %s: %w", d.Key(key), err)
	}
	return v, true, nil
}

func (d *Durable[V]) SetWithTTL(ctx context.Context, key string, value V, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", d.Key(key), err)
	}
	return d.store.SetWithExpiry(ctx, d.Key(key), string(raw), ttl)
}
