package store

import (
	"context"
	"time"
)

// NoopStore is used when the database cannot be opened: every read misses
// and every write is dropped.
type NoopStore struct{}

func NewNoopStore() *NoopStore { return &NoopStore{} }

func (n *NoopStore) Get(_ context.Context, _ string) (string, bool, error) { return "", false, nil }
func (n *NoopStore) SetWithExpiry(_ context.Context, _, _ string, _ time.Duration) error {
	return nil
}
func (n *NoopStore) Close() error { return nil }
