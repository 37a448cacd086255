package cache

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"GapSentinel/internal/store"
)

type result struct {
	Found int      `json:"found"`
	Tags  []string `json:"tags"`
}

// failingStore simulates an unreachable durable backend.
type failingStore struct {
	gets, sets int
}

func (f *failingStore) Get(context.Context, string) (string, bool, error) {
	f.gets++
	return "", false, errors.New("connection refused")
}

func (f *failingStore) SetWithExpiry(context.Context, string, string, time.Duration) error {
	f.sets++
	return errors.New("connection refused")
}

func (f *failingStore) Close() error { return nil }

func TestMemory_TTL(t *testing.T) {
	ctx := context.Background()
	m := NewMemory[string, int](0)
	base := time.Date(2026, 10, 15, 8, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return base }

	m.SetWithTTL(ctx, "a", 1, 5*time.Minute)
	m.now = func() time.Time { return base.Add(4*time.Minute + 59*time.Second) }
	if v, ok, _ := m.Get(ctx, "a"); !ok || v != 1 {
		t.Fatalf("expected fresh hit, got %v %v", v, ok)
	}
	m.now = func() time.Time { return base.Add(5 * time.Minute) }
	if _, ok, _ := m.Get(ctx, "a"); ok {
		t.Fatal("expected miss once the window has elapsed")
	}
	if m.Len() != 0 {
		t.Errorf("expired entry should be dropped, len=%d", m.Len())
	}
}

func TestMemory_SingleSlot(t *testing.T) {
	ctx := context.Background()
	m := NewMemory[string, int](1)
	base := time.Date(2026, 10, 15, 8, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return base }
	m.SetWithTTL(ctx, "2026-10-14", 1, time.Hour)
	m.now = func() time.Time { return base.Add(time.Minute) }
	m.SetWithTTL(ctx, "2026-10-15", 2, time.Hour)

	if m.Len() != 1 {
		t.Fatalf("expected 1 entry, got %d", m.Len())
	}
	if _, ok, _ := m.Get(ctx, "2026-10-14"); ok {
		t.Error("older slot should have been evicted")
	}
	if v, ok, _ := m.Get(ctx, "2026-10-15"); !ok || v != 2 {
		t.Errorf("expected newest slot, got %v %v", v, ok)
	}
}

func TestDurable_RoundTripThroughSQLite(t *testing.T) {
	ctx := context.Background()
	st, err := store.NewSQLiteStore(ctx, filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer st.Close()

	d := NewDurable[result](st, "gap_scanner")
	if got := d.Key("2026-10-15"); got != "gap_scanner:2026-10-15" {
		t.Errorf("unexpected key %q", got)
	}
	if err := d.SetWithTTL(ctx, "2026-10-15", result{Found: 3, Tags: []string{"x"}}, 24*time.Hour); err != nil {
		t.Fatalf("set: %v", err)
	}
	raw, ok, err := st.Get(ctx, "gap_scanner:2026-10-15")
	if err != nil || !ok || raw == "" {
		t.Fatalf("expected raw value under prefixed key, ok=%v err=%v", ok, err)
	}
	v, ok, err := d.Get(ctx, "2026-10-15")
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if v.Found != 3 || len(v.Tags) != 1 {
		t.Errorf("unexpected value %+v", v)
	}
}

func TestTiered_ReadThroughBackFills(t *testing.T) {
	ctx := context.Background()
	local := NewMemory[string, result](1)
	durable := NewMemory[string, result](0)
	durable.SetWithTTL(ctx, "2026-10-15", result{Found: 7}, time.Hour)

	tc := NewTiered[string, result]("test", local, durable, 5*time.Minute)
	v, ok, err := tc.Get(ctx, "2026-10-15")
	if err != nil || !ok || v.Found != 7 {
		t.Fatalf("expected durable hit, got %+v ok=%v err=%v", v, ok, err)
	}
	if v, ok, _ := local.Get(ctx, "2026-10-15"); !ok || v.Found != 7 {
		t.Error("durable hit should back-fill the local tier")
	}
}

func TestTiered_WriteThrough(t *testing.T) {
	ctx := context.Background()
	local := NewMemory[string, result](1)
	durable := NewMemory[string, result](0)
	tc := NewTiered[string, result]("test", local, durable, 5*time.Minute)

	if err := tc.SetWithTTL(ctx, "k", result{Found: 1}, 24*time.Hour); err != nil {
		t.Fatalf("set: %v", err)
	}
	if _, ok, _ := local.Get(ctx, "k"); !ok {
		t.Error("local tier should hold the value")
	}
	if _, ok, _ := durable.Get(ctx, "k"); !ok {
		t.Error("durable tier should hold the value")
	}
}

func TestTiered_DurableFailureIsSwallowed(t *testing.T) {
	ctx := context.Background()
	fs := &failingStore{}
	local := NewMemory[string, result](1)
	tc := NewTiered[string, result]("test", local, NewDurable[result](fs, "gap_scanner"), 5*time.Minute)

	if _, ok, err := tc.Get(ctx, "k"); ok || err != nil {
		t.Fatalf("unreachable backend should read as a miss, ok=%v err=%v", ok, err)
	}
	if err := tc.SetWithTTL(ctx, "k", result{Found: 2}, 24*time.Hour); err != nil {
		t.Fatalf("durable write failure must not surface: %v", err)
	}
	if fs.gets != 1 || fs.sets != 1 {
		t.Errorf("expected one durable get and set, got %d/%d", fs.gets, fs.sets)
	}
	v, ok, err := tc.Get(ctx, "k")
	if err != nil || !ok || v.Found != 2 {
		t.Errorf("local tier should still serve the fresh value, got %+v ok=%v", v, ok)
	}
}
