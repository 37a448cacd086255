package universe

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func writeUniverse(t *testing.T, path, body string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write universe: %v", err)
	}
}

func TestFileProvider_Load(t *testing.T) {
	path := filepath.Join(t.TempDir(), "universe.yaml")
	writeUniverse(t, path, `
tickers:
  - symbol: aapl
    name: Apple Inc.
    market_cap: 3500000000000
  - symbol: TSLA
    name: Tesla, Inc.
    market_cap: 900000000000
  - symbol: AAPL
    name: duplicate
  - symbol: ""
  - symbol: GME
    name: GameStop Corp.
`)
	p := NewFileProvider(path)
	ctx := context.Background()

	syms, err := p.Universe(ctx)
	if err != nil {
		t.Fatalf("universe: %v", err)
	}
	if want := []string{"AAPL", "TSLA", "GME"}; !reflect.DeepEqual(syms, want) {
		t.Errorf("symbols = %v, want %v", syms, want)
	}
	info, err := p.InfoMap(ctx)
	if err != nil {
		t.Fatalf("info: %v", err)
	}
	if info["AAPL"].Name != "Apple Inc." || info["AAPL"].MarketCap != 3.5e12 {
		t.Errorf("unexpected AAPL info %+v", info["AAPL"])
	}
	if info["GME"].MarketCap != 0 {
		t.Errorf("missing market cap should stay unknown, got %v", info["GME"].MarketCap)
	}

	// Callers get copies.
	syms[0] = "ZZZ"
	info["AAPL"] = info["GME"]
	again, _ := p.Universe(ctx)
	againInfo, _ := p.InfoMap(ctx)
	if again[0] != "AAPL" || againInfo["AAPL"].Name != "Apple Inc." {
		t.Error("provider state leaked to caller")
	}
}

func TestFileProvider_Refresh(t *testing.T) {
	path := filepath.Join(t.TempDir(), "universe.yaml")
	writeUniverse(t, path, "tickers:\n  - symbol: AAA\n  - symbol: BBB\n")
	p := NewFileProvider(path)
	ctx := context.Background()
	if _, err := p.Universe(ctx); err != nil {
		t.Fatalf("universe: %v", err)
	}

	writeUniverse(t, path, "tickers:\n  - symbol: BBB\n  - symbol: CCC\n  - symbol: DDD\n")
	res, err := p.Refresh(ctx)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if !res.Success || res.Count != 3 || res.Added != 2 || res.Removed != 1 {
		t.Errorf("unexpected refresh result %+v", res)
	}
	syms, _ := p.Universe(ctx)
	if want := []string{"BBB", "CCC", "DDD"}; !reflect.DeepEqual(syms, want) {
		t.Errorf("symbols after refresh = %v, want %v", syms, want)
	}
}

func TestFileProvider_Errors(t *testing.T) {
	dir := t.TempDir()
	if _, err := NewFileProvider(filepath.Join(dir, "missing.yaml")).Universe(context.Background()); err == nil {
		t.Error("expected error for missing file")
	}
	empty := filepath.Join(dir, "empty.yaml")
	writeUniverse(t, empty, "tickers: []\n")
	if _, err := NewFileProvider(empty).Universe(context.Background()); err == nil {
		t.Error("expected error for empty universe")
	}
	bad := filepath.Join(dir, "bad.yaml")
	writeUniverse(t, bad, "tickers: [\n")
	if _, err := NewFileProvider(bad).InfoMap(context.Background()); err == nil {
		t.Error("expected parse error")
	}
}
