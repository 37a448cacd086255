package scanner

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"

	"GapSentinel/internal/collector"
	"GapSentinel/internal/model"
)

// stubFetcher serves fixed quotes and records the batches it was asked for.
type stubFetcher struct {
	quotes  map[string]model.Quote
	fail    map[string]bool
	batches [][]string
	// stopAfter, when positive, ends each batch after that many symbols
	// with Err set, the way an exhausted deadline does.
	stopAfter int
}

func (s *stubFetcher) FetchBatch(_ context.Context, symbols []string) collector.Batch {
	s.batches = append(s.batches, append([]string(nil), symbols...))
	b := collector.Batch{Quotes: map[string]model.Quote{}}
	for i, sym := range symbols {
		if s.stopAfter > 0 && i == s.stopAfter {
			b.Err = errors.New("rate: Wait(n=1) would exceed context deadline")
			return b
		}
		if s.fail[sym] {
			b.Failures++
			b.Errors = append(b.Errors, sym+": status 500")
			continue
		}
		q, ok := s.quotes[sym]
		if !ok || !q.Valid() {
			b.NoData++
			continue
		}
		b.Quotes[sym] = q
	}
	return b
}

func quiet(string, ...any) {}

func testConfig() FilterConfig {
	cfg := DefaultFilterConfig()
	cfg.BatchSize = 2
	return cfg
}

func TestGapPercent(t *testing.T) {
	tests := []struct {
		current, previous, want float64
	}{
		{11, 10, 10},
		{9, 10, -10},
		{10, 10, 0},
		{1.2345, 1, 23.45},
		{3, 7, -57.14},
		{2, 3, -33.33},
		{100.015, 100, 0.02},
	}
	for _, tt := range tests {
		if got := GapPercent(tt.current, tt.previous); got != tt.want {
			t.Errorf("GapPercent(%v, %v) = %v, want %v", tt.current, tt.previous, got, tt.want)
		}
	}
}

func TestClassify(t *testing.T) {
	if Classify(0.01) != model.StatusGainer {
		t.Error("positive gap should be a gainer")
	}
	if Classify(0) != model.StatusLoser || Classify(-3) != model.StatusLoser {
		t.Error("zero and negative gaps should be losers")
	}
}

func TestScan_Scenario(t *testing.T) {
	f := &stubFetcher{quotes: map[string]model.Quote{
		"AAA": {Symbol: "AAA", Current: 11, Previous: 10, Volume: 200000},
		"BBB": {Symbol: "BBB", Current: 0, Previous: 10},
	}}
	info := map[string]model.TickerInfo{
		"AAA": {Symbol: "AAA", Name: "Alpha Corp", MarketCap: 1e9},
		"BBB": {Symbol: "BBB", Name: "Beta Inc", MarketCap: 1e9},
	}
	res, err := NewEngine(f, quiet).Scan(context.Background(), []string{"AAA", "BBB"}, info, testConfig())
	if err != nil {
		t.Fatalf("scan: %v", err)
	}

	if len(res.Gainers) != 1 || len(res.Losers) != 0 {
		t.Fatalf("expected one gainer, got %+v / %+v", res.Gainers, res.Losers)
	}
	g := res.Gainers[0]
	if g.Symbol != "AAA" || g.GapPercent != 10 || g.Status != model.StatusGainer || g.Name != "Alpha Corp" {
		t.Errorf("unexpected gainer %+v", g)
	}
	if res.Scanned != 1 {
		t.Errorf("BBB has no data and must not count as scanned, scanned=%d", res.Scanned)
	}
	if res.Found != 1 {
		t.Errorf("expected found=1, got %d", res.Found)
	}
	if res.Debug.NoDataQuotes != 1 {
		t.Errorf("expected 1 no-data quote, got %d", res.Debug.NoDataQuotes)
	}
	if !res.Filters.ExcludeETFs || !res.Filters.ExcludeWarrants || res.Filters.MinGapPercent != 5 {
		t.Errorf("unexpected filters %+v", res.Filters)
	}
}

func TestScan_FilterCascade(t *testing.T) {
	f := &stubFetcher{
		quotes: map[string]model.Quote{
			"CAP":  {Symbol: "CAP", Current: 20, Previous: 10, Volume: 1e6},    // small cap
			"FLAT": {Symbol: "FLAT", Current: 10.4, Previous: 10, Volume: 1e6}, // 4% gap
			"THIN": {Symbol: "THIN", Current: 12, Previous: 10, Volume: 500},   // low volume
			"PRCY": {Symbol: "PRCY", Current: 900, Previous: 800, Volume: 1e6}, // too expensive
			"DOWN": {Symbol: "DOWN", Current: 8, Previous: 10, Volume: 1e6},    // loser
			"NOPR": {Symbol: "NOPR", Current: 15, Previous: 10, Volume: 1e6},   // no profile
			"SPY":  {Symbol: "SPY", Current: 20, Previous: 10, Volume: 1e6},    // ETF
		},
		fail: map[string]bool{"ERR": true},
	}
	info := map[string]model.TickerInfo{
		"CAP":  {Symbol: "CAP", MarketCap: 1e6},
		"FLAT": {Symbol: "FLAT", MarketCap: 1e9},
		"THIN": {Symbol: "THIN", MarketCap: 1e9},
		"PRCY": {Symbol: "PRCY", MarketCap: 1e9},
		"DOWN": {Symbol: "DOWN", Name: "Down Co", MarketCap: 1e9},
		"ERR":  {Symbol: "ERR", MarketCap: 1e9},
	}
	universe := []string{"CAP", "FLAT", "SPY", "THIN", "PRCY", "DOWN", "NOPR", "ERR"}
	res, err := NewEngine(f, quiet).Scan(context.Background(), universe, info, testConfig())
	if err != nil {
		t.Fatalf("scan: %v", err)
	}

	d := res.Debug
	checks := []struct {
		name      string
		got, want int
	}{
		{"skippedMarketCap", d.SkippedMarketCap, 1},
		{"skippedGap", d.SkippedGap, 1},
		{"skippedVolume", d.SkippedVolume, 1},
		{"skippedPrice", d.SkippedPrice, 1},
		{"skippedETF", d.SkippedETF, 1},
		{"quoteFailures", d.QuoteFailures, 1},
		{"profileFailures", d.ProfileFailures, 1},
		{"scanned", res.Scanned, 5},
		{"found", res.Found, 2},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %d, want %d", c.name, c.got, c.want)
		}
	}
	if len(d.Errors) != 1 {
		t.Errorf("expected one error message, got %v", d.Errors)
	}
	if len(res.Losers) != 1 || res.Losers[0].Symbol != "DOWN" || res.Losers[0].GapPercent != -20 {
		t.Errorf("unexpected losers %+v", res.Losers)
	}
	if len(res.Gainers) != 1 || res.Gainers[0].Symbol != "NOPR" || res.Gainers[0].Name != "NOPR" {
		t.Errorf("unexpected gainers %+v", res.Gainers)
	}
	for _, b := range f.batches {
		for _, s := range b {
			if s == "SPY" {
				t.Error("excluded ETF must not be fetched")
			}
		}
	}
}

func TestScan_BatchesInOrder(t *testing.T) {
	f := &stubFetcher{quotes: map[string]model.Quote{}}
	NewEngine(f, quiet).Scan(context.Background(), []string{"A", "B", "C", "D", "E"}, nil, testConfig())

	want := [][]string{{"A", "B"}, {"C", "D"}, {"E"}}
	if fmt.Sprint(f.batches) != fmt.Sprint(want) {
		t.Errorf("batches = %v, want %v", f.batches, want)
	}
}

func TestScan_SortAndTruncate(t *testing.T) {
	quotes := map[string]model.Quote{}
	info := map[string]model.TickerInfo{}
	var universe []string
	for i := 0; i < 30; i++ {
		up := fmt.Sprintf("UP%02d", i)
		dn := fmt.Sprintf("DN%02d", i)
		universe = append(universe, up, dn)
		quotes[up] = model.Quote{Symbol: up, Current: 10 + float64(i+1), Previous: 10, Volume: 1e6}
		quotes[dn] = model.Quote{Symbol: dn, Current: 10 - float64(i%9+1), Previous: 10, Volume: 1e6}
		info[up] = model.TickerInfo{Symbol: up, MarketCap: 1e9}
		info[dn] = model.TickerInfo{Symbol: dn, MarketCap: 1e9}
	}
	cfg := testConfig()
	cfg.BatchSize = 7
	res, err := NewEngine(&stubFetcher{quotes: quotes}, quiet).Scan(context.Background(), universe, info, cfg)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}

	if res.Found != 60 {
		t.Errorf("found should count every passing symbol, got %d", res.Found)
	}
	if len(res.Gainers) != DefaultTopN || len(res.Losers) != DefaultTopN {
		t.Fatalf("expected %d per side, got %d/%d", DefaultTopN, len(res.Gainers), len(res.Losers))
	}
	if res.Gainers[0].Symbol != "UP29" {
		t.Errorf("largest gainer should lead, got %s", res.Gainers[0].Symbol)
	}
	for i := 1; i < len(res.Gainers); i++ {
		if res.Gainers[i].GapPercent >= res.Gainers[i-1].GapPercent {
			t.Errorf("gainers not strictly descending at %d", i)
		}
	}
	for i := 1; i < len(res.Losers); i++ {
		if res.Losers[i].GapPercent < res.Losers[i-1].GapPercent {
			t.Errorf("losers not ascending at %d", i)
		}
	}
	if res.Losers[0].GapPercent != -90 {
		t.Errorf("most negative loser should lead, got %v", res.Losers[0].GapPercent)
	}
}

func TestScan_ResultInvariants(t *testing.T) {
	quotes := map[string]model.Quote{}
	info := map[string]model.TickerInfo{}
	var universe []string
	for i := 0; i < 200; i++ {
		s := fmt.Sprintf("T%03d", i)
		universe = append(universe, s)
		quotes[s] = model.Quote{
			Symbol:   s,
			Current:  float64(1 + (i*37)%900),
			Previous: float64(1 + (i*53)%900),
			Volume:   int64((i * 7919) % 400000),
		}
		info[s] = model.TickerInfo{Symbol: s, MarketCap: float64((i * 104729) % 200_000_000)}
	}
	cfg := testConfig()
	cfg.BatchSize = 25
	res, err := NewEngine(&stubFetcher{quotes: quotes}, quiet).Scan(context.Background(), universe, info, cfg)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}

	for _, g := range append(append([]model.GapStock{}, res.Gainers...), res.Losers...) {
		q := quotes[g.Symbol]
		if g.GapPercent != GapPercent(q.Current, q.Previous) {
			t.Errorf("%s: gap %v does not match quote", g.Symbol, g.GapPercent)
		}
		if math.Abs(g.GapPercent) < cfg.MinGapPercent || g.Volume < cfg.MinVolume ||
			g.Price > cfg.MaxPrice || (g.MarketCap > 0 && g.MarketCap < cfg.MinMarketCap) {
			t.Errorf("%s violates the filter thresholds: %+v", g.Symbol, g)
		}
		if (g.GapPercent > 0) != (g.Status == model.StatusGainer) {
			t.Errorf("%s: status %s does not match gap %v", g.Symbol, g.Status, g.GapPercent)
		}
	}
	if len(res.Gainers) > DefaultTopN || len(res.Losers) > DefaultTopN {
		t.Errorf("result exceeds top N")
	}
}

func TestScan_CancelledContext(t *testing.T) {
	f := &stubFetcher{quotes: map[string]model.Quote{}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := NewEngine(f, quiet).Scan(ctx, []string{"A", "B", "C"}, nil, testConfig())
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected cancellation error, got %v", err)
	}
	if len(f.batches) != 0 {
		t.Errorf("no batch should run after cancel, got %v", f.batches)
	}
	if res.Gainers == nil || res.Losers == nil {
		t.Error("result slices should be empty, not nil")
	}
}

func TestScan_StopsOnIncompleteBatch(t *testing.T) {
	f := &stubFetcher{
		quotes: map[string]model.Quote{
			"A": {Symbol: "A", Current: 11, Previous: 10, Volume: 200000},
		},
		stopAfter: 1,
	}
	res, err := NewEngine(f, quiet).Scan(context.Background(), []string{"A", "B", "C", "D"}, nil, testConfig())
	if err == nil {
		t.Fatal("expected an error for an incomplete batch")
	}
	if len(f.batches) != 1 {
		t.Errorf("later batches should not run, got %v", f.batches)
	}
	if res == nil || res.Found != 1 {
		t.Errorf("partial result should keep what was fetched, got %+v", res)
	}
}
