// Package scanner runs the gap filter cascade over a symbol universe.
package scanner

import (
	"context"
	"fmt"
	"log"
	"math"
	"sort"

	"GapSentinel/internal/collector"
	"GapSentinel/internal/model"
	"GapSentinel/internal/symbols"
)

// DefaultTopN caps each side of the result.
const DefaultTopN = 20

// FilterConfig holds the batching and threshold settings of one scan.
type FilterConfig struct {
	BatchSize     int
	MinGapPercent float64
	MinVolume     int64
	MaxPrice      float64
	MinMarketCap  float64
	TopN          int
}

// DefaultFilterConfig returns the production thresholds.
func DefaultFilterConfig() FilterConfig {
	return FilterConfig{
		BatchSize:     50,
		MinGapPercent: 5,
		MinVolume:     100000,
		MaxPrice:      500,
		MinMarketCap:  50_000_000,
		TopN:          DefaultTopN,
	}
}

// Filters reports the thresholds in response form.
func (c FilterConfig) Filters() model.Filters {
	return model.Filters{
		MinGapPercent:   c.MinGapPercent,
		MinVolume:       c.MinVolume,
		MaxPrice:        c.MaxPrice,
		MinMarketCap:    c.MinMarketCap,
		ExcludeETFs:     true,
		ExcludeWarrants: true,
	}
}

// BatchFetcher fetches quotes for one batch of symbols.
type BatchFetcher interface {
	FetchBatch(ctx context.Context, symbols []string) collector.Batch
}

// Engine drives the fetcher batch by batch and applies the filter cascade.
type Engine struct {
	fetcher BatchFetcher
	logf    func(format string, args ...any)
}

// NewEngine creates an Engine. logf defaults to log.Printf.
func NewEngine(fetcher BatchFetcher, logf func(format string, args ...any)) *Engine {
	if logf == nil {
		logf = log.Printf
	}
	return &Engine{fetcher: fetcher, logf: logf}
}

// Scan evaluates universe in order. Only the gainers, losers, counters and
// filters of the returned result are filled in; dates and timing belong to
// the caller. A scan that could not visit every batch returns the partial
// result together with an error.
func (e *Engine) Scan(ctx context.Context, universe []string, info map[string]model.TickerInfo, cfg FilterConfig) (*model.ScanResult, error) {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultFilterConfig().BatchSize
	}
	if cfg.TopN <= 0 {
		cfg.TopN = DefaultTopN
	}

	res := &model.ScanResult{
		Gainers: []model.GapStock{},
		Losers:  []model.GapStock{},
		Filters: cfg.Filters(),
		Debug:   model.Debug{Errors: []string{}},
	}

	kept, excluded := symbols.Partition(universe)
	res.Debug.SkippedETF = len(excluded)

	batches := (len(kept) + cfg.BatchSize - 1) / cfg.BatchSize
	for i := 0; i < batches; i++ {
		if err := ctx.Err(); err != nil {
			e.logf("[WARN] scan cancelled after %d/%d batches: %v", i, batches, err)
			return finish(res, cfg.TopN), fmt.Errorf("scan cancelled after %d/%d batches: %w", i, batches, err)
		}
		start := i * cfg.BatchSize
		end := min(start+cfg.BatchSize, len(kept))
		batch := kept[start:end]

		b := e.fetcher.FetchBatch(ctx, batch)
		res.Debug.QuoteFailures += b.Failures
		res.Debug.NoDataQuotes += b.NoData
		res.Debug.Errors = append(res.Debug.Errors, b.Errors...)

		// Walk the batch in symbol order so results do not depend on map order.
		for _, symbol := range batch {
			q, ok := b.Quotes[symbol]
			if !ok {
				continue
			}
			e.evaluate(res, q, info, cfg)
		}
		e.logf("[INFO] batch %d/%d: %d quotes, found so far %d", i+1, batches, len(b.Quotes), len(res.Gainers)+len(res.Losers))
		if b.Err != nil {
			return finish(res, cfg.TopN), fmt.Errorf("batch %d/%d incomplete: %w", i+1, batches, b.Err)
		}
	}

	return finish(res, cfg.TopN), nil
}

func finish(res *model.ScanResult, topN int) *model.ScanResult {
	res.Found = len(res.Gainers) + len(res.Losers)
	rank(res, topN)
	return res
}

func (e *Engine) evaluate(res *model.ScanResult, q model.Quote, info map[string]model.TickerInfo, cfg FilterConfig) {
	ti, known := info[q.Symbol]
	if !known {
		res.Debug.ProfileFailures++
		ti = model.TickerInfo{Symbol: q.Symbol, Name: q.Symbol}
	}
	if ti.MarketCap > 0 && ti.MarketCap < cfg.MinMarketCap {
		res.Debug.SkippedMarketCap++
		return
	}
	res.Scanned++

	gap := GapPercent(q.Current, q.Previous)
	if math.Abs(gap) < cfg.MinGapPercent {
		res.Debug.SkippedGap++
		return
	}
	if q.Volume < cfg.MinVolume {
		res.Debug.SkippedVolume++
		return
	}
	if cfg.MaxPrice > 0 && q.Current > cfg.MaxPrice {
		res.Debug.SkippedPrice++
		return
	}

	name := ti.Name
	if name == "" {
		name = q.Symbol
	}
	stock := model.GapStock{
		Symbol:        q.Symbol,
		Name:          name,
		Price:         q.Current,
		PreviousClose: q.Previous,
		GapPercent:    gap,
		Volume:        q.Volume,
		MarketCap:     ti.MarketCap,
		Status:        Classify(gap),
	}
	if stock.Status == model.StatusGainer {
		res.Gainers = append(res.Gainers, stock)
	} else {
		res.Losers = append(res.Losers, stock)
	}
}

// rank sorts gainers descending and losers ascending by gap, then truncates
// both to topN. Ties keep universe order.
func rank(res *model.ScanResult, topN int) {
	sort.SliceStable(res.Gainers, func(i, j int) bool {
		return res.Gainers[i].GapPercent > res.Gainers[j].GapPercent
	})
	sort.SliceStable(res.Losers, func(i, j int) bool {
		return res.Losers[i].GapPercent < res.Losers[j].GapPercent
	})
	if len(res.Gainers) > topN {
		res.Gainers = res.Gainers[:topN]
	}
	if len(res.Losers) > topN {
		res.Losers = res.Losers[:topN]
	}
}
