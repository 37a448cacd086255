// Package gapscan runs one gap scan end to end: universe resolution, result
// cache, session detection, the engine and persistence.
package gapscan

import (
	"context"
	"errors"
	"fmt"
	"log"
	"runtime/debug"
	"time"

	"github.com/google/uuid"

	"GapSentinel/internal/cache"
	"GapSentinel/internal/calendar"
	"GapSentinel/internal/collector"
	"GapSentinel/internal/model"
	"GapSentinel/internal/scanner"
	"GapSentinel/internal/store"
	"GapSentinel/internal/universe"
)

const (
	// DefaultLimit bounds the universe when a request does not set one.
	DefaultLimit = 5000
	// CachePrefix namespaces scan results in the durable store.
	CachePrefix = "gap_scanner"
	// DefaultResultTTL is how long a stored scan result stays valid.
	DefaultResultTTL = 24 * time.Hour
)

// ErrMissingAPIKey is returned when no quote provider credential is configured.
var ErrMissingAPIKey = errors.New("quote provider api key is not configured")

// Failure carries the error body of a failed scan.
type Failure struct {
	Response model.ErrorResponse
	Err      error
}

func (f *Failure) Error() string { return f.Response.Error }
func (f *Failure) Unwrap() error { return f.Err }

// Config holds the service settings.
type Config struct {
	APIKey       string
	Filter       scanner.FilterConfig
	DefaultLimit int
	ResultTTL    time.Duration
}

// Service orchestrates scans.
type Service struct {
	cfg      Config
	fetcher  scanner.BatchFetcher
	universe universe.Provider
	calendar *calendar.Calendar
	results  cache.Cache[string, model.ScanResult]
	now      func() time.Time
}

// NewService wires a Service. Scan results are cached in a single-slot
// memory tier in front of st.
func NewService(cfg Config, fetcher scanner.BatchFetcher, provider universe.Provider, cal *calendar.Calendar, st store.Store) *Service {
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = DefaultLimit
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = DefaultResultTTL
	}
	if st == nil {
		st = store.NewNoopStore()
	}
	results := cache.NewTiered[string, model.ScanResult](
		CachePrefix,
		cache.NewMemory[string, model.ScanResult](1),
		cache.NewDurable[model.ScanResult](st, CachePrefix),
		cfg.ResultTTL,
	)
	return &Service{
		cfg:      cfg,
		fetcher:  fetcher,
		universe: provider,
		calendar: cal,
		results:  results,
		now:      time.Now,
	}
}

// Calendar returns the trading calendar the service scans with.
func (s *Service) Calendar() *calendar.Calendar { return s.calendar }

// Run executes one scan. It returns either a response or a *Failure; panics
// inside the scan are recovered into a *Failure.
func (s *Service) Run(ctx context.Context, opts Options) (resp *model.Response, err error) {
	start := s.now()
	scanID := uuid.NewString()
	logf := func(format string, args ...any) {
		log.Printf(format+" scan=%s", append(args, scanID)...)
	}

	defer func() {
		if r := recover(); r != nil {
			logf("[ERROR] scan panicked: %v\n%s", r, debug.Stack())
			resp = nil
			err = s.fail(start, fmt.Errorf("scan panicked: %v", r))
		}
	}()

	resp, err = s.run(ctx, opts, scanID, start, logf)
	if err != nil {
		logf("[ERROR] scan failed: %v", err)
		return nil, s.fail(start, err)
	}
	return resp, nil
}

func (s *Service) run(ctx context.Context, opts Options, scanID string, start time.Time, logf func(string, ...any)) (*model.Response, error) {
	if s.cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	if opts.Limit <= 0 {
		opts.Limit = s.cfg.DefaultLimit
	}
	filter := s.cfg.Filter
	if opts.MinGapPercent > 0 {
		filter.MinGapPercent = opts.MinGapPercent
	}
	// Scans under a custom threshold or limit never share the day's cache slot.
	custom := filter.MinGapPercent != s.cfg.Filter.MinGapPercent || opts.Limit != s.cfg.DefaultLimit

	if opts.ForceRefresh {
		res, err := s.universe.Refresh(ctx)
		if err != nil {
			return nil, fmt.Errorf("refresh universe: %w", err)
		}
		logf("[INFO] universe refreshed: %d symbols (+%d/-%d)", res.Count, res.Added, res.Removed)
	}
	symbols, err := s.universe.Universe(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve universe: %w", err)
	}
	info, err := s.universe.InfoMap(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve ticker info: %w", err)
	}

	universeSize := len(symbols)
	limited := opts.Limit < universeSize
	if limited {
		symbols = symbols[:opts.Limit]
		logf("[WARN] universe limited to first %d of %d symbols", opts.Limit, universeSize)
	}

	tradingDate, previousDate := s.calendar.TradingDates(start)

	if !opts.bypassCache() && !custom {
		cached, ok, err := s.results.Get(ctx, tradingDate)
		if err != nil {
			logf("[WARN] result cache read %s: %v", tradingDate, err)
		} else if ok {
			logf("[INFO] serving cached scan for %s", tradingDate)
			return s.respond(cached.Clone(), model.SourceCache, scanID, start), nil
		}
	}

	logf("[INFO] scanning %d symbols for %s (prev %s), dryRun=%v", len(symbols), tradingDate, previousDate, opts.DryRun)
	scanCtx := ctx
	if opts.bypassCache() {
		scanCtx = collector.SkipQuoteCache(ctx)
	}
	res, err := scanner.NewEngine(s.fetcher, logf).Scan(scanCtx, symbols, info, filter)
	if err != nil {
		return nil, fmt.Errorf("scan interrupted: %w", err)
	}

	res.Timestamp = s.now()
	res.TradingDate = tradingDate
	res.PreviousDate = previousDate
	res.DurationMs = s.now().Sub(start).Milliseconds()
	res.Debug.UniverseSize = universeSize
	res.Debug.Limited = limited
	res.Debug.APIKeyPresent = true
	res.Debug.APIKeyLength = len(s.cfg.APIKey)

	if !opts.DryRun && !custom {
		if err := s.results.SetWithTTL(ctx, tradingDate, *res.Clone(), s.cfg.ResultTTL); err != nil {
			logf("[WARN] result cache write %s: %v", tradingDate, err)
		}
	}

	logf("[INFO] scan done: scanned=%d found=%d gainers=%d losers=%d in %dms",
		res.Scanned, res.Found, len(res.Gainers), len(res.Losers), res.DurationMs)
	return s.respond(res, model.SourceLive, scanID, start), nil
}

// respond builds the response body. Session fields always describe the
// moment of the request, even for cached results.
func (s *Service) respond(res *model.ScanResult, source model.Source, scanID string, start time.Time) *model.Response {
	now := s.now()
	session := s.calendar.MarketSession(now)
	dbg := res.Debug
	dbg.APIKeyPresent = s.cfg.APIKey != ""
	dbg.APIKeyLength = len(s.cfg.APIKey)
	return &model.Response{
		Success:       true,
		ScanID:        scanID,
		Data:          model.GapData{Gainers: res.Gainers, Losers: res.Losers},
		Timestamp:     res.Timestamp,
		Source:        source,
		Scanned:       res.Scanned,
		Found:         res.Found,
		IsWeekend:     s.calendar.IsWeekend(now),
		TradingDate:   res.TradingDate,
		PreviousDate:  res.PreviousDate,
		MarketSession: session.Session,
		MarketStatus:  session.MarketStatus,
		IsPreMarket:   session.IsPreMarket,
		DurationMs:    now.Sub(start).Milliseconds(),
		Debug:         dbg,
		Filters:       res.Filters,
	}
}

func (s *Service) fail(start time.Time, err error) *Failure {
	return &Failure{
		Err: err,
		Response: model.ErrorResponse{
			Success:    false,
			Error:      err.Error(),
			Message:    failureMessage(err),
			Timestamp:  s.now(),
			DurationMs: s.now().Sub(start).Milliseconds(),
		},
	}
}

func failureMessage(err error) string {
	switch {
	case errors.Is(err, ErrMissingAPIKey):
		return "configuration error: set FINNHUB_API_KEY"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "scan was cancelled before completion"
	default:
		return "gap scan failed"
	}
}

// RefreshUniverse reloads the universe from its provider.
func (s *Service) RefreshUniverse(ctx context.Context) (universe.RefreshResult, error) {
	res, err := s.universe.Refresh(ctx)
	if err != nil {
		log.Printf("[ERROR] refresh universe: %v", err)
		return universe.RefreshResult{}, fmt.Errorf("refresh universe: %w", err)
	}
	log.Printf("[INFO] universe refreshed: %d symbols (+%d/-%d)", res.Count, res.Added, res.Removed)
	return res, nil
}
