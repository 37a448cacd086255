package collector

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"golang.org/x/time/rate"

	"GapSentinel/internal/cache"
	"GapSentinel/internal/model"
)

// maxBatchErrors caps the error messages kept per batch.
const maxBatchErrors = 25

// Batch is the outcome of fetching one batch of symbols. Quotes only holds
// symbols with valid data.
type Batch struct {
	Quotes   map[string]model.Quote
	Failures int
	NoData   int
	Errors   []string
	// Err is set when the batch stopped before its last symbol.
	Err error
}

type skipQuoteCacheKey struct{}

// SkipQuoteCache returns a context under which quotes are always requested
// from the source. Fetched quotes still refresh the cache.
func SkipQuoteCache(ctx context.Context) context.Context {
	return context.WithValue(ctx, skipQuoteCacheKey{}, true)
}

func quoteCacheSkipped(ctx context.Context) bool {
	skip, _ := ctx.Value(skipQuoteCacheKey{}).(bool)
	return skip
}

// Fetcher requests quotes one symbol at a time, spacing consecutive requests
// by a fixed delay. The pacing survives across batches.
type Fetcher struct {
	source   Source
	limiter  *rate.Limiter
	quotes   cache.Cache[string, model.Quote]
	quoteTTL time.Duration
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher)

// WithQuoteCache serves repeated symbols from c for ttl without spending a request.
func WithQuoteCache(c cache.Cache[string, model.Quote], ttl time.Duration) FetcherOption {
	return func(f *Fetcher) {
		f.quotes = c
		f.quoteTTL = ttl
	}
}

// NewFetcher creates a Fetcher that waits delay between requests. A zero
// delay disables pacing.
func NewFetcher(source Source, delay time.Duration, opts ...FetcherOption) *Fetcher {
	limit := rate.Inf
	if delay > 0 {
		limit = rate.Every(delay)
	}
	f := &Fetcher{
		source:  source,
		limiter: rate.NewLimiter(limit, 1),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// SourceName returns the name of the underlying provider.
func (f *Fetcher) SourceName() string { return f.source.Name() }

// FetchBatch fetches symbols strictly in order. A failing symbol is logged
// and skipped; it never stops the rest of the batch. Cancelling ctx returns
// what was fetched so far with Err set. A deadline the limiter cannot meet
// stops the batch the same way.
func (f *Fetcher) FetchBatch(ctx context.Context, symbols []string) Batch {
	b := Batch{Quotes: make(map[string]model.Quote, len(symbols))}
	for _, symbol := range symbols {
		if q, ok := f.cached(ctx, symbol); ok {
			b.Quotes[symbol] = q
			continue
		}
		if err := f.limiter.Wait(ctx); err != nil {
			log.Printf("[WARN] quote fetch stopped before %s: %v", symbol, err)
			b.Err = fmt.Errorf("pacing before %s: %w", symbol, err)
			return b
		}
		q, err := f.fetchOne(ctx, symbol)
		switch {
		case err == nil:
			b.Quotes[symbol] = q
			f.remember(ctx, q)
		case errors.Is(err, ErrNoData):
			b.NoData++
		default:
			b.Failures++
			if len(b.Errors) < maxBatchErrors {
				b.Errors = append(b.Errors, fmt.Sprintf("%s: %v", symbol, err))
			}
			log.Printf("[WARN] quote %s: %v", symbol, err)
		}
	}
	return b
}

// fetchOne converts a panic in the source into an error so one symbol can
// never abort the batch.
func (f *Fetcher) fetchOne(ctx context.Context, symbol string) (q model.Quote, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return f.source.Quote(ctx, symbol)
}

func (f *Fetcher) cached(ctx context.Context, symbol string) (model.Quote, bool) {
	if f.quotes == nil || quoteCacheSkipped(ctx) {
		return model.Quote{}, false
	}
	q, ok, err := f.quotes.Get(ctx, symbol)
	if err != nil || !ok {
		return model.Quote{}, false
	}
	return q, true
}

func (f *Fetcher) remember(ctx context.Context, q model.Quote) {
	if f.quotes == nil {
		return
	}
	if err := f.quotes.SetWithTTL(ctx, q.Symbol, q, f.quoteTTL); err != nil {
		log.Printf("[WARN] cache quote %s: %v", q.Symbol, err)
	}
}
