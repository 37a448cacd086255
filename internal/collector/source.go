package collector

import (
	"context"
	"errors"
	"fmt"

	"GapSentinel/internal/model"
)

// ErrNoData marks a quote the provider returned with zero prices.
var ErrNoData = errors.New("no data")

// StatusError is a non-success HTTP response from the provider.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("status %d: %s", e.StatusCode, e.Body)
}

// Source fetches one quote per call from the market-data provider.
type Source interface {
	Quote(ctx context.Context, symbol string) (model.Quote, error)
	Name() string
}
