package universe

import (
	"context"
	"time"

	"GapSentinel/internal/model"
)

// Provider supplies the symbols eligible for scanning and their static info.
type Provider interface {
	Universe(ctx context.Context) ([]string, error)
	InfoMap(ctx context.Context) (map[string]model.TickerInfo, error)
	Refresh(ctx context.Context) (RefreshResult, error)
}

// RefreshResult summarizes a universe reload.
type RefreshResult struct {
	Success     bool      `json:"success"`
	Count       int       `json:"count"`
	Added       int       `json:"added"`
	Removed     int       `json:"removed"`
	RefreshedAt time.Time `json:"refreshedAt"`
}
