package scanner

import (
	"github.com/shopspring/decimal"

	"GapSentinel/internal/model"
)

var hundred = decimal.NewFromInt(100)

// GapPercent returns (current - previous) / previous * 100 rounded to two
// decimals, half away from zero. previous must be non-zero.
func GapPercent(current, previous float64) float64 {
	c := decimal.NewFromFloat(current)
	p := decimal.NewFromFloat(previous)
	pct, _ := c.Sub(p).Div(p).Mul(hundred).Round(2).Float64()
	return pct
}

// Classify returns the status for a gap: gainer iff strictly positive.
func Classify(gapPercent float64) model.GapStatus {
	if gapPercent > 0 {
		return model.StatusGainer
	}
	return model.StatusLoser
}
