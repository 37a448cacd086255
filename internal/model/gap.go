package model

import "time"

// GapStatus classifies the direction of a gap.
type GapStatus string

const (
	StatusGainer GapStatus = "gainer"
	StatusLoser  GapStatus = "loser"
)

// GapStock is a symbol that passed the whole filter cascade.
type GapStock struct {
	Symbol        string    `json:"symbol"`
	Name          string    `json:"name"`
	Price         float64   `json:"price"`
	PreviousClose float64   `json:"previousClose"`
	GapPercent    float64   `json:"gapPercent"`
	Volume        int64     `json:"volume"`
	MarketCap     float64   `json:"marketCap"`
	Status        GapStatus `json:"status"`
}

// Debug holds the per-stage counters of one scan.
type Debug struct {
	APIKeyPresent    bool     `json:"apiKeyPresent"`
	APIKeyLength     int      `json:"apiKeyLength"`
	UniverseSize     int      `json:"universeSize"`
	Limited          bool     `json:"limited"`
	SkippedETF       int      `json:"skippedETF"`
	SkippedGap       int      `json:"skippedGap"`
	SkippedVolume    int      `json:"skippedVolume"`
	SkippedPrice     int      `json:"skippedPrice"`
	SkippedMarketCap int      `json:"skippedMarketCap"`
	QuoteFailures    int      `json:"quoteFailures"`
	NoDataQuotes     int      `json:"noDataQuotes"`
	ProfileFailures  int      `json:"profileFailures"`
	Errors           []string `json:"errors"`
}

// Filters echoes the thresholds a scan ran with.
type Filters struct {
	MinGapPercent   float64 `json:"minGapPercent"`
	MinVolume       int64   `json:"minVolume"`
	MaxPrice        float64 `json:"maxPrice"`
	MinMarketCap    float64 `json:"minMarketCap"`
	ExcludeETFs     bool    `json:"excludeETFs"`
	ExcludeWarrants bool    `json:"excludeWarrants"`
}

// ScanResult is the engine output for one scan. It is not modified after
// being returned.
type ScanResult struct {
	Gainers      []GapStock `json:"gainers"`
	Losers       []GapStock `json:"losers"`
	Timestamp    time.Time  `json:"timestamp"`
	TradingDate  string     `json:"tradingDate"`
	PreviousDate string     `json:"previousDate"`
	Scanned      int        `json:"scanned"`
	Found        int        `json:"found"`
	DurationMs   int64      `json:"durationMs"`
	Debug        Debug      `json:"debug"`
	Filters      Filters    `json:"filters"`
}

// Clone returns a deep copy so a cache never shares slices with a caller.
func (r *ScanResult) Clone() *ScanResult {
	if r == nil {
		return nil
	}
	c := *r
	c.Gainers = append([]GapStock(nil), r.Gainers...)
	c.Losers = append([]GapStock(nil), r.Losers...)
	c.Debug.Errors = append([]string(nil), r.Debug.Errors...)
	return &c
}
