package model

import "time"

// Source tells the caller whether a response was computed or served from cache.
type Source string

const (
	SourceLive  Source = "live"
	SourceCache Source = "cache"
)

// GapData is the data section of a scan response.
type GapData struct {
	Gainers []GapStock `json:"gainers"`
	Losers  []GapStock `json:"losers"`
}

// Response is the payload returned to the trigger surface on success.
type Response struct {
	Success       bool      `json:"success"`
	ScanID        string    `json:"scanId"`
	Data          GapData   `json:"data"`
	Timestamp     time.Time `json:"timestamp"`
	Source        Source    `json:"source"`
	Scanned       int       `json:"scanned"`
	Found         int       `json:"found"`
	IsWeekend     bool      `json:"isWeekend"`
	TradingDate   string    `json:"tradingDate"`
	PreviousDate  string    `json:"previousDate"`
	MarketSession Session   `json:"marketSession"`
	MarketStatus  string    `json:"marketStatus"`
	IsPreMarket   bool      `json:"isPreMarket"`
	DurationMs    int64     `json:"durationMs"`
	Debug         Debug     `json:"debug"`
	Filters       Filters   `json:"filters"`
}

// ErrorResponse is returned instead of Response when a scan fails.
type ErrorResponse struct {
	Success    bool      `json:"success"`
	Error      string    `json:"error"`
	Message    string    `json:"message"`
	Timestamp  time.Time `json:"timestamp"`
	DurationMs int64     `json:"durationMs"`
}
