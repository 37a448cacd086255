package model

// TickerInfo is static reference data for one symbol, supplied by the universe provider.
type TickerInfo struct {
	Symbol    string  `json:"symbol" yaml:"symbol"`
	Name      string  `json:"name" yaml:"name"`
	MarketCap float64 `json:"marketCap" yaml:"market_cap"` // USD, 0 means unknown
}

// Quote is a single fetch result from the quote provider.
type Quote struct {
	Symbol   string
	Current  float64
	Previous float64
	Volume   int64
}

// Valid reports whether the quote carries tradable data. The provider
// returns zero prices for symbols with nothing to report.
func (q Quote) Valid() bool {
	return q.Current != 0 && q.Previous != 0
}
