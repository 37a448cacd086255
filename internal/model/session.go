package model

// Session is the market session at a point in time.
type Session string

const (
	SessionPreMarket  Session = "pre-market"
	SessionOpen       Session = "market-open"
	SessionPostMarket Session = "post-market"
	SessionClosed     Session = "closed"
)

// SessionState is derived from wall-clock time and never persisted.
type SessionState struct {
	Session      Session `json:"marketSession"`
	IsPreMarket  bool    `json:"isPreMarket"`
	MarketStatus string  `json:"marketStatus"` // "open" or "closed"
}
