package calendar

import (
	"fmt"
	"log"
	"sync"
	"time"

	"GapSentinel/internal/model"
)

// DateLayout is the layout of every date string the calendar produces.
const DateLayout = "2006-01-02"

// DefaultTimezone is the exchange zone sessions are computed in.
const DefaultTimezone = "America/New_York"

// Session boundaries in minutes since midnight, exchange time. Each
// interval is half-open: the lower bound belongs to the session.
const (
	preMarketStart  = 4 * 60    // 04:00
	regularStart    = 9*60 + 30 // 09:30
	postMarketStart = 16 * 60   // 16:00
	postMarketEnd   = 20 * 60   // 20:00
)

// Calendar resolves trading days and market sessions.
type Calendar struct {
	loc      *time.Location
	holidays map[string]bool
	years    map[int]bool

	warnMu sync.Mutex
	warned map[int]bool
}

// New creates a calendar for the named zone with the built-in NYSE holidays
// plus any extra YYYY-MM-DD dates.
func New(timezone string, extra []string) (*Calendar, error) {
	if timezone == "" {
		timezone = DefaultTimezone
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", timezone, err)
	}
	c := &Calendar{
		loc:      loc,
		holidays: make(map[string]bool),
		years:    make(map[int]bool),
		warned:   make(map[int]bool),
	}
	for year, days := range nyseHolidays {
		c.years[year] = true
		for _, d := range days {
			c.holidays[d] = true
		}
	}
	for _, d := range extra {
		t, err := time.Parse(DateLayout, d)
		if err != nil {
			return nil, fmt.Errorf("parse holiday %q: %w", d, err)
		}
		c.holidays[d] = true
		c.years[t.Year()] = true
	}
	return c, nil
}

// Location returns the exchange zone.
func (c *Calendar) Location() *time.Location { return c.loc }

// Covers reports whether holidays are enumerated for the year.
func (c *Calendar) Covers(year int) bool { return c.years[year] }

// IsHoliday reports whether the calendar date of t, in the exchange zone,
// is a configured market holiday.
func (c *Calendar) IsHoliday(t time.Time) bool {
	t = t.In(c.loc)
	c.warnUncovered(t.Year())
	return c.holidays[t.Format(DateLayout)]
}

// IsTradingDay reports whether t is neither a weekend day nor a holiday.
func (c *Calendar) IsTradingDay(t time.Time) bool {
	return !IsWeekendDay(t.In(c.loc)) && !c.IsHoliday(t)
}

// IsWeekend reports whether t falls on Saturday or Sunday in the exchange zone.
func (c *Calendar) IsWeekend(t time.Time) bool {
	return IsWeekendDay(t.In(c.loc))
}

// LastTradingDate steps back from the day before t until it finds a trading
// day and returns that day at midnight, exchange time.
func (c *Calendar) LastTradingDate(t time.Time) time.Time {
	t = t.In(c.loc)
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, c.loc)
	for {
		d = d.AddDate(0, 0, -1)
		if c.IsTradingDay(d) {
			return d
		}
	}
}

// TradingDates returns the date a scan at now belongs to and the trading day
// before it, both formatted as YYYY-MM-DD. On a non-trading day the scan
// belongs to the most recent trading day.
func (c *Calendar) TradingDates(now time.Time) (trading, previous string) {
	now = now.In(c.loc)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, c.loc)
	if !c.IsTradingDay(today) {
		today = c.LastTradingDate(today)
	}
	return today.Format(DateLayout), c.LastTradingDate(today).Format(DateLayout)
}

// MarketSession classifies now by time of day in the exchange zone.
func (c *Calendar) MarketSession(now time.Time) model.SessionState {
	now = now.In(c.loc)
	minutes := now.Hour()*60 + now.Minute()
	switch {
	case minutes >= preMarketStart && minutes < regularStart:
		return model.SessionState{Session: model.SessionPreMarket, IsPreMarket: true, MarketStatus: "open"}
	case minutes >= regularStart && minutes < postMarketStart:
		return model.SessionState{Session: model.SessionOpen, MarketStatus: "open"}
	case minutes >= postMarketStart && minutes < postMarketEnd:
		return model.SessionState{Session: model.SessionPostMarket, MarketStatus: "open"}
	default:
		return model.SessionState{Session: model.SessionClosed, MarketStatus: "closed"}
	}
}

// IsWeekendDay reports whether t is a Saturday or Sunday in its own zone.
func IsWeekendDay(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

func (c *Calendar) warnUncovered(year int) {
	if c.years[year] {
		return
	}
	c.warnMu.Lock()
	defer c.warnMu.Unlock()
	if c.warned[year] {
		return
	}
	c.warned[year] = true
	log.Printf("[WARN] no market holidays configured for %d, treating every weekday as a trading day", year)
}
