package notifier

import (
	"fmt"
	"html"
	"strings"

	"GapSentinel/internal/model"
	"GapSentinel/internal/universe"
)

// FormatScanReport renders the top n gainers and losers of a scan.
func FormatScanReport(resp *model.Response, n int) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("📊 <b>Gap Scan</b> | %s (prev %s)\n", resp.TradingDate, resp.PreviousDate))
	b.WriteString(fmt.Sprintf("Session: %s | source: %s\n", resp.MarketSession, resp.Source))
	b.WriteString(fmt.Sprintf("Scanned %d, found %d in %.1fs\n\n", resp.Scanned, resp.Found, float64(resp.DurationMs)/1000))

	b.WriteString("🟢 <b>Gainers</b>\n")
	writeStocks(&b, resp.Data.Gainers, n)
	b.WriteString("\n🔴 <b>Losers</b>\n")
	writeStocks(&b, resp.Data.Losers, n)

	if resp.Debug.Limited {
		b.WriteString(fmt.Sprintf("\n⚠️ limited scan, universe has %d symbols\n", resp.Debug.UniverseSize))
	}
	if f := resp.Debug.QuoteFailures; f > 0 {
		b.WriteString(fmt.Sprintf("\n⚠️ %d quote failures\n", f))
	}
	return b.String()
}

func writeStocks(b *strings.Builder, stocks []model.GapStock, n int) {
	if len(stocks) == 0 {
		b.WriteString("  (none)\n")
		return
	}
	if n > 0 && len(stocks) > n {
		stocks = stocks[:n]
	}
	for i, s := range stocks {
		b.WriteString(fmt.Sprintf("%2d. <b>%s</b> %+.2f%%  $%.2f  vol %s  %s\n",
			i+1, html.EscapeString(s.Symbol), s.GapPercent, s.Price, compact(float64(s.Volume)), html.EscapeString(s.Name)))
	}
}

// FormatScanFailure renders a failed scan.
func FormatScanFailure(e model.ErrorResponse) string {
	return fmt.Sprintf("❌ <b>Gap scan failed</b>\n%s\n<code>%s</code>", html.EscapeString(e.Message), html.EscapeString(e.Error))
}

// FormatSession renders the current market session.
func FormatSession(state model.SessionState, tradingDate, previousDate string, tradingDay bool) string {
	var b strings.Builder
	b.WriteString("🕒 <b>Market session</b>\n\n")
	b.WriteString(fmt.Sprintf("Session: %s (%s)\n", state.Session, state.MarketStatus))
	b.WriteString(fmt.Sprintf("Trading date: %s\n", tradingDate))
	b.WriteString(fmt.Sprintf("Previous: %s\n", previousDate))
	if !tradingDay {
		b.WriteString("Today is not a trading day\n")
	}
	return b.String()
}

// FormatRefresh renders a universe refresh result.
func FormatRefresh(res universe.RefreshResult) string {
	return fmt.Sprintf("🔄 <b>Universe refreshed</b>\n%d symbols (+%d / -%d)", res.Count, res.Added, res.Removed)
}

func compact(v float64) string {
	switch {
	case v >= 1e9:
		return fmt.Sprintf("%.1fB", v/1e9)
	case v >= 1e6:
		return fmt.Sprintf("%.1fM", v/1e6)
	case v >= 1e3:
		return fmt.Sprintf("%.0fK", v/1e3)
	default:
		return fmt.Sprintf("%.0f", v)
	}
}
