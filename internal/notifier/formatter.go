package notifier

import (
	"errors"
	"fmt"
	"html"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"Recharted/internal/calculator"
	"Recharted/internal/collector"
	"Recharted/internal/model"
	"Recharted/internal/recorder"
	"Recharted/internal/resolver"
)

// Degraded reports whether res should raise an ops alert: the chain fell to
// the last-resort example, or the primary provider rejected the API key.
func Degraded(res *resolver.Resolution) bool {
	if res == nil {
		return false
	}
	return res.Step == resolver.StepExample || errors.Is(res.PrimaryErr, collector.ErrUnauthorized)
}

// FormatDegradation formats an ops alert for a degraded resolution.
func FormatDegradation(input string, tf model.Timeframe, res *resolver.Resolution) string {
	var b strings.Builder
	b.WriteString("⚠️ <b>Recharted degraded</b>\n\n")
	b.WriteString(fmt.Sprintf("Chart: <code>%s</code> (%s)\n", html.EscapeString(input), tf))
	b.WriteString(fmt.Sprintf("Step: %s | Provider: %s\n", res.Step, res.Provider))
	if res.PrimaryErr != nil {
		b.WriteString(fmt.Sprintf("Primary error: %s\n", html.EscapeString(res.PrimaryErr.Error())))
	}
	if errors.Is(res.PrimaryErr, collector.ErrUnauthorized) {
		b.WriteString("\nThe Codex API key was rejected. Check CODEX_API_KEY.\n")
	}
	return b.String()
}

// FormatResolution summarizes a resolved series for a chat reply.
func FormatResolution(input string, tf model.Timeframe, res *resolver.Resolution) string {
	s := res.Series
	var b strings.Builder

	b.WriteString(fmt.Sprintf("📈 <b>%s</b> | %s\n\n", html.EscapeString(s.Symbol), tf))
	b.WriteString(fmt.Sprintf("Price: %s (%+.2f%% 24h)\n", FormatPrice(s.CurrentPrice), s.PriceChange24hPct))
	if s.MarketCap != nil {
		b.WriteString(fmt.Sprintf("Market cap: %s", FormatCompactUSD(*s.MarketCap)))
		if res.MarketCapBranch != resolver.BranchNone {
			b.WriteString(fmt.Sprintf(" (%s)", res.MarketCapBranch))
		}
		b.WriteString("\n")
	}

	if high, low, err := calculator.PriceRange(s.Prices); err == nil {
		pos, _ := calculator.Position(s.CurrentPrice, high, low)
		b.WriteString(fmt.Sprintf("Range: %s ~ %s (at %.0f%%)\n", FormatPrice(low), FormatPrice(high), pos*100))
	}

	b.WriteString(fmt.Sprintf("\nSource: %s via %s, %d points\n", s.Source, res.Provider, s.Len()))
	if s.HistoricalDataUnavailable {
		b.WriteString("History is synthetic; no market data was available.\n")
	}
	b.WriteString(fmt.Sprintf("<code>%s</code>", html.EscapeString(input)))
	return b.String()
}

// FormatStats formats recent resolutions and per-source counts.
func FormatStats(events []recorder.ResolutionEvent, counts map[string]int, since time.Time) string {
	var b strings.Builder
	b.WriteString("📊 <b>Recharted stats</b>\n\n")

	total := 0
	sources := make([]string, 0, len(counts))
	for src, n := range counts {
		sources = append(sources, src)
		total += n
	}
	sort.Strings(sources)

	b.WriteString(fmt.Sprintf("Since %s: %d resolutions\n", since.UTC().Format("2006-01-02 15:04 MST"), total))
	for _, src := range sources {
		b.WriteString(fmt.Sprintf("  %s: %d\n", src, counts[src]))
	}

	if len(events) == 0 {
		b.WriteString("\nNo recent resolutions.")
		return b.String()
	}
	b.WriteString("\n<b>Recent:</b>\n")
	for _, e := range events {
		flag := ""
		if e.PredatesHistory {
			flag = " ⛔"
		}
		b.WriteString(fmt.Sprintf("  %s %s %s/%s %d pts%s\n",
			e.ResolvedAt.UTC().Format("01-02 15:04"),
			html.EscapeString(e.Symbol), e.Source, e.Step, e.DataPoints, flag))
	}
	return b.String()
}

// FormatPrice renders a USD price. Sub-dollar prices keep four significant digits.
func FormatPrice(p float64) string {
	d := decimal.NewFromFloat(p)
	if p >= 1 || p <= 0 {
		return "$" + d.StringFixed(2)
	}
	places := int32(4)
	for x := p; x < 0.1 && places < 18; x *= 10 {
		places++
	}
	return "$" + d.Round(places).String()
}

var compactUnits = []struct {
	threshold decimal.Decimal
	suffix    string
}{
	{decimal.New(1, 12), "T"},
	{decimal.New(1, 9), "B"},
	{decimal.New(1, 6), "M"},
	{decimal.New(1, 3), "K"},
}

// FormatCompactUSD renders large USD amounts as $1.23B and the like.
func FormatCompactUSD(v float64) string {
	d := decimal.NewFromFloat(v)
	for _, u := range compactUnits {
		if d.Abs().GreaterThanOrEqual(u.threshold) {
			return "$" + d.Div(u.threshold).StringFixed(2) + u.suffix
		}
	}
	return "$" + d.StringFixed(2)
}

// HelpText lists the supported commands.
const HelpText = `🤖 <b>Recharted</b>

/resolve &lt;chart&gt; [timeframe] - resolve a chart and show a summary
/stats - recent resolutions and source counts
/help - show this message

Timeframes: 5m 15m 1h 4h 6h 1d 1w 1m`
