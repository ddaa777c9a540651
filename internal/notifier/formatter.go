package notifier

import (
	"fmt"
	"html"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"PivotSentinel/internal/model"
)

// HelpText lists the bot commands.
const HelpText = `<b>PivotSentinel</b>
/watch SYMBOL - add a symbol to the watchlist
/unwatch SYMBOL - remove a symbol
/list - show the watchlist
/pivots SYMBOL - pivot levels for every time frame
/setups SYMBOL - graded trade setups
/scan - run a scan now
/help - this message`

func price(v float64) string {
	return humanize.FormatFloat("#,###.##", v)
}

func touchCell(t model.LevelTouch, ok bool) string {
	switch {
	case !ok:
		return ""
	case t.Touched:
		return " ✓" + t.TouchDate
	default:
		return " " + t.Status
	}
}

// FormatPivotReport renders the pivot levels of every available time frame
// in the given order.
func FormatPivotReport(symbol string, results map[model.TimeFrame]model.TimeFrameResult, order []model.TimeFrame) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📐 <b>%s pivots</b> | %s\n", html.EscapeString(symbol), time.Now().Format("2006-01-02 15:04"))

	shown := 0
	for _, tf := range order {
		res, ok := results[tf]
		if !ok || !res.Available {
			continue
		}
		shown++
		fmt.Fprintf(&b, "\n<b>%s</b> O %s H %s L %s C %s\n", tf.Label(),
			price(res.OHLC.Open), price(res.OHLC.High), price(res.OHLC.Low), price(res.OHLC.Close))
		fmt.Fprintf(&b, "Status: %s %s\n", res.Standard.Status.State, res.Standard.Status.Distance)

		b.WriteString("<code>")
		for _, name := range model.StandardLevelOrder {
			v, ok := res.Standard.Levels[name]
			if !ok {
				continue
			}
			t, seen := res.Standard.History[name]
			fmt.Fprintf(&b, "%-3s %10s%s\n", name, price(v), touchCell(t, seen))
		}
		b.WriteString("</code>")

		if len(res.DeMark.Levels) > 0 {
			b.WriteString("DeMark:\n<code>")
			for _, name := range model.DeMarkLevelOrder {
				v, ok := res.DeMark.Levels[name]
				if !ok {
					continue
				}
				t, seen := res.DeMark.History[name]
				fmt.Fprintf(&b, "%-3s %10s%s\n", name, price(v), touchCell(t, seen))
			}
			b.WriteString("</code>")
		}
		if sig, ok := res.Setups.Active(); ok {
			b.WriteString(signalLine(sig))
		}
	}
	if shown == 0 {
		b.WriteString("\nNo data available.\n")
	}
	return b.String()
}

func signalLine(sig model.SetupSignal) string {
	arrow := "🟢"
	if sig.Direction == model.Short {
		arrow = "🔴"
	}
	return fmt.Sprintf("%s DeMark %s setup: trigger %s, target %s (%+.2f%%)\n",
		arrow, sig.Direction, price(sig.Trigger), price(sig.Target), sig.DistancePercent)
}

// FormatSignalAlert renders a newly active DeMark setup.
func FormatSignalAlert(symbol string, tf model.TimeFrame, sig model.SetupSignal) string {
	return fmt.Sprintf("🔔 <b>%s</b> %s\n%s", html.EscapeString(symbol), tf.Label(), signalLine(sig))
}

// FormatSetups renders graded setups grouped by time frame.
func FormatSetups(symbol string, setups map[model.TimeFrame][]model.Setup, order []model.TimeFrame) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🎯 <b>%s setups</b>\n", html.EscapeString(symbol))

	n := 0
	for _, tf := range order {
		for _, s := range setups[tf] {
			n++
			b.WriteString(FormatSetup(s))
		}
	}
	if n == 0 {
		b.WriteString("\nNo setups.\n")
	}
	return b.String()
}

// FormatSetup renders a single graded setup.
func FormatSetup(s model.Setup) string {
	var b strings.Builder
	fmt.Fprintf(&b, "\n<b>%s %s</b> [%s] %s @ %s\n", s.TimeFrame.Label(), strings.ToUpper(string(s.Direction)),
		s.Quality, s.Pattern, s.TriggerLevel)
	fmt.Fprintf(&b, "Entry %s | Stop %s | Target %s\n", price(s.Entry), price(s.StopLoss), price(s.Target))
	fmt.Fprintf(&b, "Prob %.0f%% | R:R %.2f | Trend %s\n", s.Probability, s.RiskReward, s.Trend)

	var conf []string
	for k, ok := range s.Confirmations {
		if ok {
			conf = append(conf, k)
		}
	}
	sort.Strings(conf)
	if len(conf) > 0 {
		fmt.Fprintf(&b, "Confirmed: %s\n", strings.Join(conf, ", "))
	}
	if s.VolumeSurge > 0 {
		fmt.Fprintf(&b, "Volume surge %.1fx", s.VolumeSurge)
		if s.RepeatedTests > 1 {
			fmt.Fprintf(&b, " | Tested %s", humanize.Ordinal(s.RepeatedTests))
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "Best time %s\n", s.BestTime)
	return b.String()
}

// FormatScanSummary renders the outcome of one scan run.
func FormatScanSummary(trigger model.TriggerType, started time.Time, symbols, setupsFound int, errs []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🛰 <b>Scan %s</b> | started %s\n", strings.ToLower(string(trigger)), humanize.Time(started))
	fmt.Fprintf(&b, "Symbols: %s | Active setups: %s\n", humanize.Comma(int64(symbols)), humanize.Comma(int64(setupsFound)))
	if len(errs) > 0 {
		fmt.Fprintf(&b, "⚠️ %d errors:\n", len(errs))
		for _, e := range errs {
			fmt.Fprintf(&b, "  %s\n", html.EscapeString(e))
		}
	}
	return b.String()
}

// FormatWatchlist renders the watched symbols.
func FormatWatchlist(symbols []string) string {
	if len(symbols) == 0 {
		return "📋 Watchlist is empty. Use /watch SYMBOL."
	}
	return fmt.Sprintf("📋 <b>Watchlist</b> (%d)\n%s", len(symbols), html.EscapeString(strings.Join(symbols, ", ")))
}
