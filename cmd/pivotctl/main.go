// Command pivotctl prints pivot levels and setups of one symbol.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"PivotSentinel/internal/analysis"
	"PivotSentinel/internal/cache"
	"PivotSentinel/internal/collector"
	"PivotSentinel/internal/config"
	"PivotSentinel/internal/logger"
	"PivotSentinel/internal/model"
)

func main() {
	symbol := flag.String("symbol", "", "symbol to analyze, e.g. AAPL")
	tfList := flag.String("timeframes", "", "comma-separated time frames (default: all)")
	asJSON := flag.Bool("json", false, "print JSON instead of tables")
	cfgPath := flag.String("config", "configs/config.yaml", "config file")
	flag.Parse()

	if *symbol == "" {
		flag.Usage()
		os.Exit(2)
	}
	if err := logger.Init("warn", "development"); err != nil {
		panic(err)
	}
	defer logger.Sync()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatalf("config validation: %v", err)
	}
	timeframes, err := parseTimeFrames(*tfList)
	if err != nil {
		logger.Fatalf("%v", err)
	}

	loc, _ := cfg.Location()
	fetcher, err := collector.NewFetcher(collector.Source{
		Provider:      cfg.DataSource.Provider,
		BaseURL:       cfg.DataSource.BaseURL,
		APIKey:        cfg.DataSource.APIKey,
		Proxy:         cfg.DataSource.Proxy,
		Location:      loc,
		RatePerSecond: cfg.DataSource.RatePerSecond,
	})
	if err != nil {
		logger.Fatalf("init fetcher: %v", err)
	}
	ttls, _ := cfg.CacheTTLs()
	col := collector.NewCollector(fetcher, cache.NewMemoryCache(ttls), timeframes)

	engineCfg := analysis.DefaultConfig()
	engineCfg.GeneralTolerancePct = cfg.Pivot.GeneralTolerancePct
	engineCfg.SetupTolerancePct = cfg.Pivot.SetupTolerancePct
	engine := analysis.NewEngine(engineCfg)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	sym := strings.ToUpper(*symbol)
	series := col.GetAllTimeframes(ctx, sym)
	if len(series) == 0 {
		fmt.Fprintf(os.Stderr, "no data for %s\n", sym)
		os.Exit(1)
	}
	results := engine.AnalyzeAll(series)
	setups := engine.AnalyzeSetupsAll(col.GetHistories(ctx, sym, col.Timeframes()))

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(map[string]interface{}{"symbol": sym, "pivots": results, "setups": setups}); err != nil {
			logger.Fatalf("encode: %v", err)
		}
		return
	}
	render(os.Stdout, sym, results, setups, col.Timeframes())
}

func parseTimeFrames(list string) ([]model.TimeFrame, error) {
	if strings.TrimSpace(list) == "" {
		return model.AllTimeFrames, nil
	}
	var out []model.TimeFrame
	for _, s := range strings.Split(list, ",") {
		tf, err := model.ParseTimeFrame(strings.TrimSpace(s))
		if err != nil {
			return nil, err
		}
		out = append(out, tf)
	}
	return out, nil
}

func historyCell(h model.LevelHistory, name model.LevelName) string {
	t, ok := h[name]
	switch {
	case !ok:
		return ""
	case t.Touched:
		return "✓ " + t.TouchDate
	}
	return t.Status
}

// render writes one levels table per available time frame, then the setups.
func render(w io.Writer, symbol string, results map[model.TimeFrame]model.TimeFrameResult, setups map[model.TimeFrame][]model.Setup, order []model.TimeFrame) {
	for _, tf := range order {
		res, ok := results[tf]
		if !ok || !res.Available {
			continue
		}
		t := table.NewWriter()
		t.SetOutputMirror(w)
		t.SetStyle(table.StyleRounded)
		t.SetTitle(fmt.Sprintf("%s %s | %s %s", symbol, tf.Label(), res.Standard.Status.State, res.Standard.Status.Distance))
		t.AppendHeader(table.Row{"Level", "Standard", "History", "DeMark", "History"})
		for _, name := range model.StandardLevelOrder {
			std, okStd := res.Standard.Levels[name]
			dm, okDM := res.DeMark.Levels[name]
			if !okStd && !okDM {
				continue
			}
			row := table.Row{name, "", "", "", ""}
			if okStd {
				row[1] = fmt.Sprintf("%.2f", std)
				row[2] = historyCell(res.Standard.History, name)
			}
			if okDM {
				row[3] = fmt.Sprintf("%.2f", dm)
				row[4] = historyCell(res.DeMark.History, name)
			}
			t.AppendRow(row)
		}
		if sig, ok := res.Setups.Active(); ok {
			t.AppendFooter(table.Row{"Setup", sig.Direction, fmt.Sprintf("%.2f", sig.Trigger), fmt.Sprintf("%.2f", sig.Target), fmt.Sprintf("%+.2f%%", sig.DistancePercent)})
		}
		t.Render()
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.SetTitle(symbol + " setups")
	t.AppendHeader(table.Row{"TF", "Dir", "Pattern", "Q", "Level", "Entry", "Stop", "Target", "Prob", "R:R", "Best"})
	n := 0
	for _, tf := range order {
		for _, s := range setups[tf] {
			n++
			t.AppendRow(table.Row{
				tf, s.Direction, s.Pattern, s.Quality, s.TriggerLevel,
				fmt.Sprintf("%.2f", s.Entry), fmt.Sprintf("%.2f", s.StopLoss), fmt.Sprintf("%.2f", s.Target),
				fmt.Sprintf("%.0f%%", s.Probability), fmt.Sprintf("%.2f", s.RiskReward), s.BestTime,
			})
		}
	}
	if n == 0 {
		t.AppendRow(table.Row{"-", "no setups"})
	}
	t.Render()
}
