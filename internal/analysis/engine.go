// Package analysis runs the pivot pipeline and the setup analyzer across
// time frames.
package analysis

import (
	"PivotSentinel/internal/logger"
	"PivotSentinel/internal/model"
	"PivotSentinel/internal/pivot"
	"PivotSentinel/internal/strategy"
)

// Config holds the engine tolerances in percent.
type Config struct {
	GeneralTolerancePct float64
	SetupTolerancePct   float64
	Analyzer            strategy.Options
}

// DefaultConfig returns the standard tolerances.
func DefaultConfig() Config {
	return Config{
		GeneralTolerancePct: pivot.DefaultTolerancePct,
		SetupTolerancePct:   pivot.SetupTolerancePct,
		Analyzer:            strategy.DefaultOptions(),
	}
}

// Engine is stateless apart from its configuration and safe for concurrent use.
type Engine struct {
	cfg Config
}

func NewEngine(cfg Config) *Engine {
	return &Engine{cfg: cfg}
}

// AnalyzeTimeframe computes levels, history, pivot status and the DeMark
// setup for one series. Series shorter than two bars yield the default result.
func (e *Engine) AnalyzeTimeframe(tf model.TimeFrame, bars []model.OHLCV) model.TimeFrameResult {
	result := model.EmptyResult(tf)
	if len(bars) < 2 {
		return result
	}

	ohlc, err := pivot.ExtractOHLC(bars)
	if err != nil {
		logger.Warnf("%s ohlc: %v", tf, err)
		return result
	}
	standard := pivot.StandardPivots(ohlc)
	demark := pivot.DeMarkPivotsExtended(ohlc)

	setupHistory := pivot.CheckHistoricalLevels(bars, demark, model.FamilyDeMark, tf, e.cfg.SetupTolerancePct)

	result.Available = len(standard) > 0
	result.OHLC = ohlc
	result.Standard = model.StandardAnalysis{
		Levels:  standard,
		History: pivot.CheckHistoricalLevels(bars, standard, model.FamilyStandard, tf, e.cfg.GeneralTolerancePct),
		Status:  pivot.CheckPivotStatus(bars, standard[model.LevelP]),
	}
	result.DeMark = model.DeMarkAnalysis{
		Levels:  demark,
		History: pivot.CheckHistoricalLevels(bars, demark, model.FamilyDeMark, tf, e.cfg.GeneralTolerancePct),
	}
	result.Setups = pivot.CheckDeMarkSetup(bars, demark, setupHistory, standard)
	return result
}

// AnalyzeAll runs AnalyzeTimeframe for every entry; the result has the same keys.
func (e *Engine) AnalyzeAll(series map[model.TimeFrame][]model.OHLCV) map[model.TimeFrame]model.TimeFrameResult {
	out := make(map[model.TimeFrame]model.TimeFrameResult, len(series))
	for tf, bars := range series {
		out[tf] = e.AnalyzeTimeframe(tf, bars)
	}
	return out
}

// AnalyzeTimeframesSetups returns only the DeMark setup signals per time frame.
func (e *Engine) AnalyzeTimeframesSetups(series map[model.TimeFrame][]model.OHLCV) map[model.TimeFrame]model.SetupSignals {
	out := make(map[model.TimeFrame]model.SetupSignals, len(series))
	for tf, bars := range series {
		out[tf] = e.AnalyzeTimeframe(tf, bars).Setups
	}
	return out
}

// AnalyzeSetupsAll runs a fresh setup analyzer per time frame.
func (e *Engine) AnalyzeSetupsAll(series map[model.TimeFrame][]model.OHLCV) map[model.TimeFrame][]model.Setup {
	out := make(map[model.TimeFrame][]model.Setup, len(series))
	for tf, bars := range series {
		out[tf] = strategy.NewSetupAnalyzer(bars, tf, e.cfg.Analyzer).AnalyzeSetups()
	}
	return out
}
