package strategy

import (
	"math"

	"PivotSentinel/internal/calculator"
	"PivotSentinel/internal/logger"
	"PivotSentinel/internal/model"
	"PivotSentinel/internal/pivot"
)

// Options tunes the setup analyzer. Percentages are in percent, not fractions.
type Options struct {
	MinBars          int
	SMAPeriod        int
	RSIPeriod        int
	TolerancePct     float64
	VolumeMultiplier float64
	ClusterPct       float64
	TrendBandPct     float64
}

// DefaultOptions returns the standard analyzer settings.
func DefaultOptions() Options {
	return Options{
		MinBars:          20,
		SMAPeriod:        20,
		RSIPeriod:        14,
		TolerancePct:     0.5,
		VolumeMultiplier: 1.5,
		ClusterPct:       1.0,
		TrendBandPct:     2.0,
	}
}

// QualityTiers maps the number of strong confirmations (volume, cluster) to a grade.
var QualityTiers = []struct {
	MinConfirmations int
	Quality          model.Quality
}{
	{2, model.QualityAPlus},
	{1, model.QualityA},
	{0, model.QualityB},
}

const (
	baseProbability  = 55.0
	probabilityBonus = 5.0
	maxProbability   = 90.0
	repeatedTestMin  = 2
)

// rollingLevels are the standard levels the analyzer trades against.
var rollingLevels = []model.LevelName{
	model.LevelP, model.LevelR1, model.LevelR2, model.LevelS1, model.LevelS2,
}

// SetupAnalyzer detects pivot bounce and false breakout setups on one
// series. It keeps a per-level test counter for its own lifetime; an
// instance must not be shared between goroutines.
type SetupAnalyzer struct {
	bars  []model.OHLCV
	tf    model.TimeFrame
	opts  Options
	tests map[string]int
}

// NewSetupAnalyzer binds an analyzer to bars of time frame tf.
func NewSetupAnalyzer(bars []model.OHLCV, tf model.TimeFrame, opts Options) *SetupAnalyzer {
	return &SetupAnalyzer{
		bars:  bars,
		tf:    tf,
		opts:  opts,
		tests: make(map[string]int),
	}
}

// AnalyzeSetups evaluates both patterns on the latest bar and returns zero,
// one or two setups.
func (a *SetupAnalyzer) AnalyzeSetups() (setups []model.Setup) {
	defer func() {
		if r := recover(); r != nil {
			logger.Warnf("setup analysis %s failed: %v", a.tf, r)
			setups = nil
		}
	}()

	if len(a.bars) < a.opts.MinBars {
		logger.Debugf("setup analysis %s: %d bars, need %d", a.tf, len(a.bars), a.opts.MinBars)
		return nil
	}

	ind, err := a.indicators()
	if err != nil {
		logger.Debugf("setup analysis %s: %v", a.tf, err)
		return nil
	}
	levels := a.rollingPivots()
	if len(levels) == 0 {
		return nil
	}

	if s, ok := a.pivotBounceLong(levels, ind); ok {
		setups = append(setups, s)
	}
	if s, ok := a.falseBreakoutShort(levels, ind); ok {
		setups = append(setups, s)
	}
	return setups
}

// rollingPivots computes P, R1, R2, S1 and S2 from the second-to-last bar.
func (a *SetupAnalyzer) rollingPivots() model.Levels {
	prev := a.bars[len(a.bars)-2]
	all := pivot.StandardPivots(model.OHLCSample{
		Open:  prev.Open,
		High:  prev.High,
		Low:   prev.Low,
		Close: prev.Close,
	})
	if len(all) == 0 {
		return all
	}
	levels := make(model.Levels, len(rollingLevels))
	for _, name := range rollingLevels {
		levels[name] = all[name]
	}
	return levels
}

func (a *SetupAnalyzer) indicators() (model.SeriesIndicators, error) {
	n := len(a.bars)
	closes := calculator.Closes(a.bars)
	volumes := calculator.Volumes(a.bars)

	sma, err := calculator.CalculateSMA(closes, a.opts.SMAPeriod)
	if err != nil {
		return model.SeriesIndicators{}, err
	}
	volSMA, err := calculator.SMASeries(volumes, a.opts.SMAPeriod)
	if err != nil {
		return model.SeriesIndicators{}, err
	}
	rsi, err := calculator.RSISeries(closes, a.opts.RSIPeriod)
	if err != nil {
		return model.SeriesIndicators{}, err
	}

	return model.SeriesIndicators{
		LastClose:   closes[n-1],
		PrevClose:   closes[n-2],
		SMA20:       sma,
		VolumeSMA20: volSMA[n-1],
		LastVolume:  volumes[n-1],
		RSI:         rsi[n-1],
		PrevRSI:     rsi[n-2],
	}, nil
}

// pivotBounceLong: the bar dipped into the S1 band and closed clearly above it.
func (a *SetupAnalyzer) pivotBounceLong(levels model.Levels, ind model.SeriesIndicators) (model.Setup, bool) {
	s1 := levels[model.LevelS1]
	tests := a.recordTest(s1)

	last := a.bars[len(a.bars)-1]
	t := a.opts.TolerancePct / 100
	if !(last.Low <= s1*(1+t) && last.Close > s1*(1+2*t)) {
		return model.Setup{}, false
	}

	entry := last.Close
	stop := last.Low * 0.99
	target := levels[model.LevelP]
	return a.build(model.PatternPivotBounce, model.LevelS1, entry, stop, target, riskReward(target-entry, entry-stop), levels, ind, tests), true
}

// falseBreakoutShort: the bar poked into the R1 band and closed back below it.
func (a *SetupAnalyzer) falseBreakoutShort(levels model.Levels, ind model.SeriesIndicators) (model.Setup, bool) {
	r1 := levels[model.LevelR1]
	tests := a.recordTest(r1)

	last := a.bars[len(a.bars)-1]
	t := a.opts.TolerancePct / 100
	if !(last.High >= r1*(1-t) && last.Close < r1*(1-t)) {
		return model.Setup{}, false
	}

	entry := last.Close
	stop := last.High * 1.01
	target := levels[model.LevelP]
	return a.build(model.PatternFalseBreakout, model.LevelR1, entry, stop, target, riskReward(entry-target, stop-entry), levels, ind, tests), true
}

func (a *SetupAnalyzer) build(kind model.PatternKind, trigger model.LevelName, entry, stop, target, rr float64, levels model.Levels, ind model.SeriesIndicators, tests int) model.Setup {
	dir := kind.Direction()

	volume := volumeConfirmed(ind, a.opts.VolumeMultiplier)
	cluster := clustered(levels, levels[trigger], a.opts.ClusterPct)
	diverging := divergence(ind)
	trend := trendDirection(ind, a.opts.TrendBandPct)
	repeated := tests > repeatedTestMin
	aligned := trend.Aligned(dir)

	strong := 0
	for _, ok := range []bool{volume, cluster} {
		if ok {
			strong++
		}
	}
	bonus := 0
	for _, ok := range []bool{volume, cluster, diverging, repeated, aligned} {
		if ok {
			bonus++
		}
	}

	return model.Setup{
		Direction:     dir,
		Pattern:       kind,
		Quality:       mapQuality(strong),
		TriggerLevel:  trigger,
		Entry:         entry,
		StopLoss:      stop,
		Target:        target,
		Probability:   clampProbability(baseProbability + probabilityBonus*float64(bonus)),
		RiskReward:    rr,
		VolumeSurge:   volumeSurge(ind),
		TimeFrame:     a.tf,
		Trend:         trend,
		Clustered:     cluster,
		Divergence:    diverging,
		RepeatedTests: tests,
		BestTime:      bestTime(a.bars, dir),
		Confirmations: map[string]bool{
			"volume":     volume,
			"cluster":    cluster,
			"divergence": diverging,
			"repeated":   repeated,
			"trend":      aligned,
		},
	}
}

// mapQuality maps the strong confirmation count to a Quality.
func mapQuality(strong int) model.Quality {
	for _, t := range QualityTiers {
		if strong >= t.MinConfirmations {
			return t.Quality
		}
	}
	return model.QualityB
}

func clampProbability(p float64) float64 {
	return math.Max(baseProbability, math.Min(maxProbability, p))
}

func riskReward(reward, risk float64) float64 {
	if risk <= 0 {
		return 0
	}
	return reward / risk
}
