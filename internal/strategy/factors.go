package strategy

import (
	"math"
	"sort"

	"github.com/shopspring/decimal"

	"PivotSentinel/internal/model"
)

// DefaultBestTime is reported when no bar pair shows a move in the wanted direction.
const DefaultBestTime = "09:30"

// recordTest bumps the counter of the level rounded to cents and returns the new count.
func (a *SetupAnalyzer) recordTest(level float64) int {
	key := decimal.NewFromFloat(level).Round(2).String()
	a.tests[key]++
	return a.tests[key]
}

// volumeConfirmed requires the latest volume to reach multiplier × SMA(volume).
// A zero baseline never confirms.
func volumeConfirmed(ind model.SeriesIndicators, multiplier float64) bool {
	if ind.VolumeSMA20 <= 0 {
		return false
	}
	return ind.LastVolume >= ind.VolumeSMA20*multiplier
}

// volumeSurge is the latest volume's excess over its average, in percent.
func volumeSurge(ind model.SeriesIndicators) float64 {
	if ind.VolumeSMA20 <= 0 {
		return 0
	}
	return (ind.LastVolume/ind.VolumeSMA20 - 1) * 100
}

// clustered reports whether at least two rolling levels, the trigger
// included, sit within pct percent of the trigger.
func clustered(levels model.Levels, trigger, pct float64) bool {
	if trigger == 0 {
		return false
	}
	near := 0
	for _, v := range levels {
		if math.Abs(v-trigger)/math.Abs(trigger)*100 <= pct {
			near++
		}
	}
	return near >= 2
}

// divergence reports price and RSI moving in different directions on the last bar.
func divergence(ind model.SeriesIndicators) bool {
	return sign(ind.LastClose-ind.PrevClose) != sign(ind.RSI-ind.PrevRSI)
}

// trendDirection compares the close to a ±bandPct envelope around SMA20.
func trendDirection(ind model.SeriesIndicators, bandPct float64) model.Trend {
	band := bandPct / 100
	switch {
	case ind.LastClose > ind.SMA20*(1+band):
		return model.TrendUp
	case ind.LastClose < ind.SMA20*(1-band):
		return model.TrendDown
	default:
		return model.TrendSideways
	}
}

// bestTime returns the most frequent HH:MM of bars followed by a close in
// direction d. Ties go to the earliest time of day.
func bestTime(bars []model.OHLCV, d model.Direction) string {
	counts := make(map[string]int)
	for i := 0; i+1 < len(bars); i++ {
		diff := bars[i+1].Close - bars[i].Close
		if (d == model.Long && diff > 0) || (d == model.Short && diff < 0) {
			counts[bars[i].Time.Format("15:04")]++
		}
	}
	if len(counts) == 0 {
		return DefaultBestTime
	}

	times := make([]string, 0, len(counts))
	for t := range counts {
		times = append(times, t)
	}
	sort.Strings(times)

	best := times[0]
	for _, t := range times[1:] {
		if counts[t] > counts[best] {
			best = t
		}
	}
	return best
}

func sign(v float64) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}
