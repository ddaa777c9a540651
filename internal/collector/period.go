package collector

import (
	"time"

	"PivotSentinel/internal/model"
)

// PeriodStart returns midnight in loc of the first day of the period of tf
// that contains now. Weeks start on Monday.
func PeriodStart(tf model.TimeFrame, now time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	now = now.In(loc)
	y, m, d := now.Date()
	switch tf {
	case model.TimeFrameWeek:
		offset := (int(now.Weekday()) + 6) % 7
		return time.Date(y, m, d-offset, 0, 0, 0, 0, loc)
	case model.TimeFrameMonth:
		return time.Date(y, m, 1, 0, 0, 0, 0, loc)
	case model.TimeFrameQuarter:
		return time.Date(y, (m-1)/3*3+1, 1, 0, 0, 0, 0, loc)
	case model.TimeFrameHalfYear:
		return time.Date(y, (m-1)/6*6+1, 1, 0, 0, 0, 0, loc)
	case model.TimeFrameYear:
		return time.Date(y, time.January, 1, 0, 0, 0, 0, loc)
	default:
		return time.Date(y, m, d, 0, 0, 0, 0, loc)
	}
}

// PeriodInfo describes the current period of one time frame.
type PeriodInfo struct {
	TimeFrame model.TimeFrame `json:"timeframe"`
	Label     string          `json:"label"`
	Start     time.Time       `json:"period_start"`
	Interval  string          `json:"interval"`
	Lookback  string          `json:"lookback"`
}

// Periods returns the current period of every configured time frame.
func (c *Collector) Periods(loc *time.Location) []PeriodInfo {
	now := c.now()
	out := make([]PeriodInfo, 0, len(c.timeframes))
	for _, tf := range c.timeframes {
		s, _ := spanFor(tf)
		out = append(out, PeriodInfo{
			TimeFrame: tf,
			Label:     tf.Label(),
			Start:     PeriodStart(tf, now, loc),
			Interval:  s.Interval,
			Lookback:  s.Range,
		})
	}
	return out
}

// pivotWindow cuts the pivot series of tf from the full lookback. Trimmed
// frames keep the bars of the current period, and at least the last two.
func pivotWindow(bars []model.OHLCV, tf model.TimeFrame, now time.Time) []model.OHLCV {
	s, ok := spanFor(tf)
	if !ok || len(bars) == 0 {
		return bars
	}
	if s.Pivot > 0 && len(bars) > s.Pivot {
		bars = bars[len(bars)-s.Pivot:]
	}
	if !s.Trim {
		return bars
	}
	start := PeriodStart(tf, now, bars[len(bars)-1].Time.Location())
	i := len(bars)
	for i > 0 && !bars[i-1].Time.Before(start) {
		i--
	}
	if len(bars)-i < 2 {
		i = max(len(bars)-2, 0)
	}
	return bars[i:]
}
