package collector

import (
	"context"

	"PivotSentinel/internal/model"
)

// Fetcher defines the interface for fetching market data.
type Fetcher interface {
	// FetchBars returns the recent bars of symbol for tf in ascending order,
	// covering the full lookback of the time frame.
	FetchBars(ctx context.Context, symbol string, tf model.TimeFrame) ([]model.OHLCV, error)
	Name() string
}

// span is the bar interval and lookback requested for a time frame. The
// lookback feeds the setup analyzer; the pivot series is cut from its tail.
type span struct {
	Interval string // Yahoo interval
	Range    string // Yahoo range
	Bars     int    // bar count for REST sources
	Pivot    int    // trailing bars kept for the pivot series
	Trim     bool   // cut the pivot series at the current period start
}

// spans: multi-month frames are derived from monthly bars.
var spans = map[model.TimeFrame]span{
	model.TimeFrameDay:      {Interval: "1d", Range: "3mo", Bars: 63, Pivot: 5},
	model.TimeFrameWeek:     {Interval: "1wk", Range: "1y", Bars: 52, Pivot: 5},
	model.TimeFrameMonth:    {Interval: "1mo", Range: "5y", Bars: 60, Pivot: 3},
	model.TimeFrameQuarter:  {Interval: "1mo", Range: "5y", Bars: 60, Pivot: 6, Trim: true},
	model.TimeFrameHalfYear: {Interval: "1mo", Range: "5y", Bars: 60, Pivot: 12, Trim: true},
	model.TimeFrameYear:     {Interval: "1mo", Range: "5y", Bars: 60, Pivot: 24, Trim: true},
}

func spanFor(tf model.TimeFrame) (span, bool) {
	s, ok := spans[tf]
	return s, ok
}
