package pivot

import (
	"errors"
	"fmt"
	"time"

	"PivotSentinel/internal/calculator"
	"PivotSentinel/internal/model"
)

// ErrEmptySeries is returned when no bars are available to derive a sample from.
var ErrEmptySeries = errors.New("empty price series")

// ExtractOHLC reduces bars to the representative bar of the prior period.
// When the last two bars are at most a day apart the series is treated as
// intraday/daily and only bars on the last bar's calendar date are used.
func ExtractOHLC(bars []model.OHLCV) (model.OHLCSample, error) {
	if len(bars) == 0 {
		return model.OHLCSample{}, ErrEmptySeries
	}

	window := bars
	if n := len(bars); n >= 2 && bars[n-1].Time.Sub(bars[n-2].Time) <= 24*time.Hour {
		window = lastSession(bars)
	}

	high, low, err := calculator.CalculateRange(window)
	if err != nil {
		return model.OHLCSample{}, fmt.Errorf("extract ohlc: %w", err)
	}
	return model.OHLCSample{
		Open:  window[0].Open,
		High:  high,
		Low:   low,
		Close: window[len(window)-1].Close,
	}, nil
}

// lastSession returns the tail of bars sharing the last bar's calendar date.
func lastSession(bars []model.OHLCV) []model.OHLCV {
	y, m, d := bars[len(bars)-1].Time.Date()
	start := len(bars) - 1
	for start > 0 {
		py, pm, pd := bars[start-1].Time.Date()
		if py != y || pm != m || pd != d {
			break
		}
		start--
	}
	return bars[start:]
}
