package model

import (
	"fmt"
	"time"
)

// OHLCV represents a single candlestick bar.
type OHLCV struct {
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// PriceSeries holds the bars of one (symbol, time frame) pair.
type PriceSeries struct {
	Symbol    string    `json:"symbol"`
	TimeFrame TimeFrame `json:"timeframe"`
	Bars      []OHLCV   `json:"bars"`
	FetchedAt time.Time `json:"fetched_at"`
}

// TimeFrame labels the period a pivot set is derived for.
type TimeFrame string

const (
	TimeFrameDay      TimeFrame = "1d"
	TimeFrameWeek     TimeFrame = "1w"
	TimeFrameMonth    TimeFrame = "1m"
	TimeFrameQuarter  TimeFrame = "3m"
	TimeFrameHalfYear TimeFrame = "6m"
	TimeFrameYear     TimeFrame = "1y"
)

// AllTimeFrames lists every supported time frame, shortest first.
var AllTimeFrames = []TimeFrame{
	TimeFrameDay, TimeFrameWeek, TimeFrameMonth,
	TimeFrameQuarter, TimeFrameHalfYear, TimeFrameYear,
}

// ParseTimeFrame maps a label to a TimeFrame.
func ParseTimeFrame(s string) (TimeFrame, error) {
	switch tf := TimeFrame(s); tf {
	case TimeFrameDay, TimeFrameWeek, TimeFrameMonth,
		TimeFrameQuarter, TimeFrameHalfYear, TimeFrameYear:
		return tf, nil
	}
	return "", fmt.Errorf("unknown time frame %q", s)
}

// IsDaily reports whether tf is the intraday/daily frame.
func (tf TimeFrame) IsDaily() bool { return tf == TimeFrameDay }

func (tf TimeFrame) String() string { return string(tf) }

// Label is the human-readable name of the time frame.
func (tf TimeFrame) Label() string {
	switch tf {
	case TimeFrameDay:
		return "Daily"
	case TimeFrameWeek:
		return "Weekly"
	case TimeFrameMonth:
		return "Monthly"
	case TimeFrameQuarter:
		return "Quarterly"
	case TimeFrameHalfYear:
		return "Half-yearly"
	case TimeFrameYear:
		return "Yearly"
	}
	return string(tf)
}
