package model

import "fmt"

// TriggerType indicates what started a scan.
type TriggerType string

const (
	TriggerScheduled TriggerType = "SCHEDULED"
	TriggerManual    TriggerType = "MANUAL"
	TriggerAPI       TriggerType = "API"
)

// Direction is the side of a trade setup.
type Direction string

const (
	Long  Direction = "long"
	Short Direction = "short"
)

func ParseDirection(s string) (Direction, error) {
	switch d := Direction(s); d {
	case Long, Short:
		return d, nil
	}
	return "", fmt.Errorf("unknown direction %q", s)
}

// PatternKind is the chart pattern a Setup was derived from.
type PatternKind string

const (
	PatternPivotBounce   PatternKind = "pivot_bounce"
	PatternFalseBreakout PatternKind = "false_breakout"
)

func ParsePatternKind(s string) (PatternKind, error) {
	switch p := PatternKind(s); p {
	case PatternPivotBounce, PatternFalseBreakout:
		return p, nil
	}
	return "", fmt.Errorf("unknown pattern kind %q", s)
}

// Direction returns the only direction the pattern trades, or "" for an
// unknown kind.
func (p PatternKind) Direction() Direction {
	switch p {
	case PatternPivotBounce:
		return Long
	case PatternFalseBreakout:
		return Short
	}
	return ""
}

// Quality grades a Setup.
type Quality string

const (
	QualityAPlus Quality = "A+"
	QualityA     Quality = "A"
	QualityB     Quality = "B"
)

func ParseQuality(s string) (Quality, error) {
	switch q := Quality(s); q {
	case QualityAPlus, QualityA, QualityB:
		return q, nil
	}
	return "", fmt.Errorf("unknown quality %q", s)
}

// Trend is the direction of price relative to its 20-bar SMA.
type Trend string

const (
	TrendUp       Trend = "up"
	TrendDown     Trend = "down"
	TrendSideways Trend = "sideways"
)

func ParseTrend(s string) (Trend, error) {
	switch t := Trend(s); t {
	case TrendUp, TrendDown, TrendSideways:
		return t, nil
	}
	return "", fmt.Errorf("unknown trend %q", s)
}

// Aligned reports whether the trend agrees with the trade direction.
func (t Trend) Aligned(d Direction) bool {
	return (d == Long && t == TrendUp) || (d == Short && t == TrendDown)
}

// SetupSignal is one side of a DeMark setup.
type SetupSignal struct {
	Direction       Direction `json:"direction"`
	Active          bool      `json:"active"`
	Trigger         float64   `json:"trigger"`
	Target          float64   `json:"target"`
	DistancePercent float64   `json:"distance_percent"`
}

// SetupSignals holds both sides; at most one is active.
type SetupSignals struct {
	Long  SetupSignal `json:"long"`
	Short SetupSignal `json:"short"`
}

// InactiveSignals returns the neutral pair.
func InactiveSignals() SetupSignals {
	return SetupSignals{
		Long:  SetupSignal{Direction: Long},
		Short: SetupSignal{Direction: Short},
	}
}

// Active returns the active side, if any.
func (s SetupSignals) Active() (SetupSignal, bool) {
	switch {
	case s.Long.Active:
		return s.Long, true
	case s.Short.Active:
		return s.Short, true
	}
	return SetupSignal{}, false
}

// Setup is a graded trade hypothesis from the multi-signal analyzer.
type Setup struct {
	Direction     Direction       `json:"direction"`
	Pattern       PatternKind     `json:"pattern"`
	Quality       Quality         `json:"quality"`
	TriggerLevel  LevelName       `json:"trigger_level"`
	Entry         float64         `json:"entry"`
	StopLoss      float64         `json:"stop_loss"`
	Target        float64         `json:"target"`
	Probability   float64         `json:"probability"`
	RiskReward    float64         `json:"risk_reward"`
	VolumeSurge   float64         `json:"volume_surge"`
	TimeFrame     TimeFrame       `json:"timeframe"`
	Trend         Trend           `json:"trend"`
	Clustered     bool            `json:"clustered"`
	Divergence    bool            `json:"divergence"`
	RepeatedTests int             `json:"repeated_tests"`
	BestTime      string          `json:"best_time"`
	Confirmations map[string]bool `json:"confirmations"`
}

// StandardAnalysis is the standard pivot block of a TimeFrameResult.
type StandardAnalysis struct {
	Levels  Levels       `json:"levels"`
	History LevelHistory `json:"history"`
	Status  PivotStatus  `json:"status"`
}

// DeMarkAnalysis is the DeMark pivot block of a TimeFrameResult.
type DeMarkAnalysis struct {
	Levels  Levels       `json:"levels"`
	History LevelHistory `json:"history"`
}

// TimeFrameResult is the full pivot analysis of one time frame.
type TimeFrameResult struct {
	TimeFrame TimeFrame        `json:"timeframe"`
	Available bool             `json:"available"`
	OHLC      OHLCSample       `json:"ohlc"`
	Standard  StandardAnalysis `json:"standard"`
	DeMark    DeMarkAnalysis   `json:"demark"`
	Setups    SetupSignals     `json:"setups"`
}

// EmptyResult is the default result for a time frame without usable data.
func EmptyResult(tf TimeFrame) TimeFrameResult {
	return TimeFrameResult{
		TimeFrame: tf,
		Standard: StandardAnalysis{
			Levels:  Levels{},
			History: LevelHistory{},
			Status:  PivotStatus{State: PivotUnknown, Distance: "-"},
		},
		DeMark: DeMarkAnalysis{Levels: Levels{}, History: LevelHistory{}},
		Setups: InactiveSignals(),
	}
}

func (d Direction) Valid() bool {
	_, err := ParseDirection(string(d))
	return err == nil
}

func (p PatternKind) Valid() bool {
	_, err := ParsePatternKind(string(p))
	return err == nil
}

func (q Quality) Valid() bool {
	_, err := ParseQuality(string(q))
	return err == nil
}

func (t Trend) Valid() bool {
	_, err := ParseTrend(string(t))
	return err == nil
}
