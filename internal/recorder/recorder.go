package recorder

import (
	"context"
	"time"

	"PivotSentinel/internal/model"
)

// ScanRun summarizes one pass over the watchlist.
type ScanRun struct {
	ID          string            `json:"id"` // uuid
	Trigger     model.TriggerType `json:"trigger"`
	StartedAt   time.Time         `json:"started_at"`
	Symbols     int               `json:"symbols"`
	SetupsFound int               `json:"setups_found"`
	Errors      int               `json:"errors"`
}

// PivotSnapshot is the pivot analysis of one symbol and time frame.
type PivotSnapshot struct {
	ScanID string
	Symbol string
	Date   string // YYYY-MM-DD, one snapshot per day
	Result model.TimeFrameResult
}

// SignalEvent is an active DeMark setup.
type SignalEvent struct {
	ScanID    string
	Symbol    string
	TimeFrame model.TimeFrame
	Signal    model.SetupSignal
}

// SetupEvent is a setup from the multi-signal analyzer.
type SetupEvent struct {
	ScanID string
	Symbol string
	Setup  model.Setup
}

// StoredPivots is the latest persisted snapshot of a symbol and time frame.
type StoredPivots struct {
	Date     string       `json:"date"`
	Standard model.Levels `json:"standard"`
	DeMark   model.Levels `json:"demark"`
}

// LevelHit is a persisted level touch.
type LevelHit struct {
	Family model.LevelFamily `json:"family"`
	Level  model.LevelName   `json:"level"`
	Value  float64           `json:"value"`
	Date   string            `json:"date"` // YYYY-MM-DD
}

// DayMonth renders Date as DD.MM, the way touches are shown to users.
func (h LevelHit) DayMonth() string {
	t, err := time.Parse(hitDateLayout, h.Date)
	if err != nil {
		return h.Date
	}
	return t.Format("02.01")
}

// StoredSetup is a recorded analyzer setup.
type StoredSetup struct {
	ScanID     string      `json:"scan_id"`
	RecordedAt time.Time   `json:"recorded_at"`
	Setup      model.Setup `json:"setup"`
}

// Recorder persists historical data for analysis.
type Recorder interface {
	RecordScan(ctx context.Context, run *ScanRun) error
	RecordPivots(ctx context.Context, snap *PivotSnapshot) error
	RecordSignal(ctx context.Context, evt *SignalEvent) error
	RecordSetup(ctx context.Context, evt *SetupEvent) error
	// LatestPivots returns nil when nothing was recorded.
	LatestPivots(ctx context.Context, symbol string, tf model.TimeFrame) (*StoredPivots, error)
	// LevelHistory returns the touched levels, most recent hit first.
	LevelHistory(ctx context.Context, symbol string, tf model.TimeFrame) ([]LevelHit, error)
	RecentSetups(ctx context.Context, symbol string, limit int) ([]StoredSetup, error)
	Close() error
}
