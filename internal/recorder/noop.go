package recorder

import (
	"context"

	"PivotSentinel/internal/model"
)

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordScan(context.Context, *ScanRun) error         { return nil }
func (n *NoopRecorder) RecordPivots(context.Context, *PivotSnapshot) error { return nil }
func (n *NoopRecorder) RecordSignal(context.Context, *SignalEvent) error   { return nil }
func (n *NoopRecorder) RecordSetup(context.Context, *SetupEvent) error     { return nil }
func (n *NoopRecorder) Close() error                                       { return nil }

func (n *NoopRecorder) LatestPivots(context.Context, string, model.TimeFrame) (*StoredPivots, error) {
	return nil, nil
}

func (n *NoopRecorder) LevelHistory(context.Context, string, model.TimeFrame) ([]LevelHit, error) {
	return nil, nil
}

func (n *NoopRecorder) RecentSetups(context.Context, string, int) ([]StoredSetup, error) {
	return nil, nil
}
