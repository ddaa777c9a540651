// Package cache stores fetched price series keyed by symbol and time frame.
package cache

import (
	"context"
	"time"

	"PivotSentinel/internal/model"
)

// SeriesCache holds bars per (symbol, time frame) until their TTL expires.
type SeriesCache interface {
	// Get returns the cached bars and whether they were present and fresh.
	Get(ctx context.Context, symbol string, tf model.TimeFrame) ([]model.OHLCV, bool, error)
	Set(ctx context.Context, symbol string, tf model.TimeFrame, bars []model.OHLCV) error
	// Clear drops one symbol, or everything when symbol is empty.
	Clear(ctx context.Context, symbol string) error
	Name() string
}

// TTLs maps each time frame to how long its series stays fresh.
type TTLs map[model.TimeFrame]time.Duration

const fallbackTTL = 5 * time.Minute

// DefaultTTLs returns the per time frame expiry: short frames refresh often.
func DefaultTTLs() TTLs {
	return TTLs{
		model.TimeFrameDay:      5 * time.Minute,
		model.TimeFrameWeek:     15 * time.Minute,
		model.TimeFrameMonth:    30 * time.Minute,
		model.TimeFrameQuarter:  time.Hour,
		model.TimeFrameHalfYear: time.Hour,
		model.TimeFrameYear:     time.Hour,
	}
}

// For returns the TTL of tf.
func (t TTLs) For(tf model.TimeFrame) time.Duration {
	if d, ok := t[tf]; ok && d > 0 {
		return d
	}
	return fallbackTTL
}

// Merge returns a copy of t with the positive entries of overrides applied.
func (t TTLs) Merge(overrides TTLs) TTLs {
	out := make(TTLs, len(t))
	for tf, d := range t {
		out[tf] = d
	}
	for tf, d := range overrides {
		if d > 0 {
			out[tf] = d
		}
	}
	return out
}
