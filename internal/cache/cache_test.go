package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PivotSentinel/internal/model"
)

func TestDefaultTTLs(t *testing.T) {
	ttls := DefaultTTLs()
	assert.Equal(t, 5*time.Minute, ttls.For(model.TimeFrameDay))
	assert.Equal(t, 15*time.Minute, ttls.For(model.TimeFrameWeek))
	assert.Equal(t, 30*time.Minute, ttls.For(model.TimeFrameMonth))
	assert.Equal(t, time.Hour, ttls.For(model.TimeFrameYear))
	assert.Equal(t, fallbackTTL, TTLs{}.For(model.TimeFrameDay))

	merged := ttls.Merge(TTLs{model.TimeFrameDay: time.Minute, model.TimeFrameWeek: 0})
	assert.Equal(t, time.Minute, merged.For(model.TimeFrameDay))
	assert.Equal(t, 15*time.Minute, merged.For(model.TimeFrameWeek))
	assert.Equal(t, 5*time.Minute, ttls.For(model.TimeFrameDay))
}

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	c := NewMemoryCache(DefaultTTLs())
	c.now = func() time.Time { return now }

	bars := []model.OHLCV{{Time: now, Close: 100}}
	require.NoError(t, c.Set(ctx, "aapl", model.TimeFrameDay, bars))
	require.NoError(t, c.Set(ctx, "AAPL", model.TimeFrameWeek, bars))
	require.NoError(t, c.Set(ctx, "MSFT", model.TimeFrameDay, bars))

	got, ok, err := c.Get(ctx, "AAPL", model.TimeFrameDay)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, bars, got)

	got[0].Close = 1
	again, _, _ := c.Get(ctx, "AAPL", model.TimeFrameDay)
	assert.Equal(t, 100.0, again[0].Close)

	now = now.Add(6 * time.Minute)
	_, ok, _ = c.Get(ctx, "AAPL", model.TimeFrameDay)
	assert.False(t, ok, "daily entry expires after 5m")
	_, ok, _ = c.Get(ctx, "AAPL", model.TimeFrameWeek)
	assert.True(t, ok, "weekly entry lives 15m")

	require.NoError(t, c.Clear(ctx, "aapl"))
	_, ok, _ = c.Get(ctx, "AAPL", model.TimeFrameWeek)
	assert.False(t, ok)

	now = now.Add(-6 * time.Minute)
	_, ok, _ = c.Get(ctx, "MSFT", model.TimeFrameDay)
	assert.True(t, ok)
	require.NoError(t, c.Clear(ctx, ""))
	_, ok, _ = c.Get(ctx, "MSFT", model.TimeFrameDay)
	assert.False(t, ok)
}
