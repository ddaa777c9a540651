package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PivotSentinel/internal/model"
)

func newTestRedis(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	srv := miniredis.RunT(t)
	c, err := NewRedisCache(context.Background(), RedisOptions{Addr: srv.Addr()}, DefaultTTLs())
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c, srv
}

func TestRedisCache(t *testing.T) {
	c, srv := newTestRedis(t)
	ctx := context.Background()
	bars := []model.OHLCV{{Time: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), Open: 1, High: 2, Low: 0.5, Close: 1.5, Volume: 10}}

	_, ok, err := c.Get(ctx, "AAPL", model.TimeFrameDay)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "AAPL", model.TimeFrameDay, bars))
	require.NoError(t, c.Set(ctx, "AAPL", model.TimeFrameWeek, bars))
	require.NoError(t, c.Set(ctx, "MSFT", model.TimeFrameDay, bars))
	assert.True(t, srv.Exists("pivot:series:AAPL:1d"))

	got, ok, err := c.Get(ctx, "aapl", model.TimeFrameDay)
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, got, 1)
	assert.Equal(t, 1.5, got[0].Close)
	assert.True(t, bars[0].Time.Equal(got[0].Time))

	assert.Equal(t, 5*time.Minute, srv.TTL(key("AAPL", model.TimeFrameDay)))
	assert.Equal(t, 15*time.Minute, srv.TTL(key("AAPL", model.TimeFrameWeek)))

	srv.FastForward(6 * time.Minute)
	_, ok, err = c.Get(ctx, "AAPL", model.TimeFrameDay)
	require.NoError(t, err)
	assert.False(t, ok, "daily entry expires after 5m")
	_, ok, _ = c.Get(ctx, "AAPL", model.TimeFrameWeek)
	assert.True(t, ok)

	require.NoError(t, c.Clear(ctx, "aapl"))
	_, ok, _ = c.Get(ctx, "AAPL", model.TimeFrameWeek)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "MSFT", model.TimeFrameDay, bars))
	require.NoError(t, c.Clear(ctx, "AAPL"))
	assert.True(t, srv.Exists(key("MSFT", model.TimeFrameDay)), "other symbols survive")
	require.NoError(t, c.Clear(ctx, ""))
	_, ok, _ = c.Get(ctx, "MSFT", model.TimeFrameDay)
	assert.False(t, ok)
	assert.Empty(t, srv.Keys())
}

func TestRedisCache_DecodeError(t *testing.T) {
	c, srv := newTestRedis(t)
	require.NoError(t, srv.Set(key("AAPL", model.TimeFrameDay), "not json"))

	_, ok, err := c.Get(context.Background(), "AAPL", model.TimeFrameDay)
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestNewRedisCache_Unreachable(t *testing.T) {
	srv := miniredis.RunT(t)
	addr := srv.Addr()
	srv.Close()

	_, err := NewRedisCache(context.Background(), RedisOptions{Addr: addr}, DefaultTTLs())
	assert.Error(t, err)
}
