package analysis

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PivotSentinel/internal/model"
)

func weekly(n int) []model.OHLCV {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]model.OHLCV, n)
	for i := range bars {
		c := 100 + float64(i%5)
		bars[i] = model.OHLCV{
			Time:   start.AddDate(0, 0, 7*i),
			Open:   c - 1,
			High:   c + 2,
			Low:    c - 3,
			Close:  c,
			Volume: 1000,
		}
	}
	return bars
}

func TestAnalyzeTimeframe(t *testing.T) {
	e := NewEngine(DefaultConfig())
	bars := weekly(30)

	res := e.AnalyzeTimeframe(model.TimeFrameWeek, bars)
	require.True(t, res.Available)
	assert.Equal(t, model.TimeFrameWeek, res.TimeFrame)
	assert.Len(t, res.Standard.Levels, 11)
	assert.Len(t, res.Standard.History, 11)
	assert.Len(t, res.DeMark.Levels, 5)
	assert.Len(t, res.DeMark.History, 5)
	assert.NotEqual(t, model.PivotUnknown, res.Standard.Status.State)
	assert.False(t, res.Setups.Long.Active && res.Setups.Short.Active)
}

func TestAnalyzeTimeframe_Idempotent(t *testing.T) {
	e := NewEngine(DefaultConfig())
	bars := weekly(30)
	before := append([]model.OHLCV(nil), bars...)

	a := e.AnalyzeTimeframe(model.TimeFrameMonth, bars)
	b := e.AnalyzeTimeframe(model.TimeFrameMonth, bars)
	assert.Equal(t, a, b)
	assert.Equal(t, before, bars)
}

func TestAnalyzeTimeframe_ShortSeries(t *testing.T) {
	e := NewEngine(DefaultConfig())
	for _, bars := range [][]model.OHLCV{nil, weekly(1)} {
		res := e.AnalyzeTimeframe(model.TimeFrameDay, bars)
		assert.Equal(t, model.EmptyResult(model.TimeFrameDay), res)
	}
}

func TestAnalyzeAll_PreservesKeys(t *testing.T) {
	e := NewEngine(DefaultConfig())
	series := map[model.TimeFrame][]model.OHLCV{
		model.TimeFrameDay:  nil,
		model.TimeFrameWeek: weekly(30),
		model.TimeFrameYear: weekly(3),
	}

	all := e.AnalyzeAll(series)
	require.Len(t, all, 3)
	assert.False(t, all[model.TimeFrameDay].Available)
	assert.True(t, all[model.TimeFrameWeek].Available)

	setups := e.AnalyzeTimeframesSetups(series)
	require.Len(t, setups, 3)
	assert.Equal(t, model.InactiveSignals(), setups[model.TimeFrameDay])
	assert.Equal(t, all[model.TimeFrameWeek].Setups, setups[model.TimeFrameWeek])
}

func TestAnalyzeSetupsAll(t *testing.T) {
	e := NewEngine(DefaultConfig())
	series := map[model.TimeFrame][]model.OHLCV{
		model.TimeFrameDay:  weekly(5),
		model.TimeFrameWeek: weekly(30),
	}
	out := e.AnalyzeSetupsAll(series)
	require.Len(t, out, 2)
	assert.Empty(t, out[model.TimeFrameDay])
	for _, s := range out[model.TimeFrameWeek] {
		assert.Equal(t, model.TimeFrameWeek, s.TimeFrame)
		assert.GreaterOrEqual(t, s.Probability, 55.0)
		assert.LessOrEqual(t, s.Probability, 90.0)
	}
}
