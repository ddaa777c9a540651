package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimeFrame(t *testing.T) {
	for _, tf := range AllTimeFrames {
		got, err := ParseTimeFrame(tf.String())
		require.NoError(t, err)
		assert.Equal(t, tf, got)
		assert.NotEqual(t, tf.String(), tf.Label())
	}
	_, err := ParseTimeFrame("4h")
	assert.Error(t, err)
	assert.True(t, TimeFrameDay.IsDaily())
	assert.False(t, TimeFrameWeek.IsDaily())
}

func TestEnums(t *testing.T) {
	assert.True(t, Long.Valid())
	assert.False(t, Direction("flat").Valid())
	assert.True(t, PatternFalseBreakout.Valid())
	assert.False(t, PatternKind("wedge").Valid())
	assert.True(t, QualityAPlus.Valid())
	assert.False(t, Quality("C").Valid())
	assert.True(t, TrendSideways.Valid())
	assert.False(t, Trend("").Valid())

	assert.Equal(t, Long, PatternPivotBounce.Direction())
	assert.Equal(t, Short, PatternFalseBreakout.Direction())
	assert.Equal(t, Direction(""), PatternKind("x").Direction())

	assert.True(t, TrendUp.Aligned(Long))
	assert.True(t, TrendDown.Aligned(Short))
	assert.False(t, TrendSideways.Aligned(Long))
}

func TestSetupSignalsActive(t *testing.T) {
	s := InactiveSignals()
	_, ok := s.Active()
	assert.False(t, ok)
	assert.Equal(t, Long, s.Long.Direction)
	assert.Equal(t, Short, s.Short.Direction)

	s.Short.Active = true
	got, ok := s.Active()
	require.True(t, ok)
	assert.Equal(t, Short, got.Direction)
}

func TestEmptyResult(t *testing.T) {
	r := EmptyResult(TimeFrameMonth)
	assert.Equal(t, TimeFrameMonth, r.TimeFrame)
	assert.False(t, r.Available)
	assert.Empty(t, r.Standard.Levels)
	assert.NotNil(t, r.Standard.Levels)
	assert.Equal(t, PivotStatus{State: PivotUnknown, Distance: "-"}, r.Standard.Status)
	assert.Equal(t, InactiveSignals(), r.Setups)
	assert.False(t, Levels{}.Has(LevelP))
	assert.True(t, Levels{LevelP: 0}.Has(LevelP))
}
