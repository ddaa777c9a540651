package pivot

import (
	"math"

	"PivotSentinel/internal/logger"
	"PivotSentinel/internal/model"
)

const (
	// DefaultTolerancePct is the band half-width used for level history.
	DefaultTolerancePct = 0.5
	// SetupTolerancePct is the tighter band used when feeding the DeMark setup detector.
	SetupTolerancePct = 0.1
)

// touchDateLayout renders a touch date as DD.MM.
const touchDateLayout = "02.01"

const (
	glyphAbove     = "↑"
	glyphBelow     = "↓"
	glyphKeyAbove  = "○↑"
	glyphKeyBelow  = "○↓"
	glyphFlagAbove = "⚑"
	glyphFlagBelow = "⚐"
)

// CheckHistoricalLevels reports, for every level, whether any bar's range
// came within tolerancePct percent of it. Touched levels carry the date of
// the most recent hit; untouched ones carry a direction glyph relative to
// the last close.
func CheckHistoricalLevels(bars []model.OHLCV, levels model.Levels, family model.LevelFamily, tf model.TimeFrame, tolerancePct float64) (history model.LevelHistory) {
	defer func() {
		if r := recover(); r != nil {
			logger.Warnf("level scan %s/%s failed: %v", family, tf, r)
			history = untouchedHistory(levels)
		}
	}()

	if len(bars) == 0 {
		return untouchedHistory(levels)
	}
	current := bars[len(bars)-1].Close
	t := tolerancePct / 100

	skipped := 0
	history = make(model.LevelHistory, len(levels))
	for name, value := range levels {
		lower := math.Min(value*(1-t), value*(1+t))
		upper := math.Max(value*(1-t), value*(1+t))

		hit := -1
		for i := range bars {
			b := &bars[i]
			if !isFinite(b.High) || !isFinite(b.Low) {
				skipped++
				continue
			}
			if b.Low <= upper && b.High >= lower {
				hit = i
			}
		}

		if hit >= 0 {
			history[name] = model.LevelTouch{
				Touched:   true,
				TouchDate: bars[hit].Time.Format(touchDateLayout),
				TouchedAt: bars[hit].Time,
			}
			continue
		}
		history[name] = model.LevelTouch{
			Status: untouchedGlyph(name, value > current, family, tf),
		}
	}
	if skipped > 0 {
		logger.Debugf("level scan %s/%s: skipped %d bar checks with invalid range", family, tf, skipped)
	}
	return history
}

// untouchedGlyph picks the marker for a level price has not reached.
// Non-daily frames flag the DeMark S1 and mark P, R1 and S1 as key levels.
func untouchedGlyph(name model.LevelName, above bool, family model.LevelFamily, tf model.TimeFrame) string {
	if !tf.IsDaily() {
		switch {
		case family == model.FamilyDeMark && name == model.LevelS1:
			return pick(above, glyphFlagAbove, glyphFlagBelow)
		case name == model.LevelP || name == model.LevelR1 || name == model.LevelS1:
			return pick(above, glyphKeyAbove, glyphKeyBelow)
		}
	}
	return pick(above, glyphAbove, glyphBelow)
}

func pick(cond bool, a, b string) string {
	if cond {
		return a
	}
	return b
}

func untouchedHistory(levels model.Levels) model.LevelHistory {
	history := make(model.LevelHistory, len(levels))
	for name := range levels {
		history[name] = model.LevelTouch{}
	}
	return history
}
