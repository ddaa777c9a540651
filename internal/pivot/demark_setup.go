package pivot

import (
	"PivotSentinel/internal/logger"
	"PivotSentinel/internal/model"
)

// setupBreakoutPct is how far (in percent) the close must be beyond an
// untouched DeMark level for it to count as tested.
const setupBreakoutPct = 0.1

// CheckDeMarkSetup derives the long/short DeMark setup from the DeMark
// levels, their setup-tolerance history and the standard levels. A long
// setup triggers at DeMark R1 targeting standard R2, a short one at DeMark S1
// targeting standard S2. If both or neither side qualifies, both are inactive.
func CheckDeMarkSetup(bars []model.OHLCV, demark model.Levels, demarkHistory model.LevelHistory, standard model.Levels) (signals model.SetupSignals) {
	signals = model.InactiveSignals()
	defer func() {
		if r := recover(); r != nil {
			logger.Warnf("demark setup failed: %v", r)
			signals = model.InactiveSignals()
		}
	}()

	if len(bars) == 0 {
		return signals
	}
	current := bars[len(bars)-1].Close
	if current <= 0 || !isFinite(current) {
		return signals
	}

	longOK := false
	if demark.Has(model.LevelR1) && standard.Has(model.LevelR2) {
		r1 := demark[model.LevelR1]
		longOK = demarkHistory[model.LevelR1].Touched || (r1 != 0 && (current/r1-1)*100 >= setupBreakoutPct)
	}
	shortOK := false
	if demark.Has(model.LevelS1) && standard.Has(model.LevelS2) {
		s1 := demark[model.LevelS1]
		shortOK = demarkHistory[model.LevelS1].Touched || (s1 != 0 && (current/s1-1)*100 <= -setupBreakoutPct)
	}

	switch {
	case longOK && !shortOK:
		signals.Long = activeSignal(model.Long, demark[model.LevelR1], standard[model.LevelR2], current)
	case shortOK && !longOK:
		signals.Short = activeSignal(model.Short, demark[model.LevelS1], standard[model.LevelS2], current)
	}
	return signals
}

func activeSignal(d model.Direction, trigger, target, current float64) model.SetupSignal {
	return model.SetupSignal{
		Direction:       d,
		Active:          true,
		Trigger:         trigger,
		Target:          target,
		DistancePercent: (target/current - 1) * 100,
	}
}
