package pivot

import (
	"math"

	"PivotSentinel/internal/logger"
	"PivotSentinel/internal/model"
)

// StandardPivots computes the floor-trader levels P, R1-R5 and S1-S5.
// Degenerate input yields an empty map.
func StandardPivots(o model.OHLCSample) model.Levels {
	if !finiteSample(o) {
		logger.Warnf("standard pivots: degenerate sample %+v", o)
		return model.Levels{}
	}
	h, l, c := o.High, o.Low, o.Close

	p := (h + l + c) / 3
	r1 := 2*p - l
	r2 := p + (h - l)
	r3 := h + 2*(p-l)
	r4 := r3 + (r3 - r2)
	r5 := r4 + (r4 - r3)

	s1 := 2*p - h
	s2 := p - (h - l)
	s3 := l - 2*(h-p)
	s4 := s3 - (s2 - s3)
	s5 := s4 - (s3 - s4)

	return finiteLevels("standard", model.Levels{
		model.LevelR5: r5,
		model.LevelR4: r4,
		model.LevelR3: r3,
		model.LevelR2: r2,
		model.LevelR1: r1,
		model.LevelP:  p,
		model.LevelS1: s1,
		model.LevelS2: s2,
		model.LevelS3: s3,
		model.LevelS4: s4,
		model.LevelS5: s5,
	})
}

// DeMarkPivots computes the DeMark levels P, R1 and S1.
func DeMarkPivots(o model.OHLCSample) model.Levels {
	if !finiteSample(o) {
		logger.Warnf("demark pivots: degenerate sample %+v", o)
		return model.Levels{}
	}
	x := demarkX(o)
	return finiteLevels("demark", model.Levels{
		model.LevelR1: x/2 - o.Low,
		model.LevelP:  x / 4,
		model.LevelS1: x/2 - o.High,
	})
}

// DeMarkPivotsExtended adds R2 = H + (R1 - L) and S2 = L - (H - S1) to the
// DeMark levels.
func DeMarkPivotsExtended(o model.OHLCSample) model.Levels {
	levels := DeMarkPivots(o)
	if len(levels) == 0 {
		return levels
	}
	r1, s1 := levels[model.LevelR1], levels[model.LevelS1]
	levels[model.LevelR2] = o.High + (r1 - o.Low)
	levels[model.LevelS2] = o.Low - (o.High - s1)
	return finiteLevels("demark", levels)
}

// demarkX weights the bar according to the close/open relation.
func demarkX(o model.OHLCSample) float64 {
	switch {
	case o.Close < o.Open:
		return o.High + 2*o.Low + o.Close
	case o.Close > o.Open:
		return 2*o.High + o.Low + o.Close
	default:
		return o.High + o.Low + 2*o.Close
	}
}

func finiteSample(o model.OHLCSample) bool {
	return isFinite(o.Open) && isFinite(o.High) && isFinite(o.Low) && isFinite(o.Close)
}

func finiteLevels(family string, levels model.Levels) model.Levels {
	for name, v := range levels {
		if !isFinite(v) {
			logger.Warnf("%s pivots: level %s is not finite", family, name)
			return model.Levels{}
		}
	}
	return levels
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
