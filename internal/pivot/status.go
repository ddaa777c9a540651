package pivot

import (
	"fmt"

	"PivotSentinel/internal/model"
)

// CheckPivotStatus classifies the last close against the central pivot p.
func CheckPivotStatus(bars []model.OHLCV, p float64) model.PivotStatus {
	unknown := model.PivotStatus{State: model.PivotUnknown, Distance: "-"}
	if len(bars) == 0 || p == 0 || !isFinite(p) {
		return unknown
	}
	current := bars[len(bars)-1].Close
	if !isFinite(current) {
		return unknown
	}

	distance := (current/p - 1) * 100
	switch {
	case current > p:
		return model.PivotStatus{State: model.PivotAbove, Distance: fmt.Sprintf("+%.1f%%", distance)}
	case current < p:
		return model.PivotStatus{State: model.PivotBelow, Distance: fmt.Sprintf("%.1f%%", distance)}
	default:
		return model.PivotStatus{State: model.PivotAt, Distance: "0%"}
	}
}
