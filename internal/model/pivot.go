package model

import "time"

// OHLCSample is the representative bar of the prior period.
type OHLCSample struct {
	Open  float64 `json:"open"`
	High  float64 `json:"high"`
	Low   float64 `json:"low"`
	Close float64 `json:"close"`
}

// LevelName names a pivot level.
type LevelName string

const (
	LevelP  LevelName = "P"
	LevelR1 LevelName = "R1"
	LevelR2 LevelName = "R2"
	LevelR3 LevelName = "R3"
	LevelR4 LevelName = "R4"
	LevelR5 LevelName = "R5"
	LevelS1 LevelName = "S1"
	LevelS2 LevelName = "S2"
	LevelS3 LevelName = "S3"
	LevelS4 LevelName = "S4"
	LevelS5 LevelName = "S5"
)

// StandardLevelOrder is the display order of standard levels, highest first.
var StandardLevelOrder = []LevelName{
	LevelR5, LevelR4, LevelR3, LevelR2, LevelR1, LevelP,
	LevelS1, LevelS2, LevelS3, LevelS4, LevelS5,
}

// DeMarkLevelOrder is the display order of the extended DeMark levels.
var DeMarkLevelOrder = []LevelName{LevelR2, LevelR1, LevelP, LevelS1, LevelS2}

// Levels maps level names to prices. An empty map means the pivots are unavailable.
type Levels map[LevelName]float64

// Has reports whether the named level is present.
func (l Levels) Has(name LevelName) bool {
	_, ok := l[name]
	return ok
}

// LevelFamily distinguishes standard from DeMark level sets.
type LevelFamily string

const (
	FamilyStandard LevelFamily = "standard"
	FamilyDeMark   LevelFamily = "demark"
)

// LevelTouch records whether price has reached a level.
// Status is only set for untouched levels.
type LevelTouch struct {
	Touched   bool      `json:"touched"`
	TouchDate string    `json:"touch_date"` // DD.MM
	TouchedAt time.Time `json:"touched_at,omitzero"`
	Status    string    `json:"status"`
}

// LevelHistory maps each level to its touch record.
type LevelHistory map[LevelName]LevelTouch

// PivotState is the position of the last close relative to the central pivot.
type PivotState string

const (
	PivotAbove   PivotState = "above"
	PivotBelow   PivotState = "below"
	PivotAt      PivotState = "at-pivot"
	PivotUnknown PivotState = "unknown"
)

// PivotStatus pairs a PivotState with the signed distance, e.g. "+1.2%".
type PivotStatus struct {
	State    PivotState `json:"state"`
	Distance string     `json:"distance"`
}
