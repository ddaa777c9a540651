package model

// SeriesIndicators holds the rolling indicators the setup analyzer reads
// from the tail of a series.
type SeriesIndicators struct {
	LastClose   float64
	PrevClose   float64
	SMA20       float64
	VolumeSMA20 float64
	LastVolume  float64
	RSI         float64
	PrevRSI     float64
}
