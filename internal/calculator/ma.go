package calculator

import (
	"errors"
	"fmt"

	"github.com/markcheno/go-talib"

	"PivotSentinel/internal/model"
)

// ErrInsufficientData is returned when a series is shorter than the indicator window.
var ErrInsufficientData = errors.New("not enough data")

// CalculateSMA computes the simple moving average of the given prices over the specified period.
func CalculateSMA(prices []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.New("period must be positive")
	}
	if len(prices) < period {
		return 0, fmt.Errorf("sma(%d) over %d values: %w", period, len(prices), ErrInsufficientData)
	}
	sum := 0.0
	for i := len(prices) - period; i < len(prices); i++ {
		sum += prices[i]
	}
	return sum / float64(period), nil
}

// SMASeries returns the rolling SMA aligned with prices. The first period-1
// entries are zero.
func SMASeries(prices []float64, period int) ([]float64, error) {
	if period <= 0 {
		return nil, errors.New("period must be positive")
	}
	if len(prices) < period {
		return nil, fmt.Errorf("sma series(%d) over %d values: %w", period, len(prices), ErrInsufficientData)
	}
	return talib.Sma(prices, period), nil
}

// Closes extracts the close prices of bars.
func Closes(bars []model.OHLCV) []float64 {
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}
	return closes
}

// Volumes extracts the volumes of bars.
func Volumes(bars []model.OHLCV) []float64 {
	volumes := make([]float64, len(bars))
	for i, b := range bars {
		volumes[i] = b.Volume
	}
	return volumes
}
