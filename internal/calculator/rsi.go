package calculator

import (
	"errors"
	"fmt"

	"github.com/markcheno/go-talib"
)

// RSISeries returns the rolling RSI aligned with closes; the first period
// entries are zero.
func RSISeries(closes []float64, period int) ([]float64, error) {
	if period <= 1 {
		return nil, errors.New("period must be greater than 1")
	}
	if len(closes) < period+1 {
		return nil, fmt.Errorf("rsi series(%d) over %d values: %w", period, len(closes), ErrInsufficientData)
	}
	return talib.Rsi(closes, period), nil
}
