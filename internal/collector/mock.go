package collector

import (
	"context"
	"sync"
	"time"

	"PivotSentinel/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Price float64
	Data  map[model.TimeFrame][]model.OHLCV // overrides generated bars
	Err   error

	mu    sync.Mutex
	calls int
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchBars(_ context.Context, _ string, tf model.TimeFrame) ([]model.OHLCV, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()

	if m.Err != nil {
		return nil, m.Err
	}
	if bars, ok := m.Data[tf]; ok {
		return bars, nil
	}
	if m.Price <= 0 {
		return nil, nil
	}
	return generateMockBars(m.Price, 30, barStep(tf)), nil
}

// Calls returns how many fetches were made.
func (m *MockFetcher) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func barStep(tf model.TimeFrame) time.Duration {
	switch tf {
	case model.TimeFrameDay:
		return time.Hour
	case model.TimeFrameWeek:
		return 7 * 24 * time.Hour
	default:
		return 30 * 24 * time.Hour
	}
}

func generateMockBars(basePrice float64, count int, step time.Duration) []model.OHLCV {
	end := time.Date(2024, 6, 28, 17, 0, 0, 0, time.UTC)
	bars := make([]model.OHLCV, count)
	for i := 0; i < count; i++ {
		p := basePrice * (1 + float64(i-count/2)*0.001)
		bars[i] = model.OHLCV{
			Time:   end.Add(-time.Duration(count-1-i) * step),
			Open:   p * 0.999,
			High:   p * 1.005,
			Low:    p * 0.995,
			Close:  p,
			Volume: 1000000,
		}
	}
	return bars
}
