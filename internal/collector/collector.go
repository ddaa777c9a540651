package collector

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"PivotSentinel/internal/cache"
	"PivotSentinel/internal/logger"
	"PivotSentinel/internal/metrics"
	"PivotSentinel/internal/model"
)

// ErrEmptySymbol is returned for a blank symbol.
var ErrEmptySymbol = errors.New("empty symbol")

// maxParallelFetches bounds concurrent requests per symbol.
const maxParallelFetches = 3

// Collector fetches price series through a cache.
type Collector struct {
	fetcher    Fetcher
	cache      cache.SeriesCache
	timeframes []model.TimeFrame
	now        func() time.Time
}

// NewCollector creates a new Collector. An empty timeframes list means all.
func NewCollector(fetcher Fetcher, store cache.SeriesCache, timeframes []model.TimeFrame) *Collector {
	if len(timeframes) == 0 {
		timeframes = model.AllTimeFrames
	}
	return &Collector{fetcher: fetcher, cache: store, timeframes: timeframes, now: time.Now}
}

// Timeframes returns the configured time frames.
func (c *Collector) Timeframes() []model.TimeFrame {
	return c.timeframes
}

// Source names the underlying fetcher.
func (c *Collector) Source() string {
	return c.fetcher.Name()
}

// GetSeries returns the pivot series of symbol for tf: the tail of the
// lookback, cut to the current period where the time frame asks for it. A nil
// slice with a nil error means no data is available.
func (c *Collector) GetSeries(ctx context.Context, symbol string, tf model.TimeFrame) ([]model.OHLCV, error) {
	bars, err := c.GetHistory(ctx, symbol, tf)
	if err != nil || bars == nil {
		return nil, err
	}
	return pivotWindow(bars, tf, c.now()), nil
}

// GetHistory returns the full lookback of symbol for tf, as used by the setup
// analyzer.
func (c *Collector) GetHistory(ctx context.Context, symbol string, tf model.TimeFrame) ([]model.OHLCV, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, ErrEmptySymbol
	}

	bars, ok, err := c.cache.Get(ctx, symbol, tf)
	metrics.RecordCacheLookup(c.cache.Name(), ok, err)
	if err != nil {
		logger.Warnf("cache get %s/%s: %v", symbol, tf, err)
	}
	if ok {
		return bars, nil
	}

	start := time.Now()
	bars, err = c.fetcher.FetchBars(ctx, symbol, tf)
	metrics.RecordFetch(c.fetcher.Name(), tf, len(bars), time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("fetch %s %s: %w", symbol, tf, err)
	}
	if len(bars) == 0 {
		logger.Debugf("no %s data for %s", tf, symbol)
		return nil, nil
	}

	if err := c.cache.Set(ctx, symbol, tf, bars); err != nil {
		logger.Warnf("cache set %s/%s: %v", symbol, tf, err)
	}
	return bars, nil
}

// GetAllTimeframes fetches the pivot series of every configured time frame in
// parallel. Time frames that fail or have no data are left out of the result.
func (c *Collector) GetAllTimeframes(ctx context.Context, symbol string) map[model.TimeFrame][]model.OHLCV {
	return c.collect(ctx, symbol, c.timeframes, c.GetSeries)
}

// GetHistories fetches the full lookback of each of tfs in parallel, for the
// setup analyzer.
func (c *Collector) GetHistories(ctx context.Context, symbol string, tfs []model.TimeFrame) map[model.TimeFrame][]model.OHLCV {
	return c.collect(ctx, symbol, tfs, c.GetHistory)
}

type seriesFunc func(ctx context.Context, symbol string, tf model.TimeFrame) ([]model.OHLCV, error)

func (c *Collector) collect(ctx context.Context, symbol string, tfs []model.TimeFrame, get seriesFunc) map[model.TimeFrame][]model.OHLCV {
	var mu sync.Mutex
	out := make(map[model.TimeFrame][]model.OHLCV, len(tfs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelFetches)
	for _, tf := range tfs {
		g.Go(func() error {
			bars, err := get(gctx, symbol, tf)
			if err != nil {
				logger.Warnf("%s collect failed: %v", tf, err)
				return nil
			}
			if bars == nil {
				return nil
			}
			mu.Lock()
			out[tf] = bars
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// ClearCache drops cached series of symbol, or all when symbol is empty.
func (c *Collector) ClearCache(ctx context.Context, symbol string) error {
	return c.cache.Clear(ctx, strings.ToUpper(symbol))
}
