package cache

import (
	"context"
	"strings"
	"sync"
	"time"

	"PivotSentinel/internal/model"
)

type entry struct {
	bars    []model.OHLCV
	expires time.Time
}

// MemoryCache is an in-process SeriesCache.
type MemoryCache struct {
	mu      sync.RWMutex
	ttls    TTLs
	entries map[string]entry
	now     func() time.Time
}

func NewMemoryCache(ttls TTLs) *MemoryCache {
	return &MemoryCache{
		ttls:    ttls,
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

func (c *MemoryCache) Name() string { return "memory" }

func (c *MemoryCache) Get(_ context.Context, symbol string, tf model.TimeFrame) ([]model.OHLCV, bool, error) {
	c.mu.RLock()
	e, ok := c.entries[key(symbol, tf)]
	c.mu.RUnlock()
	if !ok || !c.now().Before(e.expires) {
		return nil, false, nil
	}
	return append([]model.OHLCV(nil), e.bars...), true, nil
}

func (c *MemoryCache) Set(_ context.Context, symbol string, tf model.TimeFrame, bars []model.OHLCV) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key(symbol, tf)] = entry{
		bars:    append([]model.OHLCV(nil), bars...),
		expires: c.now().Add(c.ttls.For(tf)),
	}
	return nil
}

func (c *MemoryCache) Clear(_ context.Context, symbol string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if symbol == "" {
		c.entries = make(map[string]entry)
		return nil
	}
	prefix := symbolPrefix(symbol)
	for k := range c.entries {
		if strings.HasPrefix(k, prefix) {
			delete(c.entries, k)
		}
	}
	return nil
}

const keyPrefix = "pivot:series:"

func key(symbol string, tf model.TimeFrame) string {
	return symbolPrefix(symbol) + string(tf)
}

func symbolPrefix(symbol string) string {
	return keyPrefix + strings.ToUpper(symbol) + ":"
}
