package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"PivotSentinel/internal/model"
)

// RedisCache is a SeriesCache shared between processes.
type RedisCache struct {
	rdb  *redis.Client
	ttls TTLs
}

// RedisOptions configures the Redis connection.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisCache connects and pings Redis.
func NewRedisCache(ctx context.Context, opts RedisOptions, ttls TTLs) (*RedisCache, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", opts.Addr, err)
	}
	return &RedisCache{rdb: rdb, ttls: ttls}, nil
}

func (c *RedisCache) Name() string { return "redis" }

func (c *RedisCache) Get(ctx context.Context, symbol string, tf model.TimeFrame) ([]model.OHLCV, bool, error) {
	data, err := c.rdb.Get(ctx, key(symbol, tf)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get: %w", err)
	}
	var bars []model.OHLCV
	if err := json.Unmarshal(data, &bars); err != nil {
		return nil, false, fmt.Errorf("redis decode: %w", err)
	}
	return bars, true, nil
}

func (c *RedisCache) Set(ctx context.Context, symbol string, tf model.TimeFrame, bars []model.OHLCV) error {
	data, err := json.Marshal(bars)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, key(symbol, tf), data, c.ttls.For(tf)).Err()
}

func (c *RedisCache) Clear(ctx context.Context, symbol string) error {
	pattern := keyPrefix + "*"
	if symbol != "" {
		pattern = symbolPrefix(symbol) + "*"
	}
	iter := c.rdb.Scan(ctx, 0, pattern, 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis scan: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	return c.rdb.Del(ctx, keys...).Err()
}

// Close closes the Redis connection
func (c *RedisCache) Close() error {
	return c.rdb.Close()
}
