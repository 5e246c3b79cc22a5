package cache

import (
	"context"
	"errors"
	"time"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"

	"github.com/danielweickdag/kairo-quantum-sub006/internal/models"
)

// RedisCache stores snapshots as JSON values with a TTL.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

var _ Cache = (*RedisCache)(nil)

func NewRedisCache(addr string, password string, db int, ttl time.Duration) *RedisCache {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &RedisCache{
		client: rdb,
		ttl:    ttl,
	}
}

// Ping checks connectivity.
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) SetTicker(ctx context.Context, t models.Ticker) error {
	return c.set(ctx, tickerKey(t.Symbol), t)
}

func (c *RedisCache) GetTicker(ctx context.Context, symbol string) (*models.Ticker, error) {
	var t models.Ticker
	ok, err := c.get(ctx, tickerKey(symbol), &t)
	if !ok {
		return nil, err
	}
	return &t, nil
}

func (c *RedisCache) SetOrderBook(ctx context.Context, ob models.OrderBook) error {
	return c.set(ctx, bookKey(ob.Symbol), ob)
}

func (c *RedisCache) GetOrderBook(ctx context.Context, symbol string) (*models.OrderBook, error) {
	var ob models.OrderBook
	ok, err := c.get(ctx, bookKey(symbol), &ob)
	if !ok {
		return nil, err
	}
	return &ob, nil
}

func (c *RedisCache) Invalidate(ctx context.Context, symbol string) error {
	return c.client.Del(ctx, tickerKey(symbol), bookKey(symbol)).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

func (c *RedisCache) set(ctx context.Context, key string, v any) error {
	b, err := sonic.Marshal(v)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, b, c.ttl).Err()
}

func (c *RedisCache) get(ctx context.Context, key string, dst any) (bool, error) {
	b, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := sonic.Unmarshal(b, dst); err != nil {
		return false, err
	}
	return true, nil
}
