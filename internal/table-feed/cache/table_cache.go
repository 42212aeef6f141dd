package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

type Cache struct{ R *redis.Client }

func New(r *redis.Client) *Cache { return &Cache{R: r} }

const (
	keyState   = "table:state"
	keyHistory = "table:history"
)

func (c *Cache) GetState(ctx context.Context, dst any) (bool, error) {
	return c.get(ctx, keyState, dst)
}

func (c *Cache) SetState(ctx context.Context, v any, ttl time.Duration) error {
	return c.set(ctx, keyState, v, ttl)
}

func (c *Cache) GetHistory(ctx context.Context, dst any) (bool, error) {
	return c.get(ctx, keyHistory, dst)
}

func (c *Cache) SetHistory(ctx context.Context, v any, ttl time.Duration) error {
	return c.set(ctx, keyHistory, v, ttl)
}

func (c *Cache) get(ctx context.Context, key string, dst any) (bool, error) {
	b, err := c.R.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, json.Unmarshal(b, dst)
}

func (c *Cache) set(ctx context.Context, key string, v any, ttl time.Duration) error {
	b, _ := json.Marshal(v)
	return c.R.Set(ctx, key, b, ttl).Err()
}
