package storage

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"
)

// cache is a json cache on top of redis. A nil client disables it: every get misses and every write is dropped
type cache struct {
	*redis.Client
}

func newCache(conn *redis.Client) *cache {
	return &cache{
		conn,
	}
}

func (c *cache) enabled() bool {
	return c.Client != nil
}

func (c *cache) get(ctx context.Context, key string, value interface{}) error {
	if !c.enabled() {
		return redis.Nil
	}

	str, err := c.Get(ctx, key).Result()
	if err != nil {
		// returns err redis.Nil if key does not exist
		return err
	}

	return json.Unmarshal([]byte(str), value)
}

func (c *cache) set(ctx context.Context, key string, value interface{}, expiration int) error {
	if !c.enabled() {
		return nil
	}

	str, err := json.Marshal(value)
	if err != nil {
		return err
	}

	return c.Set(ctx, key, str, time.Duration(expiration)*time.Second).Err()
}

func (c *cache) del(ctx context.Context, keys ...string) error {
	if !c.enabled() || len(keys) == 0 {
		return nil
	}
	return c.Del(ctx, keys...).Err()
}

func (c *cache) ping(ctx context.Context) error {
	if !c.enabled() {
		return nil
	}
	return c.Ping(ctx).Err()
}
