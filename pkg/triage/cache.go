package triage

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const patientListKey = "triage:patients"

// RedisListCache caches the full patient list served by GET /patients.
type RedisListCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisListCache(client *redis.Client, ttl time.Duration) *RedisListCache {
	return &RedisListCache{client: client, ttl: ttl}
}

func (c *RedisListCache) Get(ctx context.Context) ([]Patient, bool, error) {
	raw, err := c.client.Get(ctx, patientListKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var patients []Patient
	if err := json.Unmarshal(raw, &patients); err != nil {
		return nil, false, err
	}
	return patients, true, nil
}

func (c *RedisListCache) Set(ctx context.Context, patients []Patient) error {
	raw, err := json.Marshal(patients)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, patientListKey, raw, c.ttl).Err()
}

func (c *RedisListCache) Invalidate(ctx context.Context) error {
	return c.client.Del(ctx, patientListKey).Err()
}
