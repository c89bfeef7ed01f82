package kv

import (
	"context"

	redis "github.com/redis/go-redis/v9"
)

const redisHashKey = "easypurchase:settings"

type redisKV struct {
	client *redis.Client
}

// NewRedis returns a KV backed by a Redis hash.
func NewRedis(client *redis.Client) (KV, error) {
	if client == nil {
		return nil, ErrUnavailable
	}
	return &redisKV{client: client}, nil
}

func (r *redisKV) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := r.client.HGet(ctx, redisHashKey, key).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (r *redisKV) Set(ctx context.Context, key, value string) error {
	return r.client.HSet(ctx, redisHashKey, key, value).Err()
}
