package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	redis "github.com/redis/go-redis/v9"
)

var _ Cache = (*Redis)(nil)

type Redis struct {
	client *redis.Client
}

func NewRedis(addr, password string, db int) *Redis {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
		Protocol: 2,
	})

	return &Redis{client: client}
}

func (r *Redis) Get(ctx context.Context, key string, v any) (bool, error) {
	res := r.client.Get(ctx, key)
	if err := res.Err(); err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}

	buf, err := res.Bytes()
	if err != nil {
		return false, err
	}

	if err := json.Unmarshal(buf, v); err != nil {
		return false, err
	}

	return true, nil
}

func (r *Redis) Set(ctx context.Context, key string, v any, ttl time.Duration) error {
	value, err := json.Marshal(v)
	if err != nil {
		return err
	}

	return r.client.Set(ctx, key, value, ttl).Err()
}

func (r *Redis) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, key).Err()
}
