package store

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

type RedisLocalConfig struct {
	Redis    redis.UniversalClient
	Prefix   string
	ClientID string
}

// RedisLocal is the keyspace private to one client. Keys of different clients never collide.
type RedisLocal struct {
	rc     redis.UniversalClient
	prefix string
}

func NewRedisLocal(c RedisLocalConfig) *RedisLocal {
	prefix := "client:" + c.ClientID + ":"
	if c.Prefix != "" {
		prefix = c.Prefix + ":" + prefix
	}

	return &RedisLocal{
		rc:     c.Redis,
		prefix: prefix,
	}
}

func (l *RedisLocal) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := l.rc.Get(ctx, l.prefix+key).Result()
	if stderrors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("store: get %s: %w", key, err)
	}

	return v, true, nil
}

func (l *RedisLocal) Set(ctx context.Context, key, value string) error {
	if err := l.rc.Set(ctx, l.prefix+key, value, 0).Err(); err != nil {
		return fmt.Errorf("store: set %s: %w", key, err)
	}

	return nil
}

func (l *RedisLocal) Delete(ctx context.Context, key string) error {
	if err := l.rc.Del(ctx, l.prefix+key).Err(); err != nil {
		return fmt.Errorf("store: delete %s: %w", key, err)
	}

	return nil
}

func (l *RedisLocal) DeletePrefix(ctx context.Context, prefix string) error {
	iter := l.rc.Scan(ctx, 0, l.prefix+prefix+"*", 100).Iterator()

	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("store: scan %s: %w", prefix, err)
	}
	if len(keys) == 0 {
		return nil
	}

	if err := l.rc.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("store: delete %s*: %w", prefix, err)
	}

	return nil
}
