package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisStore keeps blobs in redis so that region servers on other hosts
// can read them
type RedisStore struct {
	client *redis.Client
}

// RedisOptions configures the redis connection
type RedisOptions struct {
	Addr        string
	Password    string
	DB          int
	DialTimeout time.Duration
	PingTest    bool
}

// NewRedisStore connects to redis, optionally verifying the connection first
func NewRedisStore(ctx context.Context, opts RedisOptions) (*RedisStore, error) {
	slog.Debug("connecting to redis server cache", "addr", opts.Addr)
	rs := &RedisStore{
		client: redis.NewClient(&redis.Options{
			Addr:        opts.Addr,
			Password:    opts.Password,
			DB:          opts.DB,
			DialTimeout: opts.DialTimeout,
		}),
	}

	if opts.PingTest {
		s := time.Now()
		if _, err := rs.client.Ping(ctx).Result(); err != nil {
			rs.client.Close()
			return nil, fmt.Errorf("error pinging redis: %w", err)
		}
		slog.Debug("redis ping test successful", "duration", time.Since(s))
	}

	return rs, nil
}

func (rs *RedisStore) Put(ctx context.Context, key string, payload []byte, ttl time.Duration) error {
	if err := rs.client.Set(ctx, key, payload, ttl).Err(); err != nil {
		return fmt.Errorf("error in redis SET: %w", err)
	}
	return nil
}

func (rs *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	payload, err := rs.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error in redis GET: %w", err)
	}
	return payload, nil
}

func (rs *RedisStore) Delete(ctx context.Context, key string) error {
	n, err := rs.client.Del(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("error in redis DEL: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Close closes the redis connection pool
func (rs *RedisStore) Close() error {
	return rs.client.Close()
}
