package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"gallery-api/config"
)

const keyPrefix = "gallery:ratelimit:"

func NewRedis(ctx context.Context, logger *zap.Logger, cfg config.Redis) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	logger.Info("redis connected successfully", zap.String("addr", cfg.Addr))

	return rdb, nil
}

// RedisStore counts hits per key in fixed windows.
type RedisStore struct {
	rdb redis.Cmdable
}

func NewRedisStore(rdb redis.Cmdable) *RedisStore {
	return &RedisStore{rdb: rdb}
}

// Incr bumps the counter for key and returns the hits seen in the current
// window together with the time left until it resets.
func (s *RedisStore) Incr(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	k := keyPrefix + key

	pipe := s.rdb.TxPipeline()
	incr := pipe.Incr(ctx, k)
	ttl := pipe.PTTL(ctx, k)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, 0, err
	}

	left := ttl.Val()
	// a fresh key, or one left without expiry by an interrupted writer
	if left < 0 {
		if err := s.rdb.PExpire(ctx, k, window).Err(); err != nil {
			return 0, 0, err
		}
		left = window
	}

	return incr.Val(), left, nil
}
