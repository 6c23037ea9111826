package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// RedisLimiter counts hits in Redis so the limit holds across instances.
// Each key maps to a counter that expires with the window; INCR plus a
// one-time EXPIRE gives a fixed window without any process-local state.
type RedisLimiter struct {
	client redis.UniversalClient
	config Config
	logger *slog.Logger
	prefix string
}

func NewRedisLimiter(client redis.UniversalClient, config Config, logger *slog.Logger) *RedisLimiter {
	return &RedisLimiter{
		client: client,
		config: config,
		logger: logger.With("module", "ratelimit"),
		prefix: "ratelimit:",
	}
}

// NewRedisClient connects to Redis using a redis:// URL and verifies
// the connection.
func NewRedisClient(ctx context.Context, redisURL string) (redis.UniversalClient, error) {
	options, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid Redis URL: %w", err)
	}

	client := redis.NewClient(options)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return client, nil
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	redisKey := l.prefix + key

	count, err := l.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return false, fmt.Errorf("failed to count rate limit hit: %w", err)
	}

	if count == 1 {
		// First hit opens the window.
		if err := l.client.Expire(ctx, redisKey, l.config.Window).Err(); err != nil {
			return false, fmt.Errorf("failed to set rate limit window: %w", err)
		}
	}

	if count > int64(l.config.Limit) {
		l.logger.WarnContext(ctx, "Rate limit exceeded", "key", key, "count", count)

		return false, nil
	}

	return true, nil
}
