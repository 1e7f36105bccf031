package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// slidingWindowScript атомарно чистит окно, проверяет лимит и добавляет
// запрос. Возвращает {allowed, remaining, retry_after_ms}.
var slidingWindowScript = redis.NewScript(`
	local key = KEYS[1]
	local limit = tonumber(ARGV[1])
	local window = tonumber(ARGV[2])
	local now = tonumber(ARGV[3])

	redis.call('ZREMRANGEBYSCORE', key, '-inf', now - window)

	local current = redis.call('ZCARD', key)
	if current < limit then
		redis.call('ZADD', key, now, ARGV[4])
		redis.call('PEXPIRE', key, window)
		return {1, limit - current - 1, 0}
	end

	local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
	local retry = window
	if oldest[2] then
		retry = tonumber(oldest[2]) + window - now
	end
	return {0, 0, retry}
`)

// RedisLimiter sliding window лимитер на Redis, общий для всех реплик.
// Стратегия token_bucket здесь тоже считается скользящим окном.
type RedisLimiter struct {
	client *redis.Client
	config *Config
}

// NewRedisLimiter создаёт Redis rate limiter
func NewRedisLimiter(cfg *Config) (*RedisLimiter, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return newRedisLimiterWithClient(client, cfg), nil
}

func newRedisLimiterWithClient(client *redis.Client, cfg *Config) *RedisLimiter {
	return &RedisLimiter{client: client, config: cfg}
}

func (l *RedisLimiter) key(key string) string {
	return l.config.KeyPrefix + key
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (*Decision, error) {
	res, err := slidingWindowScript.Run(ctx, l.client, []string{l.key(key)},
		l.config.Requests, l.config.Window.Milliseconds(), time.Now().UnixMilli(), uuid.NewString()).Int64Slice()
	if err != nil {
		return nil, fmt.Errorf("redis script error: %w", err)
	}
	if len(res) != 3 {
		return nil, fmt.Errorf("unexpected redis script result: %v", res)
	}

	return &Decision{
		Allowed:    res[0] == 1,
		Limit:      l.config.Requests,
		Remaining:  int(res[1]),
		RetryAfter: time.Duration(res[2]) * time.Millisecond,
	}, nil
}

func (l *RedisLimiter) Reset(ctx context.Context, key string) error {
	return l.client.Del(ctx, l.key(key)).Err()
}

func (l *RedisLimiter) Close() error {
	return l.client.Close()
}
