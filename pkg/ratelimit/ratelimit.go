// Package ratelimit ограничивает частоту запросов к API по ключу клиента.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"splitit/pkg/config"
)

// ErrLimiterClosed возвращается после Close
var ErrLimiterClosed = errors.New("limiter is closed")

// Стратегии
const (
	StrategySlidingWindow = "sliding_window"
	StrategyTokenBucket   = "token_bucket"
)

// Limiter интерфейс ограничителя запросов
type Limiter interface {
	// Allow расходует один запрос из лимита ключа
	Allow(ctx context.Context, key string) (*Decision, error)

	// Reset сбрасывает лимит для ключа
	Reset(ctx context.Context, key string) error

	// Close закрывает лимитер
	Close() error
}

// Decision результат проверки лимита
type Decision struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration // ноль, если запрос разрешён
}

// Config конфигурация rate limiter
type Config struct {
	Requests int
	Window   time.Duration
	Burst    int
	Strategy string
	Backend  string

	// CleanupInterval интервал очистки для in-memory
	CleanupInterval time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	KeyPrefix     string
}

// DefaultConfig возвращает конфигурацию по умолчанию
func DefaultConfig() *Config {
	return &Config{
		Requests:        60,
		Window:          time.Minute,
		Burst:           10,
		Strategy:        StrategySlidingWindow,
		Backend:         "memory",
		CleanupInterval: 5 * time.Minute,
		KeyPrefix:       "splitit:ratelimit:",
	}
}

// FromConfig собирает Config из секций ratelimit и cache
func FromConfig(rl *config.RateLimitConfig, cache *config.CacheConfig) *Config {
	cfg := DefaultConfig()
	cfg.Requests = rl.Requests
	cfg.Window = rl.Window
	cfg.Burst = rl.Burst
	cfg.Strategy = rl.Strategy
	cfg.Backend = rl.Backend
	if cache != nil {
		cfg.RedisAddr = cache.Address()
		cfg.RedisPassword = cache.Password
		cfg.RedisDB = cache.DB
	}
	return cfg
}

// New создаёт лимитер на основе конфигурации
func New(cfg *Config) (Limiter, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.Requests <= 0 || cfg.Window <= 0 {
		return nil, fmt.Errorf("ratelimit: requests and window must be positive")
	}

	switch cfg.Backend {
	case "redis":
		return NewRedisLimiter(cfg)
	case "memory", "":
		return NewMemoryLimiter(cfg), nil
	default:
		return nil, fmt.Errorf("ratelimit: unknown backend %q", cfg.Backend)
	}
}

// ClientKey определяет клиента: первый адрес X-Forwarded-For, затем
// X-Real-Ip, затем адрес соединения без порта.
func ClientKey(header http.Header, peerAddr string) string {
	if fwd := header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if ip := strings.TrimSpace(header.Get("X-Real-Ip")); ip != "" {
		return ip
	}
	if host, _, err := net.SplitHostPort(peerAddr); err == nil {
		return host
	}
	if peerAddr != "" {
		return peerAddr
	}
	return "unknown"
}
