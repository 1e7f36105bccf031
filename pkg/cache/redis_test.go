package cache

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func skipIfNoRedis(t *testing.T) {
	if os.Getenv("REDIS_TEST_ADDR") == "" {
		t.Skip("REDIS_TEST_ADDR not set, skipping Redis tests")
	}
}

func newTestRedis(t *testing.T, prefix string) *RedisCache {
	t.Helper()
	skipIfNoRedis(t)

	cache, err := NewRedisCache(&Options{
		Backend:       BackendRedis,
		RedisAddr:     os.Getenv("REDIS_TEST_ADDR"),
		RedisPassword: os.Getenv("REDIS_TEST_PASSWORD"),
		DefaultTTL:    time.Minute,
		KeyPrefix:     prefix,
	})
	if err != nil {
		t.Fatalf("NewRedisCache() error = %v", err)
	}
	t.Cleanup(func() {
		cache.Clear(context.Background())
		cache.Close()
	})
	return cache
}

func TestRedisCache_SetGet(t *testing.T) {
	cache := newTestRedis(t, "splitit-test:setget:")
	ctx := context.Background()

	if err := cache.Set(ctx, "test-key", []byte("test-value"), time.Minute); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	val, err := cache.Get(ctx, "test-key")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if string(val) != "test-value" {
		t.Errorf("Get() = %s, want test-value", string(val))
	}

	_, ttl, err := cache.GetWithTTL(ctx, "test-key")
	if err != nil {
		t.Fatalf("GetWithTTL() error = %v", err)
	}
	if ttl <= 0 || ttl > time.Minute {
		t.Errorf("ttl = %v, want (0, 1m]", ttl)
	}
}

func TestRedisCache_NotFound(t *testing.T) {
	cache := newTestRedis(t, "splitit-test:notfound:")

	if _, err := cache.Get(context.Background(), "missing"); !errors.Is(err, ErrKeyNotFound) {
		t.Errorf("Get() error = %v, want ErrKeyNotFound", err)
	}
}

func TestRedisCache_PrefixIsolation(t *testing.T) {
	a := newTestRedis(t, "splitit-test:a:")
	b := newTestRedis(t, "splitit-test:b:")
	ctx := context.Background()

	a.Set(ctx, "settle:x", []byte("1"), 0)
	b.Set(ctx, "settle:x", []byte("2"), 0)

	keys, err := a.Keys(ctx, "settle:*")
	if err != nil {
		t.Fatalf("Keys() error = %v", err)
	}
	if len(keys) != 1 || keys[0] != "settle:x" {
		t.Errorf("Keys() = %v, want [settle:x]", keys)
	}

	if err := a.Clear(ctx); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	if val, err := b.Get(ctx, "settle:x"); err != nil || string(val) != "2" {
		t.Errorf("other prefix should survive Clear, got %s, %v", val, err)
	}
}

func TestRedisCache_Stats(t *testing.T) {
	cache := newTestRedis(t, "splitit-test:stats:")
	ctx := context.Background()

	cache.Set(ctx, "settle:a", []byte("v"), 0)
	cache.Set(ctx, "settle:b", []byte("v"), 0)

	stats, err := cache.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if stats.Backend != BackendRedis {
		t.Errorf("backend = %s", stats.Backend)
	}
	if stats.TotalKeys != 2 {
		t.Errorf("total keys = %d, want 2", stats.TotalKeys)
	}
	if stats.KeysByPrefix["settle"] != 2 {
		t.Errorf("keys by prefix = %v", stats.KeysByPrefix)
	}
}

func TestNewRedisCache_Unreachable(t *testing.T) {
	_, err := NewRedisCache(&Options{RedisAddr: "127.0.0.1:1"})
	if err == nil {
		t.Error("expected ping error for unreachable server")
	}
}

func TestRedisCache_KeyPrefix(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	defer client.Close()

	cache := newRedisCacheWithClient(client, &Options{KeyPrefix: "splitit:"})
	if got := cache.key("settle:abc"); got != "splitit:settle:abc" {
		t.Errorf("key() = %q", got)
	}
}

func TestParseStatLine(t *testing.T) {
	var v int64
	parseStatLine("keyspace_hits:42", "keyspace_hits:%d", &v)
	if v != 42 {
		t.Errorf("parsed %d, want 42", v)
	}

	v = 7
	parseStatLine("garbage", "keyspace_hits:%d", &v)
	if v != 7 {
		t.Errorf("malformed line should leave target untouched, got %d", v)
	}
}
