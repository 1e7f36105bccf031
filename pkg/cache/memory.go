package cache

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// MemoryCache in-memory реализация кэша на LRU из golang-lru.
// TTL хранится в записи и проверяется при чтении.
type MemoryCache struct {
	items      *lru.Cache[string, memoryEntry]
	defaultTTL time.Duration

	// Статистика
	hits   atomic.Int64
	misses atomic.Int64

	closed atomic.Bool
}

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

func (e memoryEntry) isExpired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

func (e memoryEntry) ttl(now time.Time) time.Duration {
	if e.expiresAt.IsZero() {
		return -1 // Бессрочный
	}
	ttl := e.expiresAt.Sub(now)
	if ttl < 0 {
		return 0
	}
	return ttl
}

// NewMemoryCache создаёт новый in-memory кэш
func NewMemoryCache(opts *Options) (*MemoryCache, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	size := opts.MaxEntries
	if size <= 0 {
		size = DefaultOptions().MaxEntries
	}

	items, err := lru.New[string, memoryEntry](size)
	if err != nil {
		return nil, fmt.Errorf("create lru: %w", err)
	}

	return &MemoryCache{
		items:      items,
		defaultTTL: opts.DefaultTTL,
	}, nil
}

func (c *MemoryCache) lookup(key string) (memoryEntry, bool) {
	entry, ok := c.items.Get(key)
	if !ok {
		return memoryEntry{}, false
	}
	if entry.isExpired(time.Now()) {
		c.items.Remove(key)
		return memoryEntry{}, false
	}
	return entry, true
}

func (c *MemoryCache) Get(ctx context.Context, key string) ([]byte, error) {
	if c.closed.Load() {
		return nil, ErrCacheClosed
	}

	entry, ok := c.lookup(key)
	if !ok {
		c.misses.Add(1)
		return nil, ErrKeyNotFound
	}

	c.hits.Add(1)
	return cloneBytes(entry.value), nil
}

func (c *MemoryCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if c.closed.Load() {
		return ErrCacheClosed
	}

	if ttl <= 0 {
		ttl = c.defaultTTL
	}

	entry := memoryEntry{value: cloneBytes(value)}
	if ttl > 0 {
		entry.expiresAt = time.Now().Add(ttl)
	}
	c.items.Add(key, entry)
	return nil
}

func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	if c.closed.Load() {
		return ErrCacheClosed
	}
	c.items.Remove(key)
	return nil
}

func (c *MemoryCache) Exists(ctx context.Context, key string) (bool, error) {
	if c.closed.Load() {
		return false, ErrCacheClosed
	}
	entry, ok := c.items.Peek(key)
	return ok && !entry.isExpired(time.Now()), nil
}

func (c *MemoryCache) GetWithTTL(ctx context.Context, key string) ([]byte, time.Duration, error) {
	if c.closed.Load() {
		return nil, 0, ErrCacheClosed
	}

	entry, ok := c.lookup(key)
	if !ok {
		c.misses.Add(1)
		return nil, 0, ErrKeyNotFound
	}

	c.hits.Add(1)
	return cloneBytes(entry.value), entry.ttl(time.Now()), nil
}

func (c *MemoryCache) Keys(ctx context.Context, pattern string) ([]string, error) {
	if c.closed.Load() {
		return nil, ErrCacheClosed
	}

	now := time.Now()
	var keys []string
	for _, key := range c.items.Keys() {
		entry, ok := c.items.Peek(key)
		if ok && !entry.isExpired(now) && matchPattern(pattern, key) {
			keys = append(keys, key)
		}
	}
	return keys, nil
}

func (c *MemoryCache) DeleteByPattern(ctx context.Context, pattern string) (int64, error) {
	if c.closed.Load() {
		return 0, ErrCacheClosed
	}

	var count int64
	for _, key := range c.items.Keys() {
		if matchPattern(pattern, key) && c.items.Remove(key) {
			count++
		}
	}
	return count, nil
}

func (c *MemoryCache) Stats(ctx context.Context) (*Stats, error) {
	if c.closed.Load() {
		return nil, ErrCacheClosed
	}

	stats := &Stats{
		Hits:         c.hits.Load(),
		Misses:       c.misses.Load(),
		KeysByPrefix: make(map[string]int64),
		Backend:      BackendMemory,
	}

	total := stats.Hits + stats.Misses
	if total > 0 {
		stats.HitRate = float64(stats.Hits) / float64(total)
	}

	now := time.Now()
	for _, key := range c.items.Keys() {
		entry, ok := c.items.Peek(key)
		if !ok || entry.isExpired(now) {
			continue
		}
		stats.TotalKeys++
		stats.MemoryBytes += int64(len(entry.value))
		stats.KeysByPrefix[extractPrefix(key)]++
	}

	return stats, nil
}

func (c *MemoryCache) Clear(ctx context.Context) error {
	if c.closed.Load() {
		return ErrCacheClosed
	}
	c.items.Purge()
	return nil
}

func (c *MemoryCache) Close() error {
	if c.closed.Swap(true) {
		return nil // Уже закрыт
	}
	c.items.Purge()
	return nil
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

// matchPattern проверяет соответствие ключа паттерну
// Поддерживает:
//   - "*" - любой ключ
//   - "prefix*" - ключи, начинающиеся с prefix
//   - "*suffix" - ключи, заканчивающиеся на suffix
//   - "prefix*suffix" - ключи, начинающиеся с prefix и заканчивающиеся на suffix
func matchPattern(pattern, key string) bool {
	if pattern == "*" {
		return true
	}

	starIndex := strings.Index(pattern, "*")
	if starIndex == -1 {
		return pattern == key
	}

	prefix := pattern[:starIndex]
	suffix := pattern[starIndex+1:]

	if len(key) < len(prefix)+len(suffix) {
		return false
	}

	return strings.HasPrefix(key, prefix) && strings.HasSuffix(key, suffix)
}

// extractPrefix извлекает префикс ключа
func extractPrefix(key string) string {
	if idx := strings.Index(key, ":"); idx > 0 {
		return key[:idx]
	}
	return "other"
}
