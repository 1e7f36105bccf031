package ratelimit

import (
	"context"
	"math"
	"sync"
	"time"
)

// MemoryLimiter in-memory реализация rate limiter
type MemoryLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	config  *Config
	now     func() time.Time
	stopCh  chan struct{}
	closed  bool
}

type bucket struct {
	tokens    float64
	lastCheck time.Time
	requests  []time.Time // для sliding window
}

// NewMemoryLimiter создаёт in-memory rate limiter
func NewMemoryLimiter(cfg *Config) *MemoryLimiter {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = 5 * time.Minute
	}

	l := &MemoryLimiter{
		buckets: make(map[string]*bucket),
		config:  cfg,
		now:     time.Now,
		stopCh:  make(chan struct{}),
	}

	go l.cleanup()

	return l
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (*Decision, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil, ErrLimiterClosed
	}

	now := l.now()
	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{
			tokens:    l.capacity(),
			lastCheck: now,
		}
		l.buckets[key] = b
	}

	if l.config.Strategy == StrategyTokenBucket {
		return l.allowTokenBucket(b, now), nil
	}
	return l.allowSlidingWindow(b, now), nil
}

func (l *MemoryLimiter) capacity() float64 {
	if l.config.Strategy == StrategyTokenBucket {
		return float64(l.config.Requests + l.config.Burst)
	}
	return float64(l.config.Requests)
}

func (l *MemoryLimiter) allowTokenBucket(b *bucket, now time.Time) *Decision {
	rate := float64(l.config.Requests) / l.config.Window.Seconds()

	// Восполняем токены
	b.tokens = math.Min(l.capacity(), b.tokens+now.Sub(b.lastCheck).Seconds()*rate)
	b.lastCheck = now

	d := &Decision{Limit: int(l.capacity())}
	if b.tokens >= 1 {
		b.tokens--
		d.Allowed = true
		d.Remaining = int(b.tokens)
		return d
	}

	d.RetryAfter = time.Duration((1 - b.tokens) / rate * float64(time.Second))
	return d
}

func (l *MemoryLimiter) allowSlidingWindow(b *bucket, now time.Time) *Decision {
	b.requests = pruneBefore(b.requests, now.Add(-l.config.Window))
	b.lastCheck = now

	d := &Decision{Limit: l.config.Requests}
	if len(b.requests) < l.config.Requests {
		b.requests = append(b.requests, now)
		d.Allowed = true
		d.Remaining = l.config.Requests - len(b.requests)
		return d
	}

	// Слот освободится, когда самый старый запрос выйдет из окна
	d.RetryAfter = b.requests[0].Add(l.config.Window).Sub(now)
	return d
}

// pruneBefore удаляет отметки не позже start. requests отсортирован.
func pruneBefore(requests []time.Time, start time.Time) []time.Time {
	i := 0
	for i < len(requests) && !requests[i].After(start) {
		i++
	}
	return requests[i:]
}

func (l *MemoryLimiter) Reset(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.buckets, key)
	return nil
}

func (l *MemoryLimiter) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil
	}

	l.closed = true
	close(l.stopCh)
	l.buckets = nil

	return nil
}

func (l *MemoryLimiter) cleanup() {
	ticker := time.NewTicker(l.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-l.stopCh:
			return
		case <-ticker.C:
			l.doCleanup()
		}
	}
}

// doCleanup удаляет ключи, неактивные дольше двух окон
func (l *MemoryLimiter) doCleanup() {
	l.mu.Lock()
	defer l.mu.Unlock()

	idleSince := l.now().Add(-2 * l.config.Window)
	for key, b := range l.buckets {
		if b.lastCheck.Before(idleSince) {
			delete(l.buckets, key)
		}
	}
}
