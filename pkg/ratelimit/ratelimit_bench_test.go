package ratelimit

import (
	"context"
	"fmt"
	"testing"
	"time"
)

func benchLimiter(strategy string) *MemoryLimiter {
	return NewMemoryLimiter(&Config{
		Requests:        1000000,
		Window:          time.Minute,
		Strategy:        strategy,
		CleanupInterval: time.Hour,
	})
}

func BenchmarkMemoryLimiter_SlidingWindow(b *testing.B) {
	limiter := benchLimiter(StrategySlidingWindow)
	defer limiter.Close()

	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		limiter.Allow(ctx, "benchmark-key")
	}
}

func BenchmarkMemoryLimiter_TokenBucket(b *testing.B) {
	limiter := benchLimiter(StrategyTokenBucket)
	defer limiter.Close()

	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		limiter.Allow(ctx, "benchmark-key")
	}
}

func BenchmarkMemoryLimiter_ManyKeys(b *testing.B) {
	limiter := benchLimiter(StrategyTokenBucket)
	defer limiter.Close()

	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		limiter.Allow(ctx, fmt.Sprintf("client-%d", i%1000))
	}
}

func BenchmarkMemoryLimiter_Parallel(b *testing.B) {
	limiter := benchLimiter(StrategyTokenBucket)
	defer limiter.Close()

	ctx := context.Background()

	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			limiter.Allow(ctx, fmt.Sprintf("client-%d", i%100))
			i++
		}
	})
}
