package ai

import (
	"context"
	"sync"
	"testing"
	"time"

	"mentor/internal/testsupport"
)

func TestRedisRateLimiter_Basic(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	configs := testsupport.LoadDatabaseConfigsFromEnv(t)
	redisClient := testsupport.NewRedisClient(t, configs.Redis)
	ctx := context.Background()

	// Create limiter: 60 req/min = 1 req/sec, burst=2
	limiter := NewRedisRateLimiter(redisClient, ProviderNameGemini, 60, 2)

	// First request should pass immediately
	if err := limiter.Wait(ctx); err != nil {
		t.Fatalf("First request should succeed: %v", err)
	}

	// Second request should pass immediately (burst)
	if err := limiter.Wait(ctx); err != nil {
		t.Fatalf("Second request should succeed: %v", err)
	}

	// Third request should wait (bucket empty)
	start := time.Now()
	if err := limiter.Wait(ctx); err != nil {
		t.Fatalf("Third request should eventually succeed: %v", err)
	}
	elapsed := time.Since(start)

	if elapsed < 500*time.Millisecond {
		t.Errorf("Expected to wait ~1s, waited only %v", elapsed)
	}
}

func TestRedisRateLimiter_SharedBudget(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	configs := testsupport.LoadDatabaseConfigsFromEnv(t)
	redisClient := testsupport.NewRedisClient(t, configs.Redis)

	// Two limiters with the same provider share one bucket
	first := NewRedisRateLimiter(redisClient, ProviderNameOpenAI, 60, 2)
	second := NewRedisRateLimiter(redisClient, ProviderNameOpenAI, 60, 2)

	var allowed int
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, l := range []*RedisRateLimiter{first, second} {
		wg.Add(1)
		go func(l *RedisRateLimiter) {
			defer wg.Done()
			for i := 0; i < 3; i++ {
				if l.Allow() {
					mu.Lock()
					allowed++
					mu.Unlock()
				}
			}
		}(l)
	}
	wg.Wait()

	if allowed > 2 {
		t.Errorf("Shared bucket of 2 allowed %d requests", allowed)
	}
}
