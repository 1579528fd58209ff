package client

import (
	"context"
	"sync"
	"time"
)

// RateLimiter is a token bucket over API requests. Strava budgets 100
// requests per 15 minutes for a client application; the export command can
// burn through that quickly without a limiter.
type RateLimiter struct {
	mu     sync.Mutex
	rate   float64 // requests per second
	tokens float64 // current available tokens
	burst  float64
	last   time.Time
}

var (
	GlobalAPIRateLimiter *RateLimiter
	rateLimiterMu        sync.RWMutex
)

// SetGlobalAPIRateLimit installs a process-wide request limiter allowing
// `requests` calls per `window`. A non-positive request count removes the
// limiter.
func SetGlobalAPIRateLimit(requests int, window time.Duration) {
	rateLimiterMu.Lock()
	defer rateLimiterMu.Unlock()
	if requests <= 0 || window <= 0 {
		GlobalAPIRateLimiter = nil
		return
	}
	rate := float64(requests) / window.Seconds()
	GlobalAPIRateLimiter = &RateLimiter{
		rate:   rate,
		tokens: float64(requests),
		burst:  float64(requests),
		last:   time.Now(),
	}
}

// waitForRequestSlot blocks until the global limiter admits one request, or
// the context is cancelled. A nil limiter admits immediately.
func waitForRequestSlot(ctx context.Context) error {
	rateLimiterMu.RLock()
	lim := GlobalAPIRateLimiter
	rateLimiterMu.RUnlock()

	if lim == nil {
		return nil
	}
	return lim.wait(ctx)
}

func (rl *RateLimiter) wait(ctx context.Context) error {
	for {
		rl.mu.Lock()
		// Refill tokens
		now := time.Now()
		elapsed := now.Sub(rl.last).Seconds()
		if elapsed > 0 {
			rl.tokens += elapsed * rl.rate
			if rl.tokens > rl.burst {
				rl.tokens = rl.burst
			}
			rl.last = now
		}
		if rl.tokens >= 1 {
			rl.tokens--
			rl.mu.Unlock()
			return nil
		}
		// Time until the next token becomes available.
		waitDur := time.Duration(float64(time.Second) * (1 - rl.tokens) / rl.rate)
		rl.mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(waitDur):
		}
	}
}
