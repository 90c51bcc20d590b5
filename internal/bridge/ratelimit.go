// Package bridge implements the REST and WebSocket clients that connect the
// simulator core to an external power-flow/thermal co-simulation host: a
// scheduler that advances simulated time and exposes per-node electrical
// and thermal state over HTTP, and publishes pass-boundary events over a
// WebSocket feed.
package bridge

import (
	"context"
	"sync"
	"time"
)

// TokenBucket implements a token-bucket rate limiter with continuous
// refill. Callers block in Wait() until a token is available or the
// context is cancelled.
type TokenBucket struct {
	mu       sync.Mutex
	tokens   float64
	capacity float64
	rate     float64
	lastTime time.Time
}

// NewTokenBucket creates a rate limiter with the given capacity and refill
// rate.
func NewTokenBucket(capacity, ratePerSecond float64) *TokenBucket {
	return &TokenBucket{
		tokens:   capacity,
		capacity: capacity,
		rate:     ratePerSecond,
		lastTime: time.Now(),
	}
}

// Wait blocks until a token is available or ctx is cancelled.
func (tb *TokenBucket) Wait(ctx context.Context) error {
	for {
		tb.mu.Lock()
		now := time.Now()
		elapsed := now.Sub(tb.lastTime).Seconds()
		tb.tokens += elapsed * tb.rate
		if tb.tokens > tb.capacity {
			tb.tokens = tb.capacity
		}
		tb.lastTime = now

		if tb.tokens >= 1 {
			tb.tokens--
			tb.mu.Unlock()
			return nil
		}

		wait := time.Duration((1 - tb.tokens) / tb.rate * float64(time.Second))
		tb.mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}

// RateLimiter groups token buckets by bridge endpoint category.
type RateLimiter struct {
	NodeState *TokenBucket // GET node state
	Setpoint  *TokenBucket // POST setpoint / constant-power load
}

// NewRateLimiter creates rate limiters tuned to a co-simulation host's
// typical per-tick polling volume.
func NewRateLimiter() *RateLimiter {
	return &RateLimiter{
		NodeState: NewTokenBucket(200, 40),
		Setpoint:  NewTokenBucket(100, 20),
	}
}
