package server

import (
	"sync"
	"time"

	"github.com/Tyrowin/roomrelay/internal/config"
)

// rateLimiter is a token bucket that throttles how often one connection may
// publish to its room.
type rateLimiter struct {
	mu        sync.Mutex
	tokens    float64
	capacity  float64
	rate      float64
	lastCheck time.Time
}

// newRateLimiter returns nil when cfg disables rate limiting.
func newRateLimiter(cfg config.RateLimitConfig, now time.Time) *rateLimiter {
	if cfg.Burst <= 0 {
		return nil
	}
	interval := cfg.RefillInterval
	if interval <= 0 {
		interval = config.DefaultRefillInterval
	}

	return &rateLimiter{
		tokens:    float64(cfg.Burst),
		capacity:  float64(cfg.Burst),
		rate:      float64(cfg.Burst) / interval.Seconds(),
		lastCheck: now,
	}
}

// allow reports whether a publish at now fits in the budget. A nil limiter
// allows everything.
func (rl *rateLimiter) allow(now time.Time) bool {
	if rl == nil {
		return true
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	if elapsed := now.Sub(rl.lastCheck).Seconds(); elapsed > 0 {
		rl.tokens += elapsed * rl.rate
		if rl.tokens > rl.capacity {
			rl.tokens = rl.capacity
		}
	}
	rl.lastCheck = now

	if rl.tokens < 1 {
		return false
	}
	rl.tokens--
	return true
}
