// Package ratelimit provides per-key request limiting for the HTTP API and
// MCP tools. Limits are injected as a Checker so handlers never touch a
// process-wide map directly.
package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Checker decides whether a request for key may proceed.
type Checker interface {
	Check(ctx context.Context, key string) (bool, error)
}

// CheckFunc adapts a plain function to Checker.
type CheckFunc func(ctx context.Context, key string) (bool, error)

// Check calls f.
func (f CheckFunc) Check(ctx context.Context, key string) (bool, error) {
	return f(ctx, key)
}

// Unlimited allows every request.
var Unlimited Checker = CheckFunc(func(context.Context, string) (bool, error) { return true, nil })

// Limiter implements a per-key token bucket rate limiter.
// Each key gets its own bucket with the configured rate and burst.
// It is safe for concurrent use.
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	rate    float64          // tokens per second
	burst   int              // max burst size (also initial token count)
	nowFunc func() time.Time // injectable clock for testing
}

type bucket struct {
	tokens    float64
	lastCheck time.Time
}

// NewLimiter creates a rate limiter with the given rate (tokens/sec) and burst size.
// The burst size also serves as the initial number of tokens available.
func NewLimiter(rate float64, burst int) *Limiter {
	return &Limiter{
		buckets: make(map[string]*bucket),
		rate:    rate,
		burst:   burst,
		nowFunc: time.Now,
	}
}

// PerMinute creates a limiter allowing n requests per minute with the given burst.
func PerMinute(n, burst int) *Limiter {
	return NewLimiter(float64(n)/60.0, burst)
}

// Allow reports whether a request for key should be allowed and, if so,
// consumes one token.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.nowFunc()

	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{
			tokens:    float64(l.burst),
			lastCheck: now,
		}
		l.buckets[key] = b
	}

	elapsed := now.Sub(b.lastCheck).Seconds()
	if elapsed > 0 {
		b.tokens += l.rate * elapsed
		if b.tokens > float64(l.burst) {
			b.tokens = float64(l.burst)
		}
		b.lastCheck = now
	}

	if b.tokens < 1.0 {
		return false
	}

	b.tokens--
	return true
}

// Check implements Checker. It never fails.
func (l *Limiter) Check(_ context.Context, key string) (bool, error) {
	return l.Allow(key), nil
}

// Prune drops buckets that have been idle long enough to refill completely.
func (l *Limiter) Prune() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.rate <= 0 {
		return 0
	}
	full := time.Duration(float64(l.burst) / l.rate * float64(time.Second))
	now := l.nowFunc()
	removed := 0
	for key, b := range l.buckets {
		if now.Sub(b.lastCheck) >= full {
			delete(l.buckets, key)
			removed++
		}
	}
	return removed
}

// ToolLimiters maps tool names to their rate limiters.
type ToolLimiters map[string]*Limiter

// NewToolLimiters creates the default set of per-tool rate limiters.
func NewToolLimiters() ToolLimiters {
	return ToolLimiters{
		"wingman_analyze":      NewLimiter(30.0/60.0, 5), // 30/minute, burst 5
		"wingman_reload_rules": NewLimiter(5.0/60.0, 1),  // 5/minute, burst 1
		"wingman_history":      NewLimiter(1.0, 10),      // 60/minute, burst 10
	}
}

// CheckLimit checks the rate limit for a given tool name.
// Returns nil if allowed, or an error if rate limited.
// Tools without a configured limiter are always allowed.
func CheckLimit(limiters ToolLimiters, toolName string) error {
	limiter, ok := limiters[toolName]
	if !ok {
		return nil
	}

	if !limiter.Allow(toolName) {
		return fmt.Errorf("rate limit exceeded for %s, please try again shortly", toolName)
	}

	return nil
}
