package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Config holds the sustained rate and burst for one platform.
type Config struct {
	RequestsPerSecond float64
	Burst             int
}

// DefaultConfigs are conservative per-platform limits, well under the
// published quotas.
var DefaultConfigs = map[string]Config{
	// eBay Browse API: 5,000 calls/day on the default tier, allow small bursts
	"ebay": {RequestsPerSecond: 5, Burst: 5},
	// Etsy Open API v3: 10 requests per second per key
	"etsy": {RequestsPerSecond: 5, Burst: 10},
	// Depop public pages, be respectful
	"depop": {RequestsPerSecond: 1, Burst: 2},
}

// ErrBackingOff is returned by Wait when the backoff window outlasts the
// context deadline.
var ErrBackingOff = errors.New("rate limiter backing off")

var fallbackConfig = Config{RequestsPerSecond: 2, Burst: 2}

// Limiter is a token bucket limiter with an optional backoff window that is
// opened when the remote side answers 429.
type Limiter struct {
	limiter *rate.Limiter
	mu      sync.Mutex
	retryAt time.Time
}

// NewLimiter creates a limiter from cfg.
func NewLimiter(cfg Config) *Limiter {
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = fallbackConfig.RequestsPerSecond
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	return &Limiter{
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
	}
}

// ForPlatform creates a limiter using DefaultConfigs, falling back to a
// conservative default for unknown platforms.
func ForPlatform(platform string) *Limiter {
	cfg, ok := DefaultConfigs[platform]
	if !ok {
		cfg = fallbackConfig
	}
	return NewLimiter(cfg)
}

// Allow reports whether a request may proceed immediately.
func (l *Limiter) Allow() bool {
	l.mu.Lock()
	blocked := time.Now().Before(l.retryAt)
	l.mu.Unlock()
	if blocked {
		return false
	}
	return l.limiter.Allow()
}

// Wait blocks until a request may proceed or ctx is done. If the backoff
// window ends after the context deadline it returns ErrBackingOff at once.
func (l *Limiter) Wait(ctx context.Context) error {
	l.mu.Lock()
	retryAt := l.retryAt
	l.mu.Unlock()

	if deadline, ok := ctx.Deadline(); ok && retryAt.After(deadline) {
		return fmt.Errorf("%w until %s", ErrBackingOff, retryAt.Format(time.RFC3339))
	}

	if d := time.Until(retryAt); d > 0 {
		timer := time.NewTimer(d)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}

	return l.limiter.Wait(ctx)
}

// Backoff blocks all requests for d. A shorter backoff never shortens an
// existing window.
func (l *Limiter) Backoff(d time.Duration) {
	if d <= 0 {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	until := time.Now().Add(d)
	if until.After(l.retryAt) {
		l.retryAt = until
	}
}

// RetryAt returns the end of the current backoff window, zero if none.
func (l *Limiter) RetryAt() time.Time {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.retryAt
}
