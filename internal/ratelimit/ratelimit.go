package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type Config struct {
	RequestsPerSecond float64
	BurstSize         int
}

var (
	// GoogleCalendar stays well below the per-user Calendar API quota.
	GoogleCalendar = Config{RequestsPerSecond: 5.0, BurstSize: 10}
	// Notion allows an average of three requests per second per integration.
	Notion = Config{RequestsPerSecond: 3.0, BurstSize: 3}
)

// Limiter is a token bucket that can additionally be paused after the remote side asked
// the caller to back off.
type Limiter struct {
	mu      sync.Mutex
	limiter *rate.Limiter
	retryAt time.Time
}

func New(cfg Config) *Limiter {
	return &Limiter{
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.BurstSize),
	}
}

// Wait blocks until a request may be sent or ctx is done.
func (l *Limiter) Wait(ctx context.Context) error {
	l.mu.Lock()
	retryAt := l.retryAt
	l.mu.Unlock()

	if time.Now().Before(retryAt) {
		timer := time.NewTimer(time.Until(retryAt))
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}

	return l.limiter.Wait(ctx)
}

// Backoff holds all requests for d. A shorter backoff never cuts an active one short.
func (l *Limiter) Backoff(d time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	retryAt := time.Now().Add(d)
	if retryAt.After(l.retryAt) {
		l.retryAt = retryAt
	}
}
