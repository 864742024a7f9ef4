package ratelimit

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Limiter throttles suggestion requests to at most one per interval.
// It is the caller-side debounce hint: the engine itself never blocks on it.
type Limiter struct {
	limiter *rate.Limiter
}

// New uses 0 or negative interval for no throttling.
func New(interval time.Duration) *Limiter {
	if interval <= 0 {
		// No throttling - use an unlimited rate
		return &Limiter{
			limiter: rate.NewLimiter(rate.Inf, 1),
		}
	}

	// Allow burst of 1, meaning the first request proceeds immediately
	// but subsequent requests must wait out the interval
	return &Limiter{
		limiter: rate.NewLimiter(rate.Every(interval), 1),
	}
}

func (l *Limiter) Wait(ctx context.Context) error {
	return l.limiter.Wait(ctx)
}

// Allow is non-blocking and useful for dropping stale keystrokes.
func (l *Limiter) Allow() bool {
	return l.limiter.Allow()
}

// SetInterval can be called at runtime.
func (l *Limiter) SetInterval(interval time.Duration) {
	if interval <= 0 {
		l.limiter.SetLimit(rate.Inf)
	} else {
		l.limiter.SetLimit(rate.Every(interval))
	}
}

// Interval returns the configured minimum spacing between requests.
// Zero indicates no throttling.
func (l *Limiter) Interval() time.Duration {
	limit := l.limiter.Limit()
	if limit == rate.Inf || limit <= 0 {
		return 0
	}
	return time.Duration(float64(time.Second) / float64(limit))
}
