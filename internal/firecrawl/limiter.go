package firecrawl

import (
	"context"
	"sync"
	"time"

	"github.com/VictorW-repo/astral-assessment/internal/telemetry"
)

// RateLimiter admits at most limit requests per rolling window. It keeps a
// FIFO queue of request timestamps; callers block until admitting one more
// request would not exceed the budget. A nil limiter, or one built with a
// non-positive limit, admits everything (no quota to protect).
type RateLimiter struct {
	mu     sync.Mutex
	limit  int
	window time.Duration
	stamps []time.Time

	now func() time.Time
}

// NewRateLimiter builds a limiter for limit requests per window.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	if limit <= 0 {
		return nil
	}
	if window <= 0 {
		window = time.Minute
	}
	return &RateLimiter{
		limit:  limit,
		window: window,
		now:    time.Now,
	}
}

// Wait blocks until a request may be issued, then records its timestamp.
// It returns early with ctx.Err() if the context is canceled while waiting.
func (l *RateLimiter) Wait(ctx context.Context) error {
	if l == nil {
		return nil
	}
	start := l.clockNow()
	for {
		l.mu.Lock()
		now := l.clockNow()
		l.evict(now)
		if len(l.stamps) < l.limit {
			l.stamps = append(l.stamps, now)
			l.mu.Unlock()
			telemetry.ObserveRateLimitWait(now.Sub(start))
			return nil
		}
		wait := l.stamps[0].Add(l.window).Sub(now)
		l.mu.Unlock()

		if wait <= 0 {
			continue
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// Pending reports how many requests are currently counted in the window.
func (l *RateLimiter) Pending() int {
	if l == nil {
		return 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.evict(l.clockNow())
	return len(l.stamps)
}

func (l *RateLimiter) evict(now time.Time) {
	cutoff := now.Add(-l.window)
	i := 0
	for i < len(l.stamps) && !l.stamps[i].After(cutoff) {
		i++
	}
	if i > 0 {
		l.stamps = append(l.stamps[:0], l.stamps[i:]...)
	}
}

func (l *RateLimiter) clockNow() time.Time {
	if l.now != nil {
		return l.now()
	}
	return time.Now()
}
