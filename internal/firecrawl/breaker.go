package firecrawl

import (
	"sync"
	"time"

	"github.com/VictorW-repo/astral-assessment/internal/telemetry"
)

const (
	defaultBreakerThreshold = 5
	defaultBreakerCooldown  = 60 * time.Second
)

// CircuitBreaker trips after a streak of consecutive failures and fails
// callers fast while open. Recovery is optimistic: once the cooldown has
// elapsed the breaker closes and the next call through acts as the probe.
type CircuitBreaker struct {
	mu        sync.Mutex
	failures  int
	open      bool
	openedAt  time.Time
	threshold int
	cooldown  time.Duration

	now func() time.Time
}

// NewCircuitBreaker builds a breaker. Non-positive arguments fall back to
// 5 failures / 60s cooldown.
func NewCircuitBreaker(threshold int, cooldown time.Duration) *CircuitBreaker {
	if threshold <= 0 {
		threshold = defaultBreakerThreshold
	}
	if cooldown <= 0 {
		cooldown = defaultBreakerCooldown
	}
	return &CircuitBreaker{
		threshold: threshold,
		cooldown:  cooldown,
		now:       time.Now,
	}
}

// IsOpen reports whether calls should fail fast. The time-based recovery
// check happens here: once the cooldown has elapsed the breaker closes and
// the query returns false. The failure streak is not reset, so a failing
// probe re-opens the breaker immediately.
func (b *CircuitBreaker) IsOpen() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.open {
		return false
	}
	if b.now().Sub(b.openedAt) >= b.cooldown {
		b.open = false
		return false
	}
	return true
}

// RecordSuccess resets the failure streak and closes the breaker.
func (b *CircuitBreaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures = 0
	b.open = false
}

// RecordFailure extends the failure streak, opening the breaker when the
// streak reaches the threshold.
func (b *CircuitBreaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures++
	if b.failures >= b.threshold && !b.open {
		b.open = true
		b.openedAt = b.now()
		telemetry.ObserveCircuitOpen()
	}
}

// Failures reports the current consecutive-failure streak.
func (b *CircuitBreaker) Failures() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.failures
}
