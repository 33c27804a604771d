// Package throttle implements the per-source-address login throttle: failed attempts are
// counted per address, and once MaxAttempts is reached the address is locked out until
// LockoutWindow has passed since its last recorded failure.
package throttle

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/user/gatehouse-go/store"
)

const (
	// MaxAttempts is the number of failures after which an address is locked.
	MaxAttempts = 8
	// LockoutWindow is measured from the last recorded failure, not from when the lock began.
	LockoutWindow = 10 * time.Minute
)

// Decision is the outcome of Check.
type Decision struct {
	Allowed bool
	// RetryAfter is how much of the lockout window is left; zero when Allowed.
	RetryAfter time.Duration
}

// RetryAfterMinutes rounds RetryAfter up to whole minutes for user-facing messages.
func (d Decision) RetryAfterMinutes() int {
	return int(math.Ceil(d.RetryAfter.Minutes()))
}

// Guard decides whether a login attempt from a source address may proceed.
// It keeps no state of its own; counters live in the AttemptStore, whose increment is atomic.
type Guard struct {
	attempts store.AttemptStore
	now      func() time.Time
}

// Option configures a Guard.
type Option func(*Guard)

// WithClock replaces the wall clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(g *Guard) { g.now = now }
}

// NewGuard creates a Guard over the given counter store.
func NewGuard(attempts store.AttemptStore, opts ...Option) *Guard {
	g := &Guard{attempts: attempts, now: time.Now}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Check returns whether sourceAddress may attempt a login right now.
// A lockout that has run its course is cleared here by resetting the counter to zero.
//
// The elapsed-time comparison uses the wall clock as-is; clock resolution coarser than the
// lockout granularity is not corrected for.
func (g *Guard) Check(ctx context.Context, sourceAddress string) (Decision, error) {
	record, err := g.attempts.FindLoginAttempt(ctx, sourceAddress)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Decision{Allowed: true}, nil
		}
		return Decision{}, fmt.Errorf("throttle: load counter: %w", err)
	}

	if record.Attempts < MaxAttempts {
		return Decision{Allowed: true}, nil
	}

	now := g.now()
	elapsed := now.Sub(record.UpdatedAt)
	if elapsed < LockoutWindow {
		return Decision{Allowed: false, RetryAfter: LockoutWindow - elapsed}, nil
	}

	if err := g.attempts.ResetLoginAttempt(ctx, sourceAddress, now); err != nil && !errors.Is(err, store.ErrNotFound) {
		return Decision{}, fmt.Errorf("throttle: reset counter: %w", err)
	}
	return Decision{Allowed: true}, nil
}

// RecordFailure counts one more failed attempt for sourceAddress and refreshes its timestamp.
func (g *Guard) RecordFailure(ctx context.Context, sourceAddress string) (*store.LoginAttempt, error) {
	record, err := g.attempts.IncrementLoginAttempt(ctx, sourceAddress, g.now())
	if err != nil {
		return nil, fmt.Errorf("throttle: record failure: %w", err)
	}
	return record, nil
}

// RecordSuccess forgets every failure recorded for sourceAddress. It is a no-op when none exist.
func (g *Guard) RecordSuccess(ctx context.Context, sourceAddress string) error {
	if err := g.attempts.DeleteLoginAttempt(ctx, sourceAddress); err != nil {
		return fmt.Errorf("throttle: clear counter: %w", err)
	}
	return nil
}
