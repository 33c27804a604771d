// Package background contains tasks that run independently of the request-response cycle.
// The only one today is the expiry sweeper, which deletes sessions past their expiry and
// login-attempt counters nobody has touched for a day.
package background

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/user/gatehouse-go/store"
)

const (
	// StaleAttemptAge is how long an untouched login-attempt counter is kept. It is far longer
	// than the lockout window, so deleting a counter never lifts an active lockout early.
	StaleAttemptAge = 24 * time.Hour

	// sweepTimeout bounds a single sweep.
	sweepTimeout = 30 * time.Second
)

// SweepResult counts what one sweep removed.
type SweepResult struct {
	Sessions int64
	Attempts int64
}

// Sweeper periodically deletes expired records from the stores.
type Sweeper struct {
	sessions store.SessionStore
	attempts store.AttemptStore
	interval time.Duration
	logger   *zap.Logger
	now      func() time.Time

	wg sync.WaitGroup
}

// NewSweeper creates a Sweeper that runs every interval once started.
func NewSweeper(sessions store.SessionStore, attempts store.AttemptStore, interval time.Duration, logger *zap.Logger) *Sweeper {
	return &Sweeper{
		sessions: sessions,
		attempts: attempts,
		interval: interval,
		logger:   logger,
		now:      time.Now,
	}
}

// SweepOnce runs one sweep. Both deletions are attempted even if the first fails;
// the first error is returned.
func (s *Sweeper) SweepOnce(ctx context.Context) (SweepResult, error) {
	now := s.now()
	var res SweepResult
	var firstErr error

	n, err := s.sessions.DeleteExpiredSessions(ctx, now)
	if err != nil {
		firstErr = err
	}
	res.Sessions = n

	n, err = s.attempts.DeleteStaleLoginAttempts(ctx, now.Add(-StaleAttemptAge))
	if err != nil && firstErr == nil {
		firstErr = err
	}
	res.Attempts = n

	return res, firstErr
}

// Start launches the sweep loop in its own goroutine. The loop exits when stopChan is
// closed; Wait blocks until an in-flight sweep has finished.
func (s *Sweeper) Start(stopChan <-chan struct{}) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.logger.Info("expiry sweeper stopped")

		s.logger.Info("expiry sweeper starting", zap.Duration("interval", s.interval))
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-stopChan:
				return
			case <-ticker.C:
				s.tick()
			}
		}
	}()
}

// Wait blocks until the loop started by Start has returned.
func (s *Sweeper) Wait() {
	s.wg.Wait()
}

func (s *Sweeper) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()

	res, err := s.SweepOnce(ctx)
	if err != nil {
		s.logger.Error("expiry sweep failed", zap.Error(err))
	}
	if res.Sessions > 0 || res.Attempts > 0 {
		s.logger.Info("expiry sweep",
			zap.Int64("sessions_deleted", res.Sessions),
			zap.Int64("attempts_deleted", res.Attempts))
	}
}
