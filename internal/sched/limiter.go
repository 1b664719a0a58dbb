package sched

import (
	"context"
	"time"
)

// RateLimiter spaces sampling passes so the venue's request budget is never
// exceeded: at most one pass per window, measured from the start of the
// previous pass.
type RateLimiter struct {
	window time.Duration
	last   time.Time
	now    func() time.Time
}

func NewRateLimiter(window time.Duration) *RateLimiter {
	return &RateLimiter{window: window, now: time.Now}
}

// WaitDuration returns how long a pass starting at now must wait given the
// previous pass started at last. A zero last means no pass has run yet.
func WaitDuration(last, now time.Time, window time.Duration) time.Duration {
	if last.IsZero() {
		return 0
	}
	remaining := window - now.Sub(last)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Wait blocks until the next pass may start, then marks the pass as started.
// It returns early with the context's error on cancellation.
func (r *RateLimiter) Wait(ctx context.Context) error {
	wait := WaitDuration(r.last, r.now(), r.window)
	if wait > 0 {
		timer := time.NewTimer(wait)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
	r.last = r.now()
	return nil
}
