package download

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// DefaultDelay is the minimum spacing between two consecutive saves
const DefaultDelay = 200 * time.Millisecond

// Runner executes steps strictly one after another. Each step is prepared
// immediately and committed once the pacer grants a slot, so commits are
// spaced at least Delay apart.
type Runner struct {
	mu      sync.Mutex
	delay   time.Duration
	limiter *rate.Limiter
}

// NewRunner creates a runner. A delay of zero or less disables pacing.
func NewRunner(delay time.Duration) *Runner {
	r := &Runner{delay: delay}
	if delay > 0 {
		r.limiter = rate.NewLimiter(rate.Every(delay), 1)
	}
	return r
}

// Delay returns the configured commit spacing
func (r *Runner) Delay() time.Duration {
	return r.delay
}

// Do runs one step. A failed prepare skips the commit and does not use up
// a slot. Concurrent callers are serialized.
func (r *Runner) Do(ctx context.Context, prepare func(context.Context) error, commit func() error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	if prepare != nil {
		if err := prepare(ctx); err != nil {
			return err
		}
	}

	if r.limiter != nil {
		if err := r.limiter.Wait(ctx); err != nil {
			return err
		}
	} else if err := ctx.Err(); err != nil {
		return err
	}

	return commit()
}
