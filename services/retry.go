package services

import (
	"context"
	"math"
	"math/rand"
	"time"
)

// Retryer decides whether another attempt is made and how long to wait
// before it. attempt is the 0-based index of the attempt that just failed.
type Retryer interface {
	NextDelay(attempt int) (time.Duration, bool)
}

// BackoffRetryer grows the delay exponentially from MinDelay, optionally
// randomized by a factor in [1, 2), and never exceeds MaxDelay.
type BackoffRetryer struct {
	MaxAttempts int
	MinDelay    time.Duration
	MaxDelay    time.Duration
	Factor      float64
	Randomize   bool

	random func() float64
}

func NewBackoffRetryer(maxAttempts int, minDelay, maxDelay time.Duration) *BackoffRetryer {
	return &BackoffRetryer{
		MaxAttempts: maxAttempts,
		MinDelay:    minDelay,
		MaxDelay:    maxDelay,
		Factor:      2,
		Randomize:   true,
		//nolint:gosec // jitter only
		random: rand.Float64,
	}
}

func (r *BackoffRetryer) NextDelay(attempt int) (time.Duration, bool) {
	if attempt+1 >= r.MaxAttempts {
		return 0, false
	}

	factor := r.Factor
	if factor < 1 {
		factor = 1
	}
	delay := float64(r.MinDelay) * math.Pow(factor, float64(attempt))
	if r.Randomize && r.random != nil {
		delay *= 1 + r.random()
	}
	if r.MaxDelay > 0 && delay > float64(r.MaxDelay) {
		delay = float64(r.MaxDelay)
	}
	if delay < float64(r.MinDelay) {
		delay = float64(r.MinDelay)
	}
	return time.Duration(delay), true
}

// sleepContext waits for d or until ctx is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
