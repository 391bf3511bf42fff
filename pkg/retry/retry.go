// Package retry re-runs a failing call with capped exponential backoff.
package retry

import (
	"context"
	"math/rand/v2"
	"time"
)

// Policy describes how a call is retried. The zero value makes a single
// attempt.
type Policy struct {
	// MaxAttempts counts the first call.
	MaxAttempts int

	// InitialDelay doubles after every failed attempt, up to MaxDelay.
	InitialDelay time.Duration
	MaxDelay     time.Duration

	// Jitter spreads each delay by up to this fraction in either direction.
	Jitter float64

	// ShouldRetry decides whether err is transient. Nil retries nothing.
	ShouldRetry func(err error) bool

	// Hint returns a delay requested by the server, or zero.
	Hint func(err error) time.Duration

	// OnRetry is called before each wait.
	OnRetry func(attempt int, err error, delay time.Duration)
}

// Do calls fn until it succeeds, returns an error ShouldRetry rejects, runs
// out of attempts, or ctx is done. It returns the last error from fn; a
// context error is returned only if fn never ran.
func (p Policy) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	var last error
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			if last != nil {
				return last
			}
			return err
		}

		last = fn(ctx)
		if last == nil {
			return nil
		}
		if attempt >= p.MaxAttempts || p.ShouldRetry == nil || !p.ShouldRetry(last) {
			return last
		}

		delay := p.delay(attempt, last)
		if p.OnRetry != nil {
			p.OnRetry(attempt, last, delay)
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return last
		case <-timer.C:
		}
	}
}

func (p Policy) delay(attempt int, err error) time.Duration {
	if p.Hint != nil {
		if hint := p.Hint(err); hint > 0 {
			return p.capped(hint)
		}
	}

	d := p.InitialDelay << (attempt - 1)
	if d <= 0 {
		d = p.MaxDelay
	}
	d = p.capped(d)
	if p.Jitter > 0 {
		d += time.Duration(float64(d) * p.Jitter * (rand.Float64()*2 - 1))
	}
	return max(d, 0)
}

func (p Policy) capped(d time.Duration) time.Duration {
	if p.MaxDelay > 0 && d > p.MaxDelay {
		return p.MaxDelay
	}
	return d
}
