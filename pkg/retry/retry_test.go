package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var (
	errFlaky = errors.New("flaky")
	errFatal = errors.New("fatal")
)

func transient(err error) bool { return errors.Is(err, errFlaky) }

func TestPolicy_RetriesTransientErrors(t *testing.T) {
	p := Policy{MaxAttempts: 5, InitialDelay: time.Millisecond, ShouldRetry: transient}
	calls := 0

	err := p.Do(context.Background(), func(context.Context) error {
		calls++
		if calls < 3 {
			return errFlaky
		}
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestPolicy_StopsOnPermanentError(t *testing.T) {
	p := Policy{MaxAttempts: 5, InitialDelay: time.Millisecond, ShouldRetry: transient}
	calls := 0

	err := p.Do(context.Background(), func(context.Context) error {
		calls++
		return errFatal
	})

	assert.Equal(t, errFatal, err)
	assert.Equal(t, 1, calls)
}

func TestPolicy_ExhaustsAttempts(t *testing.T) {
	p := Policy{MaxAttempts: 3, InitialDelay: time.Millisecond, ShouldRetry: transient}
	calls := 0

	err := p.Do(context.Background(), func(context.Context) error {
		calls++
		return errFlaky
	})

	assert.Equal(t, errFlaky, err)
	assert.Equal(t, 3, calls)
}

func TestPolicy_ZeroValueTriesOnce(t *testing.T) {
	calls := 0
	err := Policy{}.Do(context.Background(), func(context.Context) error {
		calls++
		return errFlaky
	})

	assert.Equal(t, errFlaky, err)
	assert.Equal(t, 1, calls)
}

func TestPolicy_ServerHintIsCapped(t *testing.T) {
	var delays []time.Duration
	p := Policy{
		MaxAttempts:  3,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		ShouldRetry:  transient,
		Hint:         func(error) time.Duration { return time.Hour },
		OnRetry:      func(_ int, _ error, d time.Duration) { delays = append(delays, d) },
	}

	_ = p.Do(context.Background(), func(context.Context) error { return errFlaky })

	assert.Equal(t, []time.Duration{5 * time.Millisecond, 5 * time.Millisecond}, delays)
}

func TestPolicy_BackoffDoubles(t *testing.T) {
	p := Policy{InitialDelay: 100 * time.Millisecond, MaxDelay: 300 * time.Millisecond}

	assert.Equal(t, 100*time.Millisecond, p.delay(1, errFlaky))
	assert.Equal(t, 200*time.Millisecond, p.delay(2, errFlaky))
	assert.Equal(t, 300*time.Millisecond, p.delay(3, errFlaky))
	assert.Equal(t, 300*time.Millisecond, p.delay(80, errFlaky))
}

func TestPolicy_CancelledBeforeFirstCall(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Policy{MaxAttempts: 3}.Do(ctx, func(context.Context) error { return nil })

	assert.ErrorIs(t, err, context.Canceled)
}

func TestPolicy_CancelDuringWaitReturnsLastError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := Policy{
		MaxAttempts:  3,
		InitialDelay: time.Hour,
		ShouldRetry:  transient,
		OnRetry:      func(int, error, time.Duration) { cancel() },
	}

	err := p.Do(ctx, func(context.Context) error { return errFlaky })

	assert.Equal(t, errFlaky, err)
}
