package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastPolicy(attempts int) Policy {
	return Policy{
		MaxAttempts:     attempts,
		InitialInterval: time.Millisecond,
		MaxInterval:     5 * time.Millisecond,
		Multiplier:      2,
	}
}

func TestRetry_SucceedsAfterFailures(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), fastPolicy(5), func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetry_StopsAtMaxAttempts(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), fastPolicy(3), func() error {
		calls++
		return errors.New("always")
	})

	require.Error(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetry_FatalStopsImmediately(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), fastPolicy(5), func() error {
		calls++
		return NewFatalError(errors.New("bad input"))
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestRetry_UnlimitedEndsWithContext(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	calls := 0
	err := Retry(ctx, UntilSuccess(time.Millisecond, 2*time.Millisecond), func() error {
		calls++
		return errors.New("down")
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Greater(t, calls, 1)
}

func TestRetryWithCallback_ReportsAttempts(t *testing.T) {
	var seen []int
	_ = RetryWithCallback(context.Background(), fastPolicy(3), func() error {
		return errors.New("x")
	}, func(attempt int, err error, next time.Duration) {
		seen = append(seen, attempt)
	})

	assert.Equal(t, []int{1, 2}, seen)
}

func TestDelayFor(t *testing.T) {
	assert.Equal(t, time.Second, DelayFor(0, time.Second, 2, time.Minute))
	assert.Equal(t, 4*time.Second, DelayFor(2, time.Second, 2, time.Minute))
	assert.Equal(t, time.Minute, DelayFor(10, time.Second, 2, time.Minute))
}
