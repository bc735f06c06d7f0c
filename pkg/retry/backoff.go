package retry

import (
	"context"
	"math"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// schedule turns p into a jittered backoff bounded by ctx and, when set,
// by MaxAttempts.
func (p Policy) schedule(ctx context.Context) backoff.BackOff {
	multiplier := p.Multiplier
	if multiplier <= 0 {
		multiplier = 2.0
	}

	var b backoff.BackOff = backoff.NewExponentialBackOff(
		backoff.WithInitialInterval(p.InitialInterval),
		backoff.WithMaxInterval(p.MaxInterval),
		backoff.WithMultiplier(multiplier),
		backoff.WithMaxElapsedTime(p.MaxElapsedTime),
	)
	if p.MaxAttempts > 0 {
		b = backoff.WithMaxRetries(b, uint64(p.MaxAttempts-1))
	}
	return backoff.WithContext(b, ctx)
}

// DelayFor is the delay before delayed retry number n (zero based): initial
// grown by multiplier per retry, capped at max. Unlike schedule it has no jitter,
// so the same retry count always waits the same time.
func DelayFor(n int, initial time.Duration, multiplier float64, max time.Duration) time.Duration {
	if n < 0 {
		n = 0
	}
	d := float64(initial) * math.Pow(multiplier, float64(n))
	if max > 0 && d > float64(max) {
		return max
	}
	return time.Duration(d)
}
