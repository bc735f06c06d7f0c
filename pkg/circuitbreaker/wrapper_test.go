package circuitbreaker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"auditwatch/internal/config"
)

func TestExecute_TripsAfterFailures(t *testing.T) {
	w := NewWrapper(Config{
		Name:        "test-trip",
		MaxRequests: 1,
		Timeout:     time.Minute,
		ReadyToTrip: ratioTrip(2, 0.5),
	})

	boom := errors.New("down")
	for i := 0; i < 2; i++ {
		err := Do(context.Background(), w, func(context.Context) error { return boom })
		assert.ErrorIs(t, err, boom)
	}

	assert.True(t, w.IsOpen())
	err := Do(context.Background(), w, func(context.Context) error { return nil })
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
}

func TestExecute_ReturnsValue(t *testing.T) {
	w := NewWrapper(DefaultConfig("test-value"))

	v, err := Execute(context.Background(), w, func(context.Context) (int, error) { return 42, nil })
	require.NoError(t, err)
	assert.Equal(t, 42, v)
}

func TestExecute_CancelledContextDoesNotTrip(t *testing.T) {
	w := NewWrapper(Config{Name: "test-cancel", ReadyToTrip: ratioTrip(1, 0.1)})

	for i := 0; i < 3; i++ {
		err := Do(context.Background(), w, func(context.Context) error { return context.Canceled })
		assert.ErrorIs(t, err, context.Canceled)
	}
	assert.Equal(t, gobreaker.StateClosed, w.State())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	called := false
	err := Do(ctx, w, func(context.Context) error { called = true; return nil })
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestFromSettings(t *testing.T) {
	c := FromSettings("x", config.CircuitBreakerConfig{MaxRequests: 7, Timeout: time.Second, MinRequests: 10, FailureRatio: 0.9})

	assert.Equal(t, uint32(7), c.MaxRequests)
	assert.Equal(t, time.Second, c.Timeout)
	assert.Equal(t, 60*time.Second, c.Interval)
	assert.False(t, c.ReadyToTrip(gobreaker.Counts{Requests: 9, TotalFailures: 9}))
	assert.True(t, c.ReadyToTrip(gobreaker.Counts{Requests: 10, TotalFailures: 9}))
}
