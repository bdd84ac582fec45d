package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCircuitBreaker_OpensAfterConsecutiveFailures(t *testing.T) {
	cb := NewCircuitBreaker("test", Config{FailureThreshold: 3, ResetTimeout: 50 * time.Millisecond}, nil, nil)
	failing := func(ctx context.Context) (interface{}, error) { return nil, errors.New("boom") }

	for i := 0; i < 3; i++ {
		_, err := cb.Execute(context.Background(), failing)
		require.Error(t, err)
	}

	assert.Equal(t, StateOpen, cb.State())

	_, err := cb.Execute(context.Background(), failing)
	assert.ErrorIs(t, err, ErrOpen)
}

func TestCircuitBreaker_HalfOpenRecoversOnSuccess(t *testing.T) {
	cb := NewCircuitBreaker("test", Config{
		FailureThreshold: 1,
		ResetTimeout:     10 * time.Millisecond,
		SuccessThreshold: 2,
	}, nil, nil)

	_, _ = cb.Execute(context.Background(), func(ctx context.Context) (interface{}, error) {
		return nil, errors.New("boom")
	})
	require.Equal(t, StateOpen, cb.State())

	time.Sleep(15 * time.Millisecond)

	ok := func(ctx context.Context) (interface{}, error) { return "ok", nil }
	_, err := cb.Execute(context.Background(), ok)
	require.NoError(t, err)
	assert.Equal(t, StateHalfOpen, cb.State())

	_, err = cb.Execute(context.Background(), ok)
	require.NoError(t, err)
	assert.Equal(t, StateClosed, cb.State())
}

func TestCircuitBreaker_CallTimeout(t *testing.T) {
	cb := NewCircuitBreaker("test", Config{CallTimeout: 10 * time.Millisecond}, nil, nil)
	_, err := cb.Execute(context.Background(), func(ctx context.Context) (interface{}, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestRateLimiter_AllowsWithinLimitAndBlocksOverBurst(t *testing.T) {
	rl := NewRateLimiter("tenant-1:hybrid", RateLimiterConfig{Limit: 2, Period: time.Minute})
	assert.True(t, rl.Allow())
	assert.True(t, rl.Allow())
	assert.False(t, rl.Allow())
}

func TestExponentialBackoff_RetriesThenSucceeds(t *testing.T) {
	backoff := NewExponentialBackoff(RetryConfig{InitialInterval: time.Millisecond, MaxRetries: 5})
	attempts := 0
	err := backoff.Execute(context.Background(), func(ctx context.Context) error {
		attempts++
		if attempts < 3 {
			return errors.New("transient")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}
