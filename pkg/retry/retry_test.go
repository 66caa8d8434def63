package retry_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/niksmo/storefront/pkg/retry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errFlaky = errors.New("flaky")

func TestDoSucceedsAfterRetries(t *testing.T) {
	var calls int
	cfg := retry.RetryConfig{
		MaxAttempts: 5,
		Backoff:     retry.ConstantBackoff(time.Millisecond),
	}

	v, err := retry.DoWithResult(t.Context(), cfg, func() (int, error) {
		calls++
		if calls < 3 {
			return 0, errFlaky
		}
		return 42, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, v)
	assert.Equal(t, 3, calls)
}

func TestDoReturnsLastError(t *testing.T) {
	var calls int
	cfg := retry.RetryConfig{
		MaxAttempts: 3,
		Backoff:     retry.ConstantBackoff(time.Millisecond),
	}

	err := retry.Do(t.Context(), cfg, func() error {
		calls++
		return errFlaky
	})
	assert.ErrorIs(t, err, errFlaky)
	assert.Equal(t, 3, calls)
}

func TestDoStopsOnPermanentError(t *testing.T) {
	errPermanent := errors.New("permanent")
	var calls int
	cfg := retry.RetryConfig{
		MaxAttempts: 5,
		Backoff:     retry.ConstantBackoff(time.Millisecond),
		ShouldRetry: func(err error) bool { return errors.Is(err, errFlaky) },
	}

	err := retry.Do(t.Context(), cfg, func() error {
		calls++
		return errPermanent
	})
	assert.ErrorIs(t, err, errPermanent)
	assert.Equal(t, 1, calls)
}

func TestDoZeroAttemptsRunsOnce(t *testing.T) {
	var calls int
	err := retry.Do(t.Context(), retry.RetryConfig{}, func() error {
		calls++
		return errFlaky
	})
	assert.ErrorIs(t, err, errFlaky)
	assert.Equal(t, 1, calls)
}

func TestDoContextCancelled(t *testing.T) {
	t.Run("BeforeStart", func(t *testing.T) {
		ctx, cancel := context.WithCancel(t.Context())
		cancel()

		err := retry.Do(ctx, retry.RetryConfig{MaxAttempts: 3}, func() error {
			t.Fatal("must not be called")
			return nil
		})
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("DuringBackoff", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(t.Context(), 10*time.Millisecond)
		defer cancel()

		cfg := retry.RetryConfig{
			MaxAttempts: 3,
			Backoff:     retry.ConstantBackoff(time.Hour),
		}
		err := retry.Do(ctx, cfg, func() error { return errFlaky })
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.ErrorIs(t, err, errFlaky)
	})
}

func TestBackoff(t *testing.T) {
	assert.Equal(t, 30*time.Millisecond, retry.LinearBackoff(10*time.Millisecond)(3))
	assert.Equal(t, 5*time.Millisecond, retry.ConstantBackoff(5*time.Millisecond)(7))

	d := retry.ExponentialBackoff(10 * time.Millisecond)(2)
	assert.GreaterOrEqual(t, d, 40*time.Millisecond)
	assert.LessOrEqual(t, d, 60*time.Millisecond)
}
