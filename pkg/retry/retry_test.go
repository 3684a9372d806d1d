package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errTemporary = errors.New("temporary")

func TestDo(t *testing.T) {
	t.Run("SuccessAfterRetries", func(t *testing.T) {
		var calls int
		err := Do(t.Context(), Config{
			MaxAttempts: 5,
			Backoff:     ConstantBackoff(time.Millisecond),
		}, func() error {
			calls++
			if calls < 3 {
				return errTemporary
			}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("AttemptsExhausted", func(t *testing.T) {
		var calls int
		err := Do(t.Context(), Config{
			MaxAttempts: 3,
			Backoff:     ConstantBackoff(time.Millisecond),
		}, func() error {
			calls++
			return errTemporary
		})
		require.ErrorIs(t, err, errTemporary)
		assert.Equal(t, 3, calls)
	})

	t.Run("NotRetried", func(t *testing.T) {
		errFatal := errors.New("fatal")
		var calls int
		err := Do(t.Context(), Config{
			MaxAttempts: 3,
			Backoff:     ConstantBackoff(time.Millisecond),
			ShouldRetry: func(err error) bool {
				return errors.Is(err, errTemporary)
			},
		}, func() error {
			calls++
			return errFatal
		})
		require.ErrorIs(t, err, errFatal)
		assert.Equal(t, 1, calls)
	})

	t.Run("ContextDone", func(t *testing.T) {
		ctx, cancel := context.WithCancel(t.Context())
		var calls int
		err := Do(ctx, Config{
			MaxAttempts: 10,
			Backoff:     ConstantBackoff(time.Hour),
		}, func() error {
			calls++
			cancel()
			return errTemporary
		})
		require.ErrorIs(t, err, context.Canceled)
		assert.ErrorIs(t, err, errTemporary)
		assert.Equal(t, 1, calls)
	})

	t.Run("DefaultsToSingleAttempt", func(t *testing.T) {
		var calls int
		err := Do(t.Context(), Config{}, func() error {
			calls++
			return errTemporary
		})
		require.Error(t, err)
		assert.Equal(t, 1, calls)
	})
}

func TestDoWithResult(t *testing.T) {
	v, err := DoWithResult(t.Context(), Config{MaxAttempts: 2},
		func() (string, error) { return "ok", nil },
	)
	require.NoError(t, err)
	assert.Equal(t, "ok", v)
}

func TestExponentialBackoff(t *testing.T) {
	b := ExponentialBackoff(10*time.Millisecond, 50*time.Millisecond)

	d1 := b(1)
	assert.GreaterOrEqual(t, d1, 10*time.Millisecond)
	assert.Less(t, d1, 15*time.Millisecond)

	d2 := b(2)
	assert.GreaterOrEqual(t, d2, 20*time.Millisecond)
	assert.Less(t, d2, 30*time.Millisecond)

	d10 := b(10)
	assert.GreaterOrEqual(t, d10, 50*time.Millisecond)
	assert.Less(t, d10, 75*time.Millisecond)
}
