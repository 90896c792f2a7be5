package retry

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithExponentialBackoff_Success(t *testing.T) {
	t.Parallel()
	attempts := 0
	err := WithExponentialBackoff(context.Background(), func() error {
		attempts++
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, attempts)
}

func TestWithExponentialBackoff_SuccessAfterRetries(t *testing.T) {
	t.Parallel()
	attempts := 0
	err := WithExponentialBackoff(context.Background(), func() error {
		attempts++
		if attempts < 3 {
			return errors.New("temporary error")
		}
		return nil
	}, WithInitialDelay(time.Millisecond))

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestWithExponentialBackoff_Exhausted(t *testing.T) {
	t.Parallel()
	attempts := 0
	err := WithExponentialBackoff(context.Background(), func() error {
		attempts++
		return errors.New("persistent error")
	}, WithMaxRetries(3), WithInitialDelay(time.Millisecond))

	require.Error(t, err)
	// MaxRetries counts retries after the first attempt.
	assert.Equal(t, 4, attempts)
	assert.True(t, IsExhausted(err))

	var exhausted *ExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, 4, exhausted.Attempts)
	assert.EqualError(t, exhausted.Err, "persistent error")
}

func TestWithExponentialBackoff_ContextCancellation(t *testing.T) {
	t.Parallel()
	attempts := 0
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := WithExponentialBackoff(ctx, func() error {
		attempts++
		return errors.New("error")
	}, WithInitialDelay(10*time.Millisecond))

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, attempts)
}

func TestWithExponentialBackoff_FatalError(t *testing.T) {
	t.Parallel()
	attempts := 0
	err := WithExponentialBackoff(context.Background(), func() error {
		attempts++
		return Fatal(errors.New("fatal error"))
	}, WithInitialDelay(time.Millisecond))

	require.Error(t, err)
	assert.True(t, IsFatal(err))
	assert.False(t, IsExhausted(err))
	assert.Equal(t, 1, attempts)
}

func TestWithExponentialBackoff_RetryIf(t *testing.T) {
	t.Parallel()
	transient := errors.New("still in use")
	permanent := errors.New("quota exceeded")

	tests := []struct {
		name         string
		errs         []error
		wantAttempts int
		wantErr      error
	}{
		{
			name:         "non matching error is returned at once",
			errs:         []error{permanent},
			wantAttempts: 1,
			wantErr:      permanent,
		},
		{
			name:         "matching errors retry until success",
			errs:         []error{transient, transient, nil},
			wantAttempts: 3,
		},
		{
			name:         "switch to non matching error stops the loop",
			errs:         []error{transient, permanent, nil},
			wantAttempts: 2,
			wantErr:      permanent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			attempts := 0
			err := WithExponentialBackoff(context.Background(), func() error {
				e := tt.errs[attempts]
				attempts++
				return e
			},
				WithInitialDelay(time.Millisecond),
				WithRetryIf(func(err error) bool { return errors.Is(err, transient) }),
			)

			assert.Equal(t, tt.wantAttempts, attempts)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.False(t, IsExhausted(err))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestWithFixedInterval(t *testing.T) {
	t.Parallel()

	t.Run("counts attempts not retries", func(t *testing.T) {
		t.Parallel()
		attempts := 0
		err := WithFixedInterval(context.Background(), func() error {
			attempts++
			return errors.New("error")
		}, 4, time.Millisecond)

		require.Error(t, err)
		assert.Equal(t, 4, attempts)
		assert.Contains(t, err.Error(), "after 4 attempts")
	})

	t.Run("zero attempts still runs once", func(t *testing.T) {
		t.Parallel()
		attempts := 0
		_ = WithFixedInterval(context.Background(), func() error {
			attempts++
			return errors.New("error")
		}, 0, time.Millisecond)

		assert.Equal(t, 1, attempts)
	})

	t.Run("delay does not grow", func(t *testing.T) {
		t.Parallel()
		var delays []time.Duration
		last := time.Now()
		attempts := 0
		err := WithFixedInterval(context.Background(), func() error {
			now := time.Now()
			if attempts > 0 {
				delays = append(delays, now.Sub(last))
			}
			last = now
			attempts++
			if attempts < 4 {
				return errors.New("error")
			}
			return nil
		}, 10, 20*time.Millisecond)

		require.NoError(t, err)
		require.Len(t, delays, 3)
		for i, d := range delays {
			assert.Less(t, d, 80*time.Millisecond, "delay %d grew to %v", i+1, d)
		}
	})
}

func TestWithOnRetry(t *testing.T) {
	t.Parallel()
	var seen []string
	attempts := 0
	err := WithFixedInterval(context.Background(), func() error {
		attempts++
		if attempts < 3 {
			return fmt.Errorf("attempt %d", attempts)
		}
		return nil
	}, 5, time.Millisecond, WithOnRetry(func(attempt int, err error) {
		seen = append(seen, fmt.Sprintf("%d:%v", attempt, err))
	}))

	require.NoError(t, err)
	assert.Equal(t, "1:attempt 1,2:attempt 2", strings.Join(seen, ","))
}

func TestFatal(t *testing.T) {
	t.Parallel()

	assert.NoError(t, Fatal(nil))

	original := errors.New("test error")
	err := Fatal(original)
	require.Error(t, err)
	assert.True(t, IsFatal(err))
	assert.Equal(t, original.Error(), err.Error())
	assert.ErrorIs(t, fmt.Errorf("context: %w", err), original)
	assert.True(t, IsFatal(fmt.Errorf("context: %w", err)))
	assert.False(t, IsFatal(errors.New("regular error")))
}
