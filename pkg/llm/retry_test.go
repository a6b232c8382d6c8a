package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetry_AcceptedFirstTry(t *testing.T) {
	calls := 0
	v, err := Retry(context.Background(), RetryConfig{Attempts: 3},
		func(ctx context.Context) (int, error) {
			calls++
			return 42, nil
		},
		func(v int) bool { return true },
	)
	require.NoError(t, err)
	assert.Equal(t, 42, v)
	assert.Equal(t, 1, calls)
}

func TestRetry_RetriesRejectedResults(t *testing.T) {
	calls := 0
	v, err := Retry(context.Background(), RetryConfig{Attempts: 3},
		func(ctx context.Context) (int, error) {
			calls++
			return calls, nil
		},
		func(v int) bool { return v >= 2 },
	)
	require.NoError(t, err)
	assert.Equal(t, 2, v)
	assert.Equal(t, 2, calls)
}

func TestRetry_ExhaustionReturnsLastResult(t *testing.T) {
	calls := 0
	v, err := Retry(context.Background(), RetryConfig{Attempts: 3},
		func(ctx context.Context) (string, error) {
			calls++
			return "unusable", nil
		},
		func(v string) bool { return false },
	)
	require.NoError(t, err)
	assert.Equal(t, "unusable", v)
	assert.Equal(t, 3, calls)
}

func TestRetry_ErrorReturnsImmediately(t *testing.T) {
	boom := errors.New("provider down")
	calls := 0
	_, err := Retry(context.Background(), RetryConfig{Attempts: 3},
		func(ctx context.Context) (int, error) {
			calls++
			return 0, boom
		},
		func(v int) bool { return true },
	)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}

func TestRetry_ZeroAttemptsMeansOne(t *testing.T) {
	calls := 0
	_, err := Retry(context.Background(), RetryConfig{},
		func(ctx context.Context) (int, error) {
			calls++
			return 1, nil
		},
		func(v int) bool { return false },
	)
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestRetry_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	_, err := Retry(ctx, RetryConfig{Attempts: 3},
		func(ctx context.Context) (int, error) {
			calls++
			return 0, nil
		},
		func(v int) bool { return true },
	)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, calls)
}
