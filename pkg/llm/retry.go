package llm

import (
	"context"
	"time"
)

// RetryConfig bounds the local retry loop wrapped around a provider call.
type RetryConfig struct {
	// Attempts is the maximum number of invocations, including the first.
	// Values below 1 are treated as 1.
	Attempts int

	// Backoff is the pause between attempts. Zero disables the pause.
	Backoff time.Duration
}

// DefaultRetryConfig matches the bound used for structured planner output:
// up to three attempts, no backoff.
var DefaultRetryConfig = RetryConfig{Attempts: 3}

// Retry invokes fn until accept approves its result or the attempt budget
// is exhausted. Errors from fn return immediately: the retry loop exists
// for results the model produced but that are unusable (e.g. structured
// output that failed to parse), which is a transient fault invisible to
// the caller. When every attempt is rejected, the last result is returned
// with a nil error and the caller proceeds with it.
func Retry[T any](ctx context.Context, cfg RetryConfig, fn func(context.Context) (T, error), accept func(T) bool) (T, error) {
	var last T

	attempts := cfg.Attempts
	if attempts < 1 {
		attempts = 1
	}

	for i := 0; i < attempts; i++ {
		if err := ctx.Err(); err != nil {
			return last, err
		}

		v, err := fn(ctx)
		if err != nil {
			return v, err
		}
		last = v

		if accept(v) {
			return v, nil
		}

		if i < attempts-1 && cfg.Backoff > 0 {
			select {
			case <-time.After(cfg.Backoff):
			case <-ctx.Done():
				return last, ctx.Err()
			}
		}
	}

	return last, nil
}
