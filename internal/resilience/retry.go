package resilience

import (
	"context"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"
)

const (
	// maxAttempts is the total number of attempts including the first try.
	maxAttempts = 4

	// baseDelay is multiplied by the attempt index before jitter.
	baseDelay = 600 * time.Millisecond
)

// sleep is swapped out in tests.
var sleep = func(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// WithRetry runs fn up to 4 times, retrying only errors IsRetryable accepts.
// Backoff is base*attempt plus random jitter in [0, max(200ms, 0.4*base)).
// The last error is returned on exhaustion or a non-retryable failure.
func WithRetry[T any](ctx context.Context, provider string, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		val, err := fn(ctx)
		if err == nil {
			return val, nil
		}
		lastErr = err

		if ctx.Err() != nil || !IsRetryable(err) || attempt == maxAttempts {
			break
		}

		zap.L().Warn("retrying provider call",
			zap.String("provider", provider),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)

		if sleepErr := sleep(ctx, backoffDelay(attempt)); sleepErr != nil {
			break
		}
	}

	return zero, lastErr
}

func backoffDelay(attempt int) time.Duration {
	base := baseDelay * time.Duration(attempt)
	jitterCap := base * 2 / 5
	if jitterCap < 200*time.Millisecond {
		jitterCap = 200 * time.Millisecond
	}
	return base + time.Duration(rand.Int64N(int64(jitterCap)))
}
