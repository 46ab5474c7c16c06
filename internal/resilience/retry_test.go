package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stubSleep(t *testing.T) *[]time.Duration {
	t.Helper()
	orig := sleep
	var delays []time.Duration
	sleep = func(ctx context.Context, d time.Duration) error {
		delays = append(delays, d)
		return nil
	}
	t.Cleanup(func() { sleep = orig })
	return &delays
}

func TestWithRetrySucceedsFirstTry(t *testing.T) {
	delays := stubSleep(t)

	calls := 0
	got, err := WithRetry(context.Background(), "test", func(ctx context.Context) (int, error) {
		calls++
		return 42, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, got)
	assert.Equal(t, 1, calls)
	assert.Empty(t, *delays)
}

func TestWithRetryRecoversFromTransient(t *testing.T) {
	stubSleep(t)

	calls := 0
	got, err := WithRetry(context.Background(), "test", func(ctx context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", errors.New("request timeout")
		}
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, 3, calls)
}

func TestWithRetryExhaustsAfterFourAttempts(t *testing.T) {
	delays := stubSleep(t)

	calls := 0
	_, err := WithRetry(context.Background(), "test", func(ctx context.Context) (int, error) {
		calls++
		return 0, errors.New("503 unavailable")
	})
	require.Error(t, err)
	assert.Equal(t, 4, calls)
	assert.Len(t, *delays, 3)
}

func TestWithRetryRetriesServerErrors(t *testing.T) {
	delays := stubSleep(t)

	calls := 0
	_, err := WithRetry(context.Background(), "test", func(ctx context.Context) (int, error) {
		calls++
		return 0, errors.New("unipile: status 500: internal server error")
	})
	require.Error(t, err)
	assert.Equal(t, 4, calls)
	assert.Len(t, *delays, 3)
}

func TestWithRetryStopsOnNonRetryable(t *testing.T) {
	stubSleep(t)

	calls := 0
	_, err := WithRetry(context.Background(), "test", func(ctx context.Context) (int, error) {
		calls++
		return 0, NewStageError("s", KindAuth, "invalid credentials")
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestWithRetryHonoursCancelledContext(t *testing.T) {
	stubSleep(t)

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	_, err := WithRetry(ctx, "test", func(ctx context.Context) (int, error) {
		calls++
		cancel()
		return 0, errors.New("network glitch")
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestBackoffDelay(t *testing.T) {
	for attempt := 1; attempt <= 3; attempt++ {
		base := baseDelay * time.Duration(attempt)
		jitterCap := base * 2 / 5
		if jitterCap < 200*time.Millisecond {
			jitterCap = 200 * time.Millisecond
		}
		for i := 0; i < 50; i++ {
			d := backoffDelay(attempt)
			assert.GreaterOrEqual(t, d, base)
			assert.Less(t, d, base+jitterCap)
		}
	}
}
