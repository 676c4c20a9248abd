package retryx

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cartpilot/server/internal/agent/model"
)

func fastConfig(maxRetries int) Config {
	return Config{
		MaxRetries:     maxRetries,
		InitialBackoff: time.Millisecond,
		Multiplier:     2.0,
		MaxBackoff:     4 * time.Millisecond,
		Jitter:         false,
	}
}

func TestDoSucceedsFirstAttempt(t *testing.T) {
	calls := 0
	out, err := Do(context.Background(), fastConfig(3), "op", func(context.Context) (int, error) {
		calls++
		return 42, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 42, out)
	assert.Equal(t, 1, calls)
}

func TestDoRetriesTransientUntilSuccess(t *testing.T) {
	calls := 0
	out, err := Do(context.Background(), fastConfig(3), "op", func(context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", Transient("zepto", errors.New("timeout"))
		}
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	assert.Equal(t, 3, calls)
}

func TestDoExhaustsAfterMaxRetriesPlusOneAttempts(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), fastConfig(3), "op", func(context.Context) (int, error) {
		calls++
		return 0, Transient("zepto", errors.New("timeout"))
	})

	require.Error(t, err)
	assert.Equal(t, 4, calls)
	assert.Contains(t, err.Error(), "4 attempts exhausted")
	assert.True(t, IsTransient(err))
}

func TestDoPermanentErrorSurfacesImmediately(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), fastConfig(3), "op", func(context.Context) (int, error) {
		calls++
		return 0, Permanent("zepto", errors.New("malformed response"))
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.True(t, IsPermanent(err))
	assert.False(t, IsTransient(err))
}

func TestDoUnknownErrorNotRetried(t *testing.T) {
	calls := 0
	sentinel := errors.New("boom")
	_, err := Do(context.Background(), fastConfig(3), "op", func(context.Context) (int, error) {
		calls++
		return 0, sentinel
	})

	require.ErrorIs(t, err, sentinel)
	assert.Equal(t, 1, calls)
}

func TestDoHonoursContextCancellationDuringBackoff(t *testing.T) {
	cfg := Config{
		MaxRetries:     5,
		InitialBackoff: time.Hour,
		Multiplier:     2.0,
		MaxBackoff:     time.Hour,
	}
	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := Do(ctx, cfg, "op", func(context.Context) (int, error) {
		return 0, Transient("zepto", errors.New("timeout"))
	})
	require.ErrorIs(t, err, context.Canceled)
}

func TestBackoffGrowsAndCaps(t *testing.T) {
	cfg := Config{
		InitialBackoff: time.Second,
		Multiplier:     2.0,
		MaxBackoff:     4 * time.Second,
		Jitter:         false,
	}

	assert.Equal(t, time.Second, cfg.Backoff(0))
	assert.Equal(t, 2*time.Second, cfg.Backoff(1))
	assert.Equal(t, 4*time.Second, cfg.Backoff(2))
	// Capped beyond the max.
	assert.Equal(t, 4*time.Second, cfg.Backoff(10))
}

func TestBackoffJitterBounds(t *testing.T) {
	cfg := Config{
		InitialBackoff: time.Second,
		Multiplier:     2.0,
		MaxBackoff:     32 * time.Second,
		Jitter:         true,
	}

	for i := 0; i < 100; i++ {
		b := cfg.Backoff(0)
		assert.GreaterOrEqual(t, b, 500*time.Millisecond)
		assert.Less(t, b, 1500*time.Millisecond)
	}
}

func TestFromFetchConfigClampsNonsense(t *testing.T) {
	cfg := FromFetchConfig(model.FetchConfig{
		MaxRetries:        -1,
		InitialBackoffMS:  0,
		BackoffMultiplier: 0.5,
		MaxBackoffMS:      -5,
	})
	assert.Equal(t, 0, cfg.MaxRetries)
	assert.Equal(t, time.Second, cfg.InitialBackoff)
	assert.Equal(t, 2.0, cfg.Multiplier)
	assert.Equal(t, 32*time.Second, cfg.MaxBackoff)
}
