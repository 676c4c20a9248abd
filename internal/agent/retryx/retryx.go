// Package retryx wraps unreliable external calls with bounded exponential
// backoff and a transient/permanent error distinction.
package retryx

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	logx "github.com/cartpilot/server/pkg/logger"

	"github.com/cartpilot/server/internal/agent/model"
)

// Config controls retry behaviour for one guarded call.
type Config struct {
	MaxRetries     int
	InitialBackoff time.Duration
	Multiplier     float64
	MaxBackoff     time.Duration
	Jitter         bool
}

// DefaultConfig mirrors the documented defaults: up to 3 retries, 1s initial
// backoff doubling per attempt, capped at 32s, with jitter.
func DefaultConfig() Config {
	return Config{
		MaxRetries:     3,
		InitialBackoff: time.Second,
		Multiplier:     2.0,
		MaxBackoff:     32 * time.Second,
		Jitter:         true,
	}
}

// FromFetchConfig converts the env-sourced fetch settings into a Config.
func FromFetchConfig(cfg model.FetchConfig) Config {
	c := Config{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: time.Duration(cfg.InitialBackoffMS) * time.Millisecond,
		Multiplier:     cfg.BackoffMultiplier,
		MaxBackoff:     time.Duration(cfg.MaxBackoffMS) * time.Millisecond,
		Jitter:         cfg.Jitter,
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
	if c.InitialBackoff <= 0 {
		c.InitialBackoff = time.Second
	}
	if c.Multiplier <= 1 {
		c.Multiplier = 2.0
	}
	if c.MaxBackoff <= 0 {
		c.MaxBackoff = 32 * time.Second
	}
	return c
}

// Backoff computes the sleep before retrying after the given zero-based
// attempt, computed fresh per attempt. With jitter enabled the value is
// scaled by a random factor in [0.5, 1.5).
func (c Config) Backoff(attempt int) time.Duration {
	backoff := time.Duration(float64(c.InitialBackoff) * pow(c.Multiplier, attempt))
	if backoff > c.MaxBackoff || backoff <= 0 {
		backoff = c.MaxBackoff
	}
	if c.Jitter {
		backoff = time.Duration(float64(backoff) * (0.5 + rand.Float64()))
	}
	return backoff
}

func pow(base float64, exp int) float64 {
	out := 1.0
	for i := 0; i < exp; i++ {
		out *= base
	}
	return out
}

// TransientError marks a failure that might resolve on retry, such as a
// network timeout or a source reporting a temporary error status.
type TransientError struct {
	Source string
	Err    error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient error from %s: %v", e.Source, e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// PermanentError marks a failure retrying cannot fix, such as a malformed
// response or invalid offer data.
type PermanentError struct {
	Source string
	Err    error
}

func (e *PermanentError) Error() string {
	return fmt.Sprintf("permanent error from %s: %v", e.Source, e.Err)
}

func (e *PermanentError) Unwrap() error { return e.Err }

// Transient wraps err as a TransientError attributed to source.
func Transient(source string, err error) error {
	return &TransientError{Source: source, Err: err}
}

// Permanent wraps err as a PermanentError attributed to source.
func Permanent(source string, err error) error {
	return &PermanentError{Source: source, Err: err}
}

// IsTransient reports whether err is (or wraps) a TransientError.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

// IsPermanent reports whether err is (or wraps) a PermanentError.
func IsPermanent(err error) bool {
	var pe *PermanentError
	return errors.As(err, &pe)
}

// Do runs fn up to MaxRetries+1 times. Transient failures are retried after a
// backoff; permanent failures and unknown errors surface immediately. The
// backoff sleep honours ctx cancellation.
func Do[T any](ctx context.Context, cfg Config, op string, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	var lastErr error

	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		out, err := fn(ctx)
		if err == nil {
			if attempt > 0 {
				logx.Info().Str("op", op).Int("attempt", attempt+1).Msg("retry succeeded")
			}
			return out, nil
		}

		if !IsTransient(err) {
			logx.Error().Err(err).Str("op", op).Msg("non-retryable error")
			return zero, err
		}

		lastErr = err
		if attempt == cfg.MaxRetries {
			break
		}

		backoff := cfg.Backoff(attempt)
		logx.Warn().
			Err(err).
			Str("op", op).
			Int("attempt", attempt+1).
			Dur("backoff", backoff).
			Msg("transient failure, backing off")

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, ctx.Err()
		case <-timer.C:
		}
	}

	logx.Error().Err(lastErr).Str("op", op).Int("attempts", cfg.MaxRetries+1).Msg("all attempts failed")
	return zero, fmt.Errorf("%s: %d attempts exhausted: %w", op, cfg.MaxRetries+1, lastErr)
}
