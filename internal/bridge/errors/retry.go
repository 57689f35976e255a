package errors

import (
	"context"
	"fmt"
	"time"
)

// RetryConfig configures RetryWithConfig's exponential backoff, grounded
// on universalClient/errors/retry.go's RetryConfig/DefaultRetryConfig.
type RetryConfig struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

// DefaultRetryConfig mirrors the teacher's default: three attempts, one
// second initial backoff doubling up to thirty seconds.
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxAttempts:  3,
		InitialDelay: 1 * time.Second,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}
}

// RetryFunc is one attempt of the operation RetryWithConfig retries.
type RetryFunc func(ctx context.Context) error

// RetryWithConfig retries fn up to cfg.MaxAttempts times with exponential
// backoff between attempts, honoring ctx cancellation. It is used for a
// single RPC call's own transient-failure retries (e.g. a chain adapter's
// withClient helper retrying across a pool-exhaustion failure) and is
// distinct from internal/bridge/direction.Runner's tick-based queue retry,
// which re-attempts a whole sign/simulate/send/confirm pipeline on the
// next poll interval rather than inline.
func RetryWithConfig(ctx context.Context, fn RetryFunc, cfg *RetryConfig) error {
	if cfg == nil {
		cfg = DefaultRetryConfig()
	}

	var lastErr error
	delay := cfg.InitialDelay

	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		err := fn(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		if attempt == cfg.MaxAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}

		delay = time.Duration(float64(delay) * cfg.Multiplier)
		if delay > cfg.MaxDelay {
			delay = cfg.MaxDelay
		}
	}

	return fmt.Errorf("retry: exhausted %d attempts: %w", cfg.MaxAttempts, lastErr)
}
