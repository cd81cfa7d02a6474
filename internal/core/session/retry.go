package session

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/satishbabariya/joinql/internal/core/query/domain"
)

// ErrRetryExhausted is returned when every connection attempt failed.
var ErrRetryExhausted = errors.New("retry attempts exhausted")

// RetryConfig controls how connection acquisition is retried.
type RetryConfig struct {
	MaxAttempts   int           // Maximum number of attempts, including the first
	InitialDelay  time.Duration // Delay before the second attempt
	MaxDelay      time.Duration // Upper bound for any delay
	BackoffFactor float64       // Exponential backoff multiplier
	Jitter        bool          // Randomize each delay by ±25%
}

// DefaultRetryConfig returns the default retry configuration.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:   3,
		InitialDelay:  100 * time.Millisecond,
		MaxDelay:      5 * time.Second,
		BackoffFactor: 2.0,
		Jitter:        true,
	}
}

// RetryOption customizes RetryConfig.
type RetryOption func(*RetryConfig)

// WithMaxAttempts sets the maximum number of attempts.
func WithMaxAttempts(n int) RetryOption {
	return func(c *RetryConfig) {
		c.MaxAttempts = n
	}
}

// WithInitialDelay sets the delay before the second attempt.
func WithInitialDelay(d time.Duration) RetryOption {
	return func(c *RetryConfig) {
		c.InitialDelay = d
	}
}

// WithMaxDelay sets the maximum delay.
func WithMaxDelay(d time.Duration) RetryOption {
	return func(c *RetryConfig) {
		c.MaxDelay = d
	}
}

// WithJitter toggles delay randomization.
func WithJitter(enabled bool) RetryOption {
	return func(c *RetryConfig) {
		c.Jitter = enabled
	}
}

// retryable reports whether a failed acquisition may succeed on a later attempt.
func retryable(err error) bool {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return false
	case errors.Is(err, domain.ErrInvalidArgument):
		return false
	}
	return true
}

func retryWithResult[T any](ctx context.Context, config RetryConfig, fn func() (T, error)) (T, error) {
	var zero T
	attempts := max(config.MaxAttempts, 1)
	delay := config.InitialDelay

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		result, err := fn()
		if err == nil {
			return result, nil
		}
		lastErr = err

		if !retryable(err) {
			return zero, err
		}
		if attempt == attempts-1 {
			break
		}

		actualDelay := delay
		if config.Jitter && delay > 0 {
			jitterRange := delay / 4
			if jitterRange > 0 {
				actualDelay = delay - jitterRange + time.Duration(rand.Int63n(int64(jitterRange)*2))
			}
		}

		select {
		case <-time.After(actualDelay):
		case <-ctx.Done():
			return zero, ctx.Err()
		}

		delay = time.Duration(float64(delay) * config.BackoffFactor)
		if config.MaxDelay > 0 && delay > config.MaxDelay {
			delay = config.MaxDelay
		}
	}

	if attempts == 1 {
		return zero, lastErr
	}
	return zero, fmt.Errorf("%w after %d attempts: %w", ErrRetryExhausted, attempts, lastErr)
}
