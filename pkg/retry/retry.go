package retry

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"
)

const (
	defaultDelay    = 100 * time.Millisecond
	defaultMaxDelay = 5 * time.Second
)

type Backoff func(attempt int) time.Duration

type ShouldRetry func(error) bool

// A Config sets the retry policy, zero fields get defaults:
// one attempt, exponential backoff, every error is retried.
type Config struct {
	MaxAttempts int
	Backoff     Backoff
	ShouldRetry ShouldRetry
}

func (c *Config) normalize() {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 1
	}

	if c.Backoff == nil {
		c.Backoff = ExponentialBackoff(defaultDelay, defaultMaxDelay)
	}

	if c.ShouldRetry == nil {
		c.ShouldRetry = alwaysRetry
	}
}

func alwaysRetry(error) bool {
	return true
}

// ExponentialBackoff doubles the delay each attempt up to maxDelay
// and adds up to a half of it as jitter.
func ExponentialBackoff(delay, maxDelay time.Duration) Backoff {
	return func(attempt int) time.Duration {
		base := delay << min(attempt-1, 30)
		if base <= 0 || base > maxDelay {
			base = maxDelay
		}
		half := int64(base / 2)
		if half <= 0 {
			return base
		}
		return base + time.Duration(rand.Int64N(half))
	}
}

func ConstantBackoff(delay time.Duration) Backoff {
	return func(int) time.Duration {
		return delay
	}
}

func Do(ctx context.Context, c Config, fn func() error) error {
	_, err := DoWithResult(ctx, c, func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return err
}

// DoWithResult calls fn until it succeeds, returns an error
// the config does not retry, attempts run out or ctx is done.
func DoWithResult[T any](
	ctx context.Context, c Config, fn func() (T, error),
) (T, error) {
	var zero T

	if err := ctx.Err(); err != nil {
		return zero, err
	}

	c.normalize()
	timer := time.NewTimer(0)
	<-timer.C
	defer timer.Stop()

	var err error
	for attempt := 1; ; attempt++ {
		var result T
		result, err = fn()
		if err == nil {
			return result, nil
		}
		if !c.ShouldRetry(err) || attempt == c.MaxAttempts {
			return zero, err
		}

		timer.Reset(c.Backoff(attempt))
		select {
		case <-ctx.Done():
			return zero, fmt.Errorf("%w: %w", ctx.Err(), err)
		case <-timer.C:
		}
	}
}
