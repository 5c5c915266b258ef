// Package retry wraps network calls with a bounded, classified retry policy.
package retry

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/log"
	goretry "github.com/sethvargo/go-retry"

	errs "github.com/asgarovf/smart-wallet/internal/errors"
)

const (
	// DefaultMaxAttempts is the number of attempts made when Config.MaxAttempts is zero.
	DefaultMaxAttempts = 5
	// DefaultDelay is the wait between attempts when Config.Delay is zero.
	DefaultDelay = 2 * time.Second
)

// Config describes a retry policy.
type Config struct {
	MaxAttempts   uint64 `json:"max_attempts"`
	DelayMs       int64  `json:"delay_ms"`
	Exponential   bool   `json:"exponential"`
	JitterPercent uint64 `json:"jitter_percent"`
	MaxDelayMs    int64  `json:"max_delay_ms"`
}

// DefaultConfig returns five attempts with a constant two second delay.
func DefaultConfig() Config {
	return Config{MaxAttempts: DefaultMaxAttempts, DelayMs: DefaultDelay.Milliseconds()}
}

func (c Config) attempts() uint64 {
	if c.MaxAttempts == 0 {
		return DefaultMaxAttempts
	}
	return c.MaxAttempts
}

func (c Config) backoff() goretry.Backoff {
	delay := time.Duration(c.DelayMs) * time.Millisecond
	if c.DelayMs <= 0 {
		delay = DefaultDelay
	}

	var b goretry.Backoff
	if c.Exponential {
		b = goretry.NewExponential(delay)
	} else {
		b = goretry.NewConstant(delay)
	}
	if c.JitterPercent > 0 {
		b = goretry.WithJitterPercent(c.JitterPercent, b)
	}
	if c.MaxDelayMs > 0 {
		b = goretry.WithCappedDuration(time.Duration(c.MaxDelayMs)*time.Millisecond, b)
	}
	return goretry.WithMaxRetries(c.attempts()-1, b)
}

// Do runs op until it succeeds, returns an error that is not retryable, the context ends,
// or the attempt budget is spent. Exhaustion is reported as *errors.RetryExhaustedError.
func Do[T any](ctx context.Context, cfg Config, op func(ctx context.Context) (T, error)) (T, error) {
	var (
		result    T
		attempts  int
		retryable bool
	)

	err := goretry.Do(ctx, cfg.backoff(), func(ctx context.Context) error {
		attempts++
		v, err := op(ctx)
		if err == nil {
			result = v
			return nil
		}
		retryable = errs.IsRetryable(err)
		if !retryable {
			return err
		}
		log.Warn("Operation failed, retrying", "attempt", attempts, "max_attempts", cfg.attempts(), "error", err)
		return goretry.RetryableError(err)
	})
	if err == nil {
		return result, nil
	}

	var zero T
	if retryable && uint64(attempts) >= cfg.attempts() {
		return zero, &errs.RetryExhaustedError{Attempts: attempts, Err: err}
	}
	return zero, err
}
