package backoff

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrExhausted is returned by Do when every allowed attempt failed.
// The returned error also wraps the error of the last attempt.
var ErrExhausted = errors.New("retries exhausted")

const (
	// DefaultMaxAttempts is the number of attempts when MaxAttempts is unset.
	DefaultMaxAttempts = 3
	// DefaultBaseDelay is the delay unit when BaseDelay is unset.
	DefaultBaseDelay = time.Second
	// DefaultTimeout is the per-attempt timeout when Timeout is unset.
	DefaultTimeout = 5 * time.Second
)

// Config holds the tunables of a Policy as loaded from configuration.
type Config struct {
	// MaxAttempts is the total number of attempts (first call included).
	MaxAttempts int `mapstructure:"max_attempts" default:"3"`
	// BaseDelay is multiplied by the attempt number to get the wait.
	BaseDelay time.Duration `mapstructure:"base_delay" default:"1s"`
	// Timeout bounds every single attempt.
	Timeout time.Duration `mapstructure:"timeout" default:"5s"`
}

// Policy returns the retry policy described by the configuration.
func (c Config) Policy() Policy {
	return Policy{
		MaxAttempts: c.MaxAttempts,
		BaseDelay:   c.BaseDelay,
		Timeout:     c.Timeout,
	}
}

// Policy is a linear-with-base retry policy.
// The zero value is usable and falls back to the package defaults.
type Policy struct {
	// MaxAttempts is the total number of attempts, including the first one.
	MaxAttempts int
	// BaseDelay is the wait unit; attempt n waits BaseDelay * n before attempt n+1.
	// A negative value disables the wait.
	BaseDelay time.Duration
	// Timeout bounds each attempt. A timed out attempt is retryable.
	Timeout time.Duration
	// Retryable reports whether an error may be retried.
	// When nil every error is retryable except cancellation of the caller.
	Retryable func(error) bool
}

// Decision is the outcome of ShouldRetry.
type Decision struct {
	// Retry is true when another attempt should be made.
	Retry bool
	// Delay is the wait before the next attempt.
	Delay time.Duration
}

func (p Policy) maxAttempts() int {
	if p.MaxAttempts <= 0 {
		return DefaultMaxAttempts
	}
	return p.MaxAttempts
}

func (p Policy) baseDelay() time.Duration {
	if p.BaseDelay < 0 {
		return 0
	}
	if p.BaseDelay == 0 {
		return DefaultBaseDelay
	}
	return p.BaseDelay
}

func (p Policy) timeout() time.Duration {
	if p.Timeout <= 0 {
		return DefaultTimeout
	}
	return p.Timeout
}

// ShouldRetry decides whether the failed attempt number attempt (1-based)
// should be followed by another one.
func (p Policy) ShouldRetry(attempt int, err error) Decision {
	if err == nil || attempt >= p.maxAttempts() {
		return Decision{}
	}
	if errors.Is(err, context.Canceled) {
		return Decision{}
	}
	if p.Retryable != nil && !p.Retryable(err) {
		return Decision{}
	}
	return Decision{Retry: true, Delay: p.baseDelay() * time.Duration(attempt)}
}

// Do runs op until it succeeds, the policy gives up, or ctx is done.
// Each attempt receives a context bounded by the policy timeout.
// The caller sees one outcome: the value, or an error wrapping ErrExhausted
// and the last failure.
func Do[T any](ctx context.Context, p Policy, op func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		v, err := runAttempt(ctx, p.timeout(), op)
		if err == nil {
			return v, nil
		}
		// The caller went away; the attempt timing out is a different story.
		if ctx.Err() != nil {
			return zero, ctx.Err()
		}

		d := p.ShouldRetry(attempt, err)
		if !d.Retry {
			if attempt >= p.maxAttempts() {
				return zero, fmt.Errorf("%w after %d attempts: %w", ErrExhausted, attempt, err)
			}
			return zero, err
		}

		if err := sleep(ctx, d.Delay); err != nil {
			return zero, err
		}
	}
}

// Run is Do for operations without a result.
func Run(ctx context.Context, p Policy, op func(ctx context.Context) error) error {
	_, err := Do(ctx, p, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, op(ctx)
	})
	return err
}

func runAttempt[T any](ctx context.Context, timeout time.Duration, op func(ctx context.Context) (T, error)) (T, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	return op(attemptCtx)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
