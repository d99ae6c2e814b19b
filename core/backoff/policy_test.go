package backoff

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPolicy_ShouldRetry(t *testing.T) {
	p := Policy{MaxAttempts: 3, BaseDelay: time.Second}
	boom := errors.New("boom")

	tests := []struct {
		name    string
		attempt int
		err     error
		want    Decision
	}{
		{"Success", 1, nil, Decision{}},
		{"FirstFailure", 1, boom, Decision{Retry: true, Delay: time.Second}},
		{"SecondFailure", 2, boom, Decision{Retry: true, Delay: 2 * time.Second}},
		{"LastAttempt", 3, boom, Decision{}},
		{"Cancelled", 1, context.Canceled, Decision{}},
		{"Timeout", 1, context.DeadlineExceeded, Decision{Retry: true, Delay: time.Second}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, p.ShouldRetry(tt.attempt, tt.err))
		})
	}
}

func TestPolicy_Defaults(t *testing.T) {
	var p Policy
	d := p.ShouldRetry(1, errors.New("x"))
	assert.True(t, d.Retry)
	assert.Equal(t, DefaultBaseDelay, d.Delay)
	assert.False(t, p.ShouldRetry(DefaultMaxAttempts, errors.New("x")).Retry)
}

func TestPolicy_Retryable(t *testing.T) {
	permanent := errors.New("permanent")
	p := Policy{
		MaxAttempts: 3,
		BaseDelay:   -1,
		Retryable:   func(err error) bool { return !errors.Is(err, permanent) },
	}

	calls := 0
	_, err := Do(context.Background(), p, func(ctx context.Context) (int, error) {
		calls++
		return 0, permanent
	})
	assert.ErrorIs(t, err, permanent)
	assert.NotErrorIs(t, err, ErrExhausted)
	assert.Equal(t, 1, calls)
}

func TestDo(t *testing.T) {
	fast := Policy{MaxAttempts: 3, BaseDelay: -1, Timeout: time.Second}

	t.Run("SucceedsAfterRetries", func(t *testing.T) {
		calls := 0
		v, err := Do(context.Background(), fast, func(ctx context.Context) (string, error) {
			calls++
			if calls < 3 {
				return "", errors.New("transient")
			}
			return "ok", nil
		})
		require.NoError(t, err)
		assert.Equal(t, "ok", v)
		assert.Equal(t, 3, calls)
	})

	t.Run("Exhausted", func(t *testing.T) {
		calls := 0
		transient := errors.New("transient")
		_, err := Do(context.Background(), fast, func(ctx context.Context) (string, error) {
			calls++
			return "", transient
		})
		assert.ErrorIs(t, err, ErrExhausted)
		assert.ErrorIs(t, err, transient)
		assert.Equal(t, 3, calls)
	})

	t.Run("TimeoutIsRetried", func(t *testing.T) {
		p := Policy{MaxAttempts: 2, BaseDelay: -1, Timeout: 10 * time.Millisecond}
		calls := 0
		v, err := Do(context.Background(), p, func(ctx context.Context) (int, error) {
			calls++
			if calls == 1 {
				<-ctx.Done()
				return 0, ctx.Err()
			}
			return 42, nil
		})
		require.NoError(t, err)
		assert.Equal(t, 42, v)
		assert.Equal(t, 2, calls)
	})

	t.Run("CallerCancellationStops", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		calls := 0
		_, err := Do(ctx, fast, func(ctx context.Context) (int, error) {
			calls++
			cancel()
			return 0, errors.New("transient")
		})
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, calls)
	})

	t.Run("WaitsBetweenAttempts", func(t *testing.T) {
		p := Policy{MaxAttempts: 2, BaseDelay: 20 * time.Millisecond, Timeout: time.Second}
		start := time.Now()
		_ = Run(context.Background(), p, func(ctx context.Context) error {
			return errors.New("transient")
		})
		assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
	})
}

func TestConfig_Policy(t *testing.T) {
	cfg := Config{MaxAttempts: 2, BaseDelay: 1500 * time.Millisecond, Timeout: 5 * time.Second}
	p := cfg.Policy()
	assert.Equal(t, 2, p.MaxAttempts)
	assert.Equal(t, 1500*time.Millisecond, p.BaseDelay)
	assert.Equal(t, 5*time.Second, p.Timeout)
}
