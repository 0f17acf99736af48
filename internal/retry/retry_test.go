package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/misiektoja/github-monitor/internal/gateway"
)

type sleepRecorder struct {
	slept []time.Duration
}

func (s *sleepRecorder) sleep(d time.Duration) {
	s.slept = append(s.slept, d)
}

func (s *sleepRecorder) total() time.Duration {
	var sum time.Duration
	for _, d := range s.slept {
		sum += d
	}
	return sum
}

func optsWith(s *sleepRecorder, retries int) Options {
	return Options{
		MaxRetries:  retries,
		BaseBackoff: 5 * time.Second,
		Sleep:       s.sleep,
		Now:         func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) },
	}
}

func TestDoSucceedsFirstTry(t *testing.T) {
	s := &sleepRecorder{}
	v, err := Do(context.Background(), optsWith(s, 3), 0, func(context.Context) (int, error) {
		return 42, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, v)
	assert.Empty(t, s.slept)
}

func TestDoRetriesTransientThenSucceeds(t *testing.T) {
	s := &sleepRecorder{}
	calls := 0
	transient := &gateway.APIError{Kind: gateway.KindTransient, Op: "followers", Err: errors.New("timeout")}

	v, err := Do(context.Background(), optsWith(s, 3), 0, func(context.Context) (int, error) {
		calls++
		if calls < 3 {
			return 0, transient
		}
		return 7, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 7, v)
	assert.Equal(t, 3, calls)
	// Linear backoff: base*1 then base*2.
	assert.Equal(t, []time.Duration{5 * time.Second, 10 * time.Second}, s.slept)
}

func TestDoExhaustionReturnsDefault(t *testing.T) {
	s := &sleepRecorder{}
	transient := &gateway.APIError{Kind: gateway.KindTransient, Op: "repos", Err: errors.New("reset")}
	calls := 0

	v, err := Do(context.Background(), optsWith(s, 3), -1, func(context.Context) (int, error) {
		calls++
		return 99, transient
	})
	assert.Equal(t, -1, v, "caller default must come back on exhaustion")
	assert.ErrorIs(t, err, ErrExhausted)
	assert.Equal(t, 3, calls)
	// Total sleep for R pure-transient attempts is base * (1 + 2 + ... + R).
	assert.Equal(t, 5*time.Second*(1+2+3), s.total())
}

func TestDoNonRetryableReturnsImmediately(t *testing.T) {
	s := &sleepRecorder{}
	notFound := &gateway.APIError{Kind: gateway.KindNotFound, Op: "profile", Err: errors.New("404")}
	calls := 0

	_, err := Do(context.Background(), optsWith(s, 3), "", func(context.Context) (string, error) {
		calls++
		return "", notFound
	})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrExhausted)
	assert.Equal(t, gateway.KindNotFound, gateway.KindOf(err))
	assert.Equal(t, 1, calls)
	assert.Empty(t, s.slept)
}

func TestDoRateLimitSleepsUntilReset(t *testing.T) {
	s := &sleepRecorder{}
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	limited := &gateway.APIError{
		Kind:    gateway.KindRateLimited,
		Op:      "events",
		ResetAt: now.Add(90 * time.Second),
		Err:     errors.New("rate limited"),
	}
	calls := 0

	_, err := Do(context.Background(), optsWith(s, 2), 0, func(context.Context) (int, error) {
		calls++
		if calls == 1 {
			return 0, limited
		}
		return 1, nil
	})
	require.NoError(t, err)
	require.Len(t, s.slept, 1)
	assert.Equal(t, 90*time.Second, s.slept[0])
}

func TestDoRateLimitRetryAfterHint(t *testing.T) {
	s := &sleepRecorder{}
	limited := &gateway.APIError{
		Kind:       gateway.KindRateLimited,
		Op:         "events",
		RetryAfter: 30 * time.Second,
		Err:        errors.New("abuse limited"),
	}
	calls := 0

	_, err := Do(context.Background(), optsWith(s, 2), 0, func(context.Context) (int, error) {
		calls++
		if calls == 1 {
			return 0, limited
		}
		return 1, nil
	})
	require.NoError(t, err)
	require.Len(t, s.slept, 1)
	assert.Equal(t, 30*time.Second, s.slept[0])
}

func TestDoStaleResetSleepsZero(t *testing.T) {
	s := &sleepRecorder{}
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	limited := &gateway.APIError{
		Kind:    gateway.KindRateLimited,
		Op:      "events",
		ResetAt: now.Add(-time.Minute),
		Err:     errors.New("rate limited"),
	}
	calls := 0

	_, err := Do(context.Background(), optsWith(s, 2), 0, func(context.Context) (int, error) {
		calls++
		if calls == 1 {
			return 0, limited
		}
		return 1, nil
	})
	require.NoError(t, err)
	require.Len(t, s.slept, 1)
	assert.Equal(t, time.Duration(0), s.slept[0])
}

func TestDoContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	transient := &gateway.APIError{Kind: gateway.KindTransient, Op: "x", Err: errors.New("timeout")}

	opts := Options{
		MaxRetries:  5,
		BaseBackoff: time.Second,
		Sleep:       func(time.Duration) { cancel() },
	}
	calls := 0
	_, err := Do(ctx, opts, 0, func(context.Context) (int, error) {
		calls++
		return 0, transient
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestDoDefaults(t *testing.T) {
	o := Options{}.withDefaults()
	assert.Equal(t, 3, o.MaxRetries)
	assert.Equal(t, 5*time.Second, o.BaseBackoff)
	assert.NotNil(t, o.Sleep)
	assert.NotNil(t, o.Now)
}
