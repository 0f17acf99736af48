// Package retry wraps remote calls with linear backoff. Rate-limited calls
// sleep until the API's reset hint; transient failures back off
// base*attempt; non-retryable failures propagate immediately. When the
// budget is exhausted the caller's default value is returned together with
// ErrExhausted, which callers must treat as "no change this cycle".
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/misiektoja/github-monitor/internal/gateway"
)

// ErrExhausted marks a call that failed on every attempt.
var ErrExhausted = errors.New("retry attempts exhausted")

// Options bounds and instruments a wrapped call. Zero values get defaults;
// Sleep and Now exist for tests.
type Options struct {
	MaxRetries  int
	BaseBackoff time.Duration
	Sleep       func(time.Duration)
	Now         func() time.Time
}

func (o Options) withDefaults() Options {
	if o.MaxRetries <= 0 {
		o.MaxRetries = 3
	}
	if o.BaseBackoff <= 0 {
		o.BaseBackoff = 5 * time.Second
	}
	if o.Sleep == nil {
		o.Sleep = time.Sleep
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// Do runs fn up to MaxRetries times. Rate-limit and transient failures
// share one attempt counter; the sleep before attempt n+1 is the reset
// hint, else the retry-after hint, else BaseBackoff*n.
func Do[T any](ctx context.Context, opts Options, def T, fn func(context.Context) (T, error)) (T, error) {
	opts = opts.withDefaults()

	var lastErr error
	for attempt := 1; attempt <= opts.MaxRetries; attempt++ {
		v, err := fn(ctx)
		if err == nil {
			return v, nil
		}
		if !gateway.Retryable(err) {
			return def, err
		}
		lastErr = err

		opts.Sleep(backoffFor(err, attempt, opts))

		if err := ctx.Err(); err != nil {
			return def, err
		}
	}
	return def, fmt.Errorf("%w: %v", ErrExhausted, lastErr)
}

func backoffFor(err error, attempt int, opts Options) time.Duration {
	linear := opts.BaseBackoff * time.Duration(attempt)
	if gateway.KindOf(err) != gateway.KindRateLimited {
		return linear
	}
	resetAt, retryAfter := gateway.Hints(err)
	if !resetAt.IsZero() {
		if d := resetAt.Sub(opts.Now()); d > 0 {
			return d
		}
		return 0
	}
	if retryAfter > 0 {
		return retryAfter
	}
	return linear
}
