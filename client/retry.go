package client

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const defaultRetryBaseDelay = 1 * time.Second

// newRetryTimer builds the timer backoff waits on between attempts. Tests
// swap it for one that fires immediately.
var newRetryTimer = func() backoff.Timer { return nil }

// RetryOption tunes a single Retry invocation.
type RetryOption func(*retryConfig)

type retryConfig struct {
	maxRetries    int
	baseDelay     time.Duration
	nonIdempotent bool
}

// WithMaxRetries sets how many retries follow the initial attempt.
func WithMaxRetries(n int) RetryOption {
	return func(rc *retryConfig) {
		if n >= 0 {
			rc.maxRetries = n
		}
	}
}

// WithBaseDelay sets the base of the exponential schedule used when the
// classification carries no fixed delay.
func WithBaseDelay(d time.Duration) RetryOption {
	return func(rc *retryConfig) {
		if d > 0 {
			rc.baseDelay = d
		}
	}
}

// NonIdempotent marks the operation as an unsafe write. The executor then
// never retries it: classification alone cannot tell whether a timed-out
// mutation was applied server-side, so the first error propagates as-is.
func NonIdempotent() RetryOption {
	return func(rc *retryConfig) { rc.nonIdempotent = true }
}

// classifiedBackOff follows the classification table's fixed delays when an
// error carries one (network 2s, rate limit 5s, server 3s) and falls back to
// an un-jittered base*2^attempt schedule otherwise.
type classifiedBackOff struct {
	exp  *backoff.ExponentialBackOff
	next time.Duration
}

func newClassifiedBackOff(base time.Duration) *classifiedBackOff {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = base
	exp.RandomizationFactor = 0
	exp.Multiplier = 2
	exp.MaxInterval = 5 * time.Minute
	exp.MaxElapsedTime = 0
	exp.Reset()
	return &classifiedBackOff{exp: exp}
}

func (b *classifiedBackOff) NextBackOff() time.Duration {
	// Keep the exponential cursor advancing so a later attempt without a
	// classified delay continues the schedule.
	d := b.exp.NextBackOff()
	if b.next > 0 {
		d = b.next
		b.next = 0
	}
	return d
}

func (b *classifiedBackOff) Reset() {
	b.next = 0
	b.exp.Reset()
}

// Retry runs op, retrying per the error classification table: retryable
// kinds wait out the classified delay (or the exponential fallback) between
// attempts, non-retryable kinds propagate on first occurrence. When every
// attempt fails the last error propagates unchanged. The executor performs
// 1 + maxRetries total calls at most.
func Retry(ctx context.Context, op func(context.Context) error, opts ...RetryOption) error {
	rc := retryConfig{maxRetries: 3, baseDelay: defaultRetryBaseDelay}
	for _, opt := range opts {
		opt(&rc)
	}

	bo := newClassifiedBackOff(rc.baseDelay)
	var lastErr error

	wrapped := func() error {
		err := op(ctx)
		if err == nil {
			return nil
		}
		lastErr = err
		if rc.nonIdempotent {
			return backoff.Permanent(err)
		}
		processed := Process(err)
		if !processed.ShouldRetry {
			return backoff.Permanent(err)
		}
		bo.next = processed.RetryAfter
		retriesTotal.Inc()
		return err
	}

	err := backoff.RetryNotifyWithTimer(wrapped, backoff.WithContext(backoff.WithMaxRetries(bo, uint64(rc.maxRetries)), ctx), nil, newRetryTimer())
	if err != nil && lastErr != nil {
		// backoff may substitute ctx.Err() on cancellation; callers get the
		// original failure either way.
		if ctxErr := ctx.Err(); ctxErr == nil || err != ctxErr {
			return lastErr
		}
		return err
	}
	return err
}
