package client

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// instantTimer fires immediately so retry tests never sleep.
type instantTimer struct{ ch chan time.Time }

func (t *instantTimer) Start(time.Duration) {
	if t.ch == nil {
		t.ch = make(chan time.Time, 1)
	}
	t.ch <- time.Now()
}
func (t *instantTimer) Stop()               {}
func (t *instantTimer) C() <-chan time.Time { return t.ch }

func withInstantTimer(t *testing.T) {
	t.Helper()
	prev := newRetryTimer
	newRetryTimer = func() backoff.Timer { return &instantTimer{} }
	t.Cleanup(func() { newRetryTimer = prev })
}

func TestRetry_ServerErrorAttemptsExactly1Plus3(t *testing.T) {
	withInstantTimer(t)

	attempts := 0
	serverErr := &APIError{Code: 503, Message: "unavailable"}
	err := Retry(context.Background(), func(ctx context.Context) error {
		attempts++
		return serverErr
	}, WithMaxRetries(3))

	if attempts != 4 {
		t.Fatalf("expected 1 initial + 3 retries = 4 attempts, got %d", attempts)
	}
	// The last error propagates unchanged.
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr != serverErr {
		t.Fatalf("expected the original error, got %v", err)
	}
}

func TestRetry_NonRetryablePropagatesFirst(t *testing.T) {
	withInstantTimer(t)

	attempts := 0
	err := Retry(context.Background(), func(ctx context.Context) error {
		attempts++
		return &APIError{Code: 403, Message: "forbidden"}
	}, WithMaxRetries(5))

	if attempts != 1 {
		t.Fatalf("non-retryable errors must propagate on first occurrence, got %d attempts", attempts)
	}
	if Process(err).Kind != KindAuthorization {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestRetry_SucceedsAfterTransientFailure(t *testing.T) {
	withInstantTimer(t)

	attempts := 0
	err := Retry(context.Background(), func(ctx context.Context) error {
		attempts++
		if attempts < 3 {
			return &APIError{Code: CodeNetwork, Message: networkErrorMessage}
		}
		return nil
	}, WithMaxRetries(5))

	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}
}

func TestRetry_NonIdempotentNeverRetries(t *testing.T) {
	withInstantTimer(t)

	attempts := 0
	err := Retry(context.Background(), func(ctx context.Context) error {
		attempts++
		return &APIError{Code: 500, Message: "boom"}
	}, WithMaxRetries(3), NonIdempotent())

	if attempts != 1 {
		t.Fatalf("unsafe writes must not be retried, got %d attempts", attempts)
	}
	if apiErr, ok := AsAPIError(err); !ok || apiErr.Code != 500 {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestRetry_ZeroRetriesSingleAttempt(t *testing.T) {
	withInstantTimer(t)

	attempts := 0
	_ = Retry(context.Background(), func(ctx context.Context) error {
		attempts++
		return &APIError{Code: 500, Message: "boom"}
	}, WithMaxRetries(0))

	if attempts != 1 {
		t.Fatalf("maxRetries=0 means a single attempt, got %d", attempts)
	}
}

func TestClassifiedBackOff_UsesClassifiedDelayThenExponential(t *testing.T) {
	bo := newClassifiedBackOff(1 * time.Second)

	bo.next = 5 * time.Second
	if d := bo.NextBackOff(); d != 5*time.Second {
		t.Fatalf("classified delay must win, got %s", d)
	}
	// No classified delay: exponential schedule continues from where the
	// cursor is (base*2^attempt, no jitter).
	if d := bo.NextBackOff(); d != 2*time.Second {
		t.Fatalf("expected 2s, got %s", d)
	}
	if d := bo.NextBackOff(); d != 4*time.Second {
		t.Fatalf("expected 4s, got %s", d)
	}
}
