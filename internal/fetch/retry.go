package fetch

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
)

// RetryPolicy controls bounded retries with exponential backoff. It is shared
// by every provider client so retry semantics cannot drift between domains.
type RetryPolicy struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration

	// Retryable decides whether a failed attempt may be repeated.
	// Nil means IsRetryable.
	Retryable func(error) bool
}

// DefaultRetryPolicy allows two retries after the first attempt,
// backing off from 300ms and never waiting more than 2s.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:      2,
		InitialInterval: 300 * time.Millisecond,
		MaxInterval:     2 * time.Second,
		Retryable:       IsRetryable,
	}
}

// Backoff returns the delay before retry number attempt+1.
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	delay := p.InitialInterval
	for i := 0; i < attempt; i++ {
		delay *= 2
		if p.MaxInterval > 0 && delay >= p.MaxInterval {
			return p.MaxInterval
		}
	}
	if p.MaxInterval > 0 && delay > p.MaxInterval {
		delay = p.MaxInterval
	}
	return delay
}

// Do runs op until it succeeds, returns a non-retryable error, or the retry
// budget is spent. The last error is returned unchanged.
func (p RetryPolicy) Do(ctx context.Context, op func(ctx context.Context) error) error {
	if p.MaxRetries < 0 || p.InitialInterval < 0 {
		return errInvalidPolicy
	}
	retryable := p.Retryable
	if retryable == nil {
		retryable = IsRetryable
	}

	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := op(ctx)
		if err == nil {
			return nil
		}
		if attempt >= p.MaxRetries || !retryable(err) {
			return err
		}

		timer := time.NewTimer(p.Backoff(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

var errInvalidPolicy = errors.New("invalid retry policy")

// StatusError is a non-2xx upstream answer.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status code: %d", e.Code)
}

// DecodeError wraps a response body that could not be decoded.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string { return "decode response: " + e.Err.Error() }

func (e *DecodeError) Unwrap() error { return e.Err }

// IsRetryable reports whether err is a transient upstream failure:
// HTTP 429, HTTP 5xx, connection-level failures and timeouts.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return false
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Code == http.StatusTooManyRequests || statusErr.Code >= 500
	}

	var decodeErr *DecodeError
	if errors.As(err, &decodeErr) {
		return false
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}
