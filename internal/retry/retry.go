// Package retry runs an operation with exponential backoff. Used for the
// transports where a fresh attempt can succeed, never for actions with side
// effects on the backend.
package retry

import (
	"context"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
)

// Policy bounds one retried operation.
type Policy struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	OnRetry        func(attempt int, err error, backoff time.Duration)
}

// Classify reports whether err is worth another attempt.
type Classify func(err error) bool

// Operation is one attempt.
type Operation[T any] func() (T, error)

// Do runs op until it succeeds, the classifier declares the error permanent,
// the attempts run out or ctx is cancelled. The backoff doubles per attempt.
func Do[T any](ctx context.Context, clock clockwork.Clock, p Policy, retryable Classify, op Operation[T]) (T, error) {
	backoff := p.InitialBackoff

	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		val, err := op()
		if err == nil {
			return val, nil
		}

		var zero T
		if !retryable(err) {
			return zero, err
		}
		if attempt == p.MaxAttempts {
			return zero, fmt.Errorf("failed after %d attempts: %w", p.MaxAttempts, err)
		}

		if p.OnRetry != nil {
			p.OnRetry(attempt, err, backoff)
		}

		timer := clock.NewTimer(backoff)
		select {
		case <-timer.Chan():
			backoff *= 2
		case <-ctx.Done():
			timer.Stop()
			return zero, fmt.Errorf("cancelled while waiting to retry: %w", ctx.Err())
		}
	}

	panic("unreachable: MaxAttempts must be >= 1")
}
