package util

import (
	"context"
	"errors"
	"time"
)

// Backoff controls retry pacing. Delay grows by Factor after each failed attempt.
type Backoff struct {
	Attempts int
	Delay    time.Duration
	Factor   float64
}

// DefaultBackoff returns the pacing used for graph and collaborator calls:
// three attempts, one second base delay, doubling.
func DefaultBackoff() Backoff {
	return Backoff{Attempts: 3, Delay: time.Second, Factor: 2.0}
}

// RetryWithContext calls fn until it returns a nil error, up to b.Attempts times,
// sleeping between attempts per the backoff schedule. It stops early when ctx is
// done or fn fails with a context error; cancellation is never retried.
func RetryWithContext[T any](ctx context.Context, b Backoff, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	if b.Attempts <= 0 {
		b.Attempts = 1
	}
	if b.Factor < 1 {
		b.Factor = 1
	}

	delay := b.Delay
	var lastErr error
	for i := 0; i < b.Attempts; i++ {
		if ctx.Err() != nil {
			return zero, ctx.Err()
		}
		if i > 0 && delay > 0 {
			if err := sleepContext(ctx, delay); err != nil {
				return zero, err
			}
			delay = time.Duration(float64(delay) * b.Factor)
		}

		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return zero, err
		}
		lastErr = err
	}
	return zero, lastErr
}

// RetryErrWithContext is RetryWithContext for functions that only return an error.
func RetryErrWithContext(ctx context.Context, b Backoff, fn func(context.Context) error) error {
	_, err := RetryWithContext(ctx, b, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
