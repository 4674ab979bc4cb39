package load

import (
	"context"
	"time"
)

// AttemptFunc performs one attempt. attempt counts from zero.
type AttemptFunc func(ctx context.Context, attempt int) error

// LogFunc is the signature for a logging function.
type LogFunc func(format string, args ...any)

// Backoff returns the delay before retry n (zero-based): base, 2*base,
// 4*base and so on.
func Backoff(base time.Duration, n int) time.Duration {
	if base <= 0 {
		return 0
	}
	return base << n
}

// Retry calls fn until it succeeds, fails with an error for which retryable
// returns false, or maxRetries retries have been spent. It returns the number
// of attempts made and the last error. At most maxRetries+1 attempts are
// made. The logger, if provided, is called for each retry.
func Retry(ctx context.Context, maxRetries int, base time.Duration, fn AttemptFunc, retryable func(error) bool, logger LogFunc) (int, error) {
	maxAttempts := maxRetries + 1 // 1 initial + N retries

	var lastErr error
	attempts := 0
	for attempt := 0; attempt < maxAttempts; attempt++ {
		attempts++
		err := fn(ctx, attempt)
		if err == nil {
			return attempts, nil
		}
		lastErr = err

		if !retryable(err) || attempt >= maxAttempts-1 {
			break
		}

		// Check context before sleeping
		select {
		case <-ctx.Done():
			return attempts, ctx.Err()
		default:
		}

		if logger != nil {
			logger("retry (attempt %d): %v", attempt+2, err)
		}

		delay := Backoff(base, attempt)
		if delay == 0 {
			continue
		}
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return attempts, ctx.Err()
		case <-timer.C:
		}
	}

	return attempts, lastErr
}
