package adapter

import (
	"context"
	"fmt"
	"time"
)

// DefaultBackoff is the delay before the first retry. It doubles per retry.
const DefaultBackoff = 500 * time.Millisecond

// Retry runs attempt once plus up to retries more times with exponential
// backoff between attempts. It stops early when ctx is done or when
// permanent reports the last error as non-retriable (permanent may be nil).
// Errors are prefixed with name.
func Retry(ctx context.Context, name string, retries int, backoff time.Duration, attempt func(context.Context) error, permanent func(error) bool) error {
	if backoff <= 0 {
		backoff = DefaultBackoff
	}

	var lastErr error
	// attempts = 1 initial + retries
	attempts := 1 + retries

	for i := range attempts {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%s: context canceled: %w", name, err)
		}

		// Exponential backoff before retries (not before first attempt)
		if i > 0 {
			delay := time.Duration(1<<uint(i-1)) * backoff
			select {
			case <-ctx.Done():
				return fmt.Errorf("%s: context canceled during backoff: %w", name, ctx.Err())
			case <-time.After(delay):
			}
		}

		lastErr = attempt(ctx)
		if lastErr == nil {
			return nil
		}
		if permanent != nil && permanent(lastErr) {
			return fmt.Errorf("%s: non-retriable error: %w", name, lastErr)
		}
	}

	return fmt.Errorf("%s: failed after %d attempts: %w", name, attempts, lastErr)
}
