package main

import (
	"context"
	"fmt"
	"log"
	"time"
)

// RetryPolicy bounds re-execution of a fallible operation. An operation is
// attempted once plus up to MaxRetries more times, sleeping
// Delay * Backoff^(attempt-1) between attempts.
type RetryPolicy struct {
	MaxRetries int
	Delay      time.Duration
	Backoff    float64
}

// withRetry executes op under the policy. It returns nil as soon as one
// attempt succeeds; after the final failure it returns the last error tagged
// with the number of attempts made. The operation must be idempotent from
// the caller's perspective.
func withRetry(ctx context.Context, policy RetryPolicy, desc string, op func() error) error {
	var lastErr error
	delay := policy.Delay

	for attempt := 1; attempt <= policy.MaxRetries+1; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = op()
		if lastErr == nil {
			return nil
		}

		if attempt <= policy.MaxRetries {
			log.Printf("  %s failed (attempt %d/%d), retrying in %s: %v",
				desc, attempt, policy.MaxRetries+1, delay, lastErr)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
			delay = time.Duration(float64(delay) * policy.Backoff)
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", desc, policy.MaxRetries+1, lastErr)
}
