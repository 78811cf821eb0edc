package util

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// RetryPolicy controls RetryWithBackoff.
type RetryPolicy struct {
	MaxRetries int
	// BaseDelay doubles after every failed attempt. Defaults to one second.
	BaseDelay time.Duration
	// Retryable reports whether an error is worth another attempt. A nil
	// Retryable retries every error.
	Retryable func(error) bool
}

// ErrPermanent can be wrapped by fn to stop retrying immediately.
var ErrPermanent = errors.New("permanent failure")

// RetryWithBackoff calls fn up to MaxRetries+1 times with exponential backoff.
// fn receives the current attempt number (0-indexed). It should return nil on success.
// If the context is cancelled, RetryWithBackoff returns the context error immediately.
func RetryWithBackoff(ctx context.Context, p RetryPolicy, fn func(attempt int) error) error {
	base := p.BaseDelay
	if base <= 0 {
		base = time.Second
	}

	var lastErr error
	for attempt := 0; attempt <= p.MaxRetries; attempt++ {
		lastErr = fn(attempt)
		if lastErr == nil {
			return nil
		}
		if errors.Is(lastErr, ErrPermanent) || (p.Retryable != nil && !p.Retryable(lastErr)) {
			return lastErr
		}

		// Don't wait after the last attempt
		if attempt == p.MaxRetries {
			break
		}

		if ctx.Err() != nil {
			return ctx.Err()
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(base << attempt):
		}
	}
	return fmt.Errorf("failed after %d retries: %w", p.MaxRetries, lastErr)
}
