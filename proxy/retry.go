package proxy

import (
	"context"
	"time"

	"github.com/Laisky/errors/v2"
)

// Retry runs fn up to attempts times with a fixed backoff between tries,
// stopping early on success or context cancellation. Retryable proxy and
// metadata fetches use 3 attempts with 10 ms backoff before surfacing.
func Retry(ctx context.Context, attempts int, backoff time.Duration, fn func(context.Context) error) error {
	if attempts < 1 {
		return errors.New("attempts must be positive")
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		if err := fn(ctx); err == nil {
			return nil
		} else {
			lastErr = err
		}
		// Per-call timeouts inside fn surface as context errors too; only
		// the parent context going dead ends the loop early.
		if ctx.Err() != nil {
			break
		}
		if i < attempts-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}
	}
	return errors.Wrapf(lastErr, "failed after %d attempts", attempts)
}
