// Package retry is the single bounded-retry-with-backoff combinator used at
// collaborator-call boundaries. Same policy shape everywhere: max attempts and
// a base delay, exponential in between.
package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// Config bounds one retry loop.
type Config struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

// Do runs op until it succeeds, returns a permanent error, exhausts
// MaxAttempts, or the context is done.
func Do[T any](ctx context.Context, cfg Config, op func() (T, error)) (T, error) {
	attempts := cfg.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	b := backoff.NewExponentialBackOff()
	if cfg.BaseDelay > 0 {
		b.InitialInterval = cfg.BaseDelay
	}

	return backoff.Retry(ctx, backoff.Operation[T](op),
		backoff.WithBackOff(b),
		backoff.WithMaxTries(uint(attempts)),
	)
}

// Permanent marks err as not worth retrying; Do returns it immediately.
func Permanent(err error) error {
	return backoff.Permanent(err)
}
