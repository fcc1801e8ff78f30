// Package request wraps remote venue calls in an indefinitely-retrying loop.
// Connectivity blips and rate limiting are absorbed here so the trading core
// above only ever sees a definitive result, a fatal venue error, or
// cancellation.
package request

import (
	"context"
	"log/slog"
	"time"

	"github.com/quantfield/chaser/internal/clock"
)

const (
	// DefaultRetryDelay is the pause after a transient network failure.
	DefaultRetryDelay = 10 * time.Second
	// DefaultRateLimitDelay is the cooldown after the venue reports too many
	// requests.
	DefaultRateLimitDelay = 60 * time.Second
)

// Executor retries remote calls until they succeed, fail fatally, or the
// context is cancelled. It is safe for concurrent use.
type Executor struct {
	retryDelay     time.Duration
	rateLimitDelay time.Duration
	clock          clock.Clock
	logger         *slog.Logger
}

// NewExecutor creates an Executor with the given delays. Zero delays fall
// back to the defaults.
func NewExecutor(retryDelay, rateLimitDelay time.Duration, clk clock.Clock, logger *slog.Logger) *Executor {
	if retryDelay <= 0 {
		retryDelay = DefaultRetryDelay
	}
	if rateLimitDelay <= 0 {
		rateLimitDelay = DefaultRateLimitDelay
	}
	return &Executor{
		retryDelay:     retryDelay,
		rateLimitDelay: rateLimitDelay,
		clock:          clk,
		logger:         logger.With(slog.String("component", "request")),
	}
}

// Do invokes fn until it succeeds. Transient failures sleep the short retry
// delay; rate limiting sleeps the long cooldown; any other error is fatal for
// this call and returned as-is. Cancellation of ctx during a wait returns
// ctx.Err().
func Do[T any](ctx context.Context, e *Executor, operation string, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	for {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}

		var delay time.Duration
		switch {
		case ctx.Err() != nil:
			return zero, ctx.Err()
		case RateLimited(err):
			delay = e.rateLimitDelay
			e.logger.Warn("rate limited, backing off",
				slog.String("operation", operation),
				slog.Duration("delay", delay),
			)
		case Transient(err):
			delay = e.retryDelay
			e.logger.Warn("transient failure, retrying",
				slog.String("operation", operation),
				slog.String("error", err.Error()),
				slog.Duration("delay", delay),
			)
		default:
			return zero, err
		}

		if err := e.clock.Sleep(ctx, delay); err != nil {
			return zero, err
		}
	}
}

// Run is Do for calls that return no value.
func (e *Executor) Run(ctx context.Context, operation string, fn func(ctx context.Context) error) error {
	_, err := Do(ctx, e, operation, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}
