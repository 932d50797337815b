package database

import (
	"context"
	"log/slog"
	"time"
)

// Retryer drives a bounded retry loop with linear backoff around store
// operations. The retry counter lives in the Execute frame, so concurrent
// calls never share or corrupt state, and one call's backoff never blocks
// another.
type Retryer struct {
	maxRetries int
	baseDelay  time.Duration
	logger     *slog.Logger
	sleep      func(ctx context.Context, d time.Duration) error
}

// NewRetryer creates a Retryer. maxRetries <= 0 falls back to 3 attempts,
// baseDelay <= 0 to one second.
func NewRetryer(maxRetries int, baseDelay time.Duration, logger *slog.Logger) *Retryer {
	if maxRetries <= 0 {
		maxRetries = 3
	}
	if baseDelay <= 0 {
		baseDelay = time.Second
	}
	return &Retryer{
		maxRetries: maxRetries,
		baseDelay:  baseDelay,
		logger:     logger,
		sleep:      sleepContext,
	}
}

// Execute runs fn, retrying recoverable failures up to maxRetries times with
// a delay of baseDelay * attempt between tries. Constraint and integrity
// violations, domain sentinels, and unknown errors propagate immediately.
func (r *Retryer) Execute(ctx context.Context, operation string, fn func(ctx context.Context) error) error {
	retries := 0

	for {
		err := fn(ctx)
		if err == nil {
			if retries > 0 {
				r.logger.Info("operation recovered after retry",
					slog.String("operation", operation),
					slog.Int("retries", retries),
				)
			}
			return nil
		}

		if isDomainError(err) {
			return err
		}

		class := Classify(err)
		r.logger.Error("database error",
			slog.String("operation", operation),
			slog.String("action", class.Tag()),
			slog.Int("retry_count", retries),
			slog.Bool("recoverable", class.Recoverable()),
			slog.Any("error", err),
		)

		if !class.Recoverable() || retries >= r.maxRetries {
			return err
		}

		retries++
		delay := r.baseDelay * time.Duration(retries)
		r.logger.Warn("retrying database operation",
			slog.String("operation", operation),
			slog.Int("attempt", retries),
			slog.Duration("delay", delay),
		)

		if err := r.sleep(ctx, delay); err != nil {
			return err
		}
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
