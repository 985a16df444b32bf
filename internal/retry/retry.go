package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Func defines the function signature for a retryable operation.
type Func func(ctx context.Context) error

// stopError marks an error that must not be retried
type stopError struct {
	err error
}

func (e *stopError) Error() string { return e.err.Error() }

func (e *stopError) Unwrap() error { return e.err }

// Stop wraps err so that Execute returns it without further attempts
func Stop(err error) error {
	if err == nil {
		return nil
	}
	return &stopError{err: err}
}

// IsStop reports whether err was wrapped by Stop
func IsStop(err error) bool {
	var se *stopError
	return errors.As(err, &se)
}

// Execute performs an operation with a retry mechanism. With a nil or
// disabled config the operation runs exactly once.
func Execute(ctx context.Context, cfg *Config, logger *zap.Logger, op Func) error {
	if cfg == nil || !cfg.Enable {
		return op(ctx)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid retry configuration: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	stages := []struct {
		attempts int
		interval time.Duration
	}{
		{cfg.InitialAttempts, cfg.InitialInterval},
		{cfg.MinuteAttempts, cfg.MinuteInterval},
		{cfg.HourlyAttempts, cfg.HourlyInterval},
	}

	total := cfg.Attempts()
	attempt := 0
	var lastErr error
	for _, stage := range stages {
		for i := 0; i < stage.attempts; i++ {
			if attempt > 0 {
				select {
				case <-ctx.Done():
					return fmt.Errorf("retry aborted after %d attempts: %w", attempt, errors.Join(ctx.Err(), lastErr))
				case <-time.After(stage.interval):
				}
			}
			attempt++

			err := op(ctx)
			if err == nil {
				return nil
			}
			if se, ok := err.(*stopError); ok {
				return se.err
			}
			if IsStop(err) {
				return err
			}
			lastErr = err
			logger.Debug("Attempt failed",
				zap.Int("attempt", attempt),
				zap.Int("max_attempts", total),
				zap.Error(err))
		}
	}

	return fmt.Errorf("operation failed after %d attempts: %w", attempt, lastErr)
}
