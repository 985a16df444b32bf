// Package supervisor keeps a reconciler running across fatal errors.
package supervisor

import (
	"context"
	"time"

	"netloc/internal/reconciler"

	"go.uber.org/zap"
)

// DefaultRestartDelay is the wait between a failure and the next run
const DefaultRestartDelay = 10 * time.Second

// Policy decides what happens after a fatal error
type Policy string

const (
	// Restart starts a new runner after the restart delay
	Restart Policy = "restart"
	// Exit returns the first fatal error
	Exit Policy = "exit"
)

// Runner is a single supervised run
type Runner interface {
	Run(ctx context.Context) error
}

// RunnerFunc adapts a function to a Runner
type RunnerFunc func(ctx context.Context) error

// Run implements Runner.
func (f RunnerFunc) Run(ctx context.Context) error {
	return f(ctx)
}

// Factory builds a fresh runner for every attempt
type Factory func() Runner

// Observer is told about failures and restarts
type Observer interface {
	Failed(err error)
	Restarted()
}

// Supervisor runs runners produced by a factory one at a time
type Supervisor struct {
	factory  Factory
	delay    time.Duration
	policy   Policy
	observer Observer
	logger   *zap.Logger
}

// Option configures a Supervisor
type Option func(*Supervisor)

// WithRestartDelay sets the wait before a restart
func WithRestartDelay(d time.Duration) Option {
	return func(s *Supervisor) {
		if d >= 0 {
			s.delay = d
		}
	}
}

// WithPolicy sets the failure policy
func WithPolicy(p Policy) Option {
	return func(s *Supervisor) {
		if p != "" {
			s.policy = p
		}
	}
}

// WithObserver sets the observer
func WithObserver(o Observer) Option {
	return func(s *Supervisor) {
		if o != nil {
			s.observer = o
		}
	}
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(s *Supervisor) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates a supervisor
func New(factory Factory, opts ...Option) *Supervisor {
	s := &Supervisor{
		factory:  factory,
		delay:    DefaultRestartDelay,
		policy:   Restart,
		observer: nopObserver{},
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.Named("supervisor")
	return s
}

// Run blocks until ctx is done, returning ctx.Err(), or, under the Exit
// policy, until the first fatal error, which it returns.
func (s *Supervisor) Run(ctx context.Context) error {
	for attempt := 1; ; attempt++ {
		err := s.factory().Run(ctx)
		if ctx.Err() != nil {
			s.logger.Info("Stopped", zap.Int("attempt", attempt))
			return ctx.Err()
		}

		s.observer.Failed(err)

		if s.policy == Exit {
			s.logger.Error("Reconciler failed, exiting",
				zap.Error(err),
				zap.String("phase", reconciler.Phase(err)),
				zap.Int("attempt", attempt))
			return err
		}

		s.logger.Error("Reconciler failed, restarting",
			zap.Error(err),
			zap.String("phase", reconciler.Phase(err)),
			zap.Int("attempt", attempt),
			zap.Duration("restart_delay", s.delay))

		if err := sleep(ctx, s.delay); err != nil {
			return err
		}

		s.observer.Restarted()
		s.logger.Info("Restarting reconciler", zap.Int("attempt", attempt+1))
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

type nopObserver struct{}

func (nopObserver) Failed(error) {}

func (nopObserver) Restarted() {}
