// Package reconciler runs the loop that keeps reporters in sync with the
// current public IP address.
package reconciler

import (
	"context"
	"net/netip"
	"time"

	"netloc/internal/notify"
	"netloc/internal/resolver"
	"netloc/internal/state"

	"go.uber.org/zap"
)

// Observer is told about every step of the loop. It must not block.
type Observer interface {
	CycleStarted()
	Resolved(addr netip.Addr, effect state.UpdateEffect[netip.Addr], d time.Duration)
	ResolveFailed(err error)
	Reported(reporter string, err error, d time.Duration)
}

// Reconciler periodically resolves the public address and reports changes.
// It owns its state; a new Reconciler always starts uninitialized.
type Reconciler struct {
	delay     time.Duration
	resolver  resolver.Resolver
	reporters []notify.Reporter
	current   *state.State[netip.Addr]
	observer  Observer
	logger    *zap.Logger
}

// Option configures a Reconciler
type Option func(*Reconciler)

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(r *Reconciler) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithObserver sets the observer
func WithObserver(o Observer) Option {
	return func(r *Reconciler) {
		if o != nil {
			r.observer = o
		}
	}
}

// New creates a reconciler. Reporters are invoked in the given order.
func New(delay time.Duration, res resolver.Resolver, reporters []notify.Reporter, opts ...Option) *Reconciler {
	r := &Reconciler{
		delay:     delay,
		resolver:  res,
		reporters: reporters,
		current:   state.Uninitialized[netip.Addr](),
		observer:  nopObserver{},
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.Named("reconciler")
	return r
}

// Current returns the last resolved address, if any
func (r *Reconciler) Current() (netip.Addr, bool) {
	return r.current.Current()
}

// Run loops until a cycle fails or ctx is done. It never returns nil: a
// failed cycle yields *ResolutionError or *ReportingError, cancellation
// yields ctx.Err().
func (r *Reconciler) Run(ctx context.Context) error {
	timer := time.NewTimer(r.delay)
	defer timer.Stop()

	for {
		r.logger.Debug("Waiting before reconciliation", zap.Duration("delay", r.delay))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}

		r.logger.Debug("Reconciling")
		if err := r.reconcileOnce(ctx); err != nil {
			return err
		}

		timer.Reset(r.delay)
	}
}

// reconcileOnce resolves the address and reports it if it changed
func (r *Reconciler) reconcileOnce(ctx context.Context) error {
	r.observer.CycleStarted()

	start := time.Now()
	addr, err := r.resolver.Resolve(ctx)
	if err != nil {
		r.observer.ResolveFailed(err)
		return &ResolutionError{Err: err}
	}

	effect := r.current.Update(addr)
	r.observer.Resolved(addr, effect, time.Since(start))

	if !effect.Changed() {
		r.logger.Debug("IP address unchanged", zap.Stringer("ip", addr))
		return nil
	}

	fields := []zap.Field{zap.Stringer("ip", addr), zap.Stringer("effect", effect)}
	if effect.Kind == state.Replaced {
		fields = append(fields, zap.Stringer("previous", effect.Previous))
	}
	r.logger.Info("IP address changed", fields...)

	return r.reportAll(ctx, notify.NewPayload(addr, effect))
}

// reportAll invokes every reporter in order and stops at the first failure
func (r *Reconciler) reportAll(ctx context.Context, p *notify.Payload) error {
	for _, rep := range r.reporters {
		name := notify.NameOf(rep)

		start := time.Now()
		err := rep.Report(ctx, p)
		r.observer.Reported(name, err, time.Since(start))

		if err != nil {
			return &ReportingError{Reporter: name, Err: err}
		}
		r.logger.Debug("Reported", zap.String("reporter", name), zap.String("event_id", p.EventID))
	}
	return nil
}

type nopObserver struct{}

func (nopObserver) CycleStarted() {}

func (nopObserver) Resolved(netip.Addr, state.UpdateEffect[netip.Addr], time.Duration) {}

func (nopObserver) ResolveFailed(error) {}

func (nopObserver) Reported(string, error, time.Duration) {}
