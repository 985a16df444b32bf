package notify

import (
	"context"

	"netloc/internal/retry"

	"go.uber.org/zap"
)

// retrying retries a reporter with the staged retry executor
type retrying struct {
	reporter Reporter
	config   *retry.Config
	logger   *zap.Logger
}

// WithRetry wraps r so failed deliveries are retried per cfg. A nil or
// disabled config returns r unchanged.
func WithRetry(r Reporter, cfg *retry.Config, logger *zap.Logger) Reporter {
	if cfg == nil || !cfg.Enable {
		return r
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &retrying{
		reporter: r,
		config:   cfg,
		logger:   logger.With(zap.String("reporter", NameOf(r))),
	}
}

// Name returns the name of the wrapped reporter
func (r *retrying) Name() string { return NameOf(r.reporter) }

// Report delivers p, retrying on failure
func (r *retrying) Report(ctx context.Context, p *Payload) error {
	return retry.Execute(ctx, r.config, r.logger, func(ctx context.Context) error {
		return r.reporter.Report(ctx, p)
	})
}
