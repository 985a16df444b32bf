package notify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"netloc/internal/config"
	"netloc/internal/data/connection"
	ntpl "netloc/internal/notify/template"

	"go.uber.org/zap"
)

// buildOptions holds the dependencies Build can be given
type buildOptions struct {
	console    io.Writer
	httpClient *http.Client
}

// BuildOption configures Build
type BuildOption func(*buildOptions)

// WithConsoleWriter sets where the console reporter prints
func WithConsoleWriter(w io.Writer) BuildOption {
	return func(o *buildOptions) {
		o.console = w
	}
}

// WithHTTPClient sets the client used by the HTTP based reporters
func WithHTTPClient(c *http.Client) BuildOption {
	return func(o *buildOptions) {
		o.httpClient = c
	}
}

// Build constructs the reporters in their fixed order: console, discord,
// http, webhook, slack, telegram, cloudflare, redis, kafka, rabbitmq, sql,
// elasticsearch, mongodb. Unconfigured destinations are skipped with a
// warning. The returned connections must be closed on shutdown.
func Build(ctx context.Context, cfg *config.NotifyConfig, logger *zap.Logger, opts ...BuildOption) ([]Reporter, *connection.Connections, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("notify")

	o := &buildOptions{}
	for _, opt := range opts {
		opt(o)
	}
	if o.httpClient == nil {
		o.httpClient = newHTTPClient(cfg.Timeout)
	}

	loader, err := ntpl.NewLoader(logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize template loader: %w", err)
	}

	conns, err := connection.New(ctx, cfg, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect data destinations: %w", err)
	}

	b := &builder{logger: logger}

	b.add("console", true, func() (Reporter, error) {
		return NewConsole(o.console), nil
	})
	b.add("discord", cfg.Discord.Configured(), func() (Reporter, error) {
		return NewDiscord(&cfg.Discord, loader, o.httpClient, logger.Named("discord"))
	})
	b.add("http", cfg.HTTP.Configured(), func() (Reporter, error) {
		return NewHTTPRequest(&cfg.HTTP, o.httpClient, logger.Named("http"))
	})
	b.add("webhook", cfg.Webhook.Configured(), func() (Reporter, error) {
		return NewWebhook(&cfg.Webhook, o.httpClient, logger.Named("webhook"))
	})
	b.add("slack", cfg.Slack.Configured(), func() (Reporter, error) {
		return NewSlack(&cfg.Slack, loader, o.httpClient, logger.Named("slack"))
	})
	b.add("telegram", cfg.Telegram.Configured(), func() (Reporter, error) {
		return NewTelegram(&cfg.Telegram, loader, o.httpClient, logger.Named("telegram"))
	})
	b.add("cloudflare", cfg.Cloudflare.Configured(), func() (Reporter, error) {
		return NewCloudflare(&cfg.Cloudflare, logger.Named("cloudflare"))
	})
	b.add("redis", conns.RC != nil, func() (Reporter, error) {
		return NewRedis(&cfg.Redis, conns.RC)
	})
	b.add("kafka", conns.KFK != nil, func() (Reporter, error) {
		return NewKafka(conns.KFK)
	})
	b.add("rabbitmq", conns.RMQ != nil, func() (Reporter, error) {
		return NewRabbitMQ(&cfg.RabbitMQ, conns.RMQ)
	})
	b.add("sql", conns.DB != nil, func() (Reporter, error) {
		name, err := connection.DriverName(cfg.SQL.Driver)
		if err != nil {
			return nil, err
		}
		return NewSQL(conns.DB, name)
	})
	b.add("elasticsearch", conns.ES != nil, func() (Reporter, error) {
		return NewElasticsearch(conns.ES, cfg.Elasticsearch.Index, logger.Named("elasticsearch"))
	})
	b.add("mongodb", conns.Mongo != nil, func() (Reporter, error) {
		return NewMongoDB(conns.Mongo.Database(cfg.MongoDB.Database).Collection(cfg.MongoDB.Collection))
	})

	if b.err != nil {
		return nil, nil, errors.Join(b.err, conns.Close())
	}

	reporters := b.reporters
	if cfg.Retry.Enable {
		for i, r := range reporters {
			reporters[i] = WithRetry(r, &cfg.Retry, logger)
		}
		logger.Info("Delivery retry enabled", zap.Int("max_attempts", cfg.Retry.Attempts()))
	}

	names := make([]string, len(reporters))
	for i, r := range reporters {
		names[i] = NameOf(r)
	}
	logger.Info("Reporters registered", zap.Strings("reporters", names))

	return reporters, conns, nil
}

// builder collects reporters and stops at the first construction error
type builder struct {
	logger    *zap.Logger
	reporters []Reporter
	err       error
}

func (b *builder) add(name string, configured bool, build func() (Reporter, error)) {
	if b.err != nil {
		return
	}
	if !configured {
		b.logger.Warn("Destination not configured, skipping reporter", zap.String("reporter", name))
		return
	}
	r, err := build()
	if err != nil {
		b.err = fmt.Errorf("failed to create %s reporter: %w", name, err)
		return
	}
	b.reporters = append(b.reporters, r)
}
