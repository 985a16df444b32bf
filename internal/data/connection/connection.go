package connection

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"netloc/internal/config"
	"netloc/internal/data/migration"

	"github.com/elastic/go-elasticsearch/v8"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// closeTimeout bounds how long Close waits for clients that take a context
const closeTimeout = 5 * time.Second

// Connections holds the clients of every configured data destination.
// A nil field means the destination is not configured.
type Connections struct {
	DB     *sql.DB
	RC     *redis.Client
	ES     *elasticsearch.Client
	Mongo  *mongo.Client
	RMQ    *amqp.Connection
	KFK    *kafka.Writer
	logger *zap.Logger
	closed bool
	mu     sync.Mutex
}

// New connects to every configured destination. On failure the clients
// opened so far are closed before the error is returned.
func New(ctx context.Context, cfg *config.NotifyConfig, logger *zap.Logger) (*Connections, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Connections{logger: logger.Named("connection")}

	var err error
	if cfg.SQL.Configured() {
		if c.DB, err = newDB(ctx, &cfg.SQL); err != nil {
			return nil, c.abort(err)
		}
		c.logger.Info("Connected to database", zap.String("driver", cfg.SQL.Driver))

		if cfg.SQL.Migrate {
			name, _ := DriverName(cfg.SQL.Driver)
			if err = migration.Up(name, cfg.SQL.DSN, c.logger); err != nil {
				return nil, c.abort(err)
			}
		}
	}

	if cfg.Redis.Configured() {
		if c.RC, err = newRedis(ctx, &cfg.Redis); err != nil {
			return nil, c.abort(err)
		}
		c.logger.Info("Connected to redis", zap.String("addr", cfg.Redis.Addr))
	}

	if cfg.Elasticsearch.Configured() {
		if c.ES, err = newElasticsearch(ctx, &cfg.Elasticsearch); err != nil {
			return nil, c.abort(err)
		}
		c.logger.Info("Connected to elasticsearch", zap.Strings("addresses", cfg.Elasticsearch.Addresses))
	}

	if cfg.MongoDB.Configured() {
		if c.Mongo, err = newMongoDB(ctx, &cfg.MongoDB); err != nil {
			return nil, c.abort(err)
		}
		c.logger.Info("Connected to mongodb", zap.String("database", cfg.MongoDB.Database))
	}

	if cfg.RabbitMQ.Configured() {
		if c.RMQ, err = newRabbitMQ(&cfg.RabbitMQ); err != nil {
			return nil, c.abort(err)
		}
		c.logger.Info("Connected to rabbitmq")
	}

	if cfg.Kafka.Configured() {
		if c.KFK, err = newKafka(ctx, &cfg.Kafka); err != nil {
			return nil, c.abort(err)
		}
		c.logger.Info("Connected to kafka", zap.Strings("brokers", cfg.Kafka.Brokers))
	}

	return c, nil
}

// abort closes what was opened and returns err annotated with close failures
func (c *Connections) abort(err error) error {
	if closeErr := c.Close(); closeErr != nil {
		return errors.Join(err, closeErr)
	}
	return err
}

// Close closes all data connections. It is safe to call more than once.
func (c *Connections) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()

	var errs []error

	if c.KFK != nil {
		if err := c.KFK.Close(); err != nil {
			errs = append(errs, fmt.Errorf("kafka close error: %w", err))
		}
		c.KFK = nil
	}

	if c.RMQ != nil {
		if !c.RMQ.IsClosed() {
			if err := c.RMQ.Close(); err != nil {
				errs = append(errs, fmt.Errorf("rabbitmq close error: %w", err))
			}
		}
		c.RMQ = nil
	}

	if c.Mongo != nil {
		if err := c.Mongo.Disconnect(ctx); err != nil {
			errs = append(errs, fmt.Errorf("mongodb close error: %w", err))
		}
		c.Mongo = nil
	}

	// the elasticsearch client holds no connection of its own
	c.ES = nil

	if c.RC != nil {
		if err := c.RC.Close(); err != nil {
			errs = append(errs, fmt.Errorf("redis close error: %w", err))
		}
		c.RC = nil
	}

	if c.DB != nil {
		if err := c.DB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("database close error: %w", err))
		}
		c.DB = nil
	}

	c.closed = true

	return errors.Join(errs...)
}

// Ping checks the connections that support it
func (c *Connections) Ping(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return errors.New("connections closed")
	}

	var errs []error
	if c.DB != nil {
		if err := c.DB.PingContext(ctx); err != nil {
			errs = append(errs, fmt.Errorf("database: %w", err))
		}
	}
	if c.RC != nil {
		if err := c.RC.Ping(ctx).Err(); err != nil {
			errs = append(errs, fmt.Errorf("redis: %w", err))
		}
	}
	if c.Mongo != nil {
		if err := c.Mongo.Ping(ctx, nil); err != nil {
			errs = append(errs, fmt.Errorf("mongodb: %w", err))
		}
	}
	if c.RMQ != nil && c.RMQ.IsClosed() {
		errs = append(errs, errors.New("rabbitmq: connection closed"))
	}
	return errors.Join(errs...)
}
