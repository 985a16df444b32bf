package connection

import (
	"context"
	"fmt"
	"time"

	"netloc/internal/config"

	"github.com/segmentio/kafka-go"
)

// newKafka checks the first broker is reachable and returns a writer
// for the configured topic. Messages with the same key land on the
// same partition.
func newKafka(ctx context.Context, cfg *config.KafkaConfig) (*kafka.Writer, error) {
	if cfg == nil || len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka configuration is nil or empty")
	}

	dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	conn, err := kafka.DialContext(dialCtx, "tcp", cfg.Brokers[0])
	if err != nil {
		return nil, fmt.Errorf("kafka connection error: %w", err)
	}
	_ = conn.Close()

	return &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}, nil
}
