package notify

import (
	"context"
	"fmt"
	"sync"

	"netloc/internal/config"

	amqp "github.com/rabbitmq/amqp091-go"
)

// AMQPChannel is the part of an AMQP channel the reporter uses
type AMQPChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// RabbitMQ publishes the payload to an exchange
type RabbitMQ struct {
	config *config.RabbitMQConfig
	mu     sync.Mutex
	open   func() (AMQPChannel, error)
	ch     AMQPChannel
}

// NewRabbitMQ creates new RabbitMQ reporter on conn. A fresh channel is
// opened after a publish failure, since AMQP channels close on error.
func NewRabbitMQ(cfg *config.RabbitMQConfig, conn *amqp.Connection) (*RabbitMQ, error) {
	if conn == nil {
		return nil, fmt.Errorf("rabbitmq connection is nil")
	}
	return newRabbitMQ(cfg, func() (AMQPChannel, error) {
		ch, err := conn.Channel()
		if err != nil {
			return nil, err
		}
		return ch, nil
	}), nil
}

func newRabbitMQ(cfg *config.RabbitMQConfig, open func() (AMQPChannel, error)) *RabbitMQ {
	return &RabbitMQ{config: cfg, open: open}
}

// Name returns the reporter name
func (n *RabbitMQ) Name() string { return "rabbitmq" }

// Report publishes the change
func (n *RabbitMQ) Report(ctx context.Context, p *Payload) error {
	data, err := p.JSON()
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	if n.ch == nil {
		ch, err := n.open()
		if err != nil {
			return fmt.Errorf("failed to open rabbitmq channel: %w", err)
		}
		n.ch = ch
	}

	err = n.ch.PublishWithContext(ctx, n.config.Exchange, n.config.RoutingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    p.EventID,
		Timestamp:    p.Timestamp,
		Type:         EventType,
		Body:         data,
	})
	if err != nil {
		n.ch = nil
		return fmt.Errorf("rabbitmq publish failed: %w", err)
	}
	return nil
}
