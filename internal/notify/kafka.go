package notify

import (
	"context"
	"fmt"

	"github.com/segmentio/kafka-go"
)

// MessageWriter is the part of the Kafka writer the reporter uses
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// Kafka writes the payload to a topic keyed by the new address
type Kafka struct {
	writer MessageWriter
}

// NewKafka creates new Kafka reporter. The writer carries the topic.
func NewKafka(writer MessageWriter) (*Kafka, error) {
	if writer == nil {
		return nil, fmt.Errorf("kafka writer is nil")
	}
	return &Kafka{writer: writer}, nil
}

// Name returns the reporter name
func (n *Kafka) Name() string { return "kafka" }

// Report writes the change
func (n *Kafka) Report(ctx context.Context, p *Payload) error {
	data, err := p.JSON()
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(p.IP),
		Value: data,
		Time:  p.Timestamp,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(EventType)},
			{Key: "event_id", Value: []byte(p.EventID)},
		},
	}
	if err := n.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka write failed: %w", err)
	}
	return nil
}
