// Package kafka publishes exchange events to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"

	"github.com/papercomputeco/wireline/pkg/eventstream"
)

// Publisher publishes exchange events to Kafka using segmentio/kafka-go.
type Publisher struct {
	writer *kafka.Writer
}

// NewPublisher creates a Kafka-backed eventstream publisher. Messages are
// keyed by exchange id so events for the same exchange land on one partition.
func NewPublisher(brokers []string, topic string) *Publisher {
	return &Publisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
			// The gateway creates the topic on first publish in dev setups.
			AllowAutoTopicCreation: true,
		},
	}
}

// PublishExchange serializes the event as JSON and writes it to the topic.
func (p *Publisher) PublishExchange(ctx context.Context, event *eventstream.ExchangeCompletedEvent) error {
	if event == nil {
		return eventstream.ErrNilExchangeEvent
	}

	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal exchange event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(event.Exchange.ExchangeID),
		Value: value,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish exchange event: %w", err)
	}

	return nil
}

// Close flushes pending messages and closes the underlying writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}
