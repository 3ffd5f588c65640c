// Package kafka publishes overview summary events to a Kafka topic for
// downstream consumers. The publisher is optional; when Kafka is disabled
// the aggregator simply gets a nil sink.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/wildfire-risk-service/internal/aggregator"
)

// writer is the subset of kafka.Writer the publisher uses, extracted so
// tests can swap in a recorder.
type writer interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Publisher writes OverviewEvents to one topic, keyed by rounded location so
// events for the same area land in the same partition.
type Publisher struct {
	writer writer
	logger *slog.Logger
}

// NewPublisher creates a Publisher for the given brokers and topic.
func NewPublisher(brokers []string, topic string, logger *slog.Logger) *Publisher {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Publisher{writer: w, logger: logger}
}

// Publish sends one overview event. Implements aggregator.EventSink.
func (p *Publisher) Publish(ctx context.Context, event aggregator.OverviewEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal overview event: %w", err)
	}

	msg := kafkago.Message{
		Key:   []byte(fmt.Sprintf("%.3f:%.3f", event.Latitude, event.Longitude)),
		Value: payload,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write overview event: %w", err)
	}

	p.logger.Debug("published overview event",
		"fire_count", event.FireCount,
		"risk_level", event.RiskLevel,
	)
	return nil
}

// Close flushes and closes the underlying writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}
