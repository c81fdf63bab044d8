// Package kafka provides a Kafka-backed eventstream publisher.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	segmentio "github.com/segmentio/kafka-go"

	"github.com/heirloomhq/heirloom/pkg/eventstream"
)

// DefaultTopic is the topic memory events are published to when none is
// configured.
const DefaultTopic = "heirloom.memories"

// Publisher implements eventstream.Publisher on top of a Kafka topic.
type Publisher struct {
	writer *segmentio.Writer
}

// NewPublisher creates a Kafka publisher for the given broker addresses
// and topic. An empty topic falls back to DefaultTopic.
func NewPublisher(brokers []string, topic string) *Publisher {
	if topic == "" {
		topic = DefaultTopic
	}
	return &Publisher{
		writer: &segmentio.Writer{
			Addr:     segmentio.TCP(brokers...),
			Topic:    topic,
			Balancer: &segmentio.LeastBytes{},
		},
	}
}

// PublishMemory writes one event, keyed by passport id so all events for a
// subject land on the same partition in order.
func (p *Publisher) PublishMemory(ctx context.Context, event *eventstream.MemoryPersistedEvent) error {
	if event == nil {
		return eventstream.ErrNilMemoryEvent
	}

	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	err = p.writer.WriteMessages(ctx, segmentio.Message{
		Key:   []byte(event.PassportID),
		Value: value,
	})
	if err != nil {
		return fmt.Errorf("publish event: %w", err)
	}
	return nil
}

// Close flushes and closes the underlying writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}
