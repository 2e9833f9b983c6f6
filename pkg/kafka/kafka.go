// Package kafka publishes order events to Kafka.
package kafka

import (
	"context"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

// Publisher writes messages to the topic named on each call.
type Publisher struct {
	writer *kafka.Writer
}

// NewPublisher creates a Publisher for brokers. Messages with the same key
// land on the same partition.
func NewPublisher(brokers []string) *Publisher {
	return &Publisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireOne,
			AllowAutoTopicCreation: true,
		},
	}
}

// Publish writes one message.
func (p *Publisher) Publish(ctx context.Context, topic, key string, body []byte) error {
	err := p.writer.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: body,
		Time:  time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to write to kafka topic %s: %w", topic, err)
	}
	return nil
}

// Close flushes and closes the writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}
