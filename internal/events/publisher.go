package events

import (
	"context"
	"log"
)

// Publisher delivers one event body to a broker.
type Publisher interface {
	Publish(ctx context.Context, topic, key string, body []byte) error
	Close() error
}

// LogPublisher writes events to the standard logger. It is the default when
// no broker is configured.
type LogPublisher struct{}

func (LogPublisher) Publish(_ context.Context, topic, key string, body []byte) error {
	log.Printf("event %s key=%s: %s", topic, key, body)
	return nil
}

func (LogPublisher) Close() error { return nil }
