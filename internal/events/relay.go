package events

import (
	"context"
	"fmt"
	"log"
	"time"

	"canteen/internal/repositories"
)

// RelayObserver is notified about every publish attempt.
type RelayObserver interface {
	EventPublished(topic string, err error)
}

// Relay moves committed outbox rows to a Publisher. Rows are published in
// insertion order; a failure stops the batch so later events never overtake
// an earlier one. Delivery is at-least-once.
type Relay struct {
	outbox    repositories.OutboxRepository
	publisher Publisher
	interval  time.Duration
	batch     int
	observer  RelayObserver
}

// NewRelay creates a Relay polling every interval for up to batch rows.
func NewRelay(outbox repositories.OutboxRepository, publisher Publisher, interval time.Duration, batch int, observer RelayObserver) *Relay {
	return &Relay{
		outbox:    outbox,
		publisher: publisher,
		interval:  interval,
		batch:     batch,
		observer:  observer,
	}
}

// Run drains the outbox on every tick until ctx is cancelled.
func (r *Relay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := r.Drain(ctx); err != nil && ctx.Err() == nil {
				log.Printf("Outbox relay: %v", err)
			}
		}
	}
}

// Drain publishes one batch of pending events and returns how many were sent.
func (r *Relay) Drain(ctx context.Context) (int, error) {
	pending, err := r.outbox.FetchPending(ctx, r.batch)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, ev := range pending {
		err := r.publisher.Publish(ctx, ev.Topic, ev.Key, ev.Payload)
		if r.observer != nil {
			r.observer.EventPublished(ev.Topic, err)
		}
		if err != nil {
			return sent, fmt.Errorf("failed to publish event %s: %w", ev.EventID, err)
		}
		if err := r.outbox.MarkSent(ctx, ev.ID, time.Now()); err != nil {
			return sent, err
		}
		sent++
	}
	return sent, nil
}
