// Package rabbitmq publishes order events to a topic exchange and consumes
// the merchant notification queue bound to it.
package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	amqp "github.com/streadway/amqp"
)

const (
	// Exchange receives every order event, routed by topic.
	Exchange = "canteen.events"
	// MerchantQueue collects the events merchants are notified about.
	MerchantQueue = "merchant_notifications"

	orderBinding = "order.#"
)

// Config holds RabbitMQ connection details.
type Config struct {
	URL string
}

// Client publishes on a confirm-mode channel: Publish returns only after the
// broker has taken responsibility for the message.
type Client struct {
	conn *amqp.Connection

	mu       sync.Mutex
	pub      *amqp.Channel
	confirms chan amqp.Confirmation
	nextTag  uint64
}

// NewClient connects to RabbitMQ, declares the event topology and puts the
// publishing channel into confirm mode.
func NewClient(cfg Config) (*Client, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}
	if err := declareTopology(ch); err != nil {
		conn.Close()
		return nil, err
	}
	if err := ch.Confirm(false); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to enable publisher confirms: %w", err)
	}

	c := &Client{
		conn:     conn,
		pub:      ch,
		confirms: ch.NotifyPublish(make(chan amqp.Confirmation, 16)),
	}
	log.Printf("RabbitMQ connected, exchange %s bound to %s with %q", Exchange, MerchantQueue, orderBinding)
	return c, nil
}

func declareTopology(ch *amqp.Channel) error {
	if err := ch.ExchangeDeclare(Exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange %s: %w", Exchange, err)
	}
	if _, err := ch.QueueDeclare(MerchantQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue %s: %w", MerchantQueue, err)
	}
	if err := ch.QueueBind(MerchantQueue, orderBinding, Exchange, false, nil); err != nil {
		return fmt.Errorf("bind queue %s: %w", MerchantQueue, err)
	}
	return nil
}

// Publish sends body to the event exchange with topic as routing key and
// waits for the broker confirmation or ctx.
func (c *Client) Publish(ctx context.Context, topic, key string, body []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	err := c.pub.Publish(Exchange, topic, false, false, amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		MessageId:    key,
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
	})
	if err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	c.nextTag++

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("publish %s: waiting for confirmation: %w", topic, ctx.Err())
		case conf, ok := <-c.confirms:
			if !ok {
				return fmt.Errorf("publish %s: channel closed before confirmation", topic)
			}
			// confirmations left over from an abandoned wait
			if conf.DeliveryTag < c.nextTag {
				continue
			}
			if !conf.Ack {
				return fmt.Errorf("publish %s: broker rejected the message", topic)
			}
			return nil
		}
	}
}

// Consume delivers messages from queue to handler on a background goroutine,
// using a channel of its own. Messages the handler rejects are requeued once
// and then dropped. Delivery stops when the client is closed.
func (c *Client) Consume(queue string, handler func(routingKey string, body []byte) error) error {
	ch, err := c.conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open consumer channel: %w", err)
	}
	deliveries, err := ch.Consume(queue, "", false, false, false, false, nil)
	if err != nil {
		ch.Close()
		return fmt.Errorf("failed to register consumer on %s: %w", queue, err)
	}

	go func() {
		for d := range deliveries {
			if err := handler(d.RoutingKey, d.Body); err != nil {
				log.Printf("Error handling %s message %d: %v", d.RoutingKey, d.DeliveryTag, err)
				if err := d.Nack(false, !d.Redelivered); err != nil {
					log.Printf("Error nacking message %d: %v", d.DeliveryTag, err)
				}
				continue
			}
			if err := d.Ack(false); err != nil {
				log.Printf("Error acking message %d: %v", d.DeliveryTag, err)
			}
		}
		log.Printf("Consumer on %s stopped", queue)
	}()
	return nil
}

// Close closes the publishing channel and the connection, which also ends
// any consumers.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var errs []error
	if err := c.pub.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
		errs = append(errs, fmt.Errorf("close channel: %w", err))
	}
	if err := c.conn.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
		errs = append(errs, fmt.Errorf("close connection: %w", err))
	}
	return errors.Join(errs...)
}
