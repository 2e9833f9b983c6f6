// Package events defines the order events written to the outbox and the relay
// that forwards them to a broker.
package events

import (
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/google/uuid"

	"canteen/internal/models"
)

const (
	TopicOrderCreated       = "order.created"
	TopicOrderPaid          = "order.paid"
	TopicOrderStatusChanged = "order.status_changed"
)

// Event is the JSON body published for every order event.
type Event struct {
	EventID    string    `json:"event_id"`
	Type       string    `json:"type"`
	OrderID    uint      `json:"order_id"`
	OrderNo    string    `json:"order_no"`
	UserID     uint      `json:"user_id"`
	MerchantID uint      `json:"merchant_id"`
	Status     string    `json:"status"`
	PrevStatus string    `json:"prev_status,omitempty"`
	TotalPrice string    `json:"total_price"`
	CreatedAt  time.Time `json:"created_at"`
}

// NewOutboxEvent builds the outbox row for topic describing order. prev is
// the status the order left, if any.
func NewOutboxEvent(topic string, order *models.Order, prev *models.OrderStatus) (*models.OutboxEvent, error) {
	ev := Event{
		EventID:    uuid.NewString(),
		Type:       topic,
		OrderID:    order.ID,
		OrderNo:    order.OrderNo,
		UserID:     order.UserID,
		MerchantID: order.MerchantID,
		Status:     order.Status.Text(),
		TotalPrice: order.TotalPrice.StringFixed(2),
		CreatedAt:  time.Now().UTC(),
	}
	if prev != nil {
		ev.PrevStatus = prev.Text()
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s event: %w", topic, err)
	}
	return &models.OutboxEvent{
		EventID: ev.EventID,
		Topic:   topic,
		Key:     strconv.FormatUint(uint64(order.MerchantID), 10),
		Payload: body,
	}, nil
}

// LogMerchantNotification decodes an event consumed from the broker and logs
// the notice its merchant would receive.
func LogMerchantNotification(routingKey string, body []byte) error {
	var ev Event
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("malformed %s event: %w", routingKey, err)
	}
	log.Printf("merchant %d: order %s is now %s (%s)", ev.MerchantID, ev.OrderNo, ev.Status, routingKey)
	return nil
}
