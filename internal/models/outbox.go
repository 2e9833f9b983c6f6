package models

import "time"

// OutboxEvent is a domain event written in the same transaction as the state
// change it describes. The relay publishes pending rows and stamps SentAt.
type OutboxEvent struct {
	ID        uint       `json:"id" gorm:"primaryKey"`
	EventID   string     `json:"event_id" gorm:"uniqueIndex;type:varchar(36);not null"`
	Topic     string     `json:"topic" gorm:"type:varchar(64);not null"`
	Key       string     `json:"key" gorm:"type:varchar(64)"`
	Payload   []byte     `json:"payload" gorm:"not null"`
	CreatedAt time.Time  `json:"created_at"`
	SentAt    *time.Time `json:"sent_at" gorm:"index"`
}
