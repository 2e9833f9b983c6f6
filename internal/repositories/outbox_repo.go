package repositories

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"canteen/internal/models"
)

// OutboxRepository stores events awaiting publication.
type OutboxRepository interface {
	Insert(ctx context.Context, event *models.OutboxEvent) error
	FetchPending(ctx context.Context, limit int) ([]models.OutboxEvent, error)
	MarkSent(ctx context.Context, id uint, at time.Time) error
}

// GORMOutboxRepository is a GORM implementation of OutboxRepository.
type GORMOutboxRepository struct {
	db *gorm.DB
}

// NewGORMOutboxRepository creates a new instance of GORMOutboxRepository.
func NewGORMOutboxRepository(db *gorm.DB) *GORMOutboxRepository {
	return &GORMOutboxRepository{db: db}
}

// Insert writes a pending event.
func (r *GORMOutboxRepository) Insert(ctx context.Context, event *models.OutboxEvent) error {
	if err := r.db.WithContext(ctx).Create(event).Error; err != nil {
		return fmt.Errorf("failed to insert outbox event: %w", translate(err))
	}
	return nil
}

// FetchPending returns unsent events in insertion order.
func (r *GORMOutboxRepository) FetchPending(ctx context.Context, limit int) ([]models.OutboxEvent, error) {
	var events []models.OutboxEvent
	err := r.db.WithContext(ctx).
		Where("sent_at IS NULL").
		Order("id").
		Limit(limit).
		Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch pending outbox events: %w", err)
	}
	return events, nil
}

// MarkSent stamps an event as published.
func (r *GORMOutboxRepository) MarkSent(ctx context.Context, id uint, at time.Time) error {
	err := r.db.WithContext(ctx).
		Model(&models.OutboxEvent{}).
		Where("id = ?", id).
		Update("sent_at", at).Error
	if err != nil {
		return fmt.Errorf("failed to mark outbox event %d sent: %w", id, err)
	}
	return nil
}
