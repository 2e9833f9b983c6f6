package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"canteen/internal/models"
)

// GORMOrderRepository is a GORM implementation of OrderRepository.
type GORMOrderRepository struct {
	db *gorm.DB
}

// NewGORMOrderRepository creates a new instance of GORMOrderRepository.
func NewGORMOrderRepository(db *gorm.DB) *GORMOrderRepository {
	return &GORMOrderRepository{db: db}
}

// Create inserts an order; gorm writes Items in the same statement batch.
func (r *GORMOrderRepository) Create(ctx context.Context, order *models.Order) error {
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		return fmt.Errorf("failed to create order: %w", translate(err))
	}
	return nil
}

// Get retrieves an order with its items.
func (r *GORMOrderRepository) Get(ctx context.Context, lookup OrderLookup) (*models.Order, error) {
	q, err := r.where(r.db.WithContext(ctx), lookup)
	if err != nil {
		return nil, err
	}

	var order models.Order
	err = q.Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Preload("Merchant").
		First(&order).Error
	if err != nil {
		return nil, fmt.Errorf("order %s: %w", lookup, translate(err))
	}
	return &order, nil
}

// GetForUpdate retrieves an order header under SELECT ... FOR UPDATE.
func (r *GORMOrderRepository) GetForUpdate(ctx context.Context, lookup OrderLookup) (*models.Order, error) {
	q, err := r.where(r.db.WithContext(ctx), lookup)
	if err != nil {
		return nil, err
	}

	var order models.Order
	if err := q.Clauses(clause.Locking{Strength: "UPDATE"}).First(&order).Error; err != nil {
		return nil, fmt.Errorf("order %s: %w", lookup, translate(err))
	}
	return &order, nil
}

// UpdateStatus performs a guarded status change.
func (r *GORMOrderRepository) UpdateStatus(ctx context.Context, id uint, from, to models.OrderStatus, payTime *time.Time) (bool, error) {
	values := map[string]any{"status": to}
	if payTime != nil {
		values["pay_time"] = *payTime
	}

	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status = ?", id, from).
		Updates(values)
	if res.Error != nil {
		return false, fmt.Errorf("failed to update status of order %d: %w", id, res.Error)
	}
	return res.RowsAffected == 1, nil
}

// List retrieves orders newest first, with items and merchant.
func (r *GORMOrderRepository) List(ctx context.Context, filter OrderFilter) ([]models.Order, error) {
	q := r.db.WithContext(ctx).Model(&models.Order{})
	if filter.UserID != 0 {
		q = q.Where("user_id = ?", filter.UserID)
	}
	if filter.MerchantID != 0 {
		q = q.Where("merchant_id = ?", filter.MerchantID)
	}
	if filter.Status != nil {
		q = q.Where("status = ?", *filter.Status)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}

	var orders []models.Order
	err := q.Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Preload("Merchant").
		Preload("User").
		Order("created_at DESC").Order("id DESC").
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

func (r *GORMOrderRepository) where(q *gorm.DB, lookup OrderLookup) (*gorm.DB, error) {
	switch {
	case lookup.ID != 0:
		q = q.Where("id = ?", lookup.ID)
	case lookup.OrderNo != "":
		q = q.Where("order_no = ?", lookup.OrderNo)
	default:
		return nil, errors.New("order lookup needs an ID or an order number")
	}
	if lookup.UserID != 0 {
		q = q.Where("user_id = ?", lookup.UserID)
	}
	if lookup.MerchantID != 0 {
		q = q.Where("merchant_id = ?", lookup.MerchantID)
	}
	return q, nil
}

// String describes the lookup for error messages.
func (l OrderLookup) String() string {
	if l.OrderNo != "" {
		return "with number " + l.OrderNo
	}
	return fmt.Sprintf("with ID %d", l.ID)
}
