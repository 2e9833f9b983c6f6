package repositories

import (
	"context"
	"time"

	"canteen/internal/models"
)

// OrderLookup selects one order. Exactly one of ID or OrderNo is set; the
// owner fields, when non-zero, are added to the match.
type OrderLookup struct {
	ID         uint
	OrderNo    string
	UserID     uint
	MerchantID uint
}

// OrderFilter narrows order listings.
type OrderFilter struct {
	UserID     uint
	MerchantID uint
	Status     *models.OrderStatus
	Limit      int
}

// OrderRepository defines the interface for order data access.
type OrderRepository interface {
	// Create inserts the order header and all of its items.
	Create(ctx context.Context, order *models.Order) error
	// Get loads an order with its items and merchant.
	Get(ctx context.Context, lookup OrderLookup) (*models.Order, error)
	// GetForUpdate loads an order header and holds an exclusive row lock on
	// it until the surrounding transaction ends.
	GetForUpdate(ctx context.Context, lookup OrderLookup) (*models.Order, error)
	// UpdateStatus moves an order from one status to another. payTime is
	// written only when non-nil. It reports false when the order is no
	// longer in status from.
	UpdateStatus(ctx context.Context, id uint, from, to models.OrderStatus, payTime *time.Time) (bool, error)
	List(ctx context.Context, filter OrderFilter) ([]models.Order, error)
}
