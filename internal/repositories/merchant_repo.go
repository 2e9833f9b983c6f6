package repositories

import (
	"context"

	"canteen/internal/models"
)

// MerchantRepository defines the interface for merchant data access.
type MerchantRepository interface {
	Create(ctx context.Context, merchant *models.Merchant) error
	GetByID(ctx context.Context, id uint) (*models.Merchant, error)
	GetByUsername(ctx context.Context, username string) (*models.Merchant, error)
	// ListApproved returns approved merchants whose name or category contains
	// keyword, case-insensitively. An empty keyword matches everything.
	ListApproved(ctx context.Context, keyword string) ([]models.Merchant, error)
	ListByStatus(ctx context.Context, status models.MerchantStatus) ([]models.Merchant, error)
	// UpdateStatus moves a merchant from one status to another. It reports
	// false when the merchant is missing or no longer in status from.
	UpdateStatus(ctx context.Context, id uint, from, to models.MerchantStatus) (bool, error)
}
