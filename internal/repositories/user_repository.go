package repositories

import (
	"context"

	"canteen/internal/models"
)

// UserRepository defines the interface for user data access.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByID(ctx context.Context, id uint) (*models.User, error)
}

// AdminRepository defines the interface for administrator accounts.
type AdminRepository interface {
	Create(ctx context.Context, admin *models.Admin) error
	GetByUsername(ctx context.Context, username string) (*models.Admin, error)
}

// AddressRepository defines the interface for user delivery addresses.
type AddressRepository interface {
	ListByUser(ctx context.Context, userID uint) ([]models.Address, error)
	Create(ctx context.Context, address *models.Address) error
	ClearDefault(ctx context.Context, userID uint) error
}
