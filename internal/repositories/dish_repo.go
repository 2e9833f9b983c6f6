package repositories

import (
	"context"

	"canteen/internal/models"
)

// DishRepository defines the interface for dish and stock data access.
// Mutations that come from a merchant always carry the merchant ID so
// ownership is enforced by the statement itself.
type DishRepository interface {
	GetByID(ctx context.Context, id uint) (*models.Dish, error)
	ListByMerchant(ctx context.Context, merchantID uint, onlyListed bool) ([]models.Dish, error)
	Create(ctx context.Context, dish *models.Dish) error
	Update(ctx context.Context, dish *models.Dish) error
	SetStatus(ctx context.Context, merchantID, dishID uint, status models.DishStatus) error
	SetImage(ctx context.Context, merchantID, dishID uint, image string) error
	Delete(ctx context.Context, merchantID, dishID uint) error

	// DecrementStock subtracts quantity only if enough stock remains. It
	// reports false, without writing, when stock is short.
	DecrementStock(ctx context.Context, dishID uint, quantity int) (bool, error)
	// RestoreStock adds quantity back, including to deleted dishes.
	RestoreStock(ctx context.Context, dishID uint, quantity int) error
}
