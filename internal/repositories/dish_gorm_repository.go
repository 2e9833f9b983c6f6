package repositories

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"canteen/internal/models"
)

// GORMDishRepository is a GORM implementation of DishRepository.
type GORMDishRepository struct {
	db *gorm.DB
}

// NewGORMDishRepository creates a new instance of GORMDishRepository.
func NewGORMDishRepository(db *gorm.DB) *GORMDishRepository {
	return &GORMDishRepository{
		db: db,
	}
}

// GetByID retrieves a single dish by its ID from the database.
func (r *GORMDishRepository) GetByID(ctx context.Context, id uint) (*models.Dish, error) {
	var dish models.Dish
	if err := r.db.WithContext(ctx).First(&dish, "id = ?", id).Error; err != nil {
		return nil, fmt.Errorf("dish with ID %d: %w", id, translate(err))
	}
	return &dish, nil
}

// ListByMerchant retrieves the dishes of one merchant.
func (r *GORMDishRepository) ListByMerchant(ctx context.Context, merchantID uint, onlyListed bool) ([]models.Dish, error) {
	q := r.db.WithContext(ctx).Where("merchant_id = ?", merchantID)
	if onlyListed {
		q = q.Where("status = ?", models.DishListed)
	}

	var dishes []models.Dish
	if err := q.Order("id").Find(&dishes).Error; err != nil {
		return nil, fmt.Errorf("failed to list dishes of merchant %d: %w", merchantID, err)
	}
	return dishes, nil
}

// Create creates a new dish in the database.
func (r *GORMDishRepository) Create(ctx context.Context, dish *models.Dish) error {
	if err := r.db.WithContext(ctx).Create(dish).Error; err != nil {
		return fmt.Errorf("failed to create dish: %w", translate(err))
	}
	return nil
}

// Update overwrites the editable fields of a dish owned by dish.MerchantID.
func (r *GORMDishRepository) Update(ctx context.Context, dish *models.Dish) error {
	res := r.db.WithContext(ctx).
		Model(&models.Dish{}).
		Where("id = ? AND merchant_id = ?", dish.ID, dish.MerchantID).
		Updates(map[string]any{
			"name":     dish.Name,
			"category": dish.Category,
			"price":    dish.Price,
			"stock":    dish.Stock,
			"status":   dish.Status,
		})
	if res.Error != nil {
		return fmt.Errorf("failed to update dish: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("dish with ID %d for update: %w", dish.ID, ErrNotFound)
	}
	return nil
}

// SetStatus lists or delists a dish.
func (r *GORMDishRepository) SetStatus(ctx context.Context, merchantID, dishID uint, status models.DishStatus) error {
	return r.updateColumn(ctx, merchantID, dishID, "status", status)
}

// SetImage stores the image reference of a dish.
func (r *GORMDishRepository) SetImage(ctx context.Context, merchantID, dishID uint, image string) error {
	return r.updateColumn(ctx, merchantID, dishID, "image", image)
}

func (r *GORMDishRepository) updateColumn(ctx context.Context, merchantID, dishID uint, column string, value any) error {
	res := r.db.WithContext(ctx).
		Model(&models.Dish{}).
		Where("id = ? AND merchant_id = ?", dishID, merchantID).
		Update(column, value)
	if res.Error != nil {
		return fmt.Errorf("failed to update %s of dish %d: %w", column, dishID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("dish with ID %d for update: %w", dishID, ErrNotFound)
	}
	return nil
}

// Delete soft-deletes a dish by its ID.
func (r *GORMDishRepository) Delete(ctx context.Context, merchantID, dishID uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Dish{}, "id = ? AND merchant_id = ?", dishID, merchantID)
	if res.Error != nil {
		return fmt.Errorf("failed to delete dish: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("dish with ID %d for deletion: %w", dishID, ErrNotFound)
	}
	return nil
}

// DecrementStock takes quantity units out of stock in a single statement, so
// concurrent decrements serialize on the row and can never go below zero.
func (r *GORMDishRepository) DecrementStock(ctx context.Context, dishID uint, quantity int) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Dish{}).
		Where("id = ? AND stock >= ?", dishID, quantity).
		Update("stock", gorm.Expr("stock - ?", quantity))
	if res.Error != nil {
		return false, fmt.Errorf("failed to decrement stock of dish %d: %w", dishID, res.Error)
	}
	return res.RowsAffected == 1, nil
}

// RestoreStock puts quantity units back into stock.
func (r *GORMDishRepository) RestoreStock(ctx context.Context, dishID uint, quantity int) error {
	err := r.db.WithContext(ctx).
		Unscoped().
		Model(&models.Dish{}).
		Where("id = ?", dishID).
		Update("stock", gorm.Expr("stock + ?", quantity)).Error
	if err != nil {
		return fmt.Errorf("failed to restore stock of dish %d: %w", dishID, err)
	}
	return nil
}
