package repositories

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"canteen/internal/models"
)

// GORMMerchantRepository is a GORM implementation of MerchantRepository.
type GORMMerchantRepository struct {
	db *gorm.DB
}

// NewGORMMerchantRepository creates a new instance of GORMMerchantRepository.
func NewGORMMerchantRepository(db *gorm.DB) *GORMMerchantRepository {
	return &GORMMerchantRepository{db: db}
}

// Create creates a new merchant in the database.
func (r *GORMMerchantRepository) Create(ctx context.Context, merchant *models.Merchant) error {
	if err := r.db.WithContext(ctx).Create(merchant).Error; err != nil {
		return fmt.Errorf("failed to create merchant: %w", translate(err))
	}
	return nil
}

// GetByID retrieves a merchant by ID.
func (r *GORMMerchantRepository) GetByID(ctx context.Context, id uint) (*models.Merchant, error) {
	var merchant models.Merchant
	if err := r.db.WithContext(ctx).First(&merchant, "id = ?", id).Error; err != nil {
		return nil, fmt.Errorf("merchant with ID %d: %w", id, translate(err))
	}
	return &merchant, nil
}

// GetByUsername retrieves a merchant by login name.
func (r *GORMMerchantRepository) GetByUsername(ctx context.Context, username string) (*models.Merchant, error) {
	var merchant models.Merchant
	if err := r.db.WithContext(ctx).First(&merchant, "username = ?", username).Error; err != nil {
		return nil, fmt.Errorf("merchant with username %s: %w", username, translate(err))
	}
	return &merchant, nil
}

// ListApproved retrieves approved merchants, optionally filtered by keyword.
func (r *GORMMerchantRepository) ListApproved(ctx context.Context, keyword string) ([]models.Merchant, error) {
	q := r.db.WithContext(ctx).Where("status = ?", models.MerchantApproved)
	if keyword = strings.TrimSpace(keyword); keyword != "" {
		pattern := "%" + escapeLike(strings.ToLower(keyword)) + "%"
		q = q.Where(`(LOWER(name) LIKE ? ESCAPE '\' OR LOWER(category) LIKE ? ESCAPE '\')`, pattern, pattern)
	}

	var merchants []models.Merchant
	if err := q.Order("id").Find(&merchants).Error; err != nil {
		return nil, fmt.Errorf("failed to list approved merchants: %w", err)
	}
	return merchants, nil
}

// ListByStatus retrieves merchants in one approval state, newest first.
func (r *GORMMerchantRepository) ListByStatus(ctx context.Context, status models.MerchantStatus) ([]models.Merchant, error) {
	var merchants []models.Merchant
	err := r.db.WithContext(ctx).
		Where("status = ?", status).
		Order("created_at DESC").Order("id DESC").
		Find(&merchants).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list merchants with status %s: %w", status.Text(), err)
	}
	return merchants, nil
}

// UpdateStatus performs a guarded status change.
func (r *GORMMerchantRepository) UpdateStatus(ctx context.Context, id uint, from, to models.MerchantStatus) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Merchant{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if res.Error != nil {
		return false, fmt.Errorf("failed to update status of merchant %d: %w", id, res.Error)
	}
	return res.RowsAffected == 1, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
