package services

import (
	"context"
	"errors"
	"io"
	"log"

	"github.com/shopspring/decimal"

	"canteen/internal/models"
	"canteen/internal/repositories"
	"canteen/internal/storage"
)

// ImageStore persists uploaded dish images.
type ImageStore interface {
	Save(ctx context.Context, filename string, r io.Reader) (string, error)
	Remove(name string) error
}

// CatalogService handles merchant browsing and menu management.
type CatalogService struct {
	merchants repositories.MerchantRepository
	dishes    repositories.DishRepository
	images    ImageStore
}

// NewCatalogService creates a new CatalogService.
func NewCatalogService(merchants repositories.MerchantRepository, dishes repositories.DishRepository, images ImageStore) *CatalogService {
	return &CatalogService{
		merchants: merchants,
		dishes:    dishes,
		images:    images,
	}
}

// DishInput is the editable part of a dish.
type DishInput struct {
	Name     string             `json:"name" validate:"required,max=100"`
	Category string             `json:"category" validate:"omitempty,max=50"`
	Price    decimal.Decimal    `json:"price"`
	Stock    int                `json:"stock" validate:"min=0"`
	Status   *models.DishStatus `json:"status"`
}

func (in DishInput) validate() error {
	if err := validate.Struct(in); err != nil {
		return validationError(err)
	}
	if err := validatePrice("Price", in.Price); err != nil {
		return err
	}
	if in.Status != nil && !in.Status.Valid() {
		return invalid("Status", "status must be 0 or 1")
	}
	return nil
}

// ListMerchants returns approved merchants matching keyword.
func (s *CatalogService) ListMerchants(ctx context.Context, keyword string) ([]models.Merchant, error) {
	return s.merchants.ListApproved(ctx, keyword)
}

// MenuOf returns the listed dishes of an approved merchant.
func (s *CatalogService) MenuOf(ctx context.Context, merchantID uint) (*models.Merchant, []models.Dish, error) {
	merchant, err := s.merchants.GetByID(ctx, merchantID)
	if errors.Is(err, repositories.ErrNotFound) || (err == nil && merchant.Status != models.MerchantApproved) {
		return nil, nil, ErrMerchantUnavailable
	}
	if err != nil {
		return nil, nil, err
	}

	dishes, err := s.dishes.ListByMerchant(ctx, merchantID, true)
	if err != nil {
		return nil, nil, err
	}
	return merchant, dishes, nil
}

// OwnDishes returns every dish of a merchant, listed or not.
func (s *CatalogService) OwnDishes(ctx context.Context, merchantID uint) ([]models.Dish, error) {
	return s.dishes.ListByMerchant(ctx, merchantID, false)
}

// CreateDish adds a dish to a merchant's menu. New dishes are listed unless
// the input says otherwise.
func (s *CatalogService) CreateDish(ctx context.Context, merchantID uint, in DishInput) (*models.Dish, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	dish := &models.Dish{
		MerchantID: merchantID,
		Name:       in.Name,
		Category:   in.Category,
		Price:      in.Price,
		Stock:      in.Stock,
		Status:     models.DishListed,
	}
	if in.Status != nil {
		dish.Status = *in.Status
	}
	if err := s.dishes.Create(ctx, dish); err != nil {
		return nil, err
	}
	return dish, nil
}

// UpdateDish overwrites the editable fields of a merchant's own dish.
func (s *CatalogService) UpdateDish(ctx context.Context, merchantID, dishID uint, in DishInput) (*models.Dish, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	current, err := s.ownDish(ctx, merchantID, dishID)
	if err != nil {
		return nil, err
	}
	current.Name = in.Name
	current.Category = in.Category
	current.Price = in.Price
	current.Stock = in.Stock
	if in.Status != nil {
		current.Status = *in.Status
	}

	if err := s.dishes.Update(ctx, current); err != nil {
		return nil, dishNotFound(err)
	}
	return current, nil
}

// SetDishStatus lists or delists a merchant's own dish.
func (s *CatalogService) SetDishStatus(ctx context.Context, merchantID, dishID uint, status models.DishStatus) error {
	if !status.Valid() {
		return invalid("Status", "status must be 0 or 1")
	}
	return dishNotFound(s.dishes.SetStatus(ctx, merchantID, dishID, status))
}

// DeleteDish removes a dish from the menu. Order history keeps referring to it.
func (s *CatalogService) DeleteDish(ctx context.Context, merchantID, dishID uint) error {
	return dishNotFound(s.dishes.Delete(ctx, merchantID, dishID))
}

// UploadDishImage stores an image and attaches it to a merchant's own dish,
// replacing the previous one.
func (s *CatalogService) UploadDishImage(ctx context.Context, merchantID, dishID uint, filename string, r io.Reader) (string, error) {
	dish, err := s.ownDish(ctx, merchantID, dishID)
	if err != nil {
		return "", err
	}

	name, err := s.images.Save(ctx, filename, r)
	if errors.Is(err, storage.ErrUnsupportedType) {
		return "", invalid("Image", "image must be a jpg, jpeg, png or gif file")
	}
	if err != nil {
		return "", err
	}

	if err := s.dishes.SetImage(ctx, merchantID, dishID, name); err != nil {
		s.images.Remove(name)
		return "", dishNotFound(err)
	}
	if err := s.images.Remove(dish.Image); err != nil {
		log.Printf("Failed to remove old image %s of dish %d: %v", dish.Image, dishID, err)
	}
	return name, nil
}

func (s *CatalogService) ownDish(ctx context.Context, merchantID, dishID uint) (*models.Dish, error) {
	dish, err := s.dishes.GetByID(ctx, dishID)
	if err != nil {
		return nil, dishNotFound(err)
	}
	if dish.MerchantID != merchantID {
		return nil, ErrDishNotFound
	}
	return dish, nil
}

func dishNotFound(err error) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return ErrDishNotFound
	}
	return err
}
