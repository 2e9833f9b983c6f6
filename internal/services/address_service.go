package services

import (
	"context"

	"canteen/internal/models"
	"canteen/internal/repositories"
)

// AddressInput is a new delivery address.
type AddressInput struct {
	Receiver  string `json:"receiver" validate:"required,max=50"`
	Phone     string `json:"phone" validate:"required,max=20"`
	Detail    string `json:"detail" validate:"required,max=200"`
	IsDefault bool   `json:"is_default"`
}

// AddressService manages the saved delivery addresses of users.
type AddressService struct {
	store repositories.Store
}

// NewAddressService creates a new AddressService.
func NewAddressService(store repositories.Store) *AddressService {
	return &AddressService{store: store}
}

// List returns the addresses of a user, default first.
func (s *AddressService) List(ctx context.Context, userID uint) ([]models.Address, error) {
	return s.store.Addresses().ListByUser(ctx, userID)
}

// Create saves an address. A user's first address, or one flagged as
// default, becomes the only default.
func (s *AddressService) Create(ctx context.Context, userID uint, in AddressInput) (*models.Address, error) {
	if err := validate.Struct(in); err != nil {
		return nil, validationError(err)
	}

	addr := &models.Address{
		UserID:    userID,
		Receiver:  in.Receiver,
		Phone:     in.Phone,
		Detail:    in.Detail,
		IsDefault: in.IsDefault,
	}
	err := s.store.Transaction(ctx, func(tx repositories.Store) error {
		existing, err := tx.Addresses().ListByUser(ctx, userID)
		if err != nil {
			return err
		}
		if len(existing) == 0 {
			addr.IsDefault = true
		}
		if addr.IsDefault {
			if err := tx.Addresses().ClearDefault(ctx, userID); err != nil {
				return err
			}
		}
		return tx.Addresses().Create(ctx, addr)
	})
	if err != nil {
		return nil, err
	}
	return addr, nil
}
