package services

import (
	"context"

	"canteen/internal/models"
	"canteen/internal/repositories"
)

// AuditInput is an administrator's decision on a pending merchant.
type AuditInput struct {
	MerchantID uint                  `json:"merchant_id" validate:"required"`
	Status     models.MerchantStatus `json:"status" validate:"oneof=1 2"`
}

// AuditService lets administrators vet merchant registrations.
type AuditService struct {
	merchants repositories.MerchantRepository
}

// NewAuditService creates a new AuditService.
func NewAuditService(merchants repositories.MerchantRepository) *AuditService {
	return &AuditService{merchants: merchants}
}

// Pending lists merchants awaiting a decision.
func (s *AuditService) Pending(ctx context.Context) ([]models.Merchant, error) {
	return s.merchants.ListByStatus(ctx, models.MerchantPending)
}

// Audit approves or rejects a pending merchant. Decided merchants cannot be
// audited again.
func (s *AuditService) Audit(ctx context.Context, in AuditInput) error {
	if err := validate.Struct(in); err != nil {
		return validationError(err)
	}

	ok, err := s.merchants.UpdateStatus(ctx, in.MerchantID, models.MerchantPending, in.Status)
	if err != nil {
		return err
	}
	if !ok {
		return ErrMerchantNotPending
	}
	return nil
}
