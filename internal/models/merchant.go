package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// MerchantStatus is the approval state of a merchant registration.
type MerchantStatus int

const (
	MerchantPending  MerchantStatus = 0
	MerchantApproved MerchantStatus = 1
	MerchantRejected MerchantStatus = 2
)

// Text returns the display label of the approval state.
func (s MerchantStatus) Text() string {
	switch s {
	case MerchantPending:
		return "pending"
	case MerchantApproved:
		return "approved"
	case MerchantRejected:
		return "rejected"
	}
	return "unknown"
}

// Merchant is a canteen window or campus shop.
type Merchant struct {
	ID        uint            `json:"id" gorm:"primaryKey"`
	Username  string          `json:"username" gorm:"uniqueIndex;type:varchar(50);not null"`
	Password  string          `json:"-" gorm:"type:varchar(255);not null"`
	Name      string          `json:"name" gorm:"type:varchar(100);not null"`
	Category  string          `json:"category" gorm:"type:varchar(50)"`
	Logo      string          `json:"logo" gorm:"type:varchar(200)"`
	Phone     string          `json:"phone" gorm:"type:varchar(20)"`
	Score     decimal.Decimal `json:"score" gorm:"type:decimal(3,1);not null;default:5.0"`
	Status    MerchantStatus  `json:"status" gorm:"not null;default:0;index"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}
