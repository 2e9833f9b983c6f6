package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DishStatus is the listing state of a dish.
type DishStatus int

const (
	DishDelisted DishStatus = 0
	DishListed   DishStatus = 1
)

// Valid reports whether s is a known listing state.
func (s DishStatus) Valid() bool {
	return s == DishDelisted || s == DishListed
}

// Text returns the display label of the listing state.
func (s DishStatus) Text() string {
	if s == DishListed {
		return "listed"
	}
	return "delisted"
}

// Dish is a menu entry sold by exactly one merchant.
// Deleted dishes are soft-deleted so historical order items keep resolving.
type Dish struct {
	ID         uint            `json:"id" gorm:"primaryKey"`
	MerchantID uint            `json:"merchant_id" gorm:"index;not null"`
	Name       string          `json:"name" gorm:"type:varchar(100);not null"`
	Category   string          `json:"category" gorm:"type:varchar(50)"`
	Price      decimal.Decimal `json:"price" gorm:"type:decimal(8,2);not null"`
	Stock      int             `json:"stock" gorm:"not null;default:0;check:stock >= 0"`
	Image      string          `json:"image" gorm:"type:varchar(200)"`
	Status     DishStatus      `json:"status" gorm:"not null"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
	DeletedAt  gorm.DeletedAt  `json:"-" gorm:"index"`
}
