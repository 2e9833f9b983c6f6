package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DeliveryType is how the customer receives the order.
type DeliveryType int

const (
	DeliveryDineIn DeliveryType = 0
	DeliveryToDoor DeliveryType = 1
)

// Text returns the display label of the delivery type.
func (d DeliveryType) Text() string {
	if d == DeliveryToDoor {
		return "delivery"
	}
	return "dine-in"
}

// PayType is the payment channel chosen at checkout.
type PayType int

const (
	PayCampusCard   PayType = 0
	PayMobileWallet PayType = 1
)

// Text returns the display label of the payment channel.
func (p PayType) Text() string {
	if p == PayMobileWallet {
		return "mobile-wallet"
	}
	return "campus-card"
}

// OrderItem is one line of an order. Price is the unit price at order time and
// never changes afterwards, whatever happens to the dish.
type OrderItem struct {
	ID       uint            `json:"id" gorm:"primaryKey"`
	OrderID  uint            `json:"order_id" gorm:"index;not null"`
	DishID   uint            `json:"dish_id" gorm:"index;not null"`
	DishName string          `json:"dish_name" gorm:"type:varchar(100)"`
	Quantity int             `json:"quantity" gorm:"not null"`
	Price    decimal.Decimal `json:"price" gorm:"type:decimal(8,2);not null"`
}

// Subtotal is Price multiplied by Quantity.
func (i OrderItem) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Order represents a customer order at one merchant.
// Status and PayTime are the only fields that change after creation.
type Order struct {
	ID           uint            `json:"id" gorm:"primaryKey"`
	OrderNo      string          `json:"order_no" gorm:"uniqueIndex;type:varchar(50);not null"`
	UserID       uint            `json:"user_id" gorm:"index;not null"`
	MerchantID   uint            `json:"merchant_id" gorm:"index;not null"`
	TotalPrice   decimal.Decimal `json:"total_price" gorm:"type:decimal(10,2);not null"`
	DeliveryType DeliveryType    `json:"delivery_type" gorm:"not null"`
	DeliveryInfo string          `json:"delivery_info" gorm:"type:varchar(200);not null"`
	PayType      PayType         `json:"pay_type" gorm:"not null"`
	Status       OrderStatus     `json:"status" gorm:"not null;default:0;index"`
	CreatedAt    time.Time       `json:"created_at"`
	PayTime      *time.Time      `json:"pay_time"`
	UpdatedAt    time.Time       `json:"updated_at"`
	Items        []OrderItem     `json:"items" gorm:"foreignKey:OrderID"`
	Merchant     *Merchant       `json:"merchant,omitempty" gorm:"foreignKey:MerchantID"`
	User         *User           `json:"user,omitempty" gorm:"foreignKey:UserID"`
}
