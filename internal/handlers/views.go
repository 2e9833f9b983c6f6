package handlers

import (
	"time"

	"canteen/internal/models"
)

type itemView struct {
	DishID   uint   `json:"dish_id"`
	DishName string `json:"dish_name"`
	Quantity int    `json:"quantity"`
	Price    string `json:"price"`
	Subtotal string `json:"subtotal"`
}

type orderView struct {
	ID           uint       `json:"order_id"`
	OrderNo      string     `json:"order_no"`
	MerchantID   uint       `json:"merchant_id"`
	MerchantName string     `json:"merchant_name,omitempty"`
	UserName     string     `json:"user_name,omitempty"`
	TotalPrice   string     `json:"total_price"`
	Status       int        `json:"status"`
	StatusText   string     `json:"status_text"`
	DeliveryType string     `json:"delivery_type"`
	DeliveryInfo string     `json:"delivery_info"`
	PayType      string     `json:"pay_type"`
	CreatedAt    time.Time  `json:"created_at"`
	PayTime      *time.Time `json:"pay_time"`
	Items        []itemView `json:"items"`
}

func newOrderView(o *models.Order) orderView {
	v := orderView{
		ID:           o.ID,
		OrderNo:      o.OrderNo,
		MerchantID:   o.MerchantID,
		TotalPrice:   o.TotalPrice.StringFixed(2),
		Status:       int(o.Status),
		StatusText:   o.Status.Text(),
		DeliveryType: o.DeliveryType.Text(),
		DeliveryInfo: o.DeliveryInfo,
		PayType:      o.PayType.Text(),
		CreatedAt:    o.CreatedAt,
		PayTime:      o.PayTime,
		Items:        make([]itemView, 0, len(o.Items)),
	}
	if o.Merchant != nil {
		v.MerchantName = o.Merchant.Name
	}
	if o.User != nil {
		v.UserName = o.User.Name
	}
	for _, it := range o.Items {
		v.Items = append(v.Items, itemView{
			DishID:   it.DishID,
			DishName: it.DishName,
			Quantity: it.Quantity,
			Price:    it.Price.StringFixed(2),
			Subtotal: it.Subtotal().StringFixed(2),
		})
	}
	return v
}

func newOrderViews(orders []models.Order) []orderView {
	out := make([]orderView, 0, len(orders))
	for i := range orders {
		out = append(out, newOrderView(&orders[i]))
	}
	return out
}

type dishView struct {
	ID         uint   `json:"id"`
	MerchantID uint   `json:"merchant_id"`
	Name       string `json:"name"`
	Category   string `json:"category"`
	Price      string `json:"price"`
	Stock      int    `json:"stock"`
	Image      string `json:"image,omitempty"`
	Status     int    `json:"status"`
	StatusText string `json:"status_text"`
}

func newDishView(d *models.Dish, imageURL string) dishView {
	v := dishView{
		ID:         d.ID,
		MerchantID: d.MerchantID,
		Name:       d.Name,
		Category:   d.Category,
		Price:      d.Price.StringFixed(2),
		Stock:      d.Stock,
		Status:     int(d.Status),
		StatusText: d.Status.Text(),
	}
	if d.Image != "" {
		v.Image = imageURL + "/" + d.Image
	}
	return v
}

type merchantView struct {
	ID       uint   `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
	Logo     string `json:"logo,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Score    string `json:"score"`
	Status   string `json:"status"`
}

func newMerchantView(m *models.Merchant) merchantView {
	return merchantView{
		ID:       m.ID,
		Name:     m.Name,
		Category: m.Category,
		Logo:     m.Logo,
		Phone:    m.Phone,
		Score:    m.Score.StringFixed(1),
		Status:   m.Status.Text(),
	}
}

func newMerchantViews(ms []models.Merchant) []merchantView {
	out := make([]merchantView, 0, len(ms))
	for i := range ms {
		out = append(out, newMerchantView(&ms[i]))
	}
	return out
}
