package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"canteen/internal/events"
	"canteen/internal/models"
	"canteen/internal/repositories"
)

const recentOrders = 3

// ErrNoPickupCode is returned for orders that are not waiting for pickup.
var ErrNoPickupCode = errors.New("pickup code is only available for paid or accepted orders")

// OrderRef identifies one of the acting user's orders by number or ID.
type OrderRef struct {
	OrderNo string `json:"order_no"`
	OrderID uint   `json:"order_id"`
}

func (r OrderRef) lookup(userID uint) (repositories.OrderLookup, error) {
	if r.OrderNo == "" && r.OrderID == 0 {
		return repositories.OrderLookup{}, invalid("order_no", "order_no or order_id is required")
	}
	return repositories.OrderLookup{ID: r.OrderID, OrderNo: r.OrderNo, UserID: userID}, nil
}

// FulfillmentInput is a merchant's request to move an order along.
type FulfillmentInput struct {
	OrderID uint               `json:"order_id" validate:"required"`
	Status  models.OrderStatus `json:"status"`
}

// OrderService handles payment, fulfillment and order queries. Every status
// change locks the order row and is additionally guarded by the expected
// current status in the UPDATE itself.
type OrderService struct {
	store    repositories.Store
	qr       QRGenerator
	recorder Recorder
}

// NewOrderService creates a new OrderService.
func NewOrderService(store repositories.Store, qr QRGenerator, recorder Recorder) *OrderService {
	return &OrderService{
		store:    store,
		qr:       qr,
		recorder: recorderOrNop(recorder),
	}
}

// Pay marks an unpaid order of userID as paid.
func (s *OrderService) Pay(ctx context.Context, userID uint, ref OrderRef) (*models.Order, error) {
	lookup, err := ref.lookup(userID)
	if err != nil {
		return nil, err
	}

	var order *models.Order
	err = s.store.Transaction(ctx, func(tx repositories.Store) error {
		order, err = tx.Orders().GetForUpdate(ctx, lookup)
		if err != nil {
			return orderNotFound(err)
		}
		if err := payable(order); err != nil {
			return err
		}

		now := time.Now()
		if err := s.apply(ctx, tx, order, models.StatusPaid, &now); err != nil {
			if errors.Is(err, ErrIllegalTransition) {
				return fmt.Errorf("%w: order %s is already paid", ErrOrderNotPayable, order.OrderNo)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.recorder.OrderTransition(models.StatusUnpaid.Text(), models.StatusPaid.Text())
	return order, nil
}

// Cancel lets a user withdraw an order that has not been paid yet. The
// reserved stock is returned.
func (s *OrderService) Cancel(ctx context.Context, userID uint, ref OrderRef) (*models.Order, error) {
	lookup, err := ref.lookup(userID)
	if err != nil {
		return nil, err
	}
	return s.transition(ctx, lookup, models.ActorUser, models.StatusCancelled, nil)
}

// UpdateFulfillment applies a merchant's status change to one of its orders.
// Orders of other merchants are reported as missing.
func (s *OrderService) UpdateFulfillment(ctx context.Context, merchantID uint, in FulfillmentInput) (*models.Order, error) {
	if err := validate.Struct(in); err != nil {
		return nil, validationError(err)
	}
	if !in.Status.IsMerchantTarget() {
		return nil, invalid("status", "status must be 2 (accepted), 3 (completed) or 4 (cancelled)")
	}

	owner := func(o *models.Order) error {
		if o.MerchantID != merchantID {
			return ErrNotAuthorized
		}
		return nil
	}
	return s.transition(ctx, repositories.OrderLookup{ID: in.OrderID}, models.ActorMerchant, in.Status, owner)
}

func (s *OrderService) transition(ctx context.Context, lookup repositories.OrderLookup, actor models.Actor, to models.OrderStatus, owner func(*models.Order) error) (*models.Order, error) {
	var (
		order *models.Order
		from  models.OrderStatus
	)
	err := s.store.Transaction(ctx, func(tx repositories.Store) error {
		var err error
		order, err = tx.Orders().GetForUpdate(ctx, lookup)
		if err != nil {
			return orderNotFound(err)
		}
		if owner != nil {
			if err := owner(order); err != nil {
				return err
			}
		}
		from = order.Status
		if !from.CanTransition(to, actor) {
			return &TransitionError{From: from, To: to}
		}
		return s.apply(ctx, tx, order, to, nil)
	})
	if err != nil {
		return nil, err
	}
	s.recorder.OrderTransition(from.Text(), to.Text())
	return order, nil
}

// apply writes a status change checked by the caller, restocks on
// cancellation and queues the matching event. order is updated in place.
func (s *OrderService) apply(ctx context.Context, tx repositories.Store, order *models.Order, to models.OrderStatus, payTime *time.Time) error {
	from := order.Status
	ok, err := tx.Orders().UpdateStatus(ctx, order.ID, from, to, payTime)
	if err != nil {
		return err
	}
	if !ok {
		return &TransitionError{From: from, To: to}
	}
	order.Status = to
	if payTime != nil {
		order.PayTime = payTime
	}

	if to == models.StatusCancelled {
		if err := restock(ctx, tx, order.ID); err != nil {
			return err
		}
	}

	topic := events.TopicOrderStatusChanged
	if to == models.StatusPaid {
		topic = events.TopicOrderPaid
	}
	ev, err := events.NewOutboxEvent(topic, order, &from)
	if err != nil {
		return err
	}
	return tx.Outbox().Insert(ctx, ev)
}

func restock(ctx context.Context, tx repositories.Store, orderID uint) error {
	full, err := tx.Orders().Get(ctx, repositories.OrderLookup{ID: orderID})
	if err != nil {
		return err
	}
	for _, item := range full.Items {
		if err := tx.Dishes().RestoreStock(ctx, item.DishID, item.Quantity); err != nil {
			return err
		}
	}
	return nil
}

func payable(order *models.Order) error {
	switch order.Status {
	case models.StatusUnpaid:
		return nil
	case models.StatusCancelled:
		return fmt.Errorf("%w: order %s has been cancelled", ErrOrderNotPayable, order.OrderNo)
	}
	return fmt.Errorf("%w: order %s is already paid", ErrOrderNotPayable, order.OrderNo)
}

// UserOrders lists the orders of a user, newest first, optionally filtered
// by status.
func (s *OrderService) UserOrders(ctx context.Context, userID uint, status *models.OrderStatus) ([]models.Order, error) {
	return s.store.Orders().List(ctx, repositories.OrderFilter{UserID: userID, Status: status})
}

// RecentOrders returns the latest few orders of a user.
func (s *OrderService) RecentOrders(ctx context.Context, userID uint) ([]models.Order, error) {
	return s.store.Orders().List(ctx, repositories.OrderFilter{UserID: userID, Limit: recentOrders})
}

// UserOrder returns one order of a user with its items.
func (s *OrderService) UserOrder(ctx context.Context, userID uint, orderNo string) (*models.Order, error) {
	order, err := s.store.Orders().Get(ctx, repositories.OrderLookup{OrderNo: orderNo, UserID: userID})
	if err != nil {
		return nil, orderNotFound(err)
	}
	return order, nil
}

// MerchantOrders lists the orders placed with a merchant.
func (s *OrderService) MerchantOrders(ctx context.Context, merchantID uint, status *models.OrderStatus) ([]models.Order, error) {
	return s.store.Orders().List(ctx, repositories.OrderFilter{MerchantID: merchantID, Status: status})
}

// PickupCode renders the QR voucher of an order waiting to be collected.
func (s *OrderService) PickupCode(ctx context.Context, userID uint, orderNo string) ([]byte, error) {
	order, err := s.UserOrder(ctx, userID, orderNo)
	if err != nil {
		return nil, err
	}
	if order.Status != models.StatusPaid && order.Status != models.StatusAccepted {
		return nil, ErrNoPickupCode
	}
	png, err := s.qr.Generate(order.OrderNo)
	if err != nil {
		return nil, fmt.Errorf("failed to render pickup code: %w", err)
	}
	return png, nil
}

func orderNotFound(err error) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return ErrOrderNotFound
	}
	return err
}
