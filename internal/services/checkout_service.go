package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"canteen/internal/events"
	"canteen/internal/models"
	"canteen/internal/repositories"
	"canteen/internal/session"
)

const (
	orderNoAttempts = 3
	idempotencyTTL  = 24 * time.Hour
	// pendingTTL bounds how long a key stays claimed by a checkout that
	// never completed.
	pendingTTL = time.Minute

	// MaxLineQuantity caps the quantity of one dish in a cart, after
	// duplicate lines are merged.
	MaxLineQuantity = 999
)

// CartLine is one requested dish.
type CartLine struct {
	DishID   uint `json:"dish_id" validate:"required"`
	Quantity int  `json:"quantity" validate:"required,min=1,max=999"`
}

// CheckoutInput is a cart submitted for one merchant.
type CheckoutInput struct {
	MerchantID   uint                 `json:"merchant_id" validate:"required"`
	DeliveryType *models.DeliveryType `json:"delivery_type" validate:"required,oneof=0 1"`
	DeliveryInfo string               `json:"delivery_info" validate:"required,max=200"`
	PayType      *models.PayType      `json:"pay_type" validate:"required,oneof=0 1"`
	Items        []CartLine           `json:"order_items" validate:"required,min=1,dive"`

	// IdempotencyKey makes retries of the same checkout return the first order.
	IdempotencyKey string `json:"-" validate:"omitempty,max=64"`
}

// CheckoutService turns carts into unpaid orders.
type CheckoutService struct {
	store    repositories.Store
	keys     session.Store
	recorder Recorder
	newNo    func() string
}

// NewCheckoutService creates a new CheckoutService. keys may be nil, which
// disables idempotency keys.
func NewCheckoutService(store repositories.Store, keys session.Store, recorder Recorder) *CheckoutService {
	return &CheckoutService{
		store:    store,
		keys:     keys,
		recorder: recorderOrNop(recorder),
		newNo:    newOrderNo,
	}
}

// Checkout validates the cart against the catalog and stock and creates the
// order, its items, the stock decrements and an order.created event in one
// transaction. Nothing is written when any line fails.
func (s *CheckoutService) Checkout(ctx context.Context, userID uint, in CheckoutInput) (*models.Order, error) {
	order, err := s.checkout(ctx, userID, in)
	s.recorder.CheckoutOutcome(checkoutOutcome(err))
	return order, err
}

func (s *CheckoutService) checkout(ctx context.Context, userID uint, in CheckoutInput) (*models.Order, error) {
	if err := validate.Struct(in); err != nil {
		return nil, validationError(err)
	}
	lines, err := mergeLines(in.Items)
	if err != nil {
		return nil, err
	}

	if in.IdempotencyKey == "" || s.keys == nil {
		return s.commitWithRetry(ctx, userID, in, lines)
	}

	key := fmt.Sprintf("checkout:%d:%s", userID, in.IdempotencyKey)
	claimed, orderNo, err := s.keys.Claim(ctx, key, pendingTTL)
	if err != nil {
		return nil, err
	}
	if !claimed {
		if orderNo == session.Pending {
			return nil, ErrCheckoutInProgress
		}
		order, err := s.store.Orders().Get(ctx, repositories.OrderLookup{OrderNo: orderNo, UserID: userID})
		return order, orderNotFound(err)
	}

	order, err := s.commitWithRetry(ctx, userID, in, lines)
	if err != nil {
		if relErr := s.keys.Release(ctx, key); relErr != nil {
			log.Printf("Failed to release idempotency key %s: %v", key, relErr)
		}
		return nil, err
	}
	if err := s.keys.Complete(ctx, key, order.OrderNo, idempotencyTTL); err != nil {
		log.Printf("Failed to record idempotency key %s: %v", key, err)
	}
	return order, nil
}

func (s *CheckoutService) commitWithRetry(ctx context.Context, userID uint, in CheckoutInput, lines []CartLine) (*models.Order, error) {
	var (
		order *models.Order
		err   error
	)
	for attempt := 1; attempt <= orderNoAttempts; attempt++ {
		order, err = s.commit(ctx, userID, in, lines)
		if !errors.Is(err, repositories.ErrDuplicate) {
			return order, err
		}
		log.Printf("Order number collision on attempt %d, retrying", attempt)
	}
	return nil, fmt.Errorf("failed to allocate an order number: %w", err)
}

func (s *CheckoutService) commit(ctx context.Context, userID uint, in CheckoutInput, lines []CartLine) (*models.Order, error) {
	var order *models.Order

	err := s.store.Transaction(ctx, func(tx repositories.Store) error {
		merchant, err := tx.Merchants().GetByID(ctx, in.MerchantID)
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrMerchantUnavailable
		}
		if err != nil {
			return err
		}
		if merchant.Status != models.MerchantApproved {
			return ErrMerchantUnavailable
		}

		dishes := make([]*models.Dish, len(lines))
		for i, line := range lines {
			dish, err := tx.Dishes().GetByID(ctx, line.DishID)
			if errors.Is(err, repositories.ErrNotFound) {
				return &DishError{DishID: line.DishID, Err: ErrDishUnavailable}
			}
			if err != nil {
				return err
			}
			if dish.MerchantID != merchant.ID || dish.Status != models.DishListed {
				return &DishError{DishID: dish.ID, DishName: dish.Name, Err: ErrDishUnavailable}
			}
			dishes[i] = dish
		}

		for i, line := range lines {
			if dishes[i].Stock < line.Quantity {
				return insufficient(dishes[i], line.Quantity, dishes[i].Stock)
			}
		}

		total := decimal.Zero
		items := make([]models.OrderItem, len(lines))
		for i, line := range lines {
			items[i] = models.OrderItem{
				DishID:   dishes[i].ID,
				DishName: dishes[i].Name,
				Quantity: line.Quantity,
				Price:    dishes[i].Price,
			}
			total = total.Add(items[i].Subtotal())
		}

		order = &models.Order{
			OrderNo:      s.newNo(),
			UserID:       userID,
			MerchantID:   merchant.ID,
			TotalPrice:   total,
			DeliveryType: *in.DeliveryType,
			DeliveryInfo: in.DeliveryInfo,
			PayType:      *in.PayType,
			Status:       models.StatusUnpaid,
			Items:        items,
		}
		if err := tx.Orders().Create(ctx, order); err != nil {
			return err
		}

		// Rows are locked in dish id order so that overlapping carts
		// cannot deadlock each other.
		for _, i := range byDishID(dishes) {
			ok, err := tx.Dishes().DecrementStock(ctx, dishes[i].ID, lines[i].Quantity)
			if err != nil {
				return err
			}
			if !ok {
				available := 0
				if fresh, err := tx.Dishes().GetByID(ctx, dishes[i].ID); err == nil {
					available = fresh.Stock
				}
				return insufficient(dishes[i], lines[i].Quantity, available)
			}
		}

		ev, err := events.NewOutboxEvent(events.TopicOrderCreated, order, nil)
		if err != nil {
			return err
		}
		return tx.Outbox().Insert(ctx, ev)
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func insufficient(dish *models.Dish, requested, available int) *DishError {
	return &DishError{
		DishID:    dish.ID,
		DishName:  dish.Name,
		Requested: requested,
		Available: available,
		Err:       ErrInsufficientStock,
	}
}

// mergeLines sums the quantities of lines that name the same dish, keeping
// the order in which dishes first appear. Every line must already be within
// 1..MaxLineQuantity; a merged sum above MaxLineQuantity is rejected.
func mergeLines(lines []CartLine) ([]CartLine, error) {
	index := make(map[uint]int, len(lines))
	merged := make([]CartLine, 0, len(lines))
	for _, l := range lines {
		if i, ok := index[l.DishID]; ok {
			if merged[i].Quantity > MaxLineQuantity-l.Quantity {
				return nil, invalid("Quantity", fmt.Sprintf("at most %d of dish %d per order", MaxLineQuantity, l.DishID))
			}
			merged[i].Quantity += l.Quantity
			continue
		}
		index[l.DishID] = len(merged)
		merged = append(merged, l)
	}
	return merged, nil
}

// byDishID returns the indexes of dishes sorted by ascending dish id.
func byDishID(dishes []*models.Dish) []int {
	order := make([]int, len(dishes))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool { return dishes[order[a]].ID < dishes[order[b]].ID })
	return order
}

// newOrderNo returns 8 random hex digits followed by the local timestamp.
func newOrderNo() string {
	return uuid.NewString()[:8] + "-" + time.Now().Format("20060102150405")
}

func checkoutOutcome(err error) string {
	if err == nil {
		return "ok"
	}
	_, reason := Classify(err)
	return reason
}
