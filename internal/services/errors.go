package services

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"canteen/internal/models"
)

var (
	ErrValidation          = errors.New("validation failed")
	ErrMerchantUnavailable = errors.New("merchant unavailable")
	ErrDishUnavailable     = errors.New("dish unavailable")
	ErrInsufficientStock   = errors.New("insufficient stock")
	ErrOrderNotFound       = errors.New("order not found")
	ErrNotAuthorized       = errors.New("not authorized for this order")
	ErrOrderNotPayable     = errors.New("order is not payable")
	ErrIllegalTransition   = errors.New("illegal status transition")
	ErrCheckoutInProgress  = errors.New("checkout with this idempotency key is in progress")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrUsernameTaken       = errors.New("username already taken")
	ErrMerchantPending     = errors.New("merchant registration is awaiting approval")
	ErrMerchantRejected    = errors.New("merchant registration was rejected")
	ErrMerchantNotPending  = errors.New("merchant is not awaiting approval")
	ErrDishNotFound        = errors.New("dish not found")
	ErrUnauthenticated     = errors.New("not logged in")
)

// ValidationError carries per-field messages for a rejected input.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// invalid builds a ValidationError for a single field.
func invalid(field, msg string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: msg}}
}

// validationError converts validator output into a ValidationError.
func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	fields := make(map[string]string, len(verrs))
	for _, e := range verrs {
		fields[e.Field()] = fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag())
	}
	return &ValidationError{Fields: fields}
}

// DishError names the dish that made a checkout fail.
type DishError struct {
	DishID    uint
	DishName  string
	Requested int
	Available int
	Err       error
}

func (e *DishError) Error() string {
	name := e.DishName
	if name == "" {
		name = fmt.Sprintf("#%d", e.DishID)
	}
	if errors.Is(e.Err, ErrInsufficientStock) {
		return fmt.Sprintf("%s: insufficient stock (requested %d, available %d)", name, e.Requested, e.Available)
	}
	return fmt.Sprintf("%s: %v", name, e.Err)
}

func (e *DishError) Unwrap() error { return e.Err }

// TransitionError names both ends of a rejected status change.
type TransitionError struct {
	From models.OrderStatus
	To   models.OrderStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot change order status from %s to %s", e.From, e.To)
}

func (e *TransitionError) Unwrap() error { return ErrIllegalTransition }

// Kind is the client-facing error category.
type Kind string

const (
	KindValidation      Kind = "validation"
	KindNotFound        Kind = "not_found_or_unauthorized"
	KindConflict        Kind = "conflict"
	KindUnauthenticated Kind = "unauthenticated"
	KindInternal        Kind = "internal"
)

var classes = []struct {
	err    error
	kind   Kind
	reason string
}{
	{ErrValidation, KindValidation, "invalid_input"},
	{ErrMerchantUnavailable, KindNotFound, "merchant_unavailable"},
	{ErrDishUnavailable, KindNotFound, "dish_unavailable"},
	{ErrDishNotFound, KindNotFound, "dish_not_found"},
	{ErrOrderNotFound, KindNotFound, "order_not_found"},
	{ErrNotAuthorized, KindNotFound, "order_not_found"},
	{ErrInsufficientStock, KindConflict, "insufficient_stock"},
	{ErrOrderNotPayable, KindConflict, "order_not_payable"},
	{ErrIllegalTransition, KindConflict, "illegal_transition"},
	{ErrCheckoutInProgress, KindConflict, "checkout_in_progress"},
	{ErrUsernameTaken, KindConflict, "username_taken"},
	{ErrMerchantNotPending, KindConflict, "merchant_not_pending"},
	{ErrNoPickupCode, KindConflict, "no_pickup_code"},
	{ErrInvalidCredentials, KindUnauthenticated, "invalid_credentials"},
	{ErrMerchantPending, KindUnauthenticated, "merchant_pending"},
	{ErrMerchantRejected, KindUnauthenticated, "merchant_rejected"},
	{ErrUnauthenticated, KindUnauthenticated, "unauthenticated"},
}

// Classify maps an error returned by this package onto its Kind and a
// snake_case reason code. Unknown errors are internal.
func Classify(err error) (Kind, string) {
	for _, c := range classes {
		if errors.Is(err, c.err) {
			return c.kind, c.reason
		}
	}
	return KindInternal, "internal_error"
}

// PublicMessage is the message safe to show to a client for err. Ownership
// failures read exactly like missing orders.
func PublicMessage(err error) string {
	switch kind, _ := Classify(err); {
	case kind == KindInternal:
		return "internal error"
	case errors.Is(err, ErrNotAuthorized), errors.Is(err, ErrOrderNotFound):
		return ErrOrderNotFound.Error()
	}
	return err.Error()
}
