package models

import "fmt"

// OrderStatus is the lifecycle state of an order.
type OrderStatus int

const (
	StatusUnpaid    OrderStatus = 0
	StatusPaid      OrderStatus = 1
	StatusAccepted  OrderStatus = 2
	StatusCompleted OrderStatus = 3
	StatusCancelled OrderStatus = 4
)

// Actor is the kind of principal allowed to take a transition.
type Actor int

const (
	ActorUser Actor = iota
	ActorMerchant
)

// transitions is the only place legal order status changes are declared.
// Anything absent is illegal; completed and cancelled have no way out.
var transitions = map[OrderStatus]map[OrderStatus]Actor{
	StatusUnpaid: {
		StatusPaid:      ActorUser,
		StatusCancelled: ActorUser,
	},
	StatusPaid: {
		StatusAccepted:  ActorMerchant,
		StatusCancelled: ActorMerchant,
	},
	StatusAccepted: {
		StatusCompleted: ActorMerchant,
		StatusCancelled: ActorMerchant,
	},
}

var statusText = map[OrderStatus]string{
	StatusUnpaid:    "unpaid",
	StatusPaid:      "paid",
	StatusAccepted:  "accepted",
	StatusCompleted: "completed",
	StatusCancelled: "cancelled",
}

// AllStatuses lists every order status in lifecycle order.
func AllStatuses() []OrderStatus {
	return []OrderStatus{StatusUnpaid, StatusPaid, StatusAccepted, StatusCompleted, StatusCancelled}
}

// Valid reports whether s is a known status.
func (s OrderStatus) Valid() bool {
	_, ok := statusText[s]
	return ok
}

// Text returns the display label of the status.
func (s OrderStatus) Text() string {
	if t, ok := statusText[s]; ok {
		return t
	}
	return "unknown"
}

func (s OrderStatus) String() string {
	return s.Text()
}

// CanTransition reports whether actor may move an order from s to next.
func (s OrderStatus) CanTransition(next OrderStatus, actor Actor) bool {
	allowed, ok := transitions[s][next]
	return ok && allowed == actor
}

// Terminal reports whether no transition leaves s.
func (s OrderStatus) Terminal() bool {
	return len(transitions[s]) == 0
}

// IsMerchantTarget reports whether s is a status a merchant may request.
func (s OrderStatus) IsMerchantTarget() bool {
	return s == StatusAccepted || s == StatusCompleted || s == StatusCancelled
}

// ParseOrderStatus converts a wire value into an OrderStatus.
func ParseOrderStatus(v int) (OrderStatus, error) {
	s := OrderStatus(v)
	if !s.Valid() {
		return 0, fmt.Errorf("unknown order status %d", v)
	}
	return s, nil
}
