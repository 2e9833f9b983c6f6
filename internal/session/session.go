// Package session keeps login sessions and checkout idempotency keys in a
// TTL-bound key/value backend.
package session

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a session is missing or expired.
var ErrNotFound = errors.New("session not found")

// Kind is the type of account behind a session.
type Kind string

const (
	KindUser     Kind = "user"
	KindMerchant Kind = "merchant"
	KindAdmin    Kind = "admin"
)

// Valid reports whether k is a known account kind.
func (k Kind) Valid() bool {
	return k == KindUser || k == KindMerchant || k == KindAdmin
}

// Principal is the authenticated account of a request.
type Principal struct {
	Kind Kind   `json:"kind"`
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

// Pending is the value of an idempotency key whose request is still running.
const Pending = "pending"

// Store persists sessions and idempotency keys.
type Store interface {
	Save(ctx context.Context, id string, p Principal, ttl time.Duration) error
	Get(ctx context.Context, id string) (Principal, error)
	Delete(ctx context.Context, id string) error

	// Claim reserves key with the value Pending. When the key already exists
	// nothing is written and its current value is returned with false.
	Claim(ctx context.Context, key string, ttl time.Duration) (bool, string, error)
	// Complete overwrites a claimed key with the final result.
	Complete(ctx context.Context, key, value string, ttl time.Duration) error
	// Release drops a claim so the request can be retried.
	Release(ctx context.Context, key string) error
}

func sessionKey(id string) string {
	return "session:" + id
}
