package repositories

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("record not found")

// ErrDuplicate is returned when a unique constraint rejects a write.
var ErrDuplicate = errors.New("duplicate record")

// Store groups the repositories that share one database handle. Inside
// Transaction every repository obtained from tx runs on the same transaction.
type Store interface {
	Users() UserRepository
	Admins() AdminRepository
	Addresses() AddressRepository
	Merchants() MerchantRepository
	Dishes() DishRepository
	Orders() OrderRepository
	Outbox() OutboxRepository
	Transaction(ctx context.Context, fn func(tx Store) error) error
}

// GORMStore is the GORM implementation of Store.
type GORMStore struct {
	db *gorm.DB
}

// NewGORMStore creates a new GORMStore.
func NewGORMStore(db *gorm.DB) *GORMStore {
	return &GORMStore{db: db}
}

func (s *GORMStore) Users() UserRepository         { return NewGORMUserRepository(s.db) }
func (s *GORMStore) Admins() AdminRepository       { return NewGORMAdminRepository(s.db) }
func (s *GORMStore) Addresses() AddressRepository  { return NewGORMAddressRepository(s.db) }
func (s *GORMStore) Merchants() MerchantRepository { return NewGORMMerchantRepository(s.db) }
func (s *GORMStore) Dishes() DishRepository        { return NewGORMDishRepository(s.db) }
func (s *GORMStore) Orders() OrderRepository       { return NewGORMOrderRepository(s.db) }
func (s *GORMStore) Outbox() OutboxRepository      { return NewGORMOutboxRepository(s.db) }

// Transaction runs fn in a database transaction. Returning an error from fn
// rolls back every write made through tx.
func (s *GORMStore) Transaction(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GORMStore{db: tx})
	})
}

// translate maps gorm sentinel errors onto repository errors.
func translate(err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	}
	return err
}
