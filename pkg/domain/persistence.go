package domain

import (
	"context"
	"errors"
	"fmt"
)

// Transaction exposes the domain operations that a persistence implementation
// must support within an atomic scope.
type Transaction interface {
	CreateLead(Lead) (Lead, error)
	UpdateLead(id string, mutator func(*Lead) error) (Lead, error)
	DeleteLead(id string) error
	CreateProperty(Property) (Property, error)
	UpdateProperty(id string, mutator func(*Property) error) (Property, error)
	DeleteProperty(id string) error
	CreateDeal(Deal) (Deal, error)
	UpdateDeal(id string, mutator func(*Deal) error) (Deal, error)
	DeleteDeal(id string) error
	CreateContact(Contact) (Contact, error)
	UpdateContact(id string, mutator func(*Contact) error) (Contact, error)
	DeleteContact(id string) error
	FindLead(id string) (Lead, bool)
	FindProperty(id string) (Property, bool)
	FindDeal(id string) (Deal, bool)
	FindContact(id string) (Contact, bool)
}

// TransactionView provides read-only access to snapshot data for rules and queries.
type TransactionView interface {
	RuleView
}

// PersistentStore is a minimal abstraction over durable backends. It mirrors
// the subset of store capabilities used directly by higher layers. The Change
// slice returned from RunInTransaction reports the committed mutations so
// callers can persist and publish per affected collection.
type PersistentStore interface {
	RunInTransaction(ctx context.Context, fn func(Transaction) error) (Result, []Change, error)
	View(ctx context.Context, fn func(TransactionView) error) error
	GetLead(id string) (Lead, bool)
	ListLeads() []Lead
	GetProperty(id string) (Property, bool)
	ListProperties() []Property
	GetDeal(id string) (Deal, bool)
	ListDeals() []Deal
	GetContact(id string) (Contact, bool)
	ListContacts() []Contact
}

// KeyValueStore is the minimal durable slot abstraction backing a persistent
// store: one slot per collection, whole-value overwrites. Production
// implementations target sqlite/postgres/files; tests use an in-memory map.
type KeyValueStore interface {
	// Get returns the stored value and whether the key exists. A missing key
	// is not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set overwrites the value for key, creating the slot when absent.
	Set(ctx context.Context, key string, value []byte) error
	Close() error
}

// ErrNotFound is returned when a referenced record does not exist.
type ErrNotFound struct {
	Entity EntityType
	ID     string
}

func (e ErrNotFound) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// IsNotFound reports whether err is an ErrNotFound.
func IsNotFound(err error) bool {
	var nf ErrNotFound
	return errors.As(err, &nf)
}
