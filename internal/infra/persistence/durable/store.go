// Package durable wraps the in-memory store with slot-per-collection
// persistence over a KeyValueStore. After every committed transaction the
// affected collections are rewritten whole to their slots; on startup the
// slots are loaded back, treating missing or corrupt slots as empty
// collections. Whole-collection overwrites are the accepted scalability
// ceiling for local single-user data.
package durable

import (
	"context"
	"encoding/json"
	"fmt"

	"creocore/internal/infra/persistence/memory"
	"creocore/pkg/domain"
)

// Slot keys, one per collection. The creo_ prefix is carried over from the
// dashboard's original storage layout so existing data keeps loading.
const (
	SlotLeads      = "creo_leads"
	SlotProperties = "creo_properties"
	SlotDeals      = "creo_deals"
	SlotContacts   = "creo_contacts"
)

var slotForEntity = map[domain.EntityType]string{
	domain.EntityLead:     SlotLeads,
	domain.EntityProperty: SlotProperties,
	domain.EntityDeal:     SlotDeals,
	domain.EntityContact:  SlotContacts,
}

// Compile-time contract assertion.
var _ domain.PersistentStore = (*Store)(nil)

// Logger is the subset of logging the durable store needs.
type Logger interface {
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Warn(string, ...any) {}

// Store persists the in-memory state through a key-value backend.
type Store struct {
	*memory.Store
	kv     domain.KeyValueStore
	logger Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used to report recoverable load conditions.
func WithLogger(logger Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New constructs a durable store over kv and hydrates it from existing slots.
// A corrupt slot is logged and treated as an empty collection; it is not an
// error and does not block startup.
func New(ctx context.Context, kv domain.KeyValueStore, engine *domain.RulesEngine, opts ...Option) (*Store, error) {
	s := &Store{
		Store:  memory.NewStore(engine),
		kv:     kv,
		logger: noopLogger{},
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.load(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func loadSlot[T any](ctx context.Context, s *Store, slot string) []T {
	payload, ok, err := s.kv.Get(ctx, slot)
	if err != nil {
		s.logger.Warn("durable: slot unreadable, starting empty", "slot", slot, "error", err.Error())
		return nil
	}
	if !ok || len(payload) == 0 {
		return nil
	}
	var out []T
	if err := json.Unmarshal(payload, &out); err != nil {
		s.logger.Warn("durable: slot corrupt, starting empty", "slot", slot, "error", err.Error())
		return nil
	}
	return out
}

func (s *Store) load(ctx context.Context) error {
	snapshot := memory.Snapshot{
		Leads:      loadSlot[domain.Lead](ctx, s, SlotLeads),
		Properties: loadSlot[domain.Property](ctx, s, SlotProperties),
		Deals:      loadSlot[domain.Deal](ctx, s, SlotDeals),
		Contacts:   loadSlot[domain.Contact](ctx, s, SlotContacts),
	}
	s.ImportState(snapshot)
	return nil
}

// RunInTransaction applies fn in memory, then rewrites the slot of every
// collection the transaction touched. One committed mutation produces exactly
// one durable write per affected collection.
func (s *Store) RunInTransaction(ctx context.Context, fn func(domain.Transaction) error) (domain.Result, []domain.Change, error) {
	res, changes, err := s.Store.RunInTransaction(ctx, fn)
	if err != nil {
		return res, changes, err
	}
	if err := s.persist(ctx, changes); err != nil {
		return res, changes, err
	}
	return res, changes, nil
}

func (s *Store) persist(ctx context.Context, changes []domain.Change) error {
	touched := make(map[domain.EntityType]struct{}, len(changes))
	for _, change := range changes {
		touched[change.Entity] = struct{}{}
	}
	for entity := range slotForEntity {
		if _, ok := touched[entity]; !ok {
			continue
		}
		if err := s.persistSlot(ctx, entity); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) persistSlot(ctx context.Context, entity domain.EntityType) error {
	slot := slotForEntity[entity]
	var (
		data []byte
		err  error
	)
	switch entity {
	case domain.EntityLead:
		data, err = json.Marshal(s.ListLeads())
	case domain.EntityProperty:
		data, err = json.Marshal(s.ListProperties())
	case domain.EntityDeal:
		data, err = json.Marshal(s.ListDeals())
	case domain.EntityContact:
		data, err = json.Marshal(s.ListContacts())
	default:
		return fmt.Errorf("unknown entity %s", entity)
	}
	if err != nil {
		return fmt.Errorf("encode %s: %w", slot, err)
	}
	if err := s.kv.Set(ctx, slot, data); err != nil {
		return fmt.Errorf("write %s: %w", slot, err)
	}
	return nil
}

// Flush rewrites every collection slot regardless of pending changes. Used by
// import tooling after bulk loads.
func (s *Store) Flush(ctx context.Context) error {
	for entity := range slotForEntity {
		if err := s.persistSlot(ctx, entity); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the underlying key-value backend.
func (s *Store) Close() error { return s.kv.Close() }
