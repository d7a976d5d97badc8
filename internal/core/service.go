package core

import (
	"context"
	"errors"
	"time"

	"creocore/internal/infra/persistence/memory"
	"creocore/pkg/domain"
	"creocore/pkg/eventbus"
)

// Service exposes the unified entity data layer: validated CRUD per
// collection, derived queries, and the lead-to-deal conversion workflow.
// Every committed mutation produces exactly one durable write and one event
// publication per affected collection; blocked or failed mutations produce
// neither.
type Service struct {
	store   domain.PersistentStore
	bus     *eventbus.Bus
	logger  Logger
	metrics MetricsRecorder
	tracer  Tracer
	audit   AuditRecorder
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the structured logger.
func WithLogger(logger Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetricsRecorder sets the metrics sink for operation outcomes.
func WithMetricsRecorder(metrics MetricsRecorder) Option {
	return func(s *Service) {
		if metrics != nil {
			s.metrics = metrics
		}
	}
}

// WithTracer sets the tracer wrapping each operation in a span.
func WithTracer(tracer Tracer) Option {
	return func(s *Service) {
		if tracer != nil {
			s.tracer = tracer
		}
	}
}

// WithAuditRecorder sets the audit trail sink.
func WithAuditRecorder(audit AuditRecorder) Option {
	return func(s *Service) {
		if audit != nil {
			s.audit = audit
		}
	}
}

// NewService constructs a service backed by the supplied store and bus. The
// service holds no global state; tests construct isolated instances per case.
func NewService(store domain.PersistentStore, bus *eventbus.Bus, opts ...Option) *Service {
	if bus == nil {
		bus = eventbus.New()
	}
	s := &Service{
		store:   store,
		bus:     bus,
		logger:  noopLogger{},
		metrics: noopMetrics{},
		tracer:  noopTracer{},
		audit:   noopAudit{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewInMemoryService creates a service over a fresh in-memory store with the
// given rules engine. Intended for tests and ephemeral runs.
func NewInMemoryService(engine *domain.RulesEngine, opts ...Option) *Service {
	return NewService(memory.NewStore(engine), nil, opts...)
}

// Store returns the underlying persistent store.
func (s *Service) Store() domain.PersistentStore { return s.store }

// Bus returns the event bus mutations publish on.
func (s *Service) Bus() *eventbus.Bus { return s.bus }

// instrument opens a span and returns the closer that records the operation's
// metrics, audit entry, and log line.
func (s *Service) instrument(ctx context.Context, op string, entity domain.EntityType) func(entityID string, err error) {
	started := time.Now()
	ctx, span := s.tracer.Start(ctx, op)
	return func(entityID string, err error) {
		span.End(err)
		s.metrics.Observe(ctx, op, err == nil, time.Since(started))
		status := AuditStatusSuccess
		detail := ""
		var violation domain.RuleViolationError
		switch {
		case err == nil:
		case errors.As(err, &violation):
			status = AuditStatusBlocked
			detail = err.Error()
		default:
			status = AuditStatusError
			detail = err.Error()
		}
		s.audit.Record(ctx, AuditEntry{
			Operation:  op,
			Status:     status,
			Entity:     entity,
			EntityID:   entityID,
			Detail:     detail,
			OccurredAt: time.Now().UTC(),
		})
		if err != nil {
			s.logger.Warn("operation failed", "operation", op, "entity_id", entityID, "error", err.Error())
			return
		}
		s.logger.Debug("operation committed", "operation", op, "entity_id", entityID)
	}
}

// publish emits one change event per collection touched by the committed
// transaction, carrying the full updated collection.
func (s *Service) publish(changes []domain.Change) {
	touched := make(map[domain.EntityType]struct{}, len(changes))
	for _, change := range changes {
		if _, seen := touched[change.Entity]; seen {
			continue
		}
		touched[change.Entity] = struct{}{}
		switch change.Entity {
		case domain.EntityLead:
			s.bus.Publish(eventbus.LeadsChanged{Leads: s.store.ListLeads()})
		case domain.EntityProperty:
			s.bus.Publish(eventbus.PropertiesChanged{Properties: s.store.ListProperties()})
		case domain.EntityDeal:
			s.bus.Publish(eventbus.DealsChanged{Deals: s.store.ListDeals()})
		case domain.EntityContact:
			s.bus.Publish(eventbus.ContactsChanged{Contacts: s.store.ListContacts()})
		}
	}
}

// Leads -----------------------------------------------------------------------

// AddLead validates and inserts a new lead. The status defaults to new and
// the returned record carries the assigned identifier and timestamps.
func (s *Service) AddLead(ctx context.Context, lead Lead) (Lead, Result, error) {
	done := s.instrument(ctx, "add_lead", domain.EntityLead)
	var created Lead
	res, changes, err := s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		var err error
		created, err = tx.CreateLead(lead)
		return err
	})
	done(created.ID, err)
	if err != nil {
		return Lead{}, res, err
	}
	s.publish(changes)
	return created, res, nil
}

// UpdateLead merges patch onto the stored lead. It returns nil (and no error)
// when the id does not exist. A patch that would move a terminal lead to
// another status is rejected whole with a RuleViolationError.
func (s *Service) UpdateLead(ctx context.Context, id string, patch domain.LeadPatch) (*Lead, Result, error) {
	done := s.instrument(ctx, "update_lead", domain.EntityLead)
	var updated Lead
	res, changes, err := s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		var err error
		updated, err = tx.UpdateLead(id, func(l *Lead) error {
			patch.Apply(l)
			return nil
		})
		return err
	})
	if domain.IsNotFound(err) {
		done(id, nil)
		return nil, res, nil
	}
	done(id, err)
	if err != nil {
		return nil, res, err
	}
	s.publish(changes)
	return &updated, res, nil
}

// DeleteLead removes a lead permanently. Deleting an absent id is a no-op
// reported via the boolean.
func (s *Service) DeleteLead(ctx context.Context, id string) (bool, Result, error) {
	done := s.instrument(ctx, "delete_lead", domain.EntityLead)
	res, changes, err := s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		return tx.DeleteLead(id)
	})
	if domain.IsNotFound(err) {
		done(id, nil)
		return false, res, nil
	}
	done(id, err)
	if err != nil {
		return false, res, err
	}
	s.publish(changes)
	return true, res, nil
}

// GetLead retrieves a lead by id from committed state.
func (s *Service) GetLead(id string) (Lead, bool) { return s.store.GetLead(id) }

// ListLeads returns all leads in insertion order.
func (s *Service) ListLeads() []Lead { return s.store.ListLeads() }

// Properties ------------------------------------------------------------------

// AddProperty validates and inserts a new property listing.
func (s *Service) AddProperty(ctx context.Context, property Property) (Property, Result, error) {
	done := s.instrument(ctx, "add_property", domain.EntityProperty)
	var created Property
	res, changes, err := s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		var err error
		created, err = tx.CreateProperty(property)
		return err
	})
	done(created.ID, err)
	if err != nil {
		return Property{}, res, err
	}
	s.publish(changes)
	return created, res, nil
}

// UpdateProperty merges patch onto the stored property; nil when id is absent.
func (s *Service) UpdateProperty(ctx context.Context, id string, patch domain.PropertyPatch) (*Property, Result, error) {
	done := s.instrument(ctx, "update_property", domain.EntityProperty)
	var updated Property
	res, changes, err := s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		var err error
		updated, err = tx.UpdateProperty(id, func(p *Property) error {
			patch.Apply(p)
			return nil
		})
		return err
	})
	if domain.IsNotFound(err) {
		done(id, nil)
		return nil, res, nil
	}
	done(id, err)
	if err != nil {
		return nil, res, err
	}
	s.publish(changes)
	return &updated, res, nil
}

// DeleteProperty removes a property; false when id is absent.
func (s *Service) DeleteProperty(ctx context.Context, id string) (bool, Result, error) {
	done := s.instrument(ctx, "delete_property", domain.EntityProperty)
	res, changes, err := s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		return tx.DeleteProperty(id)
	})
	if domain.IsNotFound(err) {
		done(id, nil)
		return false, res, nil
	}
	done(id, err)
	if err != nil {
		return false, res, err
	}
	s.publish(changes)
	return true, res, nil
}

// GetProperty retrieves a property by id from committed state.
func (s *Service) GetProperty(id string) (Property, bool) { return s.store.GetProperty(id) }

// ListProperties returns all properties in insertion order.
func (s *Service) ListProperties() []Property { return s.store.ListProperties() }

// Deals -----------------------------------------------------------------------

// AddDeal validates and inserts a new deal. The stage defaults to open.
func (s *Service) AddDeal(ctx context.Context, deal Deal) (Deal, Result, error) {
	done := s.instrument(ctx, "add_deal", domain.EntityDeal)
	var created Deal
	res, changes, err := s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		var err error
		created, err = tx.CreateDeal(deal)
		return err
	})
	done(created.ID, err)
	if err != nil {
		return Deal{}, res, err
	}
	s.publish(changes)
	return created, res, nil
}

// UpdateDeal merges patch onto the stored deal; nil when id is absent.
func (s *Service) UpdateDeal(ctx context.Context, id string, patch domain.DealPatch) (*Deal, Result, error) {
	done := s.instrument(ctx, "update_deal", domain.EntityDeal)
	var updated Deal
	res, changes, err := s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		var err error
		updated, err = tx.UpdateDeal(id, func(d *Deal) error {
			patch.Apply(d)
			return nil
		})
		return err
	})
	if domain.IsNotFound(err) {
		done(id, nil)
		return nil, res, nil
	}
	done(id, err)
	if err != nil {
		return nil, res, err
	}
	s.publish(changes)
	return &updated, res, nil
}

// DeleteDeal removes a deal; false when id is absent.
func (s *Service) DeleteDeal(ctx context.Context, id string) (bool, Result, error) {
	done := s.instrument(ctx, "delete_deal", domain.EntityDeal)
	res, changes, err := s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		return tx.DeleteDeal(id)
	})
	if domain.IsNotFound(err) {
		done(id, nil)
		return false, res, nil
	}
	done(id, err)
	if err != nil {
		return false, res, err
	}
	s.publish(changes)
	return true, res, nil
}

// GetDeal retrieves a deal by id from committed state.
func (s *Service) GetDeal(id string) (Deal, bool) { return s.store.GetDeal(id) }

// ListDeals returns all deals in insertion order.
func (s *Service) ListDeals() []Deal { return s.store.ListDeals() }

// Contacts --------------------------------------------------------------------

// AddContact validates and inserts a new contact.
func (s *Service) AddContact(ctx context.Context, contact Contact) (Contact, Result, error) {
	done := s.instrument(ctx, "add_contact", domain.EntityContact)
	var created Contact
	res, changes, err := s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		var err error
		created, err = tx.CreateContact(contact)
		return err
	})
	done(created.ID, err)
	if err != nil {
		return Contact{}, res, err
	}
	s.publish(changes)
	return created, res, nil
}

// UpdateContact merges patch onto the stored contact; nil when id is absent.
func (s *Service) UpdateContact(ctx context.Context, id string, patch domain.ContactPatch) (*Contact, Result, error) {
	done := s.instrument(ctx, "update_contact", domain.EntityContact)
	var updated Contact
	res, changes, err := s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		var err error
		updated, err = tx.UpdateContact(id, func(c *Contact) error {
			patch.Apply(c)
			return nil
		})
		return err
	})
	if domain.IsNotFound(err) {
		done(id, nil)
		return nil, res, nil
	}
	done(id, err)
	if err != nil {
		return nil, res, err
	}
	s.publish(changes)
	return &updated, res, nil
}

// DeleteContact removes a contact; false when id is absent.
func (s *Service) DeleteContact(ctx context.Context, id string) (bool, Result, error) {
	done := s.instrument(ctx, "delete_contact", domain.EntityContact)
	res, changes, err := s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		return tx.DeleteContact(id)
	})
	if domain.IsNotFound(err) {
		done(id, nil)
		return false, res, nil
	}
	done(id, err)
	if err != nil {
		return false, res, err
	}
	s.publish(changes)
	return true, res, nil
}

// GetContact retrieves a contact by id from committed state.
func (s *Service) GetContact(id string) (Contact, bool) { return s.store.GetContact(id) }

// ListContacts returns all contacts in insertion order.
func (s *Service) ListContacts() []Contact { return s.store.ListContacts() }
