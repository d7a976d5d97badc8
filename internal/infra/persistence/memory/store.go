// Package memory provides the in-memory transactional store that backs every
// persistence driver. It is also used directly for tests and ephemeral runs.
package memory

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"creocore/pkg/domain"
)

// Compile-time contract assertion ensuring memory.Store adheres to the domain persistence interface.
var _ domain.PersistentStore = (*Store)(nil)

type (
	// Lead aliases domain.Lead for in-memory persistence operations.
	Lead = domain.Lead
	// Property aliases domain.Property.
	Property = domain.Property
	// Deal aliases domain.Deal.
	Deal = domain.Deal
	// Contact aliases domain.Contact.
	Contact = domain.Contact
	// Change aliases domain.Change captured in transactions.
	Change = domain.Change
	// Result aliases domain.Result summarizing rule evaluation.
	Result = domain.Result
	// RulesEngine aliases domain.RulesEngine used to evaluate rules.
	RulesEngine = domain.RulesEngine
	// Transaction aliases domain.Transaction representing a mutable unit of work.
	Transaction = domain.Transaction
	// TransactionView aliases domain.TransactionView providing read-only state.
	TransactionView = domain.TransactionView
)

type memoryState struct {
	leads         map[string]Lead
	leadOrder     []string
	properties    map[string]Property
	propertyOrder []string
	deals         map[string]Deal
	dealOrder     []string
	contacts      map[string]Contact
	contactOrder  []string
}

// Snapshot is the serialisable representation of the in-memory state. Each
// collection is a JSON array in insertion order, matching the durable slot
// layout one-for-one.
type Snapshot struct {
	Leads      []Lead     `json:"leads"`
	Properties []Property `json:"properties"`
	Deals      []Deal     `json:"deals"`
	Contacts   []Contact  `json:"contacts"`
}

func newMemoryState() memoryState {
	return memoryState{
		leads:      make(map[string]Lead),
		properties: make(map[string]Property),
		deals:      make(map[string]Deal),
		contacts:   make(map[string]Contact),
	}
}

func (s memoryState) clone() memoryState {
	cloned := newMemoryState()
	for k, v := range s.leads {
		cloned.leads[k] = v.Clone()
	}
	for k, v := range s.properties {
		cloned.properties[k] = v.Clone()
	}
	for k, v := range s.deals {
		cloned.deals[k] = v.Clone()
	}
	for k, v := range s.contacts {
		cloned.contacts[k] = v.Clone()
	}
	cloned.leadOrder = append([]string(nil), s.leadOrder...)
	cloned.propertyOrder = append([]string(nil), s.propertyOrder...)
	cloned.dealOrder = append([]string(nil), s.dealOrder...)
	cloned.contactOrder = append([]string(nil), s.contactOrder...)
	return cloned
}

func removeID(order []string, id string) []string {
	for i, v := range order {
		if v == id {
			return append(order[:i:i], order[i+1:]...)
		}
	}
	return order
}

// Store provides an in-memory transactional store for the creocore domain.
type Store struct {
	mu     sync.RWMutex
	state  memoryState
	engine *RulesEngine
	nowFn  func() time.Time
}

// NewStore constructs an in-memory store backed by the provided rules engine.
func NewStore(engine *RulesEngine) *Store {
	if engine == nil {
		engine = domain.NewRulesEngine()
	}
	return &Store{
		state:  newMemoryState(),
		engine: engine,
		nowFn:  func() time.Time { return time.Now().UTC() },
	}
}

// SetNowFunc overrides the clock used for creation and update timestamps.
// Intended for tests that need deterministic times.
func (s *Store) SetNowFunc(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if now != nil {
		s.nowFn = now
	}
}

func (s *Store) newID() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic(err)
	}
	return hex.EncodeToString(b[:])
}

// Tx represents a mutation set applied to the store state.
type Tx struct {
	store   *Store
	state   memoryState
	changes []Change
	now     domain.Time
}

var _ Transaction = (*Tx)(nil)

// View exposes a read-only snapshot of the transactional state to rules.
type View struct {
	state *memoryState
}

var _ TransactionView = View{}

func newView(state *memoryState) View {
	return View{state: state}
}

// ListLeads returns all leads within the snapshot in insertion order.
func (v View) ListLeads() []Lead {
	out := make([]Lead, 0, len(v.state.leadOrder))
	for _, id := range v.state.leadOrder {
		out = append(out, v.state.leads[id].Clone())
	}
	return out
}

// ListProperties returns all properties in insertion order.
func (v View) ListProperties() []Property {
	out := make([]Property, 0, len(v.state.propertyOrder))
	for _, id := range v.state.propertyOrder {
		out = append(out, v.state.properties[id].Clone())
	}
	return out
}

// ListDeals returns all deals in insertion order.
func (v View) ListDeals() []Deal {
	out := make([]Deal, 0, len(v.state.dealOrder))
	for _, id := range v.state.dealOrder {
		out = append(out, v.state.deals[id].Clone())
	}
	return out
}

// ListContacts returns all contacts in insertion order.
func (v View) ListContacts() []Contact {
	out := make([]Contact, 0, len(v.state.contactOrder))
	for _, id := range v.state.contactOrder {
		out = append(out, v.state.contacts[id].Clone())
	}
	return out
}

// FindLead retrieves a lead by ID from the snapshot.
func (v View) FindLead(id string) (Lead, bool) {
	l, ok := v.state.leads[id]
	if !ok {
		return Lead{}, false
	}
	return l.Clone(), true
}

// FindProperty retrieves a property by ID from the snapshot.
func (v View) FindProperty(id string) (Property, bool) {
	p, ok := v.state.properties[id]
	if !ok {
		return Property{}, false
	}
	return p.Clone(), true
}

// FindDeal retrieves a deal by ID from the snapshot.
func (v View) FindDeal(id string) (Deal, bool) {
	d, ok := v.state.deals[id]
	if !ok {
		return Deal{}, false
	}
	return d.Clone(), true
}

// FindContact retrieves a contact by ID from the snapshot.
func (v View) FindContact(id string) (Contact, bool) {
	c, ok := v.state.contacts[id]
	if !ok {
		return Contact{}, false
	}
	return c.Clone(), true
}

// RunInTransaction executes fn within a transactional copy of the store state.
// Rules are evaluated against the resulting state before commit; blocking
// violations abort with a RuleViolationError and leave committed state
// untouched. The returned changes describe the committed mutations.
func (s *Store) RunInTransaction(ctx context.Context, fn func(domain.Transaction) error) (Result, []Change, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &Tx{
		store: s,
		state: s.state.clone(),
		now:   domain.NewTime(s.nowFn()),
	}

	if err := fn(tx); err != nil {
		return Result{}, nil, err
	}

	var result Result
	if s.engine != nil {
		view := newView(&tx.state)
		res, err := s.engine.Evaluate(ctx, view, tx.changes)
		if err != nil {
			return Result{}, nil, err
		}
		result = res
		if res.HasBlocking() {
			return res, nil, domain.RuleViolationError{Result: res}
		}
	}

	s.state = tx.state
	return result, tx.changes, nil
}

// View executes fn against a read-only snapshot of the store state.
func (s *Store) View(_ context.Context, fn func(domain.TransactionView) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := s.state.clone()
	return fn(newView(&snapshot))
}

func (tx *Tx) recordChange(change Change) {
	tx.changes = append(tx.changes, change)
}

// CreateLead stores a new lead within the transaction. Missing fields are
// normalized: an empty status defaults to new and the score is clamped.
func (tx *Tx) CreateLead(l Lead) (Lead, error) {
	if l.ID == "" {
		l.ID = tx.store.newID()
	}
	if _, exists := tx.state.leads[l.ID]; exists {
		return Lead{}, fmt.Errorf("lead %q already exists", l.ID)
	}
	if l.Status == "" {
		l.Status = domain.LeadStatusNew
	}
	l.Score = domain.ClampScore(l.Score)
	l.CreatedAt = tx.now
	l.UpdatedAt = tx.now
	tx.state.leads[l.ID] = l.Clone()
	tx.state.leadOrder = append(tx.state.leadOrder, l.ID)
	tx.recordChange(Change{Entity: domain.EntityLead, Action: domain.ActionCreate, After: l.Clone()})
	return l.Clone(), nil
}

// UpdateLead mutates a lead using the provided mutator function. The ID and
// creation timestamp are preserved regardless of what the mutator does.
func (tx *Tx) UpdateLead(id string, mutator func(*Lead) error) (Lead, error) {
	current, ok := tx.state.leads[id]
	if !ok {
		return Lead{}, domain.ErrNotFound{Entity: domain.EntityLead, ID: id}
	}
	before := current.Clone()
	if err := mutator(&current); err != nil {
		return Lead{}, err
	}
	current.ID = id
	current.CreatedAt = before.CreatedAt
	current.UpdatedAt = tx.now
	current.Score = domain.ClampScore(current.Score)
	tx.state.leads[id] = current.Clone()
	tx.recordChange(Change{Entity: domain.EntityLead, Action: domain.ActionUpdate, Before: before, After: current.Clone()})
	return current.Clone(), nil
}

// DeleteLead removes a lead from the transaction state.
func (tx *Tx) DeleteLead(id string) error {
	current, ok := tx.state.leads[id]
	if !ok {
		return domain.ErrNotFound{Entity: domain.EntityLead, ID: id}
	}
	delete(tx.state.leads, id)
	tx.state.leadOrder = removeID(tx.state.leadOrder, id)
	tx.recordChange(Change{Entity: domain.EntityLead, Action: domain.ActionDelete, Before: current.Clone()})
	return nil
}

// CreateProperty stores a new property listing.
func (tx *Tx) CreateProperty(p Property) (Property, error) {
	if p.ID == "" {
		p.ID = tx.store.newID()
	}
	if _, exists := tx.state.properties[p.ID]; exists {
		return Property{}, fmt.Errorf("property %q already exists", p.ID)
	}
	if p.Status == "" {
		p.Status = domain.PropertyStatusAvailable
	}
	p.CreatedAt = tx.now
	p.UpdatedAt = tx.now
	tx.state.properties[p.ID] = p.Clone()
	tx.state.propertyOrder = append(tx.state.propertyOrder, p.ID)
	tx.recordChange(Change{Entity: domain.EntityProperty, Action: domain.ActionCreate, After: p.Clone()})
	return p.Clone(), nil
}

// UpdateProperty mutates an existing property.
func (tx *Tx) UpdateProperty(id string, mutator func(*Property) error) (Property, error) {
	current, ok := tx.state.properties[id]
	if !ok {
		return Property{}, domain.ErrNotFound{Entity: domain.EntityProperty, ID: id}
	}
	before := current.Clone()
	if err := mutator(&current); err != nil {
		return Property{}, err
	}
	current.ID = id
	current.CreatedAt = before.CreatedAt
	current.UpdatedAt = tx.now
	tx.state.properties[id] = current.Clone()
	tx.recordChange(Change{Entity: domain.EntityProperty, Action: domain.ActionUpdate, Before: before, After: current.Clone()})
	return current.Clone(), nil
}

// DeleteProperty removes a property from state.
func (tx *Tx) DeleteProperty(id string) error {
	current, ok := tx.state.properties[id]
	if !ok {
		return domain.ErrNotFound{Entity: domain.EntityProperty, ID: id}
	}
	delete(tx.state.properties, id)
	tx.state.propertyOrder = removeID(tx.state.propertyOrder, id)
	tx.recordChange(Change{Entity: domain.EntityProperty, Action: domain.ActionDelete, Before: current.Clone()})
	return nil
}

// CreateDeal stores a new deal record.
func (tx *Tx) CreateDeal(d Deal) (Deal, error) {
	if d.ID == "" {
		d.ID = tx.store.newID()
	}
	if _, exists := tx.state.deals[d.ID]; exists {
		return Deal{}, fmt.Errorf("deal %q already exists", d.ID)
	}
	if d.Stage == "" {
		d.Stage = domain.DealStageOpen
	}
	d.CreatedAt = tx.now
	d.UpdatedAt = tx.now
	tx.state.deals[d.ID] = d.Clone()
	tx.state.dealOrder = append(tx.state.dealOrder, d.ID)
	tx.recordChange(Change{Entity: domain.EntityDeal, Action: domain.ActionCreate, After: d.Clone()})
	return d.Clone(), nil
}

// UpdateDeal mutates an existing deal.
func (tx *Tx) UpdateDeal(id string, mutator func(*Deal) error) (Deal, error) {
	current, ok := tx.state.deals[id]
	if !ok {
		return Deal{}, domain.ErrNotFound{Entity: domain.EntityDeal, ID: id}
	}
	before := current.Clone()
	if err := mutator(&current); err != nil {
		return Deal{}, err
	}
	current.ID = id
	current.CreatedAt = before.CreatedAt
	current.UpdatedAt = tx.now
	tx.state.deals[id] = current.Clone()
	tx.recordChange(Change{Entity: domain.EntityDeal, Action: domain.ActionUpdate, Before: before, After: current.Clone()})
	return current.Clone(), nil
}

// DeleteDeal removes a deal from state.
func (tx *Tx) DeleteDeal(id string) error {
	current, ok := tx.state.deals[id]
	if !ok {
		return domain.ErrNotFound{Entity: domain.EntityDeal, ID: id}
	}
	delete(tx.state.deals, id)
	tx.state.dealOrder = removeID(tx.state.dealOrder, id)
	tx.recordChange(Change{Entity: domain.EntityDeal, Action: domain.ActionDelete, Before: current.Clone()})
	return nil
}

// CreateContact stores a new contact record.
func (tx *Tx) CreateContact(c Contact) (Contact, error) {
	if c.ID == "" {
		c.ID = tx.store.newID()
	}
	if _, exists := tx.state.contacts[c.ID]; exists {
		return Contact{}, fmt.Errorf("contact %q already exists", c.ID)
	}
	if c.Status == "" {
		c.Status = domain.ContactStatusActive
	}
	c.CreatedAt = tx.now
	c.UpdatedAt = tx.now
	tx.state.contacts[c.ID] = c.Clone()
	tx.state.contactOrder = append(tx.state.contactOrder, c.ID)
	tx.recordChange(Change{Entity: domain.EntityContact, Action: domain.ActionCreate, After: c.Clone()})
	return c.Clone(), nil
}

// UpdateContact mutates an existing contact.
func (tx *Tx) UpdateContact(id string, mutator func(*Contact) error) (Contact, error) {
	current, ok := tx.state.contacts[id]
	if !ok {
		return Contact{}, domain.ErrNotFound{Entity: domain.EntityContact, ID: id}
	}
	before := current.Clone()
	if err := mutator(&current); err != nil {
		return Contact{}, err
	}
	current.ID = id
	current.CreatedAt = before.CreatedAt
	current.UpdatedAt = tx.now
	tx.state.contacts[id] = current.Clone()
	tx.recordChange(Change{Entity: domain.EntityContact, Action: domain.ActionUpdate, Before: before, After: current.Clone()})
	return current.Clone(), nil
}

// DeleteContact removes a contact from state.
func (tx *Tx) DeleteContact(id string) error {
	current, ok := tx.state.contacts[id]
	if !ok {
		return domain.ErrNotFound{Entity: domain.EntityContact, ID: id}
	}
	delete(tx.state.contacts, id)
	tx.state.contactOrder = removeID(tx.state.contactOrder, id)
	tx.recordChange(Change{Entity: domain.EntityContact, Action: domain.ActionDelete, Before: current.Clone()})
	return nil
}

// FindLead retrieves a lead by ID from the transaction state.
func (tx *Tx) FindLead(id string) (Lead, bool) {
	l, ok := tx.state.leads[id]
	if !ok {
		return Lead{}, false
	}
	return l.Clone(), true
}

// FindProperty retrieves a property by ID from the transaction state.
func (tx *Tx) FindProperty(id string) (Property, bool) {
	p, ok := tx.state.properties[id]
	if !ok {
		return Property{}, false
	}
	return p.Clone(), true
}

// FindDeal retrieves a deal by ID from the transaction state.
func (tx *Tx) FindDeal(id string) (Deal, bool) {
	d, ok := tx.state.deals[id]
	if !ok {
		return Deal{}, false
	}
	return d.Clone(), true
}

// FindContact retrieves a contact by ID from the transaction state.
func (tx *Tx) FindContact(id string) (Contact, bool) {
	c, ok := tx.state.contacts[id]
	if !ok {
		return Contact{}, false
	}
	return c.Clone(), true
}

// Read helpers ---------------------------------------------------------------

// GetLead retrieves a lead by ID from committed state.
func (s *Store) GetLead(id string) (Lead, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.state.leads[id]
	if !ok {
		return Lead{}, false
	}
	return l.Clone(), true
}

// ListLeads returns all leads from committed state in insertion order.
func (s *Store) ListLeads() []Lead {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Lead, 0, len(s.state.leadOrder))
	for _, id := range s.state.leadOrder {
		out = append(out, s.state.leads[id].Clone())
	}
	return out
}

// GetProperty retrieves a property by ID from committed state.
func (s *Store) GetProperty(id string) (Property, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.state.properties[id]
	if !ok {
		return Property{}, false
	}
	return p.Clone(), true
}

// ListProperties returns all properties in insertion order.
func (s *Store) ListProperties() []Property {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Property, 0, len(s.state.propertyOrder))
	for _, id := range s.state.propertyOrder {
		out = append(out, s.state.properties[id].Clone())
	}
	return out
}

// GetDeal retrieves a deal by ID from committed state.
func (s *Store) GetDeal(id string) (Deal, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.state.deals[id]
	if !ok {
		return Deal{}, false
	}
	return d.Clone(), true
}

// ListDeals returns all deals in insertion order.
func (s *Store) ListDeals() []Deal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Deal, 0, len(s.state.dealOrder))
	for _, id := range s.state.dealOrder {
		out = append(out, s.state.deals[id].Clone())
	}
	return out
}

// GetContact retrieves a contact by ID from committed state.
func (s *Store) GetContact(id string) (Contact, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.state.contacts[id]
	if !ok {
		return Contact{}, false
	}
	return c.Clone(), true
}

// ListContacts returns all contacts in insertion order.
func (s *Store) ListContacts() []Contact {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Contact, 0, len(s.state.contactOrder))
	for _, id := range s.state.contactOrder {
		out = append(out, s.state.contacts[id].Clone())
	}
	return out
}

// ExportState returns a serialisable snapshot of committed state.
func (s *Store) ExportState() Snapshot {
	return Snapshot{
		Leads:      s.ListLeads(),
		Properties: s.ListProperties(),
		Deals:      s.ListDeals(),
		Contacts:   s.ListContacts(),
	}
}

// ImportState replaces committed state with the snapshot contents. Insertion
// order follows the snapshot's array order. Records with duplicate or empty
// IDs are skipped.
func (s *Store) ImportState(snapshot Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	state := newMemoryState()
	for _, l := range snapshot.Leads {
		if l.ID == "" {
			continue
		}
		if _, ok := state.leads[l.ID]; ok {
			continue
		}
		state.leads[l.ID] = l.Clone()
		state.leadOrder = append(state.leadOrder, l.ID)
	}
	for _, p := range snapshot.Properties {
		if p.ID == "" {
			continue
		}
		if _, ok := state.properties[p.ID]; ok {
			continue
		}
		state.properties[p.ID] = p.Clone()
		state.propertyOrder = append(state.propertyOrder, p.ID)
	}
	for _, d := range snapshot.Deals {
		if d.ID == "" {
			continue
		}
		if _, ok := state.deals[d.ID]; ok {
			continue
		}
		state.deals[d.ID] = d.Clone()
		state.dealOrder = append(state.dealOrder, d.ID)
	}
	for _, c := range snapshot.Contacts {
		if c.ID == "" {
			continue
		}
		if _, ok := state.contacts[c.ID]; ok {
			continue
		}
		state.contacts[c.ID] = c.Clone()
		state.contactOrder = append(state.contactOrder, c.ID)
	}
	s.state = state
}
