package core

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"creocore/pkg/domain"
	"creocore/pkg/eventbus"
)

type busRecorder struct {
	mu     sync.Mutex
	events []eventbus.Event
}

func (r *busRecorder) attach(bus *eventbus.Bus) {
	record := func(e eventbus.Event) {
		r.mu.Lock()
		r.events = append(r.events, e)
		r.mu.Unlock()
	}
	for _, topic := range []eventbus.Topic{
		eventbus.TopicLeadsChanged,
		eventbus.TopicPropertiesChanged,
		eventbus.TopicDealsChanged,
		eventbus.TopicContactsChanged,
	} {
		bus.Subscribe(topic, record)
	}
}

func (r *busRecorder) all() []eventbus.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]eventbus.Event(nil), r.events...)
}

func (r *busRecorder) reset() {
	r.mu.Lock()
	r.events = nil
	r.mu.Unlock()
}

func newTestService(t *testing.T) (*Service, *busRecorder) {
	t.Helper()
	svc := NewInMemoryService(NewDefaultRulesEngine())
	rec := &busRecorder{}
	rec.attach(svc.Bus())
	return svc, rec
}

func TestAddLeadPublishesFullCollection(t *testing.T) {
	svc, rec := newTestService(t)
	ctx := context.Background()

	created, _, err := svc.AddLead(ctx, Lead{Name: "Imran", Budget: domain.Budget{Min: 1000, Max: 2000}})
	if err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if created.Status != LeadStatusNew {
		t.Fatalf("expected default status, got %s", created.Status)
	}

	events := rec.all()
	if len(events) != 1 {
		t.Fatalf("expected exactly one event, got %d", len(events))
	}
	changed, ok := events[0].(eventbus.LeadsChanged)
	if !ok {
		t.Fatalf("expected LeadsChanged, got %T", events[0])
	}
	if len(changed.Leads) != 1 || changed.Leads[0].ID != created.ID {
		t.Fatalf("event must carry the full collection: %+v", changed.Leads)
	}
}

func TestUpdateMissingLeadIsSilentNoop(t *testing.T) {
	svc, rec := newTestService(t)

	name := "ghost"
	updated, res, err := svc.UpdateLead(context.Background(), "missing", domain.LeadPatch{Name: &name})
	if err != nil {
		t.Fatalf("missing id must not error: %v", err)
	}
	if updated != nil {
		t.Fatalf("expected nil for missing lead, got %+v", updated)
	}
	if len(res.Violations) != 0 {
		t.Fatalf("unexpected violations: %+v", res.Violations)
	}
	if events := rec.all(); len(events) != 0 {
		t.Fatalf("no-op update must not publish, got %d events", len(events))
	}
}

func TestDeleteLeadIsIdempotent(t *testing.T) {
	svc, rec := newTestService(t)
	ctx := context.Background()
	created, _, err := svc.AddLead(ctx, Lead{Name: "gone soon"})
	if err != nil {
		t.Fatalf("add failed: %v", err)
	}
	rec.reset()

	deleted, _, err := svc.DeleteLead(ctx, created.ID)
	if err != nil || !deleted {
		t.Fatalf("first delete: deleted=%v err=%v", deleted, err)
	}
	if events := rec.all(); len(events) != 1 {
		t.Fatalf("delete should publish once, got %d", len(events))
	}
	rec.reset()

	deleted, _, err = svc.DeleteLead(ctx, created.ID)
	if err != nil || deleted {
		t.Fatalf("second delete must be a no-op: deleted=%v err=%v", deleted, err)
	}
	if events := rec.all(); len(events) != 0 {
		t.Fatalf("no-op delete must not publish")
	}
}

func TestUpdateLeadAppliesPatchOnly(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	created, _, err := svc.AddLead(ctx, Lead{Name: "Mira", Email: "mira@example.com", Score: 30})
	if err != nil {
		t.Fatalf("add failed: %v", err)
	}

	status := LeadStatusQualified
	updated, _, err := svc.UpdateLead(ctx, created.ID, domain.LeadPatch{Status: &status})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if updated.Status != LeadStatusQualified {
		t.Fatalf("status not applied: %+v", updated)
	}
	if updated.Name != "Mira" || updated.Email != "mira@example.com" || updated.Score != 30 {
		t.Fatalf("unpatched fields changed: %+v", updated)
	}
	if !updated.CreatedAt.Equal(created.CreatedAt) {
		t.Fatalf("creation timestamp changed on update")
	}
}

func TestTerminalLeadStatusIsLocked(t *testing.T) {
	svc, rec := newTestService(t)
	ctx := context.Background()
	created, _, err := svc.AddLead(ctx, Lead{Name: "closed out"})
	if err != nil {
		t.Fatalf("add failed: %v", err)
	}
	lost := LeadStatusLost
	if _, _, err := svc.UpdateLead(ctx, created.ID, domain.LeadPatch{Status: &lost}); err != nil {
		t.Fatalf("marking lost failed: %v", err)
	}
	rec.reset()

	reopened := LeadStatusNew
	notes := "trying to reopen"
	_, res, err := svc.UpdateLead(ctx, created.ID, domain.LeadPatch{Status: &reopened, Notes: &notes})
	var violation RuleViolationError
	if !errors.As(err, &violation) {
		t.Fatalf("expected RuleViolationError, got %v", err)
	}
	if !res.HasBlocking() {
		t.Fatalf("expected blocking violation, got %+v", res)
	}
	if events := rec.all(); len(events) != 0 {
		t.Fatalf("blocked update must not publish")
	}
	// The whole patch is rejected: the notes change must not land either.
	current, _ := svc.GetLead(created.ID)
	if current.Status != LeadStatusLost || current.Notes != "" {
		t.Fatalf("blocked patch partially applied: %+v", current)
	}

	// Non-status edits on a terminal lead remain allowed.
	note := "post-mortem"
	updated, _, err := svc.UpdateLead(ctx, created.ID, domain.LeadPatch{Notes: &note})
	if err != nil {
		t.Fatalf("non-status edit on terminal lead should pass: %v", err)
	}
	if updated.Notes != note || updated.Status != LeadStatusLost {
		t.Fatalf("unexpected state after edit: %+v", updated)
	}
}

func TestInvalidBudgetIsBlocked(t *testing.T) {
	svc, rec := newTestService(t)
	_, _, err := svc.AddLead(context.Background(), Lead{Name: "bad budget", Budget: domain.Budget{Min: 500, Max: 100}})
	var violation RuleViolationError
	if !errors.As(err, &violation) {
		t.Fatalf("expected RuleViolationError, got %v", err)
	}
	if len(svc.ListLeads()) != 0 {
		t.Fatalf("blocked create committed")
	}
	if events := rec.all(); len(events) != 0 {
		t.Fatalf("blocked create must not publish")
	}
}

func TestEachCollectionPublishesItsOwnTopic(t *testing.T) {
	svc, rec := newTestService(t)
	ctx := context.Background()

	if _, _, err := svc.AddProperty(ctx, Property{Title: "Loft", Price: 300000}); err != nil {
		t.Fatalf("add property: %v", err)
	}
	if _, _, err := svc.AddDeal(ctx, Deal{ClientName: "Imran", Value: 1}); err != nil {
		t.Fatalf("add deal: %v", err)
	}
	if _, _, err := svc.AddContact(ctx, Contact{FirstName: "Sana"}); err != nil {
		t.Fatalf("add contact: %v", err)
	}

	events := rec.all()
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}
	if _, ok := events[0].(eventbus.PropertiesChanged); !ok {
		t.Fatalf("event 0: expected PropertiesChanged, got %T", events[0])
	}
	if _, ok := events[1].(eventbus.DealsChanged); !ok {
		t.Fatalf("event 1: expected DealsChanged, got %T", events[1])
	}
	if _, ok := events[2].(eventbus.ContactsChanged); !ok {
		t.Fatalf("event 2: expected ContactsChanged, got %T", events[2])
	}
}

func TestDefaultsOnDealAndContactAndProperty(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	deal, _, err := svc.AddDeal(ctx, Deal{ClientName: "x"})
	if err != nil || deal.Stage != domain.DealStageOpen {
		t.Fatalf("deal default stage wrong: %+v err=%v", deal, err)
	}
	contact, _, err := svc.AddContact(ctx, Contact{FirstName: "y"})
	if err != nil || contact.Status != domain.ContactStatusActive {
		t.Fatalf("contact default status wrong: %+v err=%v", contact, err)
	}
	property, _, err := svc.AddProperty(ctx, Property{Title: "z"})
	if err != nil || property.Status != domain.PropertyStatusAvailable {
		t.Fatalf("property default status wrong: %+v err=%v", property, err)
	}
}

type captureMetrics struct {
	mu      sync.Mutex
	entries []string
}

func (m *captureMetrics) Observe(_ context.Context, operation string, success bool, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	suffix := "_ok"
	if !success {
		suffix = "_err"
	}
	m.entries = append(m.entries, operation+suffix)
}

type captureAudit struct {
	mu      sync.Mutex
	entries []AuditEntry
}

func (a *captureAudit) Record(_ context.Context, entry AuditEntry) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, entry)
}

func TestObservabilityHooksFire(t *testing.T) {
	metrics := &captureMetrics{}
	audit := &captureAudit{}
	svc := NewInMemoryService(NewDefaultRulesEngine(),
		WithMetricsRecorder(metrics),
		WithAuditRecorder(audit),
	)
	ctx := context.Background()

	if _, _, err := svc.AddLead(ctx, Lead{Name: "observed"}); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	_, _, _ = svc.AddLead(ctx, Lead{Name: "blocked", Budget: domain.Budget{Min: -1}})

	metrics.mu.Lock()
	entries := append([]string(nil), metrics.entries...)
	metrics.mu.Unlock()
	if len(entries) != 2 || entries[0] != "add_lead_ok" || entries[1] != "add_lead_err" {
		t.Fatalf("unexpected metric stream: %v", entries)
	}

	audit.mu.Lock()
	defer audit.mu.Unlock()
	if len(audit.entries) != 2 {
		t.Fatalf("expected 2 audit entries, got %d", len(audit.entries))
	}
	if audit.entries[0].Status != AuditStatusSuccess || audit.entries[1].Status != AuditStatusBlocked {
		t.Fatalf("audit statuses wrong: %+v", audit.entries)
	}
}
