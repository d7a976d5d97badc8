package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"creocore/pkg/domain"
)

func fixedClock() func() time.Time {
	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time { return at }
}

func TestCreateLeadDefaultsAndTimestamps(t *testing.T) {
	store := NewStore(nil)
	store.SetNowFunc(fixedClock())

	var created Lead
	_, changes, err := store.RunInTransaction(context.Background(), func(tx Transaction) error {
		var err error
		created, err = tx.CreateLead(Lead{Name: "Nadia", Score: 150})
		return err
	})
	if err != nil {
		t.Fatalf("transaction failed: %v", err)
	}
	if created.ID == "" {
		t.Fatalf("expected generated id")
	}
	if created.Status != domain.LeadStatusNew {
		t.Fatalf("expected default status new, got %s", created.Status)
	}
	if created.Score != domain.MaxScore {
		t.Fatalf("expected score clamped to %d, got %d", domain.MaxScore, created.Score)
	}
	if created.CreatedAt.IsZero() || !created.CreatedAt.Equal(created.UpdatedAt) {
		t.Fatalf("expected matching create/update timestamps, got %v / %v", created.CreatedAt, created.UpdatedAt)
	}
	if len(changes) != 1 || changes[0].Entity != domain.EntityLead || changes[0].Action != domain.ActionCreate {
		t.Fatalf("unexpected change set: %+v", changes)
	}
}

func TestCreateLeadDuplicateIDRejected(t *testing.T) {
	store := NewStore(nil)
	ctx := context.Background()
	_, _, err := store.RunInTransaction(ctx, func(tx Transaction) error {
		_, err := tx.CreateLead(Lead{Base: domain.Base{ID: "lead-1"}, Name: "First"})
		return err
	})
	if err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	_, _, err = store.RunInTransaction(ctx, func(tx Transaction) error {
		_, err := tx.CreateLead(Lead{Base: domain.Base{ID: "lead-1"}, Name: "Second"})
		return err
	})
	if err == nil {
		t.Fatalf("expected duplicate id error")
	}
	if got := store.ListLeads(); len(got) != 1 || got[0].Name != "First" {
		t.Fatalf("committed state should be untouched, got %+v", got)
	}
}

func TestUpdateLeadPreservesIdentityAndCreation(t *testing.T) {
	store := NewStore(nil)
	ctx := context.Background()
	created := seedLead(t, store, Lead{Name: "Omar"})

	var updated Lead
	_, _, err := store.RunInTransaction(ctx, func(tx Transaction) error {
		var err error
		updated, err = tx.UpdateLead(created.ID, func(l *Lead) error {
			l.ID = "tampered"
			l.CreatedAt = domain.Time{}
			l.Status = domain.LeadStatusContacted
			l.Score = -5
			return nil
		})
		return err
	})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if updated.ID != created.ID {
		t.Fatalf("id must be preserved, got %s", updated.ID)
	}
	if !updated.CreatedAt.Equal(created.CreatedAt) {
		t.Fatalf("creation time must be preserved")
	}
	if updated.Status != domain.LeadStatusContacted {
		t.Fatalf("mutator change lost, got %s", updated.Status)
	}
	if updated.Score != domain.MinScore {
		t.Fatalf("expected score clamped to %d, got %d", domain.MinScore, updated.Score)
	}
}

func TestDeleteAbsentLeadReturnsNotFound(t *testing.T) {
	store := NewStore(nil)
	_, _, err := store.RunInTransaction(context.Background(), func(tx Transaction) error {
		return tx.DeleteLead("missing")
	})
	if !domain.IsNotFound(err) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListLeadsPreservesInsertionOrder(t *testing.T) {
	store := NewStore(nil)
	names := []string{"a", "b", "c", "d"}
	for _, name := range names {
		seedLead(t, store, Lead{Name: name})
	}
	got := store.ListLeads()
	if len(got) != len(names) {
		t.Fatalf("expected %d leads, got %d", len(names), len(got))
	}
	for i, name := range names {
		if got[i].Name != name {
			t.Fatalf("position %d: expected %s, got %s", i, name, got[i].Name)
		}
	}

	// Deleting from the middle keeps the remaining order.
	if _, _, err := store.RunInTransaction(context.Background(), func(tx Transaction) error {
		return tx.DeleteLead(got[1].ID)
	}); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	remaining := store.ListLeads()
	want := []string{"a", "c", "d"}
	for i, name := range want {
		if remaining[i].Name != name {
			t.Fatalf("after delete, position %d: expected %s, got %s", i, name, remaining[i].Name)
		}
	}
}

func TestReadResultsAreIsolatedCopies(t *testing.T) {
	store := NewStore(nil)
	created := seedLead(t, store, Lead{Name: "Zara", Tags: []string{"vip"}})

	got, ok := store.GetLead(created.ID)
	if !ok {
		t.Fatalf("lead missing")
	}
	got.Name = "mutated"
	got.Tags[0] = "mutated"

	again, _ := store.GetLead(created.ID)
	if again.Name != "Zara" || again.Tags[0] != "vip" {
		t.Fatalf("committed state leaked through read copy: %+v", again)
	}
}

func TestFailedTransactionLeavesStateUntouched(t *testing.T) {
	store := NewStore(nil)
	seedLead(t, store, Lead{Name: "keep"})

	_, _, err := store.RunInTransaction(context.Background(), func(tx Transaction) error {
		if _, err := tx.CreateLead(Lead{Name: "discard"}); err != nil {
			return err
		}
		return context.Canceled
	})
	if err == nil {
		t.Fatalf("expected propagated error")
	}
	if got := store.ListLeads(); len(got) != 1 || got[0].Name != "keep" {
		t.Fatalf("rolled back state corrupted: %+v", got)
	}
}

func TestBlockingRuleAbortsCommit(t *testing.T) {
	engine := domain.NewRulesEngine()
	engine.Register(blockEverything{})
	store := NewStore(engine)

	res, changes, err := store.RunInTransaction(context.Background(), func(tx Transaction) error {
		_, err := tx.CreateLead(Lead{Name: "blocked"})
		return err
	})
	var violation domain.RuleViolationError
	if !errors.As(err, &violation) {
		t.Fatalf("expected RuleViolationError, got %v", err)
	}
	if !res.HasBlocking() {
		t.Fatalf("expected blocking result, got %+v", res)
	}
	if changes != nil {
		t.Fatalf("blocked transaction must not report changes")
	}
	if got := store.ListLeads(); len(got) != 0 {
		t.Fatalf("blocked transaction committed state: %+v", got)
	}
}

type blockEverything struct{}

func (blockEverything) Name() string { return "block_everything" }

func (blockEverything) Evaluate(_ context.Context, _ domain.RuleView, changes []domain.Change) (domain.Result, error) {
	var res domain.Result
	for range changes {
		res.Violations = append(res.Violations, domain.Violation{
			Rule:     "block_everything",
			Severity: domain.SeverityBlock,
			Message:  "nothing may change",
		})
	}
	return res, nil
}

func TestExportImportRoundTrip(t *testing.T) {
	store := NewStore(nil)
	seedLead(t, store, Lead{Name: "first"})
	seedLead(t, store, Lead{Name: "second"})
	_, _, err := store.RunInTransaction(context.Background(), func(tx Transaction) error {
		_, err := tx.CreateDeal(Deal{ClientName: "first", Value: 1000})
		return err
	})
	if err != nil {
		t.Fatalf("seed deal failed: %v", err)
	}

	snapshot := store.ExportState()
	restored := NewStore(nil)
	restored.ImportState(snapshot)

	leads := restored.ListLeads()
	if len(leads) != 2 || leads[0].Name != "first" || leads[1].Name != "second" {
		t.Fatalf("lead order lost across round trip: %+v", leads)
	}
	if deals := restored.ListDeals(); len(deals) != 1 || deals[0].ClientName != "first" {
		t.Fatalf("deal lost across round trip: %+v", deals)
	}
}

func TestImportStateSkipsBadRecords(t *testing.T) {
	store := NewStore(nil)
	store.ImportState(Snapshot{Leads: []Lead{
		{Base: domain.Base{ID: ""}, Name: "no id"},
		{Base: domain.Base{ID: "dup"}, Name: "original"},
		{Base: domain.Base{ID: "dup"}, Name: "duplicate"},
	}})
	leads := store.ListLeads()
	if len(leads) != 1 || leads[0].Name != "original" {
		t.Fatalf("expected only the first dup record, got %+v", leads)
	}
}

func seedLead(t *testing.T, store *Store, lead Lead) Lead {
	t.Helper()
	var created Lead
	_, _, err := store.RunInTransaction(context.Background(), func(tx Transaction) error {
		var err error
		created, err = tx.CreateLead(lead)
		return err
	})
	if err != nil {
		t.Fatalf("seed lead failed: %v", err)
	}
	return created
}
