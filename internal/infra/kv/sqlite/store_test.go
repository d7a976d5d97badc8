package sqlite

import (
	"context"
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestMissingSlotReportsAbsence(t *testing.T) {
	store := openTestStore(t)
	got, ok, err := store.Get(context.Background(), "creo_properties")
	if err != nil {
		t.Fatalf("missing slot must not error: %v", err)
	}
	if ok || got != nil {
		t.Fatalf("expected absence, got ok=%v payload=%s", ok, got)
	}
}

func TestUpsertRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	if err := store.Set(ctx, "creo_leads", []byte(`[{"id":"a"}]`)); err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	if err := store.Set(ctx, "creo_leads", []byte(`[{"id":"a"},{"id":"b"}]`)); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}
	got, ok, err := store.Get(ctx, "creo_leads")
	if err != nil || !ok {
		t.Fatalf("get failed: ok=%v err=%v", ok, err)
	}
	if string(got) != `[{"id":"a"},{"id":"b"}]` {
		t.Fatalf("upsert did not replace payload: %s", got)
	}

	var count int
	if err := store.DB().QueryRow(`SELECT COUNT(*) FROM state`).Scan(&count); err != nil {
		t.Fatalf("count query failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected a single row per slot, got %d", count)
	}
}

func TestReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state.db")
	store, err := New(path)
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	if err := store.Set(ctx, "creo_deals", []byte("[]")); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	reopened, err := New(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer reopened.Close()
	got, ok, err := reopened.Get(ctx, "creo_deals")
	if err != nil || !ok || string(got) != "[]" {
		t.Fatalf("data lost across reopen: ok=%v err=%v payload=%s", ok, err, got)
	}
}
