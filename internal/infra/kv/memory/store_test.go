package memory

import (
	"context"
	"testing"
)

func TestRoundTripAndAbsence(t *testing.T) {
	ctx := context.Background()
	store := New()
	defer store.Close()

	if _, ok, err := store.Get(ctx, "creo_leads"); ok || err != nil {
		t.Fatalf("fresh store should report absence, got ok=%v err=%v", ok, err)
	}
	if err := store.Set(ctx, "creo_leads", []byte("[]")); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	got, ok, err := store.Get(ctx, "creo_leads")
	if err != nil || !ok || string(got) != "[]" {
		t.Fatalf("round trip failed: ok=%v err=%v payload=%s", ok, err, got)
	}
}

func TestValuesAreCopied(t *testing.T) {
	ctx := context.Background()
	store := New()

	payload := []byte("abc")
	if err := store.Set(ctx, "k", payload); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	payload[0] = 'x'

	got, _, _ := store.Get(ctx, "k")
	if string(got) != "abc" {
		t.Fatalf("stored value aliased caller slice: %s", got)
	}
	got[0] = 'y'
	again, _, _ := store.Get(ctx, "k")
	if string(again) != "abc" {
		t.Fatalf("returned value aliased stored slice: %s", again)
	}
}
