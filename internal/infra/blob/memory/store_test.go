package memory

import (
	"context"
	"io"
	"strings"
	"testing"

	"creocore/internal/blob/core"
)

func TestPutGetRoundTrip(t *testing.T) {
	store := New()
	info, err := store.Put(context.Background(), "exports/e1/leads.csv",
		strings.NewReader("id,name\n"), core.PutOptions{ContentType: "text/csv"})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if info.Size != 8 || info.ETag == "" {
		t.Fatalf("info = %+v", info)
	}

	got, rc, err := store.Get(context.Background(), "exports/e1/leads.csv")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer rc.Close()
	body, _ := io.ReadAll(rc)
	if string(body) != "id,name\n" {
		t.Fatalf("body = %q", body)
	}
	if got.ContentType != "text/csv" {
		t.Fatalf("content type = %q", got.ContentType)
	}
}

func TestPutReplacesExistingObject(t *testing.T) {
	store := New()
	ctx := context.Background()
	if _, err := store.Put(ctx, "k", strings.NewReader("old"), core.PutOptions{}); err != nil {
		t.Fatalf("first put: %v", err)
	}
	second, err := store.Put(ctx, "k", strings.NewReader("new"), core.PutOptions{})
	if err != nil {
		t.Fatalf("second put: %v", err)
	}
	_, rc, err := store.Get(ctx, "k")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer rc.Close()
	body, _ := io.ReadAll(rc)
	if string(body) != "new" {
		t.Fatalf("body = %q", body)
	}
	if second.Size != 3 {
		t.Fatalf("size = %d", second.Size)
	}
}

func TestGetMissingKey(t *testing.T) {
	store := New()
	if _, _, err := store.Get(context.Background(), "absent"); err == nil {
		t.Fatalf("missing key must error")
	}
}

func TestDeleteReportsPresence(t *testing.T) {
	store := New()
	ctx := context.Background()
	if _, err := store.Put(ctx, "k", strings.NewReader("x"), core.PutOptions{}); err != nil {
		t.Fatalf("put: %v", err)
	}
	removed, err := store.Delete(ctx, "k")
	if err != nil || !removed {
		t.Fatalf("delete = %v, %v", removed, err)
	}
	removed, err = store.Delete(ctx, "k")
	if err != nil || removed {
		t.Fatalf("second delete = %v, %v", removed, err)
	}
}

func TestListPrefixSorted(t *testing.T) {
	store := New()
	ctx := context.Background()
	for _, key := range []string{"exports/b", "exports/a", "other/c"} {
		if _, err := store.Put(ctx, key, strings.NewReader("x"), core.PutOptions{}); err != nil {
			t.Fatalf("put %s: %v", key, err)
		}
	}
	infos, err := store.List(ctx, "exports/")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(infos) != 2 || infos[0].Key != "exports/a" || infos[1].Key != "exports/b" {
		t.Fatalf("infos = %+v", infos)
	}
}

func TestReadersAreIndependentCopies(t *testing.T) {
	store := New()
	ctx := context.Background()
	if _, err := store.Put(ctx, "k", strings.NewReader("stable"), core.PutOptions{}); err != nil {
		t.Fatalf("put: %v", err)
	}
	_, rc1, err := store.Get(ctx, "k")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	buf := make([]byte, 3)
	if _, err := io.ReadFull(rc1, buf); err != nil {
		t.Fatalf("partial read: %v", err)
	}
	rc1.Close()

	_, rc2, err := store.Get(ctx, "k")
	if err != nil {
		t.Fatalf("second get: %v", err)
	}
	defer rc2.Close()
	body, _ := io.ReadAll(rc2)
	if string(body) != "stable" {
		t.Fatalf("second reader saw %q", body)
	}
}
