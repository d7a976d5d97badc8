package fs

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"creocore/internal/blob/core"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(filepath.Join(t.TempDir(), "artifacts"))
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return store
}

func put(t *testing.T, store *Store, key, body string, opts core.PutOptions) core.Info {
	t.Helper()
	info, err := store.Put(context.Background(), key, strings.NewReader(body), opts)
	if err != nil {
		t.Fatalf("put %s: %v", key, err)
	}
	return info
}

func TestPutGetRoundTrip(t *testing.T) {
	store := newTestStore(t)
	opts := core.PutOptions{
		ContentType: "text/csv",
		Metadata:    map[string]string{"job": "exp-1"},
	}
	info := put(t, store, "exports/exp-1/leads.csv", "id,name\n1,A\n", opts)
	if info.Size != int64(len("id,name\n1,A\n")) {
		t.Fatalf("size = %d", info.Size)
	}
	if info.ETag == "" {
		t.Fatalf("etag not computed")
	}

	got, rc, err := store.Get(context.Background(), "exports/exp-1/leads.csv")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer rc.Close()
	body, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(body) != "id,name\n1,A\n" {
		t.Fatalf("body = %q", body)
	}
	if got.ContentType != "text/csv" || got.Metadata["job"] != "exp-1" {
		t.Fatalf("info = %+v", got)
	}
	if got.ETag != info.ETag {
		t.Fatalf("etag changed between put and get")
	}
}

func TestPutOverwritesExistingKey(t *testing.T) {
	store := newTestStore(t)
	first := put(t, store, "exports/exp-1/leads.json", "[]", core.PutOptions{})
	second := put(t, store, "exports/exp-1/leads.json", `[{"id":"l1"}]`, core.PutOptions{})
	if first.ETag == second.ETag {
		t.Fatalf("overwrite kept the old checksum")
	}

	_, rc, err := store.Get(context.Background(), "exports/exp-1/leads.json")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer rc.Close()
	body, _ := io.ReadAll(rc)
	if string(body) != `[{"id":"l1"}]` {
		t.Fatalf("body = %q", body)
	}
}

func TestGetMissingKey(t *testing.T) {
	store := newTestStore(t)
	if _, _, err := store.Get(context.Background(), "exports/none"); err == nil {
		t.Fatalf("missing key must error")
	}
}

func TestDelete(t *testing.T) {
	store := newTestStore(t)
	put(t, store, "exports/exp-1/deals.csv", "id\n", core.PutOptions{})

	removed, err := store.Delete(context.Background(), "exports/exp-1/deals.csv")
	if err != nil || !removed {
		t.Fatalf("delete = %v, %v", removed, err)
	}
	removed, err = store.Delete(context.Background(), "exports/exp-1/deals.csv")
	if err != nil {
		t.Fatalf("second delete errored: %v", err)
	}
	if removed {
		t.Fatalf("second delete reported removal")
	}
	if _, _, err := store.Get(context.Background(), "exports/exp-1/deals.csv"); err == nil {
		t.Fatalf("deleted key still readable")
	}
}

func TestListFiltersByPrefixAndSorts(t *testing.T) {
	store := newTestStore(t)
	put(t, store, "exports/exp-2/leads.csv", "b", core.PutOptions{})
	put(t, store, "exports/exp-1/leads.csv", "a", core.PutOptions{})
	put(t, store, "imports/log.txt", "c", core.PutOptions{})

	infos, err := store.List(context.Background(), "exports/")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(infos) != 2 {
		t.Fatalf("listed %d objects, want 2", len(infos))
	}
	if infos[0].Key != "exports/exp-1/leads.csv" || infos[1].Key != "exports/exp-2/leads.csv" {
		t.Fatalf("keys not sorted: %v %v", infos[0].Key, infos[1].Key)
	}

	all, err := store.List(context.Background(), "")
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("listed %d objects, want 3", len(all))
	}
}

func TestRejectsUnsafeKeys(t *testing.T) {
	store := newTestStore(t)
	for _, key := range []string{"", "   ", "../escape", "a/../../b", "/etc/passwd"} {
		if _, err := store.Put(context.Background(), key, strings.NewReader("x"), core.PutOptions{}); err == nil {
			t.Fatalf("key %q accepted", key)
		}
	}
	if entries, err := os.ReadDir(store.Root()); err != nil {
		t.Fatalf("read root: %v", err)
	} else if len(entries) != 0 {
		t.Fatalf("rejected keys left files behind: %v", entries)
	}
}

func TestPutLeavesNoTempFiles(t *testing.T) {
	store := newTestStore(t)
	put(t, store, "exports/exp-1/contacts.csv", "id\n", core.PutOptions{})

	err := filepath.WalkDir(store.Root(), func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		name := d.Name()
		if name != "contacts.csv" && !strings.HasSuffix(name, ".meta") {
			t.Fatalf("unexpected file %s", path)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("walk: %v", err)
	}
}
