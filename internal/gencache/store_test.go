package gencache_test

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"podcastproc/internal/gencache"
)

func openStore(t *testing.T) *gencache.Store {
	t.Helper()
	store, err := gencache.Open(filepath.Join(t.TempDir(), "cache", "generations.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestPutGetRoundTrip(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	if _, ok, err := store.Get(ctx, "missing"); err != nil || ok {
		t.Fatalf("expected miss, got ok=%v err=%v", ok, err)
	}

	if err := store.Put(ctx, "k1", "titles", `{"titles":[]}`); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	payload, ok, err := store.Get(ctx, "k1")
	if err != nil || !ok {
		t.Fatalf("expected hit, got ok=%v err=%v", ok, err)
	}
	if payload != `{"titles":[]}` {
		t.Fatalf("unexpected payload %q", payload)
	}

	if err := store.Put(ctx, "k1", "titles", `{"titles":["x"]}`); err != nil {
		t.Fatalf("Put replace failed: %v", err)
	}
	payload, _, _ = store.Get(ctx, "k1")
	if payload != `{"titles":["x"]}` {
		t.Fatalf("expected replaced payload, got %q", payload)
	}

	entries, err := store.Entries(ctx)
	if err != nil {
		t.Fatalf("Entries failed: %v", err)
	}
	if len(entries) != 1 || entries[0].ContentType != "titles" || entries[0].Hits != 1 {
		t.Fatalf("unexpected entries %+v", entries)
	}
	if entries[0].CreatedAt.IsZero() {
		t.Fatal("expected created_at to parse")
	}
}

func TestReopenKeepsEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "generations.db")
	ctx := context.Background()

	first, err := gencache.Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := first.Put(ctx, "k", "description", `{"description":"d"}`); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	second, err := gencache.Open(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer second.Close()
	if _, ok, err := second.Get(ctx, "k"); err != nil || !ok {
		t.Fatalf("expected entry after reopen, ok=%v err=%v", ok, err)
	}
}

func TestOpenRejectsSchemaMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "generations.db")
	store, err := gencache.Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	_ = store.Close()

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("sql.Open failed: %v", err)
	}
	if _, err := db.Exec("UPDATE schema_version SET version = 99"); err != nil {
		t.Fatalf("bump version: %v", err)
	}
	_ = db.Close()

	if _, err := gencache.Open(path); !errors.Is(err, gencache.ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
}

func TestClear(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	for _, key := range []string{"a", "b"} {
		if err := store.Put(ctx, key, "chapters", "{}"); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
	}
	n, err := store.Clear(ctx)
	if err != nil || n != 2 {
		t.Fatalf("Clear returned %d, %v", n, err)
	}
	if _, ok, _ := store.Get(ctx, "a"); ok {
		t.Fatal("expected cache to be empty")
	}
}

func TestKeyIsStableAndSeparatesParts(t *testing.T) {
	if gencache.Key("a", "bc") != gencache.Key("a", "bc") {
		t.Fatal("expected stable key")
	}
	if gencache.Key("a", "bc") == gencache.Key("ab", "c") {
		t.Fatal("expected part boundaries to change the key")
	}
	if len(gencache.Key()) != 64 {
		t.Fatalf("expected hex sha256, got %q", gencache.Key())
	}
}
