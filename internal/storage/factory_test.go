package storage

import (
	"context"
	"testing"
)

func TestNewStoreMemory(t *testing.T) {
	store, err := NewStore(KindMemory, "")
	if err != nil {
		t.Fatalf("new memory store: %v", err)
	}
	if _, ok := store.(*MemoryStore); !ok {
		t.Fatalf("expected memory store, got %T", store)
	}
}

func TestNewStoreDefaultKind(t *testing.T) {
	want := KindMemory
	if sqliteAvailable {
		want = KindSQLite
	}
	if got := DefaultKind(); got != want {
		t.Fatalf("DefaultKind() = %q, want %q", got, want)
	}
}

func TestOpenInitialisesMemoryStore(t *testing.T) {
	ctx := context.Background()
	store, err := Open(ctx, KindMemory, "")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, _, err := store.GetRun(ctx, "run-1"); err != nil {
		t.Fatalf("expected initialised store, got: %v", err)
	}
	if err := CloseIfSupported(store); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestNewStoreUnsupported(t *testing.T) {
	_, err := NewStore("unknown", "")
	if err == nil {
		t.Fatal("expected unsupported store error")
	}
}

func TestNewStoreSQLiteRequiresPath(t *testing.T) {
	if _, err := NewStore(KindSQLite, ""); err == nil {
		t.Fatal("expected sqlite error without a path")
	}
}
