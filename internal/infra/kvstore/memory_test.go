package kvstore_test

import (
	"context"
	"testing"

	"github.com/flixpense/expense-ledger-go/internal/infra/kvstore"
)

func TestMemoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := kvstore.NewMemory()

	if _, ok, err := store.Get(ctx, "missing"); err != nil || ok {
		t.Fatalf("expected absent key, got ok=%v err=%v", ok, err)
	}

	if err := store.Set(ctx, "k", "v1"); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if err := store.Set(ctx, "k", "v2"); err != nil {
		t.Fatalf("overwrite failed: %v", err)
	}

	v, ok, err := store.Get(ctx, "k")
	if err != nil || !ok {
		t.Fatalf("expected key present, got ok=%v err=%v", ok, err)
	}
	if v != "v2" {
		t.Errorf("expected v2, got %q", v)
	}
}

func TestMemoryRemove(t *testing.T) {
	ctx := context.Background()
	store := kvstore.NewMemory()

	if err := store.Remove(ctx, "never-set"); err != nil {
		t.Fatalf("removing absent key should succeed, got %v", err)
	}

	_ = store.Set(ctx, "k", "v")
	if err := store.Remove(ctx, "k"); err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	if _, ok, _ := store.Get(ctx, "k"); ok {
		t.Error("expected key gone after remove")
	}
}

func TestMemoryCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	store := kvstore.NewMemory()
	if _, _, err := store.Get(ctx, "k"); err == nil {
		t.Error("expected error with cancelled context")
	}
	if err := store.Set(ctx, "k", "v"); err == nil {
		t.Error("expected error with cancelled context")
	}
}
