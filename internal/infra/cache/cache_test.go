package cache_test

import (
	"testing"
	"time"

	"github.com/flixpense/expense-ledger-go/internal/domain"
	"github.com/flixpense/expense-ledger-go/internal/infra/cache"
)

func TestCache_SetAndGet(t *testing.T) {
	c := cache.New[*domain.OwnerIdentity](5 * time.Minute)

	c.Set("owner", &domain.OwnerIdentity{Email: "u1@x.com"})
	val, ok := c.Get("owner")
	if !ok {
		t.Fatal("expected key to exist")
	}
	if val.Email != "u1@x.com" {
		t.Errorf("expected 'u1@x.com', got '%s'", val.Email)
	}
}

func TestCache_GetMiss(t *testing.T) {
	c := cache.New[string](5 * time.Minute)

	_, ok := c.Get("nonexistent")
	if ok {
		t.Fatal("expected cache miss for nonexistent key")
	}
}

func TestCache_Expiration(t *testing.T) {
	c := cache.New[string](50 * time.Millisecond)

	c.Set("key1", "value1")
	time.Sleep(100 * time.Millisecond)

	_, ok := c.Get("key1")
	if ok {
		t.Fatal("expected cache entry to be expired")
	}
}

func TestCache_Delete(t *testing.T) {
	c := cache.New[string](5 * time.Minute)

	c.Set("key1", "value1")
	c.Delete("key1")

	_, ok := c.Get("key1")
	if ok {
		t.Fatal("expected key to be deleted")
	}
}
