// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the ledger core
// from concrete key-value store and identity implementations.
package port

import (
	"context"

	"github.com/flixpense/expense-ledger-go/internal/domain"
)

// KVStore is the persistent key-value capability underneath the ledger:
// asynchronous get/set/remove of string payloads by string key, with no
// transactional guarantees. Get returns ok=false when the key is absent.
type KVStore interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

// IdentityReader resolves the authenticated owner whose identity stamps
// new records and scopes queries.
type IdentityReader interface {
	Owner(ctx context.Context) (*domain.OwnerIdentity, error)
}

// Cache provides generic caching with TTL.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
}
