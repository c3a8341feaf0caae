// Package identity resolves the authenticated owner from the identity
// keys the sign-in flow leaves in the key-value store.
package identity

import (
	"context"

	"github.com/flixpense/expense-ledger-go/internal/domain"
	"github.com/flixpense/expense-ledger-go/internal/infra/observability"
	"github.com/flixpense/expense-ledger-go/internal/port"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

const cacheKey = "owner"

// Reader resolves the owner identity: plain name/email/photo keys
// first, then the claims of a stored Google ID token when the plain
// keys were never written. Resolutions are cached for the configured
// TTL so every screen focus does not hit the store.
type Reader struct {
	store   port.KVStore
	keys    domain.StorageKeys
	cache   port.Cache[*domain.OwnerIdentity]
	metrics *observability.Metrics
	logger  *zap.Logger
	parser  *jwt.Parser
}

// NewReader creates an identity reader.
func NewReader(store port.KVStore, keys domain.StorageKeys, cache port.Cache[*domain.OwnerIdentity], metrics *observability.Metrics, logger *zap.Logger) *Reader {
	return &Reader{
		store:   store,
		keys:    keys,
		cache:   cache,
		metrics: metrics,
		logger:  logger,
		parser:  jwt.NewParser(),
	}
}

// Owner returns the signed-in owner, or ErrNotFound when no identity
// has been stored.
func (r *Reader) Owner(ctx context.Context) (*domain.OwnerIdentity, error) {
	if owner, ok := r.cache.Get(cacheKey); ok {
		r.metrics.IncrCacheHit("identity")
		return owner, nil
	}
	r.metrics.IncrCacheMiss("identity")

	owner, err := r.readPlainKeys(ctx)
	if err != nil {
		return nil, err
	}
	if owner == nil {
		owner, err = r.readTokenClaims(ctx)
		if err != nil {
			return nil, err
		}
	}
	if owner == nil {
		return nil, &domain.ErrNotFound{Resource: "owner identity", ID: r.keys.OwnerEmail}
	}

	r.cache.Set(cacheKey, owner)
	r.logger.Debug("owner identity resolved", zap.String("owner", owner.Label()))
	return owner, nil
}

// Invalidate drops the cached identity, for use after sign-out.
func (r *Reader) Invalidate() {
	r.cache.Delete(cacheKey)
}

func (r *Reader) readPlainKeys(ctx context.Context) (*domain.OwnerIdentity, error) {
	name, _, err := r.get(ctx, r.keys.OwnerName)
	if err != nil {
		return nil, err
	}
	email, _, err := r.get(ctx, r.keys.OwnerEmail)
	if err != nil {
		return nil, err
	}
	photo, _, err := r.get(ctx, r.keys.OwnerPhoto)
	if err != nil {
		return nil, err
	}

	if name == "" && email == "" {
		return nil, nil
	}
	return &domain.OwnerIdentity{Name: name, Email: email, Photo: photo}, nil
}

// readTokenClaims recovers the identity from a stored Google ID token.
// The token was verified by the sign-in flow when it was stored; here
// the claims are only read, so the parse is deliberately unverified.
func (r *Reader) readTokenClaims(ctx context.Context) (*domain.OwnerIdentity, error) {
	raw, ok, err := r.get(ctx, r.keys.IDToken)
	if err != nil {
		return nil, err
	}
	if !ok || raw == "" {
		return nil, nil
	}

	claims := jwt.MapClaims{}
	if _, _, err := r.parser.ParseUnverified(raw, claims); err != nil {
		r.logger.Warn("stored id token unparseable", zap.Error(err))
		return nil, nil
	}

	owner := &domain.OwnerIdentity{
		Name:  stringClaim(claims, "name"),
		Email: stringClaim(claims, "email"),
		Photo: stringClaim(claims, "picture"),
	}
	if owner.Name == "" && owner.Email == "" {
		return nil, nil
	}
	return owner, nil
}

func (r *Reader) get(ctx context.Context, key string) (string, bool, error) {
	v, ok, err := r.store.Get(ctx, key)
	if err != nil {
		r.metrics.IncrStorageError("read")
		return "", false, &domain.ErrStorageRead{Key: key, Err: err}
	}
	return v, ok, nil
}

func stringClaim(claims jwt.MapClaims, name string) string {
	if v, ok := claims[name].(string); ok {
		return v
	}
	return ""
}

var _ port.IdentityReader = (*Reader)(nil)
