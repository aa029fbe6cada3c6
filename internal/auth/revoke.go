package auth

import (
	"context"
	"errors"
	"time"

	"github.com/mkuznetsov/bookstore-api/internal/cache"
)

// Revoker tracks tokens that must no longer be accepted. Logout revokes the
// presented token; the authenticator consults the list on every request.
type Revoker interface {
	Revoke(ctx context.Context, claims *Claims) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

type cacheRevoker struct {
	cache cache.Cache
}

func NewRevoker(c cache.Cache) Revoker {
	return &cacheRevoker{cache: c}
}

// Revoke lists the token until its natural expiry; after that the signature
// check rejects it anyway, so the entry can lapse with the token.
func (r *cacheRevoker) Revoke(ctx context.Context, claims *Claims) error {
	if claims.ExpiresAt == nil {
		return nil
	}
	ttl := time.Until(claims.ExpiresAt.Time)
	if ttl <= 0 {
		return nil
	}
	return r.cache.Set(ctx, r.cache.Key("revoked_token", claims.ID), []byte("1"), ttl)
}

func (r *cacheRevoker) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	if tokenID == "" {
		return false, nil
	}
	_, err := r.cache.Get(ctx, r.cache.Key("revoked_token", tokenID))
	if errors.Is(err, cache.ErrMiss) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
