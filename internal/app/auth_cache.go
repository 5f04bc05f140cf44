package app

import (
	"context"
	"fmt"

	"github.com/courtsync/booking/internal/domain/user"
	"github.com/courtsync/booking/internal/interfaces/httpapi"
	"github.com/courtsync/booking/internal/platform/cache"
)

// cachingVerifier memoizes successful token introspections for the
// cache TTL. Failures are never cached, so a revoked-then-reissued
// token is retried against the account service immediately.
type cachingVerifier struct {
	verifier httpapi.TokenVerifier
	store    *cache.Store
}

func newCachingVerifier(verifier httpapi.TokenVerifier, store *cache.Store) *cachingVerifier {
	return &cachingVerifier{verifier: verifier, store: store}
}

func (v *cachingVerifier) VerifyAccessToken(ctx context.Context, token string) (user.Principal, error) {
	value, err := v.store.GetOrLoad(ctx, "introspect:"+token, func(ctx context.Context) (any, error) {
		return v.verifier.VerifyAccessToken(ctx, token)
	})
	if err != nil {
		return user.Principal{}, err
	}

	principal, ok := value.(user.Principal)
	if !ok {
		return user.Principal{}, fmt.Errorf("unexpected cached principal type %T", value)
	}

	return principal, nil
}
