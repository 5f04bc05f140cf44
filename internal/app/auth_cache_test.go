package app

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/courtsync/booking/internal/domain/user"
	"github.com/courtsync/booking/internal/platform/cache"
)

type countingVerifier struct {
	calls int
	err   error
}

func (v *countingVerifier) VerifyAccessToken(_ context.Context, token string) (user.Principal, error) {
	v.calls++
	if v.err != nil {
		return user.Principal{}, v.err
	}
	return user.Principal{UserID: "user-" + token}, nil
}

func TestCachingVerifier_MemoizesSuccess(t *testing.T) {
	upstream := &countingVerifier{}
	verifier := newCachingVerifier(upstream, cache.NewStore(time.Minute))

	for i := 0; i < 3; i++ {
		principal, err := verifier.VerifyAccessToken(context.Background(), "abc")
		if err != nil {
			t.Fatalf("verify: %v", err)
		}
		if principal.UserID != "user-abc" {
			t.Fatalf("unexpected principal %+v", principal)
		}
	}
	if upstream.calls != 1 {
		t.Fatalf("expected a single upstream introspection, got %d", upstream.calls)
	}

	if _, err := verifier.VerifyAccessToken(context.Background(), "other"); err != nil {
		t.Fatalf("verify other token: %v", err)
	}
	if upstream.calls != 2 {
		t.Fatalf("distinct tokens must introspect separately, got %d calls", upstream.calls)
	}
}

func TestCachingVerifier_DoesNotCacheFailures(t *testing.T) {
	upstream := &countingVerifier{err: fmt.Errorf("account service down")}
	verifier := newCachingVerifier(upstream, cache.NewStore(time.Minute))

	for i := 0; i < 2; i++ {
		if _, err := verifier.VerifyAccessToken(context.Background(), "abc"); err == nil {
			t.Fatal("expected error from upstream")
		}
	}
	if upstream.calls != 2 {
		t.Fatalf("failures must not be cached, got %d calls", upstream.calls)
	}
}
