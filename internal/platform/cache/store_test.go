package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestStore_GetOrLoad_CollapsesConcurrentLoads(t *testing.T) {
	t.Parallel()

	store := NewStore(time.Minute)
	var loads atomic.Int32

	loader := func(context.Context) (any, error) {
		loads.Add(1)
		time.Sleep(20 * time.Millisecond)
		return "principal", nil
	}

	const callers = 32
	start := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(callers)

	for i := 0; i < callers; i++ {
		go func() {
			defer wg.Done()
			<-start
			v, err := store.GetOrLoad(context.Background(), "introspect:token-ana", loader)
			if err != nil {
				t.Errorf("get or load: %v", err)
				return
			}
			if got, _ := v.(string); got != "principal" {
				t.Errorf("unexpected value %v", v)
			}
		}()
	}

	close(start)
	wg.Wait()

	if got := loads.Load(); got != 1 {
		t.Fatalf("loader ran %d times, want 1", got)
	}
}

func TestStore_GetOrLoad_ServesCachedValue(t *testing.T) {
	t.Parallel()

	store := NewStore(time.Minute)
	var loads atomic.Int32

	loader := func(context.Context) (any, error) {
		loads.Add(1)
		return "cached", nil
	}

	for i := 0; i < 3; i++ {
		if _, err := store.GetOrLoad(context.Background(), "introspect:token-bruno", loader); err != nil {
			t.Fatalf("get or load %d: %v", i, err)
		}
	}

	if got := loads.Load(); got != 1 {
		t.Fatalf("loader ran %d times, want 1", got)
	}
}

func TestStore_GetOrLoad_DoesNotCacheLoaderErrors(t *testing.T) {
	t.Parallel()

	store := NewStore(time.Minute)
	var loads atomic.Int32

	loader := func(context.Context) (any, error) {
		loads.Add(1)
		return nil, errors.New("account service down")
	}

	for i := 0; i < 2; i++ {
		if _, err := store.GetOrLoad(context.Background(), "introspect:token-caro", loader); err == nil {
			t.Fatalf("expected loader error on call %d", i)
		}
	}

	if got := loads.Load(); got != 2 {
		t.Fatalf("loader ran %d times, want 2 (errors must not cache)", got)
	}
}

func TestStore_DeleteAndPrefix(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewStore(time.Minute)
	store.Set(ctx, "introspect:token-ana", "a")
	store.Set(ctx, "introspect:token-bruno", "b")
	store.Set(ctx, "catalog:ct-1", "court")

	store.Delete(ctx, "introspect:token-ana")
	if _, ok := store.Get(ctx, "introspect:token-ana"); ok {
		t.Fatal("expected deleted key to be gone")
	}

	store.DeletePrefix(ctx, "introspect:")
	if _, ok := store.Get(ctx, "introspect:token-bruno"); ok {
		t.Fatal("expected prefix-deleted key to be gone")
	}
	if _, ok := store.Get(ctx, "catalog:ct-1"); !ok {
		t.Fatal("expected unrelated key to survive")
	}
}
