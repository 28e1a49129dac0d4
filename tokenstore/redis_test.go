package tokenstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = rdb.Close()
		mr.Close()
	})
	return NewRedisStore(rdb, "mwtest", time.Hour), mr
}

func TestRedisStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, _ := newRedisStore(t)

	if _, ok, err := store.Get(ctx, KindCSRF); err != nil || ok {
		t.Fatalf("empty store Get = ok=%v err=%v, want absent", ok, err)
	}
	if err := store.Set(ctx, KindCSRF, "tok1+\\"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	value, ok, err := store.Get(ctx, KindCSRF)
	if err != nil || !ok || value != "tok1+\\" {
		t.Fatalf("Get = (%q, %v, %v)", value, ok, err)
	}
}

func TestRedisStoreKeysExpire(t *testing.T) {
	ctx := context.Background()
	store, mr := newRedisStore(t)

	_ = store.Set(ctx, KindCSRF, "tok")
	mr.FastForward(2 * time.Hour)

	if _, ok, err := store.Get(ctx, KindCSRF); err != nil || ok {
		t.Fatalf("token survived TTL: ok=%v err=%v", ok, err)
	}
}

func TestRedisStoreInvalidateAndClear(t *testing.T) {
	ctx := context.Background()
	store, _ := newRedisStore(t)

	_ = store.Set(ctx, KindCSRF, "a")
	_ = store.Set(ctx, KindLogin, "b")

	if err := store.Invalidate(ctx, KindCSRF); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}
	if err := store.Invalidate(ctx, KindCSRF); err != nil {
		t.Fatalf("Invalidate twice must stay idempotent: %v", err)
	}
	if _, ok, _ := store.Get(ctx, KindCSRF); ok {
		t.Fatal("csrf token survived invalidation")
	}
	if _, ok, _ := store.Get(ctx, KindLogin); !ok {
		t.Fatal("unrelated kind was invalidated")
	}

	if err := store.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if _, ok, _ := store.Get(ctx, KindLogin); ok {
		t.Fatal("login token survived Clear")
	}
}

func TestRedisStoreUnavailable(t *testing.T) {
	ctx := context.Background()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewRedisStore(rdb, "", 0)
	mr.Close()

	if _, _, err := store.Get(ctx, KindCSRF); err == nil {
		t.Fatal("expected error from closed backend")
	} else if !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("error %v must wrap ErrStoreUnavailable", err)
	}
	_ = rdb.Close()
}
