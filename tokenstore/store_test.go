package tokenstore

import (
	"context"
	"testing"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	if _, ok, _ := store.Get(ctx, KindCSRF); ok {
		t.Fatal("empty store must report absence")
	}

	if err := store.Set(ctx, KindCSRF, "abc+\\"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	value, ok, err := store.Get(ctx, KindCSRF)
	if err != nil || !ok || value != "abc+\\" {
		t.Fatalf("Get = (%q, %v, %v), want cached value", value, ok, err)
	}

	// Overwrite keeps exactly one value per kind.
	if err := store.Set(ctx, KindCSRF, "def+\\"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	value, _, _ = store.Get(ctx, KindCSRF)
	if value != "def+\\" {
		t.Fatalf("overwrite failed, got %q", value)
	}
}

func TestMemoryStoreInvalidateIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	_ = store.Set(ctx, KindWatch, "tok")

	for i := 0; i < 3; i++ {
		if err := store.Invalidate(ctx, KindWatch); err != nil {
			t.Fatalf("Invalidate #%d: %v", i, err)
		}
	}
	if _, ok, _ := store.Get(ctx, KindWatch); ok {
		t.Fatal("token survived invalidation")
	}
}

func TestMemoryStoreClearDropsAllKinds(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	_ = store.Set(ctx, KindCSRF, "a")
	_ = store.Set(ctx, KindLogin, "b")

	if err := store.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	for _, kind := range []Kind{KindCSRF, KindLogin} {
		if _, ok, _ := store.Get(ctx, kind); ok {
			t.Fatalf("kind %s survived Clear", kind)
		}
	}
}

func TestKindValid(t *testing.T) {
	for _, kind := range []Kind{KindCSRF, KindLogin, KindPatrol, KindRollback, KindWatch, KindCreateAccount, KindUserRights} {
		if !kind.Valid() {
			t.Fatalf("%s should be valid", kind)
		}
	}
	if Kind("sudo").Valid() {
		t.Fatal("unknown kind reported valid")
	}
}
