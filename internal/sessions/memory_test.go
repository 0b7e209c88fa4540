package sessions

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryStoreLifecycle(t *testing.T) {
	store := NewMemoryStore(time.Hour)
	ctx := context.Background()

	if _, err := store.Get(ctx, 1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	session := ActiveSession{StaffID: 1, Name: "Ana", Role: "STAFF", IssuedAt: time.Now()}
	if err := store.Save(ctx, session); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := store.Get(ctx, 1)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != "Ana" || got.Role != "STAFF" {
		t.Fatalf("unexpected session: %+v", got)
	}

	if err := store.Delete(ctx, 1); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.Get(ctx, 1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestMemoryStoreExpiry(t *testing.T) {
	store := NewMemoryStore(10 * time.Millisecond)
	ctx := context.Background()

	session := ActiveSession{StaffID: 2, IssuedAt: time.Now().Add(-time.Minute)}
	if err := store.Save(ctx, session); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := store.Get(ctx, 2); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected expired session to be gone, got %v", err)
	}
}
