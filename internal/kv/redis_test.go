package kv

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

type record struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func setupTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	s := miniredis.RunT(t)
	store, err := New("redis://" + s.Addr())
	if err != nil {
		t.Fatalf("failed to create kv store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store, s
}

func TestSetAndGetJSON(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	want := record{Name: "lightning talks", Count: 3}
	if err := store.SetJSON(ctx, "idea:1", want, time.Hour); err != nil {
		t.Fatalf("SetJSON failed: %v", err)
	}

	var got record
	if err := store.GetJSON(ctx, "idea:1", &got); err != nil {
		t.Fatalf("GetJSON failed: %v", err)
	}
	if got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestGetMissingKeyReturnsNotFound(t *testing.T) {
	store, _ := setupTestStore(t)

	var got record
	err := store.GetJSON(context.Background(), "idea:missing", &got)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestGetExpiredKeyReturnsNotFound(t *testing.T) {
	store, s := setupTestStore(t)
	ctx := context.Background()

	if err := store.SetJSON(ctx, "token:abc", record{Name: "x"}, time.Second); err != nil {
		t.Fatalf("SetJSON failed: %v", err)
	}

	s.FastForward(2 * time.Second)

	var got record
	if err := store.GetJSON(ctx, "token:abc", &got); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after TTL, got %v", err)
	}
}

func TestDeleteIsIdempotent(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	if err := store.SetJSON(ctx, "session:1", record{}, time.Hour); err != nil {
		t.Fatalf("SetJSON failed: %v", err)
	}
	if err := store.Delete(ctx, "session:1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := store.Delete(ctx, "session:1"); err != nil {
		t.Errorf("Delete of absent key failed: %v", err)
	}

	var got record
	if err := store.GetJSON(ctx, "session:1", &got); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestKeysFiltersByPrefix(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	for _, key := range []string{"idea:1", "idea:2", "session:1"} {
		if err := store.SetJSON(ctx, key, record{}, time.Hour); err != nil {
			t.Fatalf("SetJSON %s failed: %v", key, err)
		}
	}

	keys, err := store.Keys(ctx, "idea:")
	if err != nil {
		t.Fatalf("Keys failed: %v", err)
	}
	if len(keys) != 2 {
		t.Fatalf("expected 2 idea keys, got %d: %v", len(keys), keys)
	}
	for _, key := range keys {
		if key != "idea:1" && key != "idea:2" {
			t.Errorf("unexpected key %q", key)
		}
	}
}

func TestUpdateJSONMutatesValue(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	if err := store.SetJSON(ctx, "idea:1", record{Name: "a", Count: 1}, time.Hour); err != nil {
		t.Fatalf("SetJSON failed: %v", err)
	}

	err := store.UpdateJSON(ctx, "idea:1", time.Hour, func(raw []byte) (any, error) {
		return record{Name: "a", Count: 2}, nil
	})
	if err != nil {
		t.Fatalf("UpdateJSON failed: %v", err)
	}

	var got record
	if err := store.GetJSON(ctx, "idea:1", &got); err != nil {
		t.Fatalf("GetJSON failed: %v", err)
	}
	if got.Count != 2 {
		t.Errorf("expected count 2, got %d", got.Count)
	}
}

func TestUpdateJSONMissingKey(t *testing.T) {
	store, _ := setupTestStore(t)

	err := store.UpdateJSON(context.Background(), "idea:nope", time.Hour, func(raw []byte) (any, error) {
		t.Error("fn should not run for an absent key")
		return nil, nil
	})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateJSONPropagatesFnError(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	if err := store.SetJSON(ctx, "idea:1", record{Name: "a"}, time.Hour); err != nil {
		t.Fatalf("SetJSON failed: %v", err)
	}

	wantErr := errors.New("abort")
	err := store.UpdateJSON(ctx, "idea:1", time.Hour, func(raw []byte) (any, error) {
		return nil, wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Errorf("expected fn error to propagate, got %v", err)
	}

	// Aborted update must leave the record untouched.
	var got record
	if err := store.GetJSON(ctx, "idea:1", &got); err != nil {
		t.Fatalf("GetJSON failed: %v", err)
	}
	if got.Name != "a" {
		t.Errorf("record changed after aborted update: %+v", got)
	}
}

func TestUpdateJSONRefreshesTTL(t *testing.T) {
	store, s := setupTestStore(t)
	ctx := context.Background()

	if err := store.SetJSON(ctx, "idea:1", record{Count: 1}, time.Minute); err != nil {
		t.Fatalf("SetJSON failed: %v", err)
	}

	if err := store.UpdateJSON(ctx, "idea:1", time.Hour, func(raw []byte) (any, error) {
		return record{Count: 2}, nil
	}); err != nil {
		t.Fatalf("UpdateJSON failed: %v", err)
	}

	if ttl := s.TTL("idea:1"); ttl != time.Hour {
		t.Errorf("expected TTL refreshed to 1h, got %v", ttl)
	}
}
