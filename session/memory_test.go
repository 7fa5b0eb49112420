package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
)

type principal struct {
	Name  string   `json:"name" cbor:"name"`
	Roles []string `json:"roles,omitempty" cbor:"roles,omitempty"`
}

func TestMemoryStoreInsertAndLookup(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore[principal]()

	if err := store.Insert(ctx, "sid-1", principal{Name: "alice"}); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	ok, err := store.Contains(ctx, "sid-1")
	if err != nil || !ok {
		t.Fatalf("expected sid-1 to be present, got %v, %v", ok, err)
	}

	got, found, err := store.Lookup(ctx, "sid-1")
	if err != nil || !found {
		t.Fatalf("Lookup failed: found=%v err=%v", found, err)
	}
	if got.Name != "alice" {
		t.Fatalf("Name = %q, want alice", got.Name)
	}
}

func TestMemoryStoreLookupMissingIsAbsentNotError(t *testing.T) {
	store := NewMemoryStore[principal]()

	_, found, err := store.Lookup(context.Background(), "nope")
	if err != nil {
		t.Fatalf("Lookup returned error: %v", err)
	}
	if found {
		t.Fatal("expected absent marker")
	}
}

func TestMemoryStoreInsertNeverOverwrites(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore[principal]()

	_ = store.Insert(ctx, "sid", principal{Name: "first"})
	if err := store.Insert(ctx, "sid", principal{Name: "second"}); !errors.Is(err, ErrSessionExists) {
		t.Fatalf("expected ErrSessionExists, got %v", err)
	}

	got, _, _ := store.Lookup(ctx, "sid")
	if got.Name != "first" {
		t.Fatalf("entry was overwritten: %q", got.Name)
	}
}

func TestMemoryStoreRemove(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore[principal]()
	_ = store.Insert(ctx, "sid", principal{Name: "alice"})

	if err := store.Remove(ctx, "sid"); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if store.Len() != 0 {
		t.Fatalf("expected empty store, got %d", store.Len())
	}
	if err := store.Remove(ctx, "sid"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound on second remove, got %v", err)
	}
}

func TestMemoryStoreConcurrentInsertSameIDHasOneWinner(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore[principal]()

	const workers = 64
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func(i int) {
			defer wg.Done()
			if err := store.Insert(ctx, "contended", principal{Name: fmt.Sprint(i)}); err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	if wins != 1 {
		t.Fatalf("expected exactly one successful insert, got %d", wins)
	}
}

func TestMemoryStoreKeysSorted(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore[principal]()
	for _, id := range []string{"c", "a", "b"} {
		_ = store.Insert(ctx, id, principal{})
	}

	keys := store.Keys()
	if fmt.Sprint(keys) != "[a b c]" {
		t.Fatalf("unexpected keys %v", keys)
	}
}
