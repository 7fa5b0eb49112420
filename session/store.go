package session

import (
	"context"
	"errors"
)

// ErrSessionExists is returned by Insert when the id is already in use.
var ErrSessionExists = errors.New("session already exists")

// ErrSessionNotFound is returned by Remove when the id is not in the store.
var ErrSessionNotFound = errors.New("session not found")

// ErrStoreUnavailable wraps failures of the backing service.
var ErrStoreUnavailable = errors.New("session store unavailable")

// ErrCodec wraps principal serialization failures.
var ErrCodec = errors.New("session codec failure")

// Store is the session store contract used by the Engine. Implementations
// must be safe for concurrent use.
type Store[U any] interface {
	// Contains reports whether id belongs to an active session.
	Contains(ctx context.Context, id string) (bool, error)
	// Insert stores principal under id. It fails with ErrSessionExists if the
	// id is already present and never overwrites.
	Insert(ctx context.Context, id string, principal U) error
	// Lookup returns the principal for id. The boolean is false when the id is
	// absent; that is not an error.
	Lookup(ctx context.Context, id string) (U, bool, error)
	// Remove deletes id. It fails with ErrSessionNotFound if the id is absent.
	Remove(ctx context.Context, id string) error
}
