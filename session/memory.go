package session

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore is a thread-safe in-memory session store. Check-and-insert is
// atomic under its lock.
type MemoryStore[U any] struct {
	mu       sync.RWMutex
	sessions map[string]U
}

// NewMemoryStore creates a new empty in-memory session store.
func NewMemoryStore[U any]() *MemoryStore[U] {
	return &MemoryStore[U]{
		sessions: make(map[string]U),
	}
}

func (m *MemoryStore[U]) Contains(_ context.Context, id string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.sessions[id]
	return ok, nil
}

func (m *MemoryStore[U]) Insert(_ context.Context, id string, principal U) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[id]; ok {
		return ErrSessionExists
	}
	m.sessions[id] = principal
	return nil
}

func (m *MemoryStore[U]) Lookup(_ context.Context, id string) (U, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	principal, ok := m.sessions[id]
	return principal, ok, nil
}

func (m *MemoryStore[U]) Remove(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[id]; !ok {
		return ErrSessionNotFound
	}
	delete(m.sessions, id)
	return nil
}

// Len returns the number of active sessions.
func (m *MemoryStore[U]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Keys returns the active session ids in sorted order.
func (m *MemoryStore[U]) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		keys = append(keys, id)
	}
	sort.Strings(keys)
	return keys
}
