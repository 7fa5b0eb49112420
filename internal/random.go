package internal

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"iter"
)

// MinSessionIDBytes is the smallest accepted entropy size (128 bits).
const MinSessionIDBytes = 16

// DefaultSessionIDBytes yields 64 hex character session ids.
const DefaultSessionIDBytes = 32

// ErrSessionIDExhausted is returned when every drawn candidate was already in use.
var ErrSessionIDExhausted = errors.New("session id attempts exhausted")

// Membership is the part of a session store the generator needs.
type Membership interface {
	Contains(ctx context.Context, sessionID string) (bool, error)
}

// SessionIDSource draws random hex session ids. It holds no lock and keeps no
// record of what it produced; uniqueness is only checked against a store.
type SessionIDSource struct {
	reader io.Reader
	size   int
}

// NewSessionIDSource returns a source reading size bytes per id from r.
// A nil reader selects crypto/rand; sizes below MinSessionIDBytes are raised.
func NewSessionIDSource(r io.Reader, size int) *SessionIDSource {
	if r == nil {
		r = rand.Reader
	}
	if size < MinSessionIDBytes {
		size = MinSessionIDBytes
	}
	return &SessionIDSource{reader: r, size: size}
}

// NewSessionID draws a single candidate.
func (s *SessionIDSource) NewSessionID() (string, error) {
	buf := make([]byte, s.size)
	if _, err := io.ReadFull(s.reader, buf); err != nil {
		return "", fmt.Errorf("read session id entropy: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// Candidates returns an infinite sequence of candidate ids. Every call starts
// a fresh sequence. The sequence ends after yielding a read error.
func (s *SessionIDSource) Candidates() iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		for {
			id, err := s.NewSessionID()
			if !yield(id, err) || err != nil {
				return
			}
		}
	}
}

// NextUnique draws candidates until one is absent from m and returns it along
// with the number of collisions seen. After maxAttempts draws it gives up with
// ErrSessionIDExhausted.
//
// The result is only known to be absent at the time of the check; the caller's
// later insert must still handle a concurrent duplicate.
func (s *SessionIDSource) NextUnique(ctx context.Context, m Membership, maxAttempts int) (string, int, error) {
	if maxAttempts <= 0 {
		maxAttempts = 1
	}

	collisions := 0
	attempts := 0
	for id, err := range s.Candidates() {
		if err != nil {
			return "", collisions, err
		}
		if err := ctx.Err(); err != nil {
			return "", collisions, err
		}

		exists, err := m.Contains(ctx, id)
		if err != nil {
			return "", collisions, fmt.Errorf("check session id: %w", err)
		}
		if !exists {
			return id, collisions, nil
		}

		collisions++
		attempts++
		if attempts >= maxAttempts {
			break
		}
	}

	return "", collisions, ErrSessionIDExhausted
}
