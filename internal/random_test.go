package internal

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
)

type setMembership struct {
	mu    sync.Mutex
	ids   map[string]bool
	calls int
	err   error
}

func (m *setMembership) Contains(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return false, m.err
	}
	return m.ids[id], nil
}

// repeatReader returns blocks of size n, each filled with the next byte in seq.
type repeatReader struct {
	seq []byte
	n   int
	pos int
}

func (r *repeatReader) Read(p []byte) (int, error) {
	if r.pos >= len(r.seq) {
		return 0, errors.New("entropy exhausted")
	}
	b := r.seq[r.pos]
	r.pos++
	for i := range p {
		p[i] = b
	}
	return len(p), nil
}

func hexOf(b byte, n int) string {
	return strings.Repeat(string("0123456789abcdef"[b>>4])+string("0123456789abcdef"[b&0x0f]), n)
}

func TestNewSessionIDIsHexWithRequestedEntropy(t *testing.T) {
	src := NewSessionIDSource(nil, DefaultSessionIDBytes)

	id, err := src.NewSessionID()
	if err != nil {
		t.Fatalf("NewSessionID failed: %v", err)
	}
	if len(id) != DefaultSessionIDBytes*2 {
		t.Fatalf("expected %d hex chars, got %d", DefaultSessionIDBytes*2, len(id))
	}
	if strings.Trim(id, "0123456789abcdef") != "" {
		t.Fatalf("expected lowercase hex, got %q", id)
	}
}

func TestSessionIDSizeHasFloor(t *testing.T) {
	src := NewSessionIDSource(nil, 4)

	id, err := src.NewSessionID()
	if err != nil {
		t.Fatalf("NewSessionID failed: %v", err)
	}
	if len(id) != MinSessionIDBytes*2 {
		t.Fatalf("expected floor of %d bytes, got %d hex chars", MinSessionIDBytes, len(id))
	}
}

func TestCandidatesAreDistinctAndRestartable(t *testing.T) {
	src := NewSessionIDSource(nil, DefaultSessionIDBytes)

	seen := make(map[string]struct{})
	for round := 0; round < 3; round++ {
		n := 0
		for id, err := range src.Candidates() {
			if err != nil {
				t.Fatalf("candidate failed: %v", err)
			}
			if _, dup := seen[id]; dup {
				t.Fatalf("duplicate candidate %q", id)
			}
			seen[id] = struct{}{}
			n++
			if n == 100 {
				break
			}
		}
	}
	if len(seen) != 300 {
		t.Fatalf("expected 300 candidates, got %d", len(seen))
	}
}

func TestCandidatesStopOnReadError(t *testing.T) {
	src := NewSessionIDSource(&repeatReader{seq: []byte{1}}, MinSessionIDBytes)

	var errs, ids int
	for _, err := range src.Candidates() {
		if err != nil {
			errs++
			continue
		}
		ids++
	}
	if ids != 1 || errs != 1 {
		t.Fatalf("expected one id then one error, got ids=%d errs=%d", ids, errs)
	}
}

func TestNextUniqueSkipsCollisions(t *testing.T) {
	reader := &repeatReader{seq: []byte{0xaa, 0xbb, 0xcc}}
	src := NewSessionIDSource(reader, MinSessionIDBytes)
	m := &setMembership{ids: map[string]bool{
		hexOf(0xaa, MinSessionIDBytes): true,
		hexOf(0xbb, MinSessionIDBytes): true,
	}}

	id, collisions, err := src.NextUnique(context.Background(), m, 8)
	if err != nil {
		t.Fatalf("NextUnique failed: %v", err)
	}
	if id != hexOf(0xcc, MinSessionIDBytes) {
		t.Fatalf("unexpected id %q", id)
	}
	if collisions != 2 || m.calls != 3 {
		t.Fatalf("expected 2 collisions over 3 checks, got %d / %d", collisions, m.calls)
	}
}

func TestNextUniqueGivesUpAfterMaxAttempts(t *testing.T) {
	reader := &repeatReader{seq: bytes.Repeat([]byte{0x11}, 10)}
	src := NewSessionIDSource(reader, MinSessionIDBytes)
	m := &setMembership{ids: map[string]bool{hexOf(0x11, MinSessionIDBytes): true}}

	_, collisions, err := src.NextUnique(context.Background(), m, 3)
	if !errors.Is(err, ErrSessionIDExhausted) {
		t.Fatalf("expected ErrSessionIDExhausted, got %v", err)
	}
	if collisions != 3 || m.calls != 3 {
		t.Fatalf("expected 3 collisions over 3 checks, got %d / %d", collisions, m.calls)
	}
}

func TestNextUniquePropagatesMembershipError(t *testing.T) {
	boom := errors.New("backend down")
	src := NewSessionIDSource(nil, DefaultSessionIDBytes)

	_, _, err := src.NextUnique(context.Background(), &setMembership{err: boom}, 4)
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped backend error, got %v", err)
	}
}

func TestNextUniqueHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	m := &setMembership{ids: map[string]bool{}}
	_, _, err := NewSessionIDSource(nil, DefaultSessionIDBytes).NextUnique(ctx, m, 4)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if m.calls != 0 {
		t.Fatalf("expected no membership checks after cancel, got %d", m.calls)
	}
}

func TestSessionFingerprint(t *testing.T) {
	a := SessionFingerprint("abc")
	b := SessionFingerprint("abd")
	if len(a) != 16 || a == b {
		t.Fatalf("unexpected fingerprints %q %q", a, b)
	}
	if SessionFingerprint("abc") != a {
		t.Fatal("fingerprint must be deterministic")
	}
	if SessionFingerprint("") != "" {
		t.Fatal("empty id must have empty fingerprint")
	}
	if strings.Contains(a, "abc") {
		t.Fatal("fingerprint must not embed the id")
	}
}
