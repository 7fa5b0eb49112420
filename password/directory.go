package password

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrInvalidCredentials is the single failure a Directory reports for an
// unknown user or a wrong password. Its text is shown to clients.
var ErrInvalidCredentials = errors.New("Incorrect username or password")

// User is the principal a Directory authenticates.
type User struct {
	Username    string `json:"username" yaml:"username" cbor:"username"`
	DisplayName string `json:"name,omitempty" yaml:"name" cbor:"name,omitempty"`
}

type entry struct {
	user User
	hash string
}

// Directory is an in-memory user table keyed by username.
type Directory struct {
	hasher *Argon2

	mu    sync.RWMutex
	users map[string]entry

	// decoy is verified for unknown usernames so both failure paths cost one
	// argon2 evaluation.
	decoy string
}

// NewDirectory creates an empty directory that verifies with hasher.
func NewDirectory(hasher *Argon2) (*Directory, error) {
	if hasher == nil {
		return nil, errors.New("password hasher required")
	}
	decoy, err := hasher.Hash("decoy-password-never-matches")
	if err != nil {
		return nil, err
	}
	return &Directory{
		hasher: hasher,
		users:  make(map[string]entry),
		decoy:  decoy,
	}, nil
}

// Add registers user with an existing PHC hash.
func (d *Directory) Add(user User, encodedHash string) error {
	if user.Username == "" {
		return errors.New("username required")
	}
	if _, err := parsePHC(encodedHash); err != nil {
		return fmt.Errorf("user %q: %w", user.Username, err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.users[user.Username] = entry{user: user, hash: encodedHash}
	return nil
}

// AddPassword hashes plaintext and registers user with it.
func (d *Directory) AddPassword(user User, plaintext string) error {
	hash, err := d.hasher.Hash(plaintext)
	if err != nil {
		return err
	}
	return d.Add(user, hash)
}

// Len returns the number of registered users.
func (d *Directory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.users)
}

// Authenticate checks username and password. Its signature matches
// goSession.AuthenticateFunc[User].
func (d *Directory) Authenticate(ctx context.Context, username, password string) (User, error) {
	if err := ctx.Err(); err != nil {
		return User{}, err
	}

	d.mu.RLock()
	e, ok := d.users[username]
	d.mu.RUnlock()

	hash := e.hash
	if !ok {
		hash = d.decoy
	}

	match, err := d.hasher.Verify(password, hash)
	if err != nil {
		return User{}, err
	}
	if !ok || !match {
		return User{}, ErrInvalidCredentials
	}

	if d.hasher.NeedsRehash(e.hash) {
		d.upgrade(username, e.hash, password)
	}
	return e.user, nil
}

// upgrade re-hashes a verified password with the current parameters. The
// stored hash is only replaced if nobody changed it meanwhile; a failed
// re-hash keeps the old one.
func (d *Directory) upgrade(username, oldHash, password string) {
	fresh, err := d.hasher.Hash(password)
	if err != nil {
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if cur, ok := d.users[username]; ok && cur.hash == oldHash {
		cur.hash = fresh
		d.users[username] = cur
	}
}

// Hash returns the stored hash for username.
func (d *Directory) Hash(username string) (string, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	e, ok := d.users[username]
	return e.hash, ok
}
