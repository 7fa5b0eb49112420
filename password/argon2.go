package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/argon2"
)

const (
	minMemoryKB    uint32 = 8 * 1024
	minTimeCost    uint32 = 1
	minParallelism uint8  = 1
	minSaltLength  uint32 = 16
	minKeyLength   uint32 = 16
	algorithmID           = "argon2id"
)

// ErrInvalidHash is returned when a stored hash is not a supported PHC string.
var ErrInvalidHash = errors.New("invalid password hash")

// Config holds Argon2id cost parameters.
type Config struct {
	Memory      uint32 `yaml:"memory_kb"`
	Time        uint32 `yaml:"time"`
	Parallelism uint8  `yaml:"parallelism"`
	SaltLength  uint32 `yaml:"salt_length"`
	KeyLength   uint32 `yaml:"key_length"`
}

// DefaultConfig returns the OWASP recommended Argon2id parameters.
func DefaultConfig() Config {
	return Config{
		Memory:      64 * 1024,
		Time:        3,
		Parallelism: 2,
		SaltLength:  16,
		KeyLength:   32,
	}
}

// Argon2 hashes and verifies passwords. It is safe for concurrent use.
type Argon2 struct {
	config Config
}

// NewArgon2 validates cfg and returns a hasher.
func NewArgon2(cfg Config) (*Argon2, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	return &Argon2{config: cfg}, nil
}

// Hash returns the PHC encoding of password with a fresh random salt.
func (a *Argon2) Hash(password string) (string, error) {
	p := phc{
		memory:      a.config.Memory,
		time:        a.config.Time,
		parallelism: a.config.Parallelism,
		salt:        make([]byte, a.config.SaltLength),
	}
	if _, err := io.ReadFull(rand.Reader, p.salt); err != nil {
		return "", fmt.Errorf("read salt: %w", err)
	}
	p.hash = p.derive(password, a.config.KeyLength)
	return p.String(), nil
}

// Verify reports whether password matches encodedHash, using the parameters
// recorded in the hash rather than the hasher's own.
func (a *Argon2) Verify(password, encodedHash string) (bool, error) {
	p, err := parsePHC(encodedHash)
	if err != nil {
		return false, err
	}
	return subtle.ConstantTimeCompare(p.derive(password, uint32(len(p.hash))), p.hash) == 1, nil
}

// NeedsRehash reports whether encodedHash was produced with parameters other
// than the hasher's current ones. Unparseable hashes always need one.
func (a *Argon2) NeedsRehash(encodedHash string) bool {
	p, err := parsePHC(encodedHash)
	if err != nil {
		return true
	}
	return p.memory != a.config.Memory ||
		p.time != a.config.Time ||
		p.parallelism != a.config.Parallelism ||
		len(p.salt) != int(a.config.SaltLength) ||
		len(p.hash) != int(a.config.KeyLength)
}

// phc is a decoded $argon2id$v=19$m=..,t=..,p=..$salt$key string.
type phc struct {
	memory      uint32
	time        uint32
	parallelism uint8
	salt        []byte
	hash        []byte
}

func (p *phc) derive(password string, keyLen uint32) []byte {
	return argon2.IDKey([]byte(password), p.salt, p.time, p.memory, p.parallelism, keyLen)
}

func (p *phc) String() string {
	return fmt.Sprintf("$%s$v=%d$m=%d,t=%d,p=%d$%s$%s",
		algorithmID, argon2.Version, p.memory, p.time, p.parallelism,
		base64.RawStdEncoding.EncodeToString(p.salt),
		base64.RawStdEncoding.EncodeToString(p.hash),
	)
}

func parsePHC(encoded string) (*phc, error) {
	fields := strings.Split(encoded, "$")
	if len(fields) != 6 || fields[0] != "" || fields[1] != algorithmID {
		return nil, fmt.Errorf("%w: not an %s PHC string", ErrInvalidHash, algorithmID)
	}

	var version int
	if _, err := fmt.Sscanf(fields[2], "v=%d", &version); err != nil || version != argon2.Version {
		return nil, fmt.Errorf("%w: unsupported version %q", ErrInvalidHash, fields[2])
	}

	p := &phc{}
	if _, err := fmt.Sscanf(fields[3], "m=%d,t=%d,p=%d", &p.memory, &p.time, &p.parallelism); err != nil {
		return nil, fmt.Errorf("%w: parameters: %v", ErrInvalidHash, err)
	}
	if p.memory < minMemoryKB || p.time < minTimeCost || p.parallelism < minParallelism {
		return nil, fmt.Errorf("%w: parameters below minimum", ErrInvalidHash)
	}

	var err error
	if p.salt, err = decodeB64(fields[4]); err != nil || len(p.salt) < int(minSaltLength) {
		return nil, fmt.Errorf("%w: salt", ErrInvalidHash)
	}
	if p.hash, err = decodeB64(fields[5]); err != nil || len(p.hash) < int(minKeyLength) {
		return nil, fmt.Errorf("%w: key", ErrInvalidHash)
	}
	return p, nil
}

// decodeB64 accepts both the unpadded PHC form and padded base64.
func decodeB64(s string) ([]byte, error) {
	return base64.RawStdEncoding.DecodeString(strings.TrimRight(s, "="))
}

func validateConfig(cfg Config) error {
	checks := []struct {
		ok  bool
		msg string
	}{
		{cfg.Memory >= minMemoryKB, fmt.Sprintf("memory_kb must be >= %d", minMemoryKB)},
		{cfg.Time >= minTimeCost, fmt.Sprintf("time must be >= %d", minTimeCost)},
		{cfg.Parallelism >= minParallelism, fmt.Sprintf("parallelism must be >= %d", minParallelism)},
		{cfg.SaltLength >= minSaltLength, fmt.Sprintf("salt_length must be >= %d", minSaltLength)},
		{cfg.KeyLength >= minKeyLength, fmt.Sprintf("key_length must be >= %d", minKeyLength)},
	}
	for _, c := range checks {
		if !c.ok {
			return fmt.Errorf("password %s", c.msg)
		}
	}
	return nil
}
