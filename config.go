package goSession

import (
	"errors"
	"strings"

	"github.com/MrEthical07/goSession/internal"
	"github.com/MrEthical07/goSession/session"
	"github.com/MrEthical07/goSession/token"
)

// Config is the full engine configuration. Builder copies it, so changes made
// after Build have no effect.
type Config struct {
	Token     TokenConfig     `yaml:"token"`
	SessionID SessionIDConfig `yaml:"session_id"`
	Store     StoreConfig     `yaml:"store"`
	Routes    RoutesConfig    `yaml:"routes"`
	Audit     AuditConfig     `yaml:"audit"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

/*
====================================
TOKEN CONFIG
====================================
*/

// TokenConfig controls how tokens are issued and read back.
//
// Type selects the token_type returned by login. With TypeCookie the token is
// also set as a cookie named CookieName and read from it when no
// Authorization header is sent. StrictDecoding rejects malformed base64
// padding in presented tokens.
type TokenConfig struct {
	Type           token.Type `yaml:"type"`
	CookieName     string     `yaml:"cookie_name"`
	StrictDecoding bool       `yaml:"strict_decoding"`
}

/*
====================================
SESSION ID CONFIG
====================================
*/

// SessionIDConfig sizes generated session ids.
//
// Bytes is the entropy per id (hex encoded, so ids are twice as long).
// MaxAttempts bounds how many colliding candidates login tolerates before
// giving up.
type SessionIDConfig struct {
	Bytes       int `yaml:"bytes"`
	MaxAttempts int `yaml:"max_attempts"`
}

/*
====================================
STORE CONFIG
====================================
*/

// StoreConfig describes the concrete session store a server should build.
// The Engine itself only sees the session.Store interface.
type StoreConfig struct {
	Backend     string `yaml:"backend"` // "memory" (default) or "redis"
	RedisAddr   string `yaml:"redis_addr"`
	RedisPrefix string `yaml:"redis_prefix"`
	Encoding    string `yaml:"encoding"` // "json" (default) or "cbor"
}

/*
====================================
ROUTES CONFIG
====================================
*/

// RoutesConfig holds the HTTP paths of the authentication routes. An empty
// CurrentUserPath disables the current-user route.
type RoutesConfig struct {
	LoginPath       string `yaml:"login_path"`
	CurrentUserPath string `yaml:"current_user_path"`
	LogoutPath      string `yaml:"logout_path"`
}

/*
====================================
AUDIT / METRICS CONFIG
====================================
*/

// AuditConfig controls asynchronous audit delivery. With DropIfFull unset a
// full buffer blocks the request until the sink catches up.
type AuditConfig struct {
	Enabled    bool `yaml:"enabled"`
	BufferSize int  `yaml:"buffer_size"`
	DropIfFull bool `yaml:"drop_if_full"`
}

// MetricsConfig enables the in-process counters. Latency histograms cost one
// clock read per request and are off unless EnableLatencyHistograms is set.
type MetricsConfig struct {
	Enabled                 bool `yaml:"enabled"`
	EnableLatencyHistograms bool `yaml:"enable_latency_histograms"`
}

// DefaultConfig returns the configuration used when none is supplied.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		Token: TokenConfig{
			Type:           token.TypeBearer,
			CookieName:     "token",
			StrictDecoding: true,
		},
		SessionID: SessionIDConfig{
			Bytes:       internal.DefaultSessionIDBytes,
			MaxAttempts: 64,
		},
		Store: StoreConfig{
			Backend:     "memory",
			RedisPrefix: "gs",
			Encoding:    "json",
		},
		Routes: RoutesConfig{
			LoginPath:       "/login",
			CurrentUserPath: "/me",
			LogoutPath:      "/logout",
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
	}
}

// Config has no reference fields; the copy is already deep.
func cloneConfig(cfg Config) Config {
	out := cfg
	return out
}

// Validate reports the first invalid setting in c.
func (c *Config) Validate() error {
	// Token
	if !c.Token.Type.Valid() {
		return errors.New("Token Type must be bearer or cookie")
	}
	if c.Token.Type == token.TypeCookie && c.Token.CookieName == "" {
		return errors.New("Token CookieName required when Type is cookie")
	}

	// Session ids
	if c.SessionID.Bytes < internal.MinSessionIDBytes {
		return errors.New("SessionID Bytes must be >= 16")
	}
	if c.SessionID.MaxAttempts <= 0 {
		return errors.New("SessionID MaxAttempts must be > 0")
	}

	// Store
	switch c.Store.Backend {
	case "memory":
	case "redis":
		if c.Store.RedisAddr == "" {
			return errors.New("Store RedisAddr required for redis backend")
		}
		if c.Store.RedisPrefix == "" {
			return errors.New("Store RedisPrefix must not be empty")
		}
	default:
		return errors.New("Store Backend must be memory or redis")
	}
	if _, err := session.CodecByName(c.Store.Encoding); err != nil {
		return errors.New("Store Encoding must be json or cbor")
	}

	// Routes
	for _, p := range []string{c.Routes.LoginPath, c.Routes.LogoutPath} {
		if !strings.HasPrefix(p, "/") {
			return errors.New("Routes LoginPath and LogoutPath must start with /")
		}
	}
	if c.Routes.CurrentUserPath != "" && !strings.HasPrefix(c.Routes.CurrentUserPath, "/") {
		return errors.New("Routes CurrentUserPath must start with /")
	}
	if c.Routes.LoginPath == c.Routes.LogoutPath {
		return errors.New("Routes LoginPath and LogoutPath must differ")
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when audit is enabled")
	}

	// Metrics
	if c.Metrics.EnableLatencyHistograms && !c.Metrics.Enabled {
		return errors.New("Metrics EnableLatencyHistograms requires Metrics Enabled")
	}

	return nil
}
