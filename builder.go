package goSession

import (
	"errors"
	"io"

	"github.com/MrEthical07/goSession/internal"
	"github.com/MrEthical07/goSession/session"
	"github.com/redis/go-redis/v9"
)

// Builder assembles an Engine. Configure it during initialization, then call
// Build exactly once.
type Builder[U any] struct {
	config Config
	redis  redis.UniversalClient
	store  session.Store[U]
	random io.Reader

	authenticate AuthenticateFunc[U]
	auditSink    AuditSink

	built bool
}

// New returns a Builder seeded with DefaultConfig.
func New[U any]() *Builder[U] {
	return &Builder[U]{
		config: defaultConfig(),
	}
}

func (b *Builder[U]) WithConfig(cfg Config) *Builder[U] {
	b.config = cloneConfig(cfg)
	return b
}

// WithStore sets the session store directly. It takes precedence over
// Store.Backend in the config.
func (b *Builder[U]) WithStore(store session.Store[U]) *Builder[U] {
	b.store = store
	return b
}

// WithRedis sets the client used when Store.Backend is "redis" and no store
// was supplied with WithStore.
func (b *Builder[U]) WithRedis(client redis.UniversalClient) *Builder[U] {
	b.redis = client
	return b
}

// WithAuthenticator sets the credential check called by Login.
func (b *Builder[U]) WithAuthenticator(fn AuthenticateFunc[U]) *Builder[U] {
	b.authenticate = fn
	return b
}

func (b *Builder[U]) WithAuditSink(sink AuditSink) *Builder[U] {
	b.auditSink = sink
	return b
}

// WithRandom replaces crypto/rand as the session id entropy source. Intended
// for tests.
func (b *Builder[U]) WithRandom(r io.Reader) *Builder[U] {
	b.random = r
	return b
}

func (b *Builder[U]) WithMetricsEnabled(enabled bool) *Builder[U] {
	b.config.Metrics.Enabled = enabled
	return b
}

func (b *Builder[U]) WithLatencyHistograms(enabled bool) *Builder[U] {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and returns a ready Engine. A Builder
// can be built only once.
func (b *Builder[U]) Build() (*Engine[U], error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if b.authenticate == nil {
		return nil, errors.New("authenticator required")
	}

	// -------- SESSION STORE --------
	store := b.store
	if store == nil {
		switch cfg.Store.Backend {
		case "redis":
			if b.redis == nil {
				return nil, errors.New("redis client required")
			}
			codec, err := session.CodecByName(cfg.Store.Encoding)
			if err != nil {
				return nil, err
			}
			store = session.NewRedisStore[U](b.redis, cfg.Store.RedisPrefix, codec)
		default:
			store = session.NewMemoryStore[U]()
		}
	}

	b.built = true

	return &Engine[U]{
		config:       cfg,
		store:        store,
		authenticate: b.authenticate,
		ids:          internal.NewSessionIDSource(b.random, cfg.SessionID.Bytes),
		audit:        newAuditDispatcher(cfg.Audit, b.auditSink),
		metrics:      NewMetrics(cfg.Metrics),
	}, nil
}
