package session

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"
)

const scanBatch = 256

// RedisStore is a Redis-backed session store. Each session is one key,
// "<prefix>:<id>", holding the encoded principal with no TTL.
//
// Insert uses SETNX, so two logins racing on the same id cannot both succeed.
type RedisStore[U any] struct {
	redis  redis.UniversalClient
	prefix string
	codec  Codec
}

// NewRedisStore creates a session store backed by the given Redis client.
// A nil codec selects JSONCodec.
func NewRedisStore[U any](client redis.UniversalClient, prefix string, codec Codec) *RedisStore[U] {
	if codec == nil {
		codec = JSONCodec{}
	}
	if prefix == "" {
		prefix = "gs"
	}
	return &RedisStore[U]{
		redis:  client,
		prefix: prefix,
		codec:  codec,
	}
}

func (s *RedisStore[U]) key(id string) string {
	return s.prefix + ":" + id
}

func (s *RedisStore[U]) Contains(ctx context.Context, id string) (bool, error) {
	n, err := s.redis.Exists(ctx, s.key(id)).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return n == 1, nil
}

// Insert encodes principal and stores it unless id is already taken.
//
//	Performance: 1 Redis SETNX.
func (s *RedisStore[U]) Insert(ctx context.Context, id string, principal U) error {
	data, err := s.codec.Marshal(principal)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCodec, err)
	}

	ok, err := s.redis.SetNX(ctx, s.key(id), data, 0).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if !ok {
		return ErrSessionExists
	}
	return nil
}

// Lookup returns the decoded principal, or false when the key is missing.
//
//	Performance: 1 Redis GET.
func (s *RedisStore[U]) Lookup(ctx context.Context, id string) (U, bool, error) {
	var principal U

	data, err := s.redis.Get(ctx, s.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return principal, false, nil
		}
		return principal, false, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	if err := s.codec.Unmarshal(data, &principal); err != nil {
		return principal, false, fmt.Errorf("%w: %v", ErrCodec, err)
	}
	return principal, true, nil
}

// Remove deletes the session key.
//
//	Performance: 1 Redis DEL.
func (s *RedisStore[U]) Remove(ctx context.Context, id string) error {
	n, err := s.redis.Del(ctx, s.key(id)).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if n == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// Keys returns the active session ids in sorted order. It walks the keyspace
// with SCAN and is meant for tooling, not request paths.
func (s *RedisStore[U]) Keys(ctx context.Context) ([]string, error) {
	var (
		cursor uint64
		ids    []string
	)
	pattern := s.prefix + ":*"
	for {
		keys, next, err := s.redis.Scan(ctx, cursor, pattern, scanBatch).Result()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
		for _, k := range keys {
			ids = append(ids, k[len(s.prefix)+1:])
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	sort.Strings(ids)
	return ids, nil
}
