// Command gosession-loadtest drives concurrent login, current-user and logout
// calls against a goSession engine and checks that every login produced a
// distinct session.
package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"sync"
	"sync/atomic"
	"time"

	goSession "github.com/MrEthical07/goSession"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/pflag"
)

type principal struct {
	Username string `json:"username" cbor:"username"`
}

func main() {
	var (
		logins      = pflag.Int("logins", 20000, "number of sessions to create")
		concurrency = pflag.Int("concurrency", 256, "number of concurrent workers")
		ops         = pflag.Int("ops", 100000, "current-user resolutions to run")
		backend     = pflag.String("backend", "redis", "session store: memory or redis")
		redisAddr   = pflag.String("redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
		prefix      = pflag.String("prefix", "gs", "session key prefix")
		encoding    = pflag.String("encoding", "json", "principal encoding: json or cbor")
		idBytes     = pflag.Int("id-bytes", 32, "random bytes per session id")
	)
	pflag.Parse()

	if *logins <= 0 || *concurrency <= 0 || *ops <= 0 {
		fmt.Fprintln(os.Stderr, "logins, concurrency, and ops must be > 0")
		os.Exit(2)
	}

	cfg := goSession.DefaultConfig()
	cfg.SessionID.Bytes = *idBytes
	cfg.Store.Backend = *backend
	cfg.Store.RedisPrefix = *prefix
	cfg.Store.Encoding = *encoding
	cfg.Metrics.Enabled = true

	builder := goSession.New[principal]().
		WithAuthenticator(func(_ context.Context, username, _ string) (principal, error) {
			return principal{Username: username}, nil
		})

	if *backend == "redis" {
		client, addr, cleanup, err := openRedis(*redisAddr)
		if err != nil {
			fmt.Fprintf(os.Stderr, "redis: %v\n", err)
			os.Exit(1)
		}
		defer cleanup()
		cfg.Store.RedisAddr = addr
		builder = builder.WithRedis(client)
	}

	engine, err := builder.WithConfig(cfg).Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "engine build: %v\n", err)
		os.Exit(1)
	}
	defer engine.Close()

	ctx := context.Background()

	tokens := make([]string, *logins)
	loginStats := runPhase(*logins, *concurrency, func(i int, _ *rand.Rand) error {
		tok, err := engine.Login(ctx, fmt.Sprintf("user-%d", i), "pw")
		tokens[i] = tok.AccessToken
		return err
	})

	distinct := make(map[string]struct{}, len(tokens))
	for _, tok := range tokens {
		if tok != "" {
			distinct[tok] = struct{}{}
		}
	}

	currentStats := runPhase(*ops, *concurrency, func(_ int, r *rand.Rand) error {
		_, err := engine.CurrentUser(ctx, tokens[r.Intn(len(tokens))])
		return err
	})

	logoutStats := runPhase(*logins, *concurrency, func(i int, _ *rand.Rand) error {
		return engine.Logout(ctx, tokens[i])
	})

	snap := engine.MetricsSnapshot()

	fmt.Println("---- results ----")
	printStats(os.Stdout, "login", loginStats)
	printStats(os.Stdout, "current-user", currentStats)
	printStats(os.Stdout, "logout", logoutStats)
	fmt.Printf("distinct sessions=%d of %d, id collisions=%d\n",
		len(distinct), *logins, snap.Counters[goSession.MetricSessionIDCollision])

	if len(distinct) != *logins-int(loginStats.failures) {
		fmt.Fprintln(os.Stderr, "duplicate session tokens issued")
		os.Exit(1)
	}
}

// openRedis connects to addr, REDIS_ADDR, or an in-process miniredis, in that
// order.
func openRedis(addr string) (redis.UniversalClient, string, func(), error) {
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}

	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			return nil, "", nil, fmt.Errorf("start miniredis: %w", err)
		}
		client := redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs: []string{mr.Addr()},
		})
		fmt.Printf("using miniredis at %s\n", mr.Addr())
		return client, mr.Addr(), func() {
			_ = client.Close()
			mr.Close()
		}, nil
	}

	client := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs: []string{addr},
	})
	fmt.Printf("using redis at %s\n", addr)
	return client, addr, func() { _ = client.Close() }, nil
}

// runPhase runs op for indexes [0, ops) across concurrency workers.
func runPhase(ops, concurrency int, op func(i int, r *rand.Rand) error) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, ops)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(worker)*7919))
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				t0 := time.Now()
				err := op(i, r)
				d := time.Since(t0)
				if err != nil {
					atomic.AddInt64(&failures, 1)
				}
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()
	return computeStats(time.Since(start), latencies, failures)
}
