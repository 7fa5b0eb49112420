package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/metrics/export/prometheus"
	"github.com/MrEthical07/goSession/middleware"
	"github.com/MrEthical07/goSession/password"
	"github.com/MrEthical07/goSession/routes"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// embeddedRedis as --redis-addr starts an in-process miniredis.
const embeddedRedis = "miniredis"

type serveOptions struct {
	configPath string
	addr       string
	redisAddr  string
	logFormat  string
	logLevel   string
}

func newServeCmd() *cobra.Command {
	opts := &serveOptions{}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		Long: `Run the HTTP server until SIGINT or SIGTERM.

Examples:
  # in-memory sessions, users from config
  gosession-server serve --config gosession.yaml

  # redis-backed sessions with an embedded redis
  gosession-server serve --config gosession.yaml --redis-addr miniredis
`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(opts.configPath)
			if err != nil {
				return err
			}
			opts.apply(cmd.Flags(), &cfg)

			logger, err := newLogger(os.Stderr, cfg.Log.Format, cfg.Log.Level)
			if err != nil {
				return err
			}
			return runServe(cmd.Context(), cfg, logger)
		},
	}
	bindServeFlags(cmd.Flags(), opts)
	return cmd
}

func bindServeFlags(fs *pflag.FlagSet, opts *serveOptions) {
	fs.StringVarP(&opts.configPath, "config", "c", "", "YAML config file")
	fs.StringVar(&opts.addr, "addr", "", "listen address (overrides config)")
	fs.StringVar(&opts.redisAddr, "redis-addr", "", `redis address, or "miniredis" for an embedded one; selects the redis backend`)
	fs.StringVar(&opts.logFormat, "log-format", "", "log format: json or text (overrides config)")
	fs.StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, error (overrides config)")
}

// apply copies explicitly set flags over the file configuration.
func (o *serveOptions) apply(fs *pflag.FlagSet, cfg *serverConfig) {
	if fs.Changed("addr") {
		cfg.Addr = o.addr
	}
	if fs.Changed("redis-addr") {
		cfg.Session.Store.Backend = "redis"
		cfg.Session.Store.RedisAddr = o.redisAddr
	}
	if fs.Changed("log-format") {
		cfg.Log.Format = o.logFormat
	}
	if fs.Changed("log-level") {
		cfg.Log.Level = o.logLevel
	}
}

type app struct {
	handler http.Handler
	engine  *goSession.Engine[password.User]
	closers []func()
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func newApp(ctx context.Context, cfg serverConfig, logger *slog.Logger) (*app, error) {
	a := &app{}

	dir, err := newDirectory(cfg)
	if err != nil {
		return nil, err
	}

	builder := goSession.New[password.User]().
		WithConfig(cfg.Session).
		WithAuthenticator(dir.Authenticate).
		WithAuditSink(goSession.NewSlogSink(logger.With(slog.String("component", "audit"))))

	var client redis.UniversalClient
	if cfg.Session.Store.Backend == "redis" {
		addr := cfg.Session.Store.RedisAddr
		if addr == embeddedRedis {
			mr, err := miniredis.Run()
			if err != nil {
				return nil, fmt.Errorf("start miniredis: %w", err)
			}
			a.closers = append(a.closers, mr.Close)
			addr = mr.Addr()
			cfg.Session.Store.RedisAddr = addr
			builder = builder.WithConfig(cfg.Session)
			logger.Info("embedded redis started", slog.String("addr", addr))
		}

		client = redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{addr}})
		a.closers = append(a.closers, func() { _ = client.Close() })
		if err := client.Ping(ctx).Err(); err != nil {
			a.Close()
			return nil, fmt.Errorf("redis ping %s: %w", addr, err)
		}
		builder = builder.WithRedis(client)
	}

	engine, err := builder.Build()
	if err != nil {
		a.Close()
		return nil, err
	}
	a.engine = engine
	a.closers = append(a.closers, engine.Close)

	mux := http.NewServeMux()
	routes.New[password.User](engine, routes.WithCurrentUser(func(u password.User) any { return u })).Register(mux)

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		if client != nil {
			if err := client.Ping(r.Context()).Err(); err != nil {
				middleware.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "redis unavailable"})
				return
			}
		}
		middleware.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	if cfg.Session.Metrics.Enabled && cfg.MetricsPath != "" {
		mux.Handle("GET "+cfg.MetricsPath, prometheus.NewPrometheusExporter(engine, nil).Handler())
	}

	a.handler = accessLog(logger, mux)
	return a, nil
}

func runServe(ctx context.Context, cfg serverConfig, logger *slog.Logger) error {
	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           a.handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening",
			slog.String("addr", cfg.Addr),
			slog.String("store", cfg.Session.Store.Backend),
			slog.String("token_type", string(a.engine.TokenType())),
			slog.Int("users", len(cfg.Users)),
		)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("stopped", slog.Uint64("audit_dropped", a.engine.AuditDropped()))
	return nil
}
