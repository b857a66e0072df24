package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/api"
	"github.com/MrEthical07/goSession/directory/memory"
	"github.com/MrEthical07/goSession/directory/postgres"
	"github.com/MrEthical07/goSession/directory/sqlite"
	"github.com/MrEthical07/goSession/internal/telemetry"
	"github.com/MrEthical07/goSession/metrics/export/prometheus"
	"github.com/MrEthical07/goSession/middleware"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	serviceName            = "gosession"
	defaultShutdownTimeout = 10 * time.Second
)

// app is everything run needs to serve, with the matching teardown.
type app struct {
	handler http.Handler
	closers []func() error
}

func (a *app) close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func run(ctx context.Context, cfg goSession.Config, logger *zap.Logger) error {
	if cfg.Server.ShutdownTimeout <= 0 {
		cfg.Server.ShutdownTimeout = defaultShutdownTimeout
	}

	tp, shutdownTracing, err := telemetry.Setup(ctx, serviceName, cfg.Server.OTelEndpoint)
	if err != nil {
		return err
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			logger.Warn("trace flush failed", zap.Error(err))
		}
	}()

	opts, err := redis.ParseURL(cfg.Server.RedisURL)
	if err != nil {
		return fmt.Errorf("parse REDIS_URL: %w", err)
	}
	rdb := redis.NewClient(opts)

	a, err := build(ctx, cfg, rdb, tp, logger)
	if err != nil {
		_ = rdb.Close()
		return err
	}
	a.closers = append([]func() error{rdb.Close}, a.closers...)
	defer func() {
		if err := a.close(); err != nil {
			logger.Warn("shutdown cleanup failed", zap.Error(err))
		}
	}()

	srv := &http.Server{
		Addr:              net.JoinHostPort("", strconv.Itoa(cfg.Server.Port)),
		Handler:           a.handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening",
			zap.String("addr", srv.Addr),
			zap.String("env", cfg.Env),
			zap.String("directory", cfg.Directory.Driver),
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
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// build wires the directory, engine and HTTP stack around rdb.
func build(ctx context.Context, cfg goSession.Config, rdb redis.UniversalClient, tp trace.TracerProvider, logger *zap.Logger) (*app, error) {
	a := &app{}

	dir, closeDir, err := openDirectory(ctx, cfg.Directory)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, closeDir)

	secrets, err := cookieSecrets(cfg)
	if err != nil {
		_ = a.close()
		return nil, err
	}
	if cfg.Cookie.Secret == "" {
		logger.Warn("SESSION_SECRET not set, using an ephemeral secret; sessions end on restart")
	}

	b := goSession.New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithUserDirectory(dir).
		WithLogger(logger).
		WithTracerProvider(tp)
	if cfg.Audit.Enabled {
		b = b.WithAuditSink(goSession.NewZapSink(logger.Named("audit")))
	}

	engine, err := b.Build()
	if err != nil {
		_ = a.close()
		return nil, fmt.Errorf("build engine: %w", err)
	}
	a.closers = append(a.closers, func() error { engine.Close(); return nil })

	cookies, err := middleware.NewCookies(cfg.Cookie, cfg.Session.MaxAge, secrets...)
	if err != nil {
		_ = a.close()
		return nil, err
	}

	apiOpts := []api.Option{api.WithLogger(logger)}
	if cfg.Metrics.Enabled {
		apiOpts = append(apiOpts, api.WithMetricsHandler(prometheus.NewPrometheusExporter(engine).Handler()))
	}

	var h http.Handler = api.New(engine, cookies, apiOpts...).Routes()
	h = middleware.CORS(cfg.Server.AllowedOrigin)(h)
	h = middleware.RequestLogger(logger)(h)
	h = middleware.RequestID(h)
	a.handler = h

	return a, nil
}

// openDirectory selects the account backend named by cfg.Driver.
func openDirectory(ctx context.Context, cfg goSession.DirectoryConfig) (goSession.UserDirectory, func() error, error) {
	switch cfg.Driver {
	case goSession.DirectoryMemory:
		return memory.New(), func() error { return nil }, nil
	case goSession.DirectorySQLite:
		dir, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite directory: %w", err)
		}
		return dir, dir.Close, nil
	case goSession.DirectoryPostgres:
		dir, err := postgres.New(ctx, cfg.PostgresURL)
		if err != nil {
			return nil, nil, fmt.Errorf("open postgres directory: %w", err)
		}
		return dir, dir.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown directory driver %q", cfg.Driver)
	}
}

// cookieSecrets splits SESSION_SECRET on commas; the first entry signs and
// all of them verify. Outside production an empty secret is replaced by a
// random one.
func cookieSecrets(cfg goSession.Config) ([]string, error) {
	var secrets []string
	for _, s := range strings.Split(cfg.Cookie.Secret, ",") {
		if s = strings.TrimSpace(s); s != "" {
			secrets = append(secrets, s)
		}
	}
	if len(secrets) > 0 {
		return secrets, nil
	}
	if cfg.Production() {
		return nil, errors.New("SESSION_SECRET is required in production")
	}

	var raw [32]byte
	if _, err := rand.Read(raw[:]); err != nil {
		return nil, fmt.Errorf("generate cookie secret: %w", err)
	}
	return []string{hex.EncodeToString(raw[:])}, nil
}
