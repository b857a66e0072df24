package goSession

import (
	"errors"
	"io"
	"time"

	"github.com/MrEthical07/goSession/internal/audit"
	"github.com/MrEthical07/goSession/internal/rate"
	"github.com/MrEthical07/goSession/metadata"
	"github.com/MrEthical07/goSession/password"
	"github.com/MrEthical07/goSession/session"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
)

// Builder assembles an [Engine]. Configure it during initialization and call
// Build once.
type Builder struct {
	config Config
	redis  redis.UniversalClient

	directory UserDirectory
	hasher    PasswordHasher
	resolver  *metadata.Resolver
	auditSink AuditSink

	logger         *zap.Logger
	tracerProvider trace.TracerProvider
	now            func() time.Time

	built bool
}

// New returns a Builder seeded with [DefaultConfig].
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	return b
}

// WithRedis sets the session store backend. Required.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithUserDirectory sets the account backend. Required.
func (b *Builder) WithUserDirectory(dir UserDirectory) *Builder {
	b.directory = dir
	return b
}

// WithPasswordHasher overrides the Argon2id hasher built from Config.Password.
func (b *Builder) WithPasswordHasher(h PasswordHasher) *Builder {
	b.hasher = h
	return b
}

// WithMetadataResolver overrides the resolver built from Config.Metadata.
func (b *Builder) WithMetadataResolver(r *metadata.Resolver) *Builder {
	b.resolver = r
	return b
}

func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

func (b *Builder) WithLogger(logger *zap.Logger) *Builder {
	b.logger = logger
	return b
}

func (b *Builder) WithTracerProvider(tp trace.TracerProvider) *Builder {
	b.tracerProvider = tp
	return b
}

// WithClock replaces time.Now for session timestamps.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and wires every component.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := b.config

	if b.redis == nil {
		return nil, errors.New("redis client required")
	}
	if b.directory == nil {
		return nil, errors.New("user directory required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := b.logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("gosession")

	tp := b.tracerProvider
	if tp == nil {
		tp = noop.NewTracerProvider()
	}

	engine := &Engine{
		config:       cfg,
		sessionStore: session.NewStore(b.redis, cfg.Session.RedisPrefix, cfg.Session.MaxAge),
		directory:    b.directory,
		metrics:      NewMetrics(cfg.Metrics),
		logger:       logger,
		tracer:       tp.Tracer(tracerName),
		now:          b.now,
	}
	if engine.now == nil {
		engine.now = time.Now
	}
	engine.sessionStore.OnCorrupt(func(sessionID string, err error) {
		logger.Warn("discarding corrupt session record", zap.String("session_id", sessionID), zap.Error(err))
	})

	if cfg.Security.EnableLoginThrottle || cfg.Account.EnableThrottle {
		engine.rateLimiter = rate.New(b.redis, rate.Config{
			EnableIPThrottle:        cfg.Security.EnableIPThrottle,
			MaxLoginAttempts:        cfg.Security.MaxLoginAttempts,
			LoginCooldownDuration:   cfg.Security.LoginCooldownDuration,
			MaxAccountCreations:     cfg.Account.MaxCreationsPerIP,
			AccountCreationCooldown: cfg.Account.AccountCreationCooldown,
		})
	}

	engine.hasher = b.hasher
	if engine.hasher == nil {
		h, err := password.NewHasher(password.Config{
			Memory:           cfg.Password.Memory,
			Time:             cfg.Password.Time,
			Parallelism:      cfg.Password.Parallelism,
			SaltLength:       cfg.Password.SaltLength,
			KeyLength:        cfg.Password.KeyLength,
			MaxPasswordBytes: cfg.Password.MaxPasswordBytes,
		})
		if err != nil {
			return nil, err
		}
		engine.hasher = h
	}

	engine.resolver = b.resolver
	if engine.resolver == nil {
		var locator metadata.GeoLocator = metadata.NopLocator{}
		if cfg.Metadata.GeoIPDatabasePath != "" {
			mm, err := metadata.OpenMaxMind(cfg.Metadata.GeoIPDatabasePath)
			if err != nil {
				return nil, err
			}
			locator = mm
			engine.closers = append(engine.closers, io.Closer(mm))
		}
		opts := []metadata.Option{
			metadata.WithDevMode(cfg.Development()),
			metadata.WithLogger(logger),
		}
		if cfg.Metadata.IndependentDevice {
			opts = append(opts, metadata.WithIndependentDevice())
		}
		engine.resolver = metadata.NewResolver(locator, metadata.UserAgentDetector{}, opts...)
	}

	engine.audit = audit.NewDispatcher(audit.Config{
		Enabled:    cfg.Audit.Enabled,
		BufferSize: cfg.Audit.BufferSize,
		DropIfFull: cfg.Audit.DropIfFull,
		OnDrop:     func() { engine.metricInc(MetricAuditDropped) },
	}, b.auditSink)

	b.built = true

	return engine, nil
}
