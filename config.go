package goSession

import (
	"errors"
	"fmt"
	"io/fs"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config is the complete runtime configuration. Every field can be set from
// the environment; [DefaultConfig] supplies the rest.
type Config struct {
	Env       string `env:"APP_ENV"`
	Server    ServerConfig
	Session   SessionConfig
	Cookie    CookieConfig
	Password  PasswordConfig
	Security  SecurityConfig
	Account   AccountConfig
	Metadata  MetadataConfig
	Directory DirectoryConfig
	Log       LogConfig
	Audit     AuditConfig
	Metrics   MetricsConfig
}

/*
====================================
SERVER CONFIG
====================================
*/

// ServerConfig is read by cmd/gosession-server only.
type ServerConfig struct {
	Port          int    `env:"APPLICATION_PORT"`
	AllowedOrigin string `env:"ALLOWED_ORIGIN"`
	RedisURL      string `env:"REDIS_URL"`
	// OTelEndpoint enables OTLP/HTTP span export when set.
	OTelEndpoint string `env:"OTEL_ENDPOINT"`
	// ShutdownTimeout bounds graceful drain on SIGINT/SIGTERM.
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT"`
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig controls the Redis layout of session records.
type SessionConfig struct {
	// RedisPrefix is prepended to every session id to form its key.
	RedisPrefix string        `env:"SESSION_FOLDER"`
	MaxAge      time.Duration `env:"SESSION_MAX_AGE"`
}

// CookieConfig controls the signed session cookie.
type CookieConfig struct {
	Name     string `env:"SESSION_NAME"`
	Secret   string `env:"SESSION_SECRET"`
	Domain   string `env:"SESSION_DOMAIN"`
	Path     string `env:"SESSION_PATH"`
	HTTPOnly bool   `env:"SESSION_HTTP_ONLY"`
	Secure   bool   `env:"SESSION_SECURE"`
}

/*
====================================
PASSWORD CONFIG
====================================
*/

// PasswordConfig holds Argon2id parameters.
type PasswordConfig struct {
	Memory           uint32 `env:"PASSWORD_MEMORY_KB"`
	Time             uint32 `env:"PASSWORD_TIME"`
	Parallelism      uint8  `env:"PASSWORD_PARALLELISM"`
	SaltLength       uint32 `env:"PASSWORD_SALT_LENGTH"`
	KeyLength        uint32 `env:"PASSWORD_KEY_LENGTH"`
	MaxPasswordBytes int    `env:"PASSWORD_MAX_BYTES"`
}

/*
====================================
SECURITY CONFIG
====================================
*/

type SecurityConfig struct {
	EnableLoginThrottle      bool          `env:"LOGIN_THROTTLE_ENABLED"`
	EnableIPThrottle         bool          `env:"LOGIN_THROTTLE_BY_IP"`
	MaxLoginAttempts         int           `env:"LOGIN_MAX_ATTEMPTS"`
	LoginCooldownDuration    time.Duration `env:"LOGIN_COOLDOWN"`
	CollapseCredentialErrors bool          `env:"COLLAPSE_CREDENTIAL_ERRORS"`
}

type AccountConfig struct {
	EnableThrottle          bool          `env:"ACCOUNT_THROTTLE_ENABLED"`
	MaxCreationsPerIP       int           `env:"ACCOUNT_MAX_CREATIONS"`
	AccountCreationCooldown time.Duration `env:"ACCOUNT_CREATION_COOLDOWN"`
}

// MetadataConfig controls login metadata resolution.
type MetadataConfig struct {
	GeoIPDatabasePath string `env:"GEOIP_DB_PATH"`
	// IndependentDevice keeps the parsed device when geolocation misses.
	IndependentDevice bool `env:"METADATA_INDEPENDENT_DEVICE"`
}

// DirectoryConfig selects the account backend for cmd/gosession-server.
type DirectoryConfig struct {
	Driver      string `env:"DIRECTORY_DRIVER"`
	SQLitePath  string `env:"SQLITE_PATH"`
	PostgresURL string `env:"POSTGRES_URL"`
}

type LogConfig struct {
	Level  string `env:"LOG_LEVEL"`
	Format string `env:"LOG_FORMAT"`
}

type AuditConfig struct {
	Enabled    bool `env:"AUDIT_ENABLED"`
	BufferSize int  `env:"AUDIT_BUFFER_SIZE"`
	DropIfFull bool `env:"AUDIT_DROP_IF_FULL"`
}

type MetricsConfig struct {
	Enabled                 bool `env:"METRICS_ENABLED"`
	EnableLatencyHistograms bool `env:"METRICS_LATENCY_HISTOGRAMS"`
}

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
	EnvTest        = "test"

	DirectoryMemory   = "memory"
	DirectorySQLite   = "sqlite"
	DirectoryPostgres = "postgres"

	minCookieSecretLength = 32
)

// DefaultConfig returns a development configuration. Production deployments
// must at least set SESSION_SECRET.
func DefaultConfig() Config {
	return Config{
		Env: EnvDevelopment,
		Server: ServerConfig{
			Port:            3000,
			RedisURL:        "redis://localhost:6379/0",
			ShutdownTimeout: 10 * time.Second,
		},
		Session: SessionConfig{
			RedisPrefix: "sessions:",
			MaxAge:      30 * 24 * time.Hour,
		},
		Cookie: CookieConfig{
			Name:     "session",
			Path:     "/",
			HTTPOnly: true,
			Secure:   false,
		},
		Password: PasswordConfig{
			Memory:           64 * 1024,
			Time:             3,
			Parallelism:      4,
			SaltLength:       16,
			KeyLength:        32,
			MaxPasswordBytes: 1024,
		},
		Security: SecurityConfig{
			EnableLoginThrottle:   true,
			EnableIPThrottle:      false,
			MaxLoginAttempts:      5,
			LoginCooldownDuration: 15 * time.Minute,
		},
		Account: AccountConfig{
			EnableThrottle:          true,
			MaxCreationsPerIP:       5,
			AccountCreationCooldown: time.Hour,
		},
		Directory: DirectoryConfig{
			Driver:     DirectorySQLite,
			SQLitePath: "gosession.db",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
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

// LoadConfig loads .env files (the default ".env" if none are named and it
// exists), overlays the process environment on [DefaultConfig] and validates
// the result.
func LoadConfig(files ...string) (Config, error) {
	if err := godotenv.Load(files...); err != nil {
		if len(files) > 0 || !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load env files: %w", err)
		}
	}

	cfg := DefaultConfig()
	if err := env.ParseWithOptions(&cfg, env.Options{
		FuncMap: map[reflect.Type]env.ParserFunc{
			reflect.TypeOf(time.Duration(0)): parseDuration,
		},
	}); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// parseDuration accepts Go durations, a bare number of milliseconds, and a
// day suffix ("30d").
func parseDuration(v string) (any, error) {
	v = strings.TrimSpace(v)
	if ms, err := strconv.ParseInt(v, 10, 64); err == nil {
		return time.Duration(ms) * time.Millisecond, nil
	}
	if days, ok := strings.CutSuffix(v, "d"); ok {
		n, err := strconv.ParseFloat(days, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid duration %q", v)
		}
		return time.Duration(n * float64(24*time.Hour)), nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return nil, err
	}
	return d, nil
}

// Production reports whether Env names a production deployment.
func (c Config) Production() bool {
	return strings.EqualFold(c.Env, EnvProduction)
}

// Development reports whether client addresses should be pinned to loopback.
func (c Config) Development() bool {
	return strings.EqualFold(c.Env, EnvDevelopment)
}

// Validate checks ranges and cross-field constraints.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Env) {
	case EnvDevelopment, EnvProduction, EnvTest:
	default:
		return fmt.Errorf("APP_ENV must be one of %q, %q, %q", EnvDevelopment, EnvProduction, EnvTest)
	}

	// Session
	if c.Session.RedisPrefix == "" {
		return errors.New("Session RedisPrefix must not be empty")
	}
	if strings.HasPrefix(c.Session.RedisPrefix, "su:") {
		return errors.New("Session RedisPrefix must not start with the index namespace \"su:\"")
	}
	if c.Session.MaxAge <= 0 {
		return errors.New("Session MaxAge must be > 0")
	}

	// Cookie
	if strings.TrimSpace(c.Cookie.Name) == "" {
		return errors.New("Cookie Name must not be empty")
	}
	if c.Production() {
		if len(c.Cookie.Secret) < minCookieSecretLength {
			return fmt.Errorf("Cookie Secret must be at least %d bytes in production", minCookieSecretLength)
		}
		if !c.Cookie.Secure {
			return errors.New("Cookie Secure must be enabled in production")
		}
	}

	// Password
	if c.Password.Memory < 8*1024 {
		return errors.New("Password Memory must be >= 8192 KB")
	}
	if c.Password.Time < 1 {
		return errors.New("Password Time must be >= 1")
	}
	if c.Password.Parallelism < 1 {
		return errors.New("Password Parallelism must be >= 1")
	}
	if c.Password.SaltLength < 16 {
		return errors.New("Password SaltLength must be >= 16")
	}
	if c.Password.KeyLength < 16 {
		return errors.New("Password KeyLength must be >= 16")
	}

	// Security
	if c.Security.EnableLoginThrottle {
		if c.Security.MaxLoginAttempts <= 0 {
			return errors.New("Security MaxLoginAttempts must be > 0")
		}
		if c.Security.LoginCooldownDuration <= 0 {
			return errors.New("Security LoginCooldownDuration must be > 0")
		}
	}
	if c.Account.EnableThrottle {
		if c.Account.MaxCreationsPerIP <= 0 {
			return errors.New("Account MaxCreationsPerIP must be > 0")
		}
		if c.Account.AccountCreationCooldown <= 0 {
			return errors.New("Account AccountCreationCooldown must be > 0")
		}
	}

	// Directory
	switch c.Directory.Driver {
	case DirectoryMemory:
	case DirectorySQLite:
		if c.Directory.SQLitePath == "" {
			return errors.New("Directory SQLitePath required for sqlite driver")
		}
	case DirectoryPostgres:
		if c.Directory.PostgresURL == "" {
			return errors.New("Directory PostgresURL required for postgres driver")
		}
	default:
		return fmt.Errorf("unsupported directory driver %q", c.Directory.Driver)
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when enabled")
	}

	return nil
}
