package goSession

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfigValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config must validate: %v", err)
	}
	if cfg.Session.RedisPrefix != "sessions:" || cfg.Session.MaxAge != 30*24*time.Hour {
		t.Fatalf("unexpected session defaults %+v", cfg.Session)
	}
	if !cfg.Cookie.HTTPOnly || cfg.Cookie.Path != "/" {
		t.Fatalf("unexpected cookie defaults %+v", cfg.Cookie)
	}
}

func TestLoadConfigFromEnvironment(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("APPLICATION_PORT", "8080")
	t.Setenv("SESSION_FOLDER", "sess:")
	t.Setenv("SESSION_MAX_AGE", "7d")
	t.Setenv("SESSION_NAME", "sid")
	t.Setenv("SESSION_SECRET", strings.Repeat("k", 32))
	t.Setenv("SESSION_SECURE", "true")
	t.Setenv("LOGIN_COOLDOWN", "90000")
	t.Setenv("DIRECTORY_DRIVER", "memory")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if !cfg.Production() || cfg.Development() {
		t.Fatal("expected production mode")
	}
	if cfg.Server.Port != 8080 {
		t.Fatalf("expected port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Session.RedisPrefix != "sess:" || cfg.Session.MaxAge != 7*24*time.Hour {
		t.Fatalf("unexpected session config %+v", cfg.Session)
	}
	if cfg.Cookie.Name != "sid" || !cfg.Cookie.Secure {
		t.Fatalf("unexpected cookie config %+v", cfg.Cookie)
	}
	if cfg.Security.LoginCooldownDuration != 90*time.Second {
		t.Fatalf("expected 90s cooldown, got %s", cfg.Security.LoginCooldownDuration)
	}
	if cfg.Password.Time != 3 {
		t.Fatal("unset variables must keep their defaults")
	}
}

func TestLoadConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	content := "SESSION_FOLDER=file:\nLOG_LEVEL=debug\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Cleanup(func() {
		os.Unsetenv("SESSION_FOLDER")
		os.Unsetenv("LOG_LEVEL")
	})

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Session.RedisPrefix != "file:" || cfg.Log.Level != "debug" {
		t.Fatalf("expected file values, got %+v / %+v", cfg.Session, cfg.Log)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "absent.env")); err == nil {
		t.Fatal("expected an explicitly named missing file to fail")
	}
}

func TestLoadConfigRejectsBadDuration(t *testing.T) {
	t.Setenv("SESSION_MAX_AGE", "forever")
	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestParseDuration(t *testing.T) {
	cases := map[string]time.Duration{
		"1500":   1500 * time.Millisecond,
		"30d":    30 * 24 * time.Hour,
		"0.5d":   12 * time.Hour,
		"15m":    15 * time.Minute,
		" 2h30m": 150 * time.Minute,
	}
	for in, want := range cases {
		got, err := parseDuration(in)
		if err != nil {
			t.Fatalf("parseDuration(%q) failed: %v", in, err)
		}
		if got.(time.Duration) != want {
			t.Fatalf("parseDuration(%q) = %v, want %v", in, got, want)
		}
	}

	for _, bad := range []string{"", "xd", "soon"} {
		if _, err := parseDuration(bad); err == nil {
			t.Fatalf("parseDuration(%q) should fail", bad)
		}
	}
}

func TestValidateRejects(t *testing.T) {
	cases := map[string]func(*Config){
		"unknown env":         func(c *Config) { c.Env = "staging" },
		"empty prefix":        func(c *Config) { c.Session.RedisPrefix = "" },
		"index namespace":     func(c *Config) { c.Session.RedisPrefix = "su:x" },
		"zero max age":        func(c *Config) { c.Session.MaxAge = 0 },
		"empty cookie name":   func(c *Config) { c.Cookie.Name = " " },
		"weak argon memory":   func(c *Config) { c.Password.Memory = 1024 },
		"short salt":          func(c *Config) { c.Password.SaltLength = 8 },
		"zero login attempts": func(c *Config) { c.Security.MaxLoginAttempts = 0 },
		"zero account budget": func(c *Config) { c.Account.MaxCreationsPerIP = 0 },
		"unknown driver":      func(c *Config) { c.Directory.Driver = "mysql" },
		"sqlite without path": func(c *Config) { c.Directory.SQLitePath = "" },
		"postgres without url": func(c *Config) {
			c.Directory.Driver = DirectoryPostgres
		},
		"audit without buffer": func(c *Config) {
			c.Audit.Enabled = true
			c.Audit.BufferSize = 0
		},
		"production short secret": func(c *Config) {
			c.Env = EnvProduction
			c.Cookie.Secret = "short"
			c.Cookie.Secure = true
		},
		"production insecure cookie": func(c *Config) {
			c.Env = EnvProduction
			c.Cookie.Secret = strings.Repeat("s", 32)
			c.Cookie.Secure = false
		},
	}

	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := DefaultConfig()
			mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestValidateAllowsDisabledThrottles(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Security.EnableLoginThrottle = false
	cfg.Security.MaxLoginAttempts = 0
	cfg.Account.EnableThrottle = false
	cfg.Account.MaxCreationsPerIP = 0
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected disabled throttles to skip range checks: %v", err)
	}
}

func TestBuildRequiresDependencies(t *testing.T) {
	_, rdb := newTestRedis(t)

	if _, err := New().WithUserDirectory(newTestDirectory()).Build(); err == nil {
		t.Fatal("expected missing redis to fail")
	}
	if _, err := New().WithRedis(rdb).Build(); err == nil {
		t.Fatal("expected missing directory to fail")
	}

	b := New().WithConfig(testConfig()).WithRedis(rdb).WithUserDirectory(newTestDirectory())
	engine, err := b.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	defer engine.Close()
	if _, err := b.Build(); err == nil {
		t.Fatal("expected a builder to be single use")
	}
}
