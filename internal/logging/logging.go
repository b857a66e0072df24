// Package logging builds the process-wide zap logger from configuration.
package logging

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	FormatJSON    = "json"
	FormatConsole = "console"
)

// Config selects level and encoding. Empty fields take defaults: info level,
// json format.
type Config struct {
	Level       string
	Format      string
	Development bool
}

// New returns a logger writing to stderr. JSON output uses the production
// encoder config; console output uses the development one with colored
// levels.
func New(cfg Config) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if cfg.Level != "" {
		parsed, err := zapcore.ParseLevel(strings.ToLower(cfg.Level))
		if err != nil {
			return nil, fmt.Errorf("log level %q: %w", cfg.Level, err)
		}
		level = parsed
	}

	var zc zap.Config
	switch strings.ToLower(cfg.Format) {
	case "", FormatJSON:
		zc = zap.NewProductionConfig()
	case FormatConsole, "text":
		zc = zap.NewDevelopmentConfig()
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	default:
		return nil, fmt.Errorf("unsupported log format %q", cfg.Format)
	}

	zc.Level = zap.NewAtomicLevelAt(level)
	zc.Development = cfg.Development
	zc.EncoderConfig.TimeKey = "ts"
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if !cfg.Development {
		zc.Sampling = nil
	}

	return zc.Build()
}

// Must is like New but falls back to a production logger on error.
func Must(cfg Config) *zap.Logger {
	logger, err := New(cfg)
	if err == nil {
		return logger
	}
	fallback, _ := zap.NewProduction()
	fallback.Warn("invalid logging config, using defaults", zap.Error(err))
	return fallback
}
