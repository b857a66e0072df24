package goSession

import (
	"context"
	"io"
	"time"

	"github.com/MrEthical07/goSession/internal/audit"
	"github.com/MrEthical07/goSession/internal/rate"
	"github.com/MrEthical07/goSession/metadata"
	"github.com/MrEthical07/goSession/session"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const tracerName = "github.com/MrEthical07/goSession"

// Engine is the session manager and auth guard. Build one with [New]; it is
// safe for concurrent use and holds no locks across I/O.
type Engine struct {
	config       Config
	sessionStore *session.Store
	rateLimiter  *rate.Limiter
	resolver     *metadata.Resolver
	directory    UserDirectory
	hasher       PasswordHasher
	audit        *audit.Dispatcher
	metrics      *Metrics
	logger       *zap.Logger
	tracer       trace.Tracer
	now          func() time.Time
	closers      []io.Closer
}

// Close flushes pending audit events and releases owned resources such as
// the GeoIP database. The Redis client and user directory stay open.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
	for _, c := range e.closers {
		if err := c.Close(); err != nil {
			e.logger.Warn("close engine resource", zap.Error(err))
		}
	}
	_ = e.logger.Sync()
}

// AuditDropped returns how many audit events were discarded under
// backpressure.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

// Config returns a copy of the configuration the Engine was built with.
func (e *Engine) Config() Config {
	return e.config
}

// SessionTTL is the lifetime of every session record and the cookie max-age.
func (e *Engine) SessionTTL() time.Duration {
	return e.sessionStore.TTL()
}

// Ping checks the session store and reports its round-trip latency.
func (e *Engine) Ping(ctx context.Context) (time.Duration, error) {
	if e == nil || e.sessionStore == nil {
		return 0, ErrEngineNotReady
	}
	return e.sessionStore.Ping(ctx)
}

// CountSessions scans the whole session namespace. It is an admin operation
// and must not sit on a request path.
func (e *Engine) CountSessions(ctx context.Context) (int, error) {
	if e == nil || e.sessionStore == nil {
		return 0, ErrEngineNotReady
	}
	return e.sessionStore.CountSessions(ctx)
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) flowMetricInc(id int) {
	e.metricInc(MetricID(id))
}

func (e *Engine) observe(id MetricID, start time.Time) {
	if e == nil || !e.metrics.LatencyEnabled() {
		return
	}
	e.metrics.Observe(id, time.Since(start))
}

func (e *Engine) warn(msg string, err error) {
	e.logger.Warn(msg, zap.Error(err))
}

// startSpan opens a span for one Engine operation. end records err on the
// span unless its kind is expected client behavior.
func (e *Engine) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, func(error)) {
	ctx, span := e.tracer.Start(ctx, "goSession."+name, trace.WithAttributes(attrs...))
	return ctx, func(err error) {
		if err != nil {
			kind := KindOf(err)
			span.SetAttributes(attribute.String("gosession.error_kind", string(kind)))
			if kind == KindInternal {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
			}
		}
		span.End()
	}
}

func (e *Engine) clientIP(ctx context.Context) string {
	if ip := clientIPFromContext(ctx); ip != "" {
		return ip
	}
	if info, ok := requestInfoFromContext(ctx); ok {
		return e.resolver.ClientIP(info)
	}
	return ""
}

func (e *Engine) resolveMetadata(ctx context.Context) session.Metadata {
	info, ok := requestInfoFromContext(ctx)
	if !ok {
		info = metadata.RequestInfo{RemoteAddr: clientIPFromContext(ctx)}
	}
	return e.resolver.Resolve(info, userAgentFromContext(ctx))
}
