package goSession

import (
	"context"

	"github.com/MrEthical07/goSession/metadata"
)

type sessionIDContextKey struct{}
type clientIPContextKey struct{}
type requestInfoContextKey struct{}
type userAgentContextKey struct{}
type accountContextKey struct{}

// WithSessionID attaches the id carried by the request's session cookie.
// An empty id means the caller has no session.
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, sessionIDContextKey{}, sessionID)
}

// SessionIDFromContext returns the id set by [WithSessionID].
func SessionIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(sessionIDContextKey{}).(string)
	return id
}

// WithClientIP attaches the already resolved client address. The Engine uses
// it for login throttling and audit events.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPContextKey{}, ip)
}

// WithRequestInfo attaches the raw network information the metadata
// resolver reads at login.
func WithRequestInfo(ctx context.Context, info metadata.RequestInfo) context.Context {
	return context.WithValue(ctx, requestInfoContextKey{}, info)
}

// WithUserAgent attaches the HTTP User-Agent string.
func WithUserAgent(ctx context.Context, userAgent string) context.Context {
	return context.WithValue(ctx, userAgentContextKey{}, userAgent)
}

// WithAccount attaches the account resolved by [Engine.Authorize].
func WithAccount(ctx context.Context, account Account) context.Context {
	return context.WithValue(ctx, accountContextKey{}, account)
}

// AccountFromContext returns the account attached by the guard.
func AccountFromContext(ctx context.Context) (Account, bool) {
	if ctx == nil {
		return Account{}, false
	}
	account, ok := ctx.Value(accountContextKey{}).(Account)
	return account, ok
}

func clientIPFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	ip, _ := ctx.Value(clientIPContextKey{}).(string)
	return ip
}

func userAgentFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	userAgent, _ := ctx.Value(userAgentContextKey{}).(string)
	return userAgent
}

func requestInfoFromContext(ctx context.Context) (metadata.RequestInfo, bool) {
	if ctx == nil {
		return metadata.RequestInfo{}, false
	}

	info, ok := ctx.Value(requestInfoContextKey{}).(metadata.RequestInfo)
	return info, ok
}
