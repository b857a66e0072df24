package middleware

import (
	"net/http"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/metadata"
)

// Session loads the caller's session id from the signed cookie and attaches
// the request context the Engine reads: session id, network info and
// User-Agent. It does not touch the store.
func Session(cookies *Cookies) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			ctx = goSession.WithRequestInfo(ctx, metadata.FromHTTP(r))
			ctx = goSession.WithUserAgent(ctx, r.UserAgent())
			if id, ok := cookies.SessionID(r); ok {
				ctx = goSession.WithSessionID(ctx, id)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
