package middleware

import (
	"encoding/json"
	"net/http"

	goSession "github.com/MrEthical07/goSession"
)

// Guard admits requests whose session belongs to an existing account and
// attaches that account to the context. Store failures answer 500 so an
// outage is not reported as a logout.
func Guard(engine *goSession.Engine) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			account, err := engine.Authorize(r.Context())
			if err != nil {
				if goSession.KindOf(err) == goSession.KindInternal {
					writeError(w, http.StatusInternalServerError, "internal error")
					return
				}
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			ctx := goSession.WithAccount(r.Context(), account)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
