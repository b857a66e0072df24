package api

import (
	"net/http"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/middleware"
	"github.com/MrEthical07/goSession/session"
	"go.uber.org/zap"
)

// Handler owns the route table.
type Handler struct {
	engine  *goSession.Engine
	cookies *middleware.Cookies
	logger  *zap.Logger
	metrics http.Handler
}

type Option func(*Handler)

func WithLogger(logger *zap.Logger) Option {
	return func(h *Handler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// WithMetricsHandler serves GET /metrics. Without it the route is absent.
func WithMetricsHandler(metrics http.Handler) Option {
	return func(h *Handler) { h.metrics = metrics }
}

func New(engine *goSession.Engine, cookies *middleware.Cookies, opts ...Option) *Handler {
	h := &Handler{
		engine:  engine,
		cookies: cookies,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Routes returns the full route table wrapped in the session middleware.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	guard := middleware.Guard(h.engine)
	protected := func(pattern string, fn http.HandlerFunc) {
		mux.Handle(pattern, guard(fn))
	}

	mux.HandleFunc("POST /auth/accounts", h.createAccount)
	mux.HandleFunc("POST /auth/login", h.login)
	protected("POST /auth/logout", h.logout)
	protected("POST /auth/clear-session", h.clearSession)
	protected("GET /auth/me", h.me)
	protected("GET /auth/accounts", h.listAccounts)

	protected("GET /sessions/current", h.currentSession)
	protected("GET /sessions", h.listSessions)
	protected("DELETE /sessions/{id}", h.removeSession)
	protected("DELETE /sessions", h.removeOtherSessions)

	mux.HandleFunc("GET /healthz", h.health)
	if h.metrics != nil {
		mux.Handle("GET /metrics", h.metrics)
	}

	return middleware.Session(h.cookies)(mux)
}

type loginResponse struct {
	Account goSession.Account `json:"account"`
	Session session.Session   `json:"session"`
}

func (h *Handler) createAccount(w http.ResponseWriter, r *http.Request) {
	var req goSession.CreateAccountRequest
	if err := decode(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}

	account, err := h.engine.CreateAccount(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, account)
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var creds goSession.Credentials
	if err := decode(w, r, &creds); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}

	res, err := h.engine.Login(r.Context(), creds)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.cookies.Issue(w, res.Session.ID)
	writeJSON(w, http.StatusOK, loginResponse{Account: res.Account, Session: res.Session})
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	if err := h.engine.Logout(r.Context()); err != nil {
		h.fail(w, r, err)
		return
	}
	h.cookies.Clear(w)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) clearSession(w http.ResponseWriter, r *http.Request) {
	cleared := h.engine.ClearSessionCookie(r.Context())
	if cleared {
		h.cookies.Clear(w)
	}
	writeJSON(w, http.StatusOK, map[string]bool{"cleared": cleared})
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	account, err := h.engine.Me(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, account)
}

func (h *Handler) listAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.engine.ListAccounts(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, accounts)
}

func (h *Handler) currentSession(w http.ResponseWriter, r *http.Request) {
	sess, err := h.engine.FindCurrentSession(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (h *Handler) listSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.engine.FindByUser(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sessions)
}

func (h *Handler) removeSession(w http.ResponseWriter, r *http.Request) {
	if err := h.engine.RemoveSession(r.Context(), r.PathValue("id")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) removeOtherSessions(w http.ResponseWriter, r *http.Request) {
	n, err := h.engine.RemoveOtherSessions(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"removed": n})
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	latency, err := h.engine.Ping(r.Context())
	if err != nil {
		h.logger.Warn("health check failed", zap.Error(err))
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":           "ok",
		"redis_latency_ms": latency.Milliseconds(),
	})
}
