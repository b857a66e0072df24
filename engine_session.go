package goSession

import (
	"context"
	"errors"
	"time"

	"github.com/MrEthical07/goSession/internal"
	"github.com/MrEthical07/goSession/internal/flows"
	"github.com/MrEthical07/goSession/session"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// Login authenticates creds and stores a new session under a fresh id. A
// session id already present on ctx (see [WithSessionID]) is destroyed after
// the new record is committed. Metadata is resolved from the request info
// and user agent on ctx.
func (e *Engine) Login(ctx context.Context, creds Credentials) (result LoginResult, err error) {
	if e == nil || e.sessionStore == nil {
		return LoginResult{}, ErrEngineNotReady
	}
	start := time.Now()
	ctx, end := e.startSpan(ctx, "Login")
	defer func() {
		e.observe(MetricLoginLatency, start)
		end(err)
	}()

	deps := flows.LoginDeps{
		CollapseCredentialErrors: e.config.Security.CollapseCredentialErrors,

		Now:                 e.now,
		ClientIPFromContext: e.clientIP,
		PreviousSessionID:   SessionIDFromContext,

		FindAccountByLogin: func(ctx context.Context, login string) (flows.AccountRecord, error) {
			account, err := e.directory.FindByLogin(ctx, login)
			if err != nil {
				return flows.AccountRecord{}, err
			}
			return toAccountRecord(account), nil
		},
		VerifyPassword:  e.hasher.Verify,
		ResolveMetadata: e.resolveMetadata,
		NewSessionID:    internal.NewSessionIDString,
		SaveSession:     e.sessionStore.Save,
		DeleteSession:   e.sessionStore.Delete,

		MetricInc: e.flowMetricInc,
		EmitAudit: e.emitAudit,
		Warn:      e.warn,

		Metrics: flows.LoginMetrics{
			LoginSuccess:          int(MetricLoginSuccess),
			LoginFailure:          int(MetricLoginFailure),
			LoginRateLimited:      int(MetricLoginRateLimited),
			SessionCreated:        int(MetricSessionCreated),
			SessionCreationFailed: int(MetricSessionCreationFailed),
		},
		Events: flows.LoginEvents{
			LoginSuccess:     auditEventLoginSuccess,
			LoginFailure:     auditEventLoginFailure,
			LoginRateLimited: auditEventLoginRateLimited,
		},
		Errors: flows.LoginErrors{
			EngineNotReady:        ErrEngineNotReady,
			UserNotFound:          ErrUserNotFound,
			InvalidPassword:       ErrInvalidPassword,
			InvalidCredentials:    ErrInvalidCredentials,
			LoginRateLimited:      ErrLoginRateLimited,
			SessionCreationFailed: ErrSessionCreationFailed,
		},
	}
	if e.rateLimiter != nil && e.config.Security.EnableLoginThrottle {
		deps.CheckLoginRate = e.rateLimiter.CheckLogin
		deps.IncrementLoginRate = e.rateLimiter.IncrementLogin
		deps.ResetLoginRate = e.rateLimiter.ResetLogin
	}

	res, err := flows.RunLogin(ctx, creds.Login, creds.Password, deps)
	if err != nil {
		if errors.Is(err, ErrSessionCreationFailed) {
			e.logger.Error("session persist failed", zap.Error(err))
		}
		return LoginResult{}, err
	}

	return LoginResult{
		Account: fromAccountRecord(res.Account),
		Session: res.Session,
	}, nil
}

// Logout destroys the caller's current session. The transport clears the
// cookie after it returns nil.
func (e *Engine) Logout(ctx context.Context) (err error) {
	if e == nil || e.sessionStore == nil {
		return ErrEngineNotReady
	}
	ctx, end := e.startSpan(ctx, "Logout")
	defer func() { end(err) }()

	userID := ""
	if account, ok := AccountFromContext(ctx); ok {
		userID = account.ID
	}

	err = flows.RunLogout(ctx, userID, SessionIDFromContext(ctx), flows.LogoutDeps{
		DeleteSession: e.sessionStore.Delete,
		MetricInc:     e.flowMetricInc,
		EmitAudit:     e.emitAudit,
		Metrics: flows.LogoutMetrics{
			Logout: int(MetricLogout),
		},
		Events: flows.LogoutEvents{
			LogoutSession: auditEventLogoutSession,
		},
		Errors: flows.LogoutErrors{
			EngineNotReady:            ErrEngineNotReady,
			Unauthorized:              ErrUnauthorized,
			SessionInvalidationFailed: ErrSessionInvalidationFailed,
		},
	})
	if err != nil && errors.Is(err, ErrSessionInvalidationFailed) {
		e.logger.Error("logout failed", zap.Error(err))
	}
	return err
}

// ClearSessionCookie acknowledges a cookie reset without touching the
// session store. It always reports true; the transport expires the cookie.
func (e *Engine) ClearSessionCookie(ctx context.Context) bool {
	_, end := e.startSpan(ctx, "ClearSessionCookie")
	end(nil)
	return true
}

// FindCurrentSession returns the record of the caller's own session.
func (e *Engine) FindCurrentSession(ctx context.Context) (sess session.Session, err error) {
	if e == nil || e.sessionStore == nil {
		return session.Session{}, ErrEngineNotReady
	}
	ctx, end := e.startSpan(ctx, "FindCurrentSession")
	defer func() { end(err) }()

	return flows.RunFindCurrentSession(ctx, SessionIDFromContext(ctx), e.sessionDeps())
}

// FindByUser returns every other live session of the caller, newest first.
// The caller's current session is excluded.
func (e *Engine) FindByUser(ctx context.Context) (sessions []session.Session, err error) {
	if e == nil || e.sessionStore == nil {
		return nil, ErrEngineNotReady
	}
	ctx, end := e.startSpan(ctx, "FindByUser")
	defer func() { end(err) }()

	userID, err := e.callerUserID(ctx)
	if err != nil {
		return nil, err
	}
	return flows.RunFindSessionsByUser(ctx, userID, SessionIDFromContext(ctx), e.sessionDeps())
}

// RemoveSession revokes another session of the caller. Targeting the current
// session fails with [ErrSessionConflict]; a target that does not exist or
// belongs to another user fails with [ErrSessionNotFound].
func (e *Engine) RemoveSession(ctx context.Context, sessionID string) (err error) {
	if e == nil || e.sessionStore == nil {
		return ErrEngineNotReady
	}
	ctx, end := e.startSpan(ctx, "RemoveSession", attribute.String("gosession.target", sessionID))
	defer func() { end(err) }()

	currentID := SessionIDFromContext(ctx)
	if sessionID == currentID {
		e.metricInc(MetricSessionRemoveConflict)
		return ErrSessionConflict
	}

	userID, err := e.callerUserID(ctx)
	if err != nil {
		return err
	}
	if !internal.ValidSessionID(sessionID) {
		return ErrSessionNotFound
	}
	return flows.RunRemoveSession(ctx, userID, currentID, sessionID, e.sessionDeps())
}

// RemoveOtherSessions revokes every session of the caller except the current
// one and returns how many were removed.
func (e *Engine) RemoveOtherSessions(ctx context.Context) (n int, err error) {
	if e == nil || e.sessionStore == nil {
		return 0, ErrEngineNotReady
	}
	ctx, end := e.startSpan(ctx, "RemoveOtherSessions")
	defer func() { end(err) }()

	userID, err := e.callerUserID(ctx)
	if err != nil {
		return 0, err
	}
	return flows.RunRemoveOtherSessions(ctx, userID, SessionIDFromContext(ctx), e.sessionDeps())
}

// callerUserID prefers the account attached by the guard and falls back to
// the owner recorded in the current session.
func (e *Engine) callerUserID(ctx context.Context) (string, error) {
	if account, ok := AccountFromContext(ctx); ok && account.ID != "" {
		return account.ID, nil
	}

	sid := SessionIDFromContext(ctx)
	if sid == "" {
		return "", ErrUnauthorized
	}
	sess, err := e.sessionStore.Get(ctx, sid)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) || errors.Is(err, session.ErrCorruptRecord) {
			return "", ErrUnauthorized
		}
		return "", errors.Join(ErrSessionStoreUnavailable, err)
	}
	if !sess.Authenticated() {
		return "", ErrUnauthorized
	}
	return sess.UserID, nil
}

func (e *Engine) sessionDeps() flows.SessionDeps {
	return flows.SessionDeps{
		GetSession:         e.sessionStore.Get,
		ListSessionsByUser: e.sessionStore.ListByUser,
		DeleteSession:      e.sessionStore.Delete,
		DeleteUserSessions: e.sessionStore.DeleteForUser,
		IsNotFound: func(err error) bool {
			return errors.Is(err, session.ErrNotFound)
		},

		MetricInc: e.flowMetricInc,
		EmitAudit: e.emitAudit,

		Metrics: flows.SessionMetrics{
			SessionRemoved:       int(MetricSessionRemoved),
			SessionConflict:      int(MetricSessionRemoveConflict),
			OtherSessionsRevoked: int(MetricOtherSessionsRevoked),
		},
		Events: flows.SessionEvents{
			SessionRemoved:       auditEventSessionRemoved,
			OtherSessionsRevoked: auditEventOtherSessionsRevoked,
		},
		Errors: flows.SessionErrors{
			EngineNotReady:            ErrEngineNotReady,
			Unauthorized:              ErrUnauthorized,
			SessionNotFound:           ErrSessionNotFound,
			SessionConflict:           ErrSessionConflict,
			SessionInvalidationFailed: ErrSessionInvalidationFailed,
			SessionStoreUnavailable:   ErrSessionStoreUnavailable,
		},
	}
}
