package flows

import (
	"context"
	"errors"
	"time"

	"github.com/MrEthical07/goSession/session"
)

// LoginResult is the flow-local login response shape.
type LoginResult struct {
	Account AccountRecord
	Session session.Session
}

// LoginMetrics carries metric IDs needed by the login flow.
type LoginMetrics struct {
	LoginSuccess          int
	LoginFailure          int
	LoginRateLimited      int
	SessionCreated        int
	SessionCreationFailed int
}

// LoginEvents carries audit event names used by the login flow.
type LoginEvents struct {
	LoginSuccess     string
	LoginFailure     string
	LoginRateLimited string
}

// LoginErrors carries host-level sentinel errors used by the login flow.
type LoginErrors struct {
	EngineNotReady        error
	UserNotFound          error
	InvalidPassword       error
	InvalidCredentials    error
	LoginRateLimited      error
	SessionCreationFailed error
}

// LoginDeps captures login dependencies.
type LoginDeps struct {
	CollapseCredentialErrors bool

	Now                 func() time.Time
	ClientIPFromContext func(context.Context) string
	PreviousSessionID   func(context.Context) string

	CheckLoginRate     func(context.Context, string, string) error
	IncrementLoginRate func(context.Context, string, string) error
	ResetLoginRate     func(context.Context, string, string) error

	// FindAccountByLogin returns Errors.UserNotFound (or an error wrapping
	// it) when no account matches.
	FindAccountByLogin func(context.Context, string) (AccountRecord, error)
	VerifyPassword     func(password, hash string) (bool, error)
	ResolveMetadata    func(context.Context) session.Metadata
	NewSessionID       func() (string, error)
	SaveSession        func(context.Context, *session.Session) error
	DeleteSession      func(context.Context, string) error

	MetricInc func(int)
	EmitAudit AuditFunc
	Warn      func(string, error)

	Metrics LoginMetrics
	Events  LoginEvents
	Errors  LoginErrors
}

// RunLogin authenticates login/password and persists a new session under a
// freshly generated id. Nothing is written unless every check passes.
func RunLogin(ctx context.Context, login, password string, deps LoginDeps) (*LoginResult, error) {
	normalizeLoginDeps(&deps)
	if deps.FindAccountByLogin == nil ||
		deps.VerifyPassword == nil ||
		deps.NewSessionID == nil ||
		deps.SaveSession == nil {
		return nil, deps.Errors.EngineNotReady
	}

	ip := deps.ClientIPFromContext(ctx)
	identifier := func() map[string]string {
		return map[string]string{"identifier": login}
	}

	if deps.CheckLoginRate != nil {
		if err := deps.CheckLoginRate(ctx, login, ip); err != nil {
			deps.MetricInc(deps.Metrics.LoginRateLimited)
			deps.EmitAudit(ctx, deps.Events.LoginRateLimited, false, "", "", deps.Errors.LoginRateLimited, identifier)
			return nil, deps.Errors.LoginRateLimited
		}
	}

	// failure records a failed attempt and returns the error the caller sees.
	failure := func(userID, reason string, cause error) error {
		if deps.IncrementLoginRate != nil {
			if err := deps.IncrementLoginRate(ctx, login, ip); err != nil {
				deps.MetricInc(deps.Metrics.LoginRateLimited)
				deps.EmitAudit(ctx, deps.Events.LoginRateLimited, false, userID, "", deps.Errors.LoginRateLimited, identifier)
				return deps.Errors.LoginRateLimited
			}
		}
		if deps.CollapseCredentialErrors {
			cause = deps.Errors.InvalidCredentials
		}
		deps.MetricInc(deps.Metrics.LoginFailure)
		deps.EmitAudit(ctx, deps.Events.LoginFailure, false, userID, "", cause, func() map[string]string {
			return map[string]string{
				"identifier": login,
				"reason":     reason,
			}
		})
		return cause
	}

	account, err := deps.FindAccountByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, deps.Errors.UserNotFound) {
			return nil, failure("", "user_not_found", deps.Errors.UserNotFound)
		}
		return nil, err
	}

	ok, err := deps.VerifyPassword(password, account.PasswordHash)
	if err != nil || !ok {
		if err != nil {
			deps.Warn("stored password hash could not be verified", err)
		}
		return nil, failure(account.ID, "password_mismatch", deps.Errors.InvalidPassword)
	}

	sid, err := deps.NewSessionID()
	if err != nil {
		deps.MetricInc(deps.Metrics.SessionCreationFailed)
		return nil, errors.Join(deps.Errors.SessionCreationFailed, err)
	}

	sess := &session.Session{
		ID:        sid,
		UserID:    account.ID,
		CreatedAt: deps.Now().UTC(),
		Metadata:  deps.ResolveMetadata(ctx),
	}
	if err := deps.SaveSession(ctx, sess); err != nil {
		deps.MetricInc(deps.Metrics.SessionCreationFailed)
		deps.EmitAudit(ctx, deps.Events.LoginFailure, false, account.ID, "", deps.Errors.SessionCreationFailed, func() map[string]string {
			return map[string]string{
				"identifier": login,
				"reason":     "session_persist",
			}
		})
		return nil, errors.Join(deps.Errors.SessionCreationFailed, err)
	}
	deps.MetricInc(deps.Metrics.SessionCreated)

	if prev := deps.PreviousSessionID(ctx); prev != "" && prev != sid && deps.DeleteSession != nil {
		if err := deps.DeleteSession(ctx, prev); err != nil {
			deps.Warn("previous session cleanup failed", err)
		}
	}

	if deps.ResetLoginRate != nil {
		if err := deps.ResetLoginRate(ctx, login, ip); err != nil {
			deps.Warn("login throttle reset failed", err)
		}
	}

	deps.MetricInc(deps.Metrics.LoginSuccess)
	deps.EmitAudit(ctx, deps.Events.LoginSuccess, true, account.ID, sid, nil, identifier)

	return &LoginResult{
		Account: account,
		Session: *sess,
	}, nil
}

func normalizeLoginDeps(deps *LoginDeps) {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.ClientIPFromContext == nil {
		deps.ClientIPFromContext = func(context.Context) string { return "" }
	}
	if deps.PreviousSessionID == nil {
		deps.PreviousSessionID = func(context.Context) string { return "" }
	}
	if deps.ResolveMetadata == nil {
		deps.ResolveMetadata = func(context.Context) session.Metadata {
			return session.Metadata{
				Location: session.UnknownLocation(),
				Device:   session.UnknownDevice(),
			}
		}
	}
	if deps.MetricInc == nil {
		deps.MetricInc = noopMetric
	}
	if deps.EmitAudit == nil {
		deps.EmitAudit = noopAudit
	}
	if deps.Warn == nil {
		deps.Warn = noopWarn
	}
}
