package flows

import (
	"context"
	"errors"
)

type LogoutMetrics struct {
	Logout int
}

type LogoutEvents struct {
	LogoutSession string
}

type LogoutErrors struct {
	EngineNotReady            error
	Unauthorized              error
	SessionInvalidationFailed error
}

// LogoutDeps captures logout flow dependencies.
type LogoutDeps struct {
	DeleteSession func(context.Context, string) error

	MetricInc func(int)
	EmitAudit AuditFunc

	Metrics LogoutMetrics
	Events  LogoutEvents
	Errors  LogoutErrors
}

// RunLogout destroys the record of sessionID and its index entry.
func RunLogout(ctx context.Context, userID, sessionID string, deps LogoutDeps) error {
	if deps.MetricInc == nil {
		deps.MetricInc = noopMetric
	}
	if deps.EmitAudit == nil {
		deps.EmitAudit = noopAudit
	}
	if deps.DeleteSession == nil {
		return deps.Errors.EngineNotReady
	}
	if sessionID == "" {
		return deps.Errors.Unauthorized
	}

	if err := deps.DeleteSession(ctx, sessionID); err != nil {
		deps.EmitAudit(ctx, deps.Events.LogoutSession, false, userID, sessionID, deps.Errors.SessionInvalidationFailed, nil)
		return errors.Join(deps.Errors.SessionInvalidationFailed, err)
	}

	deps.MetricInc(deps.Metrics.Logout)
	deps.EmitAudit(ctx, deps.Events.LogoutSession, true, userID, sessionID, nil, nil)
	return nil
}
