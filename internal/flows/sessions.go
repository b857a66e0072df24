package flows

import (
	"context"
	"errors"
	"sort"

	"github.com/MrEthical07/goSession/session"
)

type SessionMetrics struct {
	SessionRemoved       int
	SessionConflict      int
	OtherSessionsRevoked int
}

type SessionEvents struct {
	SessionRemoved       string
	OtherSessionsRevoked string
}

type SessionErrors struct {
	EngineNotReady            error
	Unauthorized              error
	SessionNotFound           error
	SessionConflict           error
	SessionInvalidationFailed error
	SessionStoreUnavailable   error
}

// SessionDeps captures dependencies of the session query and revocation flows.
type SessionDeps struct {
	GetSession         func(context.Context, string) (*session.Session, error)
	ListSessionsByUser func(context.Context, string) ([]session.Session, error)
	DeleteSession      func(context.Context, string) error
	DeleteUserSessions func(context.Context, string, []string) (int, error)

	// IsNotFound reports whether a GetSession error means the record is absent.
	IsNotFound func(error) bool

	MetricInc func(int)
	EmitAudit AuditFunc

	Metrics SessionMetrics
	Events  SessionEvents
	Errors  SessionErrors
}

func normalizeSessionDeps(deps *SessionDeps) bool {
	if deps.MetricInc == nil {
		deps.MetricInc = noopMetric
	}
	if deps.EmitAudit == nil {
		deps.EmitAudit = noopAudit
	}
	if deps.IsNotFound == nil {
		deps.IsNotFound = func(error) bool { return false }
	}
	return deps.GetSession != nil &&
		deps.ListSessionsByUser != nil &&
		deps.DeleteSession != nil &&
		deps.DeleteUserSessions != nil
}

// RunFindCurrentSession reads the caller's own record.
func RunFindCurrentSession(ctx context.Context, sessionID string, deps SessionDeps) (session.Session, error) {
	if !normalizeSessionDeps(&deps) {
		return session.Session{}, deps.Errors.EngineNotReady
	}
	if sessionID == "" {
		return session.Session{}, deps.Errors.SessionNotFound
	}

	sess, err := deps.GetSession(ctx, sessionID)
	if err != nil {
		if deps.IsNotFound(err) {
			return session.Session{}, deps.Errors.SessionNotFound
		}
		return session.Session{}, errors.Join(deps.Errors.SessionStoreUnavailable, err)
	}
	return *sess, nil
}

// RunFindSessionsByUser lists the caller's other sessions, newest first.
// Ties on CreatedAt are broken by ascending id so repeated calls agree.
func RunFindSessionsByUser(ctx context.Context, userID, currentID string, deps SessionDeps) ([]session.Session, error) {
	if !normalizeSessionDeps(&deps) {
		return nil, deps.Errors.EngineNotReady
	}
	if userID == "" {
		return nil, deps.Errors.Unauthorized
	}

	all, err := deps.ListSessionsByUser(ctx, userID)
	if err != nil {
		return nil, errors.Join(deps.Errors.SessionStoreUnavailable, err)
	}

	out := make([]session.Session, 0, len(all))
	for _, s := range all {
		if s.UserID != userID || s.ID == currentID {
			continue
		}
		out = append(out, s)
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})

	return out, nil
}

// RunRemoveSession revokes another session owned by userID. Removing the
// current session is always a conflict, whether or not it exists. A target
// that is missing or owned by someone else is reported as not found.
func RunRemoveSession(ctx context.Context, userID, currentID, targetID string, deps SessionDeps) error {
	if !normalizeSessionDeps(&deps) {
		return deps.Errors.EngineNotReady
	}
	if targetID == currentID {
		deps.MetricInc(deps.Metrics.SessionConflict)
		return deps.Errors.SessionConflict
	}
	if userID == "" {
		return deps.Errors.Unauthorized
	}
	if targetID == "" {
		return deps.Errors.SessionNotFound
	}

	target, err := deps.GetSession(ctx, targetID)
	if err != nil {
		if deps.IsNotFound(err) {
			return deps.Errors.SessionNotFound
		}
		return errors.Join(deps.Errors.SessionStoreUnavailable, err)
	}
	if target.UserID != userID {
		return deps.Errors.SessionNotFound
	}

	if err := deps.DeleteSession(ctx, targetID); err != nil {
		deps.EmitAudit(ctx, deps.Events.SessionRemoved, false, userID, targetID, deps.Errors.SessionInvalidationFailed, nil)
		return errors.Join(deps.Errors.SessionInvalidationFailed, err)
	}

	deps.MetricInc(deps.Metrics.SessionRemoved)
	deps.EmitAudit(ctx, deps.Events.SessionRemoved, true, userID, targetID, nil, func() map[string]string {
		return map[string]string{"revoked_by": currentID}
	})
	return nil
}

// RunRemoveOtherSessions revokes every live session of userID except
// currentID and returns how many were removed.
func RunRemoveOtherSessions(ctx context.Context, userID, currentID string, deps SessionDeps) (int, error) {
	others, err := RunFindSessionsByUser(ctx, userID, currentID, deps)
	if err != nil {
		return 0, err
	}
	if len(others) == 0 {
		return 0, nil
	}
	normalizeSessionDeps(&deps)

	ids := make([]string, len(others))
	for i, s := range others {
		ids[i] = s.ID
	}

	n, err := deps.DeleteUserSessions(ctx, userID, ids)
	if err != nil {
		deps.EmitAudit(ctx, deps.Events.OtherSessionsRevoked, false, userID, currentID, deps.Errors.SessionInvalidationFailed, nil)
		return 0, errors.Join(deps.Errors.SessionInvalidationFailed, err)
	}

	deps.MetricInc(deps.Metrics.OtherSessionsRevoked)
	deps.EmitAudit(ctx, deps.Events.OtherSessionsRevoked, true, userID, currentID, nil, nil)
	return n, nil
}
