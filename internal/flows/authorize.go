package flows

import (
	"context"
	"errors"
)

type AuthorizeMetrics struct {
	AuthorizeSuccess int
	AuthorizeFailure int
}

type AuthorizeErrors struct {
	EngineNotReady error
	Unauthorized   error
	UserNotFound   error
}

// AuthorizeDeps captures the guard's dependencies. ResolveUserID maps the
// request to the session's owner ("" when anonymous or absent).
type AuthorizeDeps struct {
	ResolveUserID   func(context.Context) (string, error)
	FindAccountByID func(context.Context, string) (AccountRecord, error)

	MetricInc func(int)

	Metrics AuthorizeMetrics
	Errors  AuthorizeErrors
}

// RunAuthorize loads the account that owns the current session. A missing
// session, an anonymous session and a vanished account are all Unauthorized.
func RunAuthorize(ctx context.Context, deps AuthorizeDeps) (AccountRecord, error) {
	if deps.MetricInc == nil {
		deps.MetricInc = noopMetric
	}
	if deps.ResolveUserID == nil || deps.FindAccountByID == nil {
		return AccountRecord{}, deps.Errors.EngineNotReady
	}

	deny := func() (AccountRecord, error) {
		deps.MetricInc(deps.Metrics.AuthorizeFailure)
		return AccountRecord{}, deps.Errors.Unauthorized
	}

	userID, err := deps.ResolveUserID(ctx)
	if err != nil {
		if errors.Is(err, deps.Errors.Unauthorized) {
			return deny()
		}
		return AccountRecord{}, err
	}
	if userID == "" {
		return deny()
	}

	account, err := deps.FindAccountByID(ctx, userID)
	if err != nil {
		if errors.Is(err, deps.Errors.UserNotFound) {
			return deny()
		}
		return AccountRecord{}, err
	}

	deps.MetricInc(deps.Metrics.AuthorizeSuccess)
	return account, nil
}
