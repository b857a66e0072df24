package goSession

import (
	"context"
	"errors"
	"time"

	"github.com/MrEthical07/goSession/internal/flows"
	"github.com/MrEthical07/goSession/password"
	"github.com/MrEthical07/goSession/session"
)

// CreateAccount registers a new account. It validates the username, email
// and password policy, rejects taken usernames and emails with
// [ErrUsernameTaken] / [ErrEmailTaken], and stores an Argon2id hash. No
// session is created.
func (e *Engine) CreateAccount(ctx context.Context, req CreateAccountRequest) (account Account, err error) {
	if e == nil || e.directory == nil {
		return Account{}, ErrEngineNotReady
	}
	ctx, end := e.startSpan(ctx, "CreateAccount")
	defer func() { end(err) }()

	deps := flows.AccountDeps{
		Now:                 e.now,
		ClientIPFromContext: e.clientIP,
		CheckPasswordPolicy: password.CheckPolicy,

		UsernameExists: e.directory.UsernameExists,
		EmailExists:    e.directory.EmailExists,
		HashPassword:   e.hasher.Hash,
		CreateAccount: func(ctx context.Context, in flows.AccountCreateInput) (flows.AccountRecord, error) {
			created, err := e.directory.Create(ctx, NewAccount{
				Username:     in.Username,
				Email:        in.Email,
				DisplayName:  in.DisplayName,
				PasswordHash: in.PasswordHash,
				CreatedAt:    in.CreatedAt,
			})
			if err != nil {
				return flows.AccountRecord{}, err
			}
			return toAccountRecord(created), nil
		},

		MetricInc: e.flowMetricInc,
		EmitAudit: e.emitAudit,

		Metrics: flows.AccountMetrics{
			AccountCreationSuccess:     int(MetricAccountCreationSuccess),
			AccountCreationDuplicate:   int(MetricAccountCreationDuplicate),
			AccountCreationRateLimited: int(MetricAccountCreationRateLimited),
			AccountCreationInvalid:     int(MetricAccountCreationInvalid),
		},
		Events: flows.AccountEvents{
			AccountCreationSuccess:     auditEventAccountCreationSuccess,
			AccountCreationFailure:     auditEventAccountCreationFailure,
			AccountCreationDuplicate:   auditEventAccountCreationDuplicate,
			AccountCreationRateLimited: auditEventAccountCreationRateLimited,
		},
		Errors: flows.AccountErrors{
			EngineNotReady:             ErrEngineNotReady,
			AccountCreationInvalid:     ErrAccountCreationInvalid,
			AccountCreationRateLimited: ErrAccountCreationRateLimited,
			PasswordPolicy:             ErrPasswordPolicy,
			UsernameTaken:              ErrUsernameTaken,
			EmailTaken:                 ErrEmailTaken,
			AccountExists:              ErrAccountExists,
		},
	}
	if e.rateLimiter != nil && e.config.Account.EnableThrottle {
		deps.TakeAccountCreation = e.rateLimiter.TakeAccountCreation
	}

	created, err := flows.RunCreateAccount(ctx, flows.AccountCreateRequest{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	}, deps)
	if err != nil {
		return Account{}, err
	}
	return fromAccountRecord(created), nil
}

// ListAccounts returns every registered account.
func (e *Engine) ListAccounts(ctx context.Context) (accounts []Account, err error) {
	if e == nil || e.directory == nil {
		return nil, ErrEngineNotReady
	}
	ctx, end := e.startSpan(ctx, "ListAccounts")
	defer func() { end(err) }()

	records, err := flows.RunListAccounts(ctx, func(ctx context.Context) ([]flows.AccountRecord, error) {
		list, err := e.directory.List(ctx)
		if err != nil {
			return nil, err
		}
		out := make([]flows.AccountRecord, len(list))
		for i, a := range list {
			out[i] = toAccountRecord(a)
		}
		return out, nil
	}, ErrEngineNotReady)
	if err != nil {
		return nil, err
	}

	accounts = make([]Account, len(records))
	for i, r := range records {
		accounts[i] = fromAccountRecord(r)
	}
	return accounts, nil
}

// Authorize resolves the account that owns the caller's session. Every
// failure (no session, anonymous session, deleted account) is
// [ErrUnauthorized]. Results are not cached.
func (e *Engine) Authorize(ctx context.Context) (account Account, err error) {
	if e == nil || e.directory == nil || e.sessionStore == nil {
		return Account{}, ErrEngineNotReady
	}
	start := time.Now()
	ctx, end := e.startSpan(ctx, "Authorize")
	defer func() {
		e.observe(MetricAuthorizeLatency, start)
		end(err)
	}()

	record, err := flows.RunAuthorize(ctx, flows.AuthorizeDeps{
		ResolveUserID: e.sessionOwner,
		FindAccountByID: func(ctx context.Context, id string) (flows.AccountRecord, error) {
			a, err := e.directory.FindByID(ctx, id)
			if err != nil {
				return flows.AccountRecord{}, err
			}
			return toAccountRecord(a), nil
		},
		MetricInc: e.flowMetricInc,
		Metrics: flows.AuthorizeMetrics{
			AuthorizeSuccess: int(MetricAuthorizeSuccess),
			AuthorizeFailure: int(MetricAuthorizeFailure),
		},
		Errors: flows.AuthorizeErrors{
			EngineNotReady: ErrEngineNotReady,
			Unauthorized:   ErrUnauthorized,
			UserNotFound:   ErrUserNotFound,
		},
	})
	if err != nil {
		return Account{}, err
	}
	return fromAccountRecord(record), nil
}

// Me returns the profile of the authorized caller.
func (e *Engine) Me(ctx context.Context) (Account, error) {
	if account, ok := AccountFromContext(ctx); ok {
		return account, nil
	}
	return e.Authorize(ctx)
}

// sessionOwner reads the owner from the current session record. It ignores
// any account already on ctx so the guard always re-checks the store.
func (e *Engine) sessionOwner(ctx context.Context) (string, error) {
	sid := SessionIDFromContext(ctx)
	if sid == "" {
		return "", nil
	}
	sess, err := e.sessionStore.Get(ctx, sid)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) || errors.Is(err, session.ErrCorruptRecord) {
			return "", ErrUnauthorized
		}
		return "", errors.Join(ErrSessionStoreUnavailable, err)
	}
	return sess.UserID, nil
}

func toAccountRecord(a Account) flows.AccountRecord {
	return flows.AccountRecord{
		ID:           a.ID,
		Username:     a.Username,
		Email:        a.Email,
		DisplayName:  a.DisplayName,
		PasswordHash: a.PasswordHash,
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
	}
}

func fromAccountRecord(r flows.AccountRecord) Account {
	return Account{
		ID:           r.ID,
		Username:     r.Username,
		Email:        r.Email,
		DisplayName:  r.DisplayName,
		PasswordHash: r.PasswordHash,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}
