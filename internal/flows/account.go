package flows

import (
	"context"
	"errors"
	"net/mail"
	"regexp"
	"strings"
	"time"
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9]+(?:-[a-zA-Z0-9]+)*$`)

const maxUsernameLength = 64

type AccountCreateRequest struct {
	Username string
	Email    string
	Password string
}

type AccountCreateInput struct {
	Username     string
	Email        string
	DisplayName  string
	PasswordHash string
	CreatedAt    time.Time
}

type AccountMetrics struct {
	AccountCreationSuccess     int
	AccountCreationDuplicate   int
	AccountCreationRateLimited int
	AccountCreationInvalid     int
}

type AccountEvents struct {
	AccountCreationSuccess     string
	AccountCreationFailure     string
	AccountCreationDuplicate   string
	AccountCreationRateLimited string
}

type AccountErrors struct {
	EngineNotReady             error
	AccountCreationInvalid     error
	AccountCreationRateLimited error
	PasswordPolicy             error
	UsernameTaken              error
	EmailTaken                 error
	AccountExists              error
}

type AccountDeps struct {
	Now                 func() time.Time
	ClientIPFromContext func(context.Context) string

	TakeAccountCreation func(context.Context, string) error
	CheckPasswordPolicy func(string) error

	UsernameExists func(context.Context, string) (bool, error)
	EmailExists    func(context.Context, string) (bool, error)
	HashPassword   func(string) (string, error)
	CreateAccount  func(context.Context, AccountCreateInput) (AccountRecord, error)

	MetricInc func(int)
	EmitAudit AuditFunc

	Metrics AccountMetrics
	Events  AccountEvents
	Errors  AccountErrors
}

// RunCreateAccount validates and registers a new account. Uniqueness is
// checked up front for precise errors; a directory that still reports a
// duplicate (a concurrent registration) is mapped to AccountExists.
func RunCreateAccount(ctx context.Context, req AccountCreateRequest, deps AccountDeps) (AccountRecord, error) {
	normalizeAccountDeps(&deps)
	if deps.HashPassword == nil ||
		deps.CreateAccount == nil ||
		deps.UsernameExists == nil ||
		deps.EmailExists == nil {
		return AccountRecord{}, deps.Errors.EngineNotReady
	}

	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)

	reject := func(reason string, err error) (AccountRecord, error) {
		deps.MetricInc(deps.Metrics.AccountCreationInvalid)
		deps.EmitAudit(ctx, deps.Events.AccountCreationFailure, false, "", "", err, func() map[string]string {
			return map[string]string{
				"username": req.Username,
				"reason":   reason,
			}
		})
		return AccountRecord{}, err
	}

	if req.Username == "" || len(req.Username) > maxUsernameLength || !usernamePattern.MatchString(req.Username) {
		return reject("invalid_username", deps.Errors.AccountCreationInvalid)
	}
	if !validEmail(req.Email) {
		return reject("invalid_email", deps.Errors.AccountCreationInvalid)
	}
	if deps.CheckPasswordPolicy != nil {
		if err := deps.CheckPasswordPolicy(req.Password); err != nil {
			return reject("password_policy", errors.Join(deps.Errors.AccountCreationInvalid, deps.Errors.PasswordPolicy, err))
		}
	}

	if deps.TakeAccountCreation != nil {
		if err := deps.TakeAccountCreation(ctx, deps.ClientIPFromContext(ctx)); err != nil {
			deps.MetricInc(deps.Metrics.AccountCreationRateLimited)
			deps.EmitAudit(ctx, deps.Events.AccountCreationRateLimited, false, "", "", deps.Errors.AccountCreationRateLimited, func() map[string]string {
				return map[string]string{"username": req.Username}
			})
			return AccountRecord{}, deps.Errors.AccountCreationRateLimited
		}
	}

	duplicate := func(reason string, err error) (AccountRecord, error) {
		deps.MetricInc(deps.Metrics.AccountCreationDuplicate)
		deps.EmitAudit(ctx, deps.Events.AccountCreationDuplicate, false, "", "", err, func() map[string]string {
			return map[string]string{
				"username": req.Username,
				"reason":   reason,
			}
		})
		return AccountRecord{}, err
	}

	taken, err := deps.UsernameExists(ctx, req.Username)
	if err != nil {
		return AccountRecord{}, err
	}
	if taken {
		return duplicate("username_taken", deps.Errors.UsernameTaken)
	}
	taken, err = deps.EmailExists(ctx, req.Email)
	if err != nil {
		return AccountRecord{}, err
	}
	if taken {
		return duplicate("email_taken", deps.Errors.EmailTaken)
	}

	hash, err := deps.HashPassword(req.Password)
	if err != nil {
		return reject("hash_failed", errors.Join(deps.Errors.PasswordPolicy, err))
	}
	req.Password = ""

	created, err := deps.CreateAccount(ctx, AccountCreateInput{
		Username:     req.Username,
		Email:        req.Email,
		DisplayName:  req.Username,
		PasswordHash: hash,
		CreatedAt:    deps.Now().UTC(),
	})
	if err != nil {
		if deps.Errors.AccountExists != nil && errors.Is(err, deps.Errors.AccountExists) {
			return duplicate("provider_duplicate", err)
		}
		deps.EmitAudit(ctx, deps.Events.AccountCreationFailure, false, "", "", err, func() map[string]string {
			return map[string]string{
				"username": req.Username,
				"reason":   "provider_create_failed",
			}
		})
		return AccountRecord{}, err
	}

	deps.MetricInc(deps.Metrics.AccountCreationSuccess)
	deps.EmitAudit(ctx, deps.Events.AccountCreationSuccess, true, created.ID, "", nil, func() map[string]string {
		return map[string]string{"username": created.Username}
	})
	return created, nil
}

// RunListAccounts returns every registered account.
func RunListAccounts(ctx context.Context, list func(context.Context) ([]AccountRecord, error), errNotReady error) ([]AccountRecord, error) {
	if list == nil {
		return nil, errNotReady
	}
	accounts, err := list(ctx)
	if err != nil {
		return nil, err
	}
	if accounts == nil {
		accounts = []AccountRecord{}
	}
	return accounts, nil
}

func validEmail(s string) bool {
	if s == "" || len(s) > 254 {
		return false
	}
	addr, err := mail.ParseAddress(s)
	if err != nil {
		return false
	}
	// reject display-name forms such as "Alice <a@b.c>"
	return addr.Address == s && strings.Contains(s[strings.LastIndexByte(s, '@')+1:], ".")
}

func normalizeAccountDeps(deps *AccountDeps) {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.ClientIPFromContext == nil {
		deps.ClientIPFromContext = func(context.Context) string { return "" }
	}
	if deps.MetricInc == nil {
		deps.MetricInc = noopMetric
	}
	if deps.EmitAudit == nil {
		deps.EmitAudit = noopAudit
	}
}
