package goSession

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthorized is returned when a request carries no authenticated
	// session or its owner no longer exists.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInvalidCredentials replaces ErrUserNotFound and ErrInvalidPassword
	// on login when Security.CollapseCredentialErrors is set.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUserNotFound is returned by a UserDirectory miss.
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidPassword is returned when the password does not match.
	ErrInvalidPassword = errors.New("invalid password")
	// ErrLoginRateLimited is returned when the login throttle trips.
	ErrLoginRateLimited = errors.New("login rate limited")
	// ErrAccountExists is the parent of every registration uniqueness error.
	ErrAccountExists = errors.New("account already exists")
	// ErrUsernameTaken wraps ErrAccountExists.
	ErrUsernameTaken = fmt.Errorf("username already taken: %w", ErrAccountExists)
	// ErrEmailTaken wraps ErrAccountExists.
	ErrEmailTaken = fmt.Errorf("email already registered: %w", ErrAccountExists)
	// ErrAccountCreationInvalid is returned for malformed registration input.
	ErrAccountCreationInvalid = errors.New("invalid account creation request")
	// ErrAccountCreationRateLimited is returned when the per-IP registration
	// budget is exhausted.
	ErrAccountCreationRateLimited = errors.New("account creation rate limited")
	ErrPasswordPolicy             = errors.New("password policy violation")
	ErrSessionCreationFailed      = errors.New("session creation failed")
	ErrSessionInvalidationFailed  = errors.New("session invalidation failed")
	ErrSessionNotFound            = errors.New("session not found")
	// ErrSessionConflict is returned when a caller targets its own current
	// session through RemoveSession.
	ErrSessionConflict = errors.New("cannot remove current session")
	// ErrSessionStoreUnavailable wraps session store failures on read paths.
	ErrSessionStoreUnavailable = errors.New("session store unavailable")
	ErrEngineNotReady          = errors.New("engine not initialized")
)

// ErrorKind is the coarse classification the transport layer maps to a
// status code.
type ErrorKind string

const (
	KindNone         ErrorKind = ""
	KindNotFound     ErrorKind = "not_found"
	KindUnauthorized ErrorKind = "unauthorized"
	KindConflict     ErrorKind = "conflict"
	KindInvalid      ErrorKind = "invalid"
	KindRateLimited  ErrorKind = "rate_limited"
	KindInternal     ErrorKind = "internal"
)

// KindOf classifies err. Unknown errors are KindInternal; nil is KindNone.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrAccountCreationInvalid),
		errors.Is(err, ErrPasswordPolicy):
		return KindInvalid
	case errors.Is(err, ErrLoginRateLimited),
		errors.Is(err, ErrAccountCreationRateLimited):
		return KindRateLimited
	case errors.Is(err, ErrUserNotFound),
		errors.Is(err, ErrSessionNotFound):
		return KindNotFound
	case errors.Is(err, ErrUnauthorized),
		errors.Is(err, ErrInvalidCredentials),
		errors.Is(err, ErrInvalidPassword):
		return KindUnauthorized
	case errors.Is(err, ErrSessionConflict),
		errors.Is(err, ErrAccountExists):
		return KindConflict
	default:
		return KindInternal
	}
}
