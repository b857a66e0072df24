package goSession

import (
	"context"
	"time"

	"github.com/MrEthical07/goSession/session"
)

// Credentials is the login input. Login matches either a username or an
// email address.
type Credentials struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

// Account is a registered user. PasswordHash never leaves the server.
type Account struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	DisplayName  string    `json:"displayName"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// CreateAccountRequest is the registration input.
type CreateAccountRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// NewAccount is what the Engine hands to [UserDirectory.Create] after
// validation and hashing.
type NewAccount struct {
	Username     string
	Email        string
	DisplayName  string
	PasswordHash string
	CreatedAt    time.Time
}

// LoginResult is returned by [Engine.Login]. The transport issues the
// session cookie from Session.ID.
type LoginResult struct {
	Account Account
	Session session.Session
}

// UserDirectory is the account backend the Engine authenticates against.
//
// FindByLogin and FindByID return an error wrapping [ErrUserNotFound] on a
// miss. Create returns an error wrapping [ErrAccountExists] (ideally
// [ErrUsernameTaken] or [ErrEmailTaken]) on a uniqueness violation.
type UserDirectory interface {
	FindByLogin(ctx context.Context, login string) (Account, error)
	FindByID(ctx context.Context, id string) (Account, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	Create(ctx context.Context, input NewAccount) (Account, error)
	List(ctx context.Context) ([]Account, error)
}

// PasswordHasher is satisfied by [password.Hasher].
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, encoded string) (bool, error)
}
