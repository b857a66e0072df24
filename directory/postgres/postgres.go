// Package postgres implements [goSession.UserDirectory] over PostgreSQL
// through a pgx connection pool.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	goSession "github.com/MrEthical07/goSession"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolationCode = "23505"

const (
	usernameConstraint = "accounts_username_key"
	emailConstraint    = "accounts_email_key"
)

const schema = `
CREATE TABLE IF NOT EXISTS accounts (
    id            UUID PRIMARY KEY,
    username      TEXT NOT NULL,
    email         TEXT NOT NULL,
    display_name  TEXT NOT NULL,
    password_hash TEXT NOT NULL,
    created_at    TIMESTAMPTZ NOT NULL,
    updated_at    TIMESTAMPTZ NOT NULL,
    CONSTRAINT accounts_username_key UNIQUE (username),
    CONSTRAINT accounts_email_key UNIQUE (email)
);`

const accountColumns = `id::text, username, email, display_name, password_hash, created_at, updated_at`

// Directory stores accounts in PostgreSQL.
type Directory struct {
	pool *pgxpool.Pool
}

// New connects to databaseURL, verifies the connection and ensures the
// accounts table exists.
func New(ctx context.Context, databaseURL string) (*Directory, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	d := NewFromPool(pool)
	if err := d.Migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return d, nil
}

// NewFromPool wraps an existing pool. The caller owns schema setup.
func NewFromPool(pool *pgxpool.Pool) *Directory {
	return &Directory{pool: pool}
}

// Migrate creates the accounts table if it is missing.
func (d *Directory) Migrate(ctx context.Context) error {
	if _, err := d.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("migrate accounts: %w", err)
	}
	return nil
}

func (d *Directory) Close() error {
	if d != nil && d.pool != nil {
		d.pool.Close()
	}
	return nil
}

func (d *Directory) FindByLogin(ctx context.Context, login string) (goSession.Account, error) {
	row := d.pool.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE username = $1 OR email = $1 ORDER BY username = $1 DESC LIMIT 1`, login)
	account, err := scanAccount(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return goSession.Account{}, fmt.Errorf("%w: %q", goSession.ErrUserNotFound, login)
	}
	return account, err
}

func (d *Directory) FindByID(ctx context.Context, id string) (goSession.Account, error) {
	if _, err := uuid.Parse(id); err != nil {
		return goSession.Account{}, fmt.Errorf("%w: id %q", goSession.ErrUserNotFound, id)
	}
	row := d.pool.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id)
	account, err := scanAccount(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return goSession.Account{}, fmt.Errorf("%w: id %q", goSession.ErrUserNotFound, id)
	}
	return account, err
}

func (d *Directory) UsernameExists(ctx context.Context, username string) (bool, error) {
	return d.exists(ctx, `SELECT EXISTS(SELECT 1 FROM accounts WHERE username = $1)`, username)
}

func (d *Directory) EmailExists(ctx context.Context, email string) (bool, error) {
	return d.exists(ctx, `SELECT EXISTS(SELECT 1 FROM accounts WHERE email = $1)`, email)
}

func (d *Directory) exists(ctx context.Context, query, arg string) (bool, error) {
	var found bool
	if err := d.pool.QueryRow(ctx, query, arg).Scan(&found); err != nil {
		return false, fmt.Errorf("query accounts: %w", err)
	}
	return found, nil
}

func (d *Directory) Create(ctx context.Context, in goSession.NewAccount) (goSession.Account, error) {
	created := in.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	created = created.UTC().Truncate(time.Microsecond)

	account := goSession.Account{
		ID:           uuid.NewString(),
		Username:     in.Username,
		Email:        in.Email,
		DisplayName:  in.DisplayName,
		PasswordHash: in.PasswordHash,
		CreatedAt:    created,
		UpdatedAt:    created,
	}

	_, err := d.pool.Exec(ctx,
		`INSERT INTO accounts (id, username, email, display_name, password_hash, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		account.ID,
		account.Username,
		account.Email,
		account.DisplayName,
		account.PasswordHash,
		account.CreatedAt,
		account.UpdatedAt,
	)
	if err != nil {
		if dup := uniqueViolation(err); dup != nil {
			return goSession.Account{}, dup
		}
		return goSession.Account{}, fmt.Errorf("insert account: %w", err)
	}
	return account, nil
}

// List returns accounts oldest first.
func (d *Directory) List(ctx context.Context) ([]goSession.Account, error) {
	rows, err := d.pool.Query(ctx, `SELECT `+accountColumns+` FROM accounts ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	out := []goSession.Account{}
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, account)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	return out, nil
}

func scanAccount(row pgx.Row) (goSession.Account, error) {
	var a goSession.Account
	if err := row.Scan(&a.ID, &a.Username, &a.Email, &a.DisplayName, &a.PasswordHash, &a.CreatedAt, &a.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return goSession.Account{}, err
		}
		return goSession.Account{}, fmt.Errorf("scan account: %w", err)
	}
	a.CreatedAt = a.CreatedAt.UTC()
	a.UpdatedAt = a.UpdatedAt.UTC()
	return a, nil
}

// uniqueViolation maps a 23505 error to the matching registration error,
// or returns nil for any other error.
func uniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != uniqueViolationCode {
		return nil
	}
	switch pgErr.ConstraintName {
	case usernameConstraint:
		return goSession.ErrUsernameTaken
	case emailConstraint:
		return goSession.ErrEmailTaken
	default:
		return goSession.ErrAccountExists
	}
}

var _ goSession.UserDirectory = (*Directory)(nil)
