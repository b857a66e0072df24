// Package sqlite implements [goSession.UserDirectory] over a single SQLite
// file using the pure-Go modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"time"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/directory/sqlite/migrations"
	"github.com/google/uuid"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

const accountColumns = `id, username, email, display_name, password_hash, created_at, updated_at`

// Directory stores accounts in SQLite.
type Directory struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and applies the
// bundled migrations. Use ":memory:" only with a single connection.
func Open(path string) (*Directory, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	dsn := path
	if path != ":memory:" {
		dsn = filepath.Clean(path)
	}
	dsn += "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	d := &Directory{db: db}
	if err := d.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return d, nil
}

func (d *Directory) Close() error {
	if d == nil || d.db == nil {
		return nil
	}
	return d.db.Close()
}

// migrate applies every embedded *.sql file once, in name order.
func (d *Directory) migrate(ctx context.Context) error {
	if _, err := d.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS schema_migrations (
    name TEXT PRIMARY KEY,
    applied_at INTEGER NOT NULL
);`); err != nil {
		return fmt.Errorf("ensure migration table: %w", err)
	}

	entries, err := fs.ReadDir(migrations.FS, ".")
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}
	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)

	for _, name := range files {
		var applied int
		if err := d.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM schema_migrations WHERE name = ?`, name).Scan(&applied); err != nil {
			return fmt.Errorf("check migration %s: %w", name, err)
		}
		if applied > 0 {
			continue
		}

		content, err := fs.ReadFile(migrations.FS, name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}

		tx, err := d.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin migration %s: %w", name, err)
		}
		if _, err := tx.ExecContext(ctx, string(content)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("apply migration %s: %w", name, err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations (name, applied_at) VALUES (?, ?)`, name, toMillis(time.Now())); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record migration %s: %w", name, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %s: %w", name, err)
		}
	}
	return nil
}

func (d *Directory) FindByLogin(ctx context.Context, login string) (goSession.Account, error) {
	row := d.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE username = ?1 OR email = ?1 LIMIT 1`, login)
	account, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return goSession.Account{}, fmt.Errorf("%w: %q", goSession.ErrUserNotFound, login)
	}
	return account, err
}

func (d *Directory) FindByID(ctx context.Context, id string) (goSession.Account, error) {
	row := d.db.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = ?`, id)
	account, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return goSession.Account{}, fmt.Errorf("%w: id %q", goSession.ErrUserNotFound, id)
	}
	return account, err
}

func (d *Directory) UsernameExists(ctx context.Context, username string) (bool, error) {
	return d.exists(ctx, `SELECT EXISTS(SELECT 1 FROM accounts WHERE username = ?)`, username)
}

func (d *Directory) EmailExists(ctx context.Context, email string) (bool, error) {
	return d.exists(ctx, `SELECT EXISTS(SELECT 1 FROM accounts WHERE email = ?)`, email)
}

func (d *Directory) exists(ctx context.Context, query, arg string) (bool, error) {
	var found bool
	if err := d.db.QueryRowContext(ctx, query, arg).Scan(&found); err != nil {
		return false, fmt.Errorf("query accounts: %w", err)
	}
	return found, nil
}

func (d *Directory) Create(ctx context.Context, in goSession.NewAccount) (goSession.Account, error) {
	created := in.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	account := goSession.Account{
		ID:           uuid.NewString(),
		Username:     in.Username,
		Email:        in.Email,
		DisplayName:  in.DisplayName,
		PasswordHash: in.PasswordHash,
		CreatedAt:    fromMillis(toMillis(created)),
		UpdatedAt:    fromMillis(toMillis(created)),
	}

	_, err := d.db.ExecContext(ctx,
		`INSERT INTO accounts (`+accountColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		account.ID,
		account.Username,
		account.Email,
		account.DisplayName,
		account.PasswordHash,
		toMillis(account.CreatedAt),
		toMillis(account.UpdatedAt),
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
	rows, err := d.db.QueryContext(ctx, `SELECT `+accountColumns+` FROM accounts ORDER BY created_at, id`)
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

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (goSession.Account, error) {
	var (
		a                    goSession.Account
		createdAt, updatedAt int64
	)
	if err := row.Scan(&a.ID, &a.Username, &a.Email, &a.DisplayName, &a.PasswordHash, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return goSession.Account{}, err
		}
		return goSession.Account{}, fmt.Errorf("scan account: %w", err)
	}
	a.CreatedAt = fromMillis(createdAt)
	a.UpdatedAt = fromMillis(updatedAt)
	return a, nil
}

// uniqueViolation maps a constraint failure to the matching registration
// error, or returns nil for any other error.
func uniqueViolation(err error) error {
	var sqliteErr *msqlite.Error
	isUnique := errors.As(err, &sqliteErr) &&
		(sqliteErr.Code() == sqlite3lib.SQLITE_CONSTRAINT_UNIQUE || sqliteErr.Code() == sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY)

	message := strings.ToLower(err.Error())
	if !isUnique && !strings.Contains(message, "unique constraint failed") {
		return nil
	}
	switch {
	case strings.Contains(message, "accounts.username"):
		return goSession.ErrUsernameTaken
	case strings.Contains(message, "accounts.email"):
		return goSession.ErrEmailTaken
	default:
		return goSession.ErrAccountExists
	}
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

var _ goSession.UserDirectory = (*Directory)(nil)
