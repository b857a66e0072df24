package goSession

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

const testPassword = "Secret1!"

// testDirectory is an in-memory UserDirectory. directory/memory cannot be
// used here because it imports this package.
type testDirectory struct {
	mu       sync.Mutex
	accounts []Account
	seq      int

	findByIDCalls int
	failList      error
}

func newTestDirectory() *testDirectory {
	return &testDirectory{}
}

func (d *testDirectory) FindByLogin(_ context.Context, login string) (Account, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, a := range d.accounts {
		if a.Username == login || a.Email == login {
			return a, nil
		}
	}
	return Account{}, fmt.Errorf("%w: %q", ErrUserNotFound, login)
}

func (d *testDirectory) FindByID(_ context.Context, id string) (Account, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.findByIDCalls++
	for _, a := range d.accounts {
		if a.ID == id {
			return a, nil
		}
	}
	return Account{}, ErrUserNotFound
}

func (d *testDirectory) UsernameExists(_ context.Context, username string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, a := range d.accounts {
		if a.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func (d *testDirectory) EmailExists(_ context.Context, email string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, a := range d.accounts {
		if a.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (d *testDirectory) Create(_ context.Context, in NewAccount) (Account, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, a := range d.accounts {
		if a.Username == in.Username {
			return Account{}, ErrUsernameTaken
		}
		if a.Email == in.Email {
			return Account{}, ErrEmailTaken
		}
	}
	d.seq++
	a := Account{
		ID:           fmt.Sprintf("u%d", d.seq),
		Username:     in.Username,
		Email:        in.Email,
		DisplayName:  in.DisplayName,
		PasswordHash: in.PasswordHash,
		CreatedAt:    in.CreatedAt,
		UpdatedAt:    in.CreatedAt,
	}
	d.accounts = append(d.accounts, a)
	return a, nil
}

func (d *testDirectory) List(context.Context) ([]Account, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.failList != nil {
		return nil, d.failList
	}
	return append([]Account(nil), d.accounts...), nil
}

func (d *testDirectory) remove(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i, a := range d.accounts {
		if a.ID == id {
			d.accounts = append(d.accounts[:i], d.accounts[i+1:]...)
			return
		}
	}
}

func newTestRedis(t testing.TB) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = client.Close()
		mr.Close()
	})
	return mr, client
}

// testConfig keeps Argon2 cheap and client addresses unpinned.
func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Env = EnvTest
	cfg.Password.Memory = 8 * 1024
	cfg.Password.Time = 1
	cfg.Password.Parallelism = 1
	cfg.Security.MaxLoginAttempts = 3
	cfg.Security.LoginCooldownDuration = time.Minute
	cfg.Account.MaxCreationsPerIP = 3
	cfg.Account.AccountCreationCooldown = time.Minute
	cfg.Metrics.Enabled = true
	cfg.Metrics.EnableLatencyHistograms = true
	return cfg
}

type testEnv struct {
	engine *Engine
	dir    *testDirectory
	mr     *miniredis.Miniredis
	rdb    *redis.Client
}

func newTestEnv(t testing.TB, cfg Config, configure ...func(*Builder)) *testEnv {
	t.Helper()

	mr, rdb := newTestRedis(t)
	dir := newTestDirectory()

	b := New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithUserDirectory(dir)
	for _, fn := range configure {
		fn(b)
	}

	engine, err := b.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)

	return &testEnv{engine: engine, dir: dir, mr: mr, rdb: rdb}
}

// register creates username with testPassword through the Engine.
func (env *testEnv) register(t testing.TB, username string) Account {
	t.Helper()

	account, err := env.engine.CreateAccount(context.Background(), CreateAccountRequest{
		Username: username,
		Email:    strings.ToLower(username) + "@example.com",
		Password: testPassword,
	})
	if err != nil {
		t.Fatalf("CreateAccount(%s) failed: %v", username, err)
	}
	return account
}

// login signs in from a distinct client address and returns a context that
// carries the new session id, as the cookie middleware would.
func (env *testEnv) login(t testing.TB, login, ip string) (context.Context, LoginResult) {
	t.Helper()

	ctx := WithClientIP(context.Background(), ip)
	res, err := env.engine.Login(ctx, Credentials{Login: login, Password: testPassword})
	if err != nil {
		t.Fatalf("Login(%s) failed: %v", login, err)
	}
	return WithSessionID(ctx, res.Session.ID), res
}
