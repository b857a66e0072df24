// Package memory is an in-process [goSession.UserDirectory].
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	goSession "github.com/MrEthical07/goSession"
	"github.com/google/uuid"
)

// Directory keeps accounts in memory. It is safe for concurrent use.
type Directory struct {
	mu       sync.RWMutex
	byID     map[string]goSession.Account
	order    []string
	username map[string]string
	email    map[string]string
}

func New() *Directory {
	return &Directory{
		byID:     make(map[string]goSession.Account),
		username: make(map[string]string),
		email:    make(map[string]string),
	}
}

func (d *Directory) FindByLogin(_ context.Context, login string) (goSession.Account, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	id, ok := d.username[login]
	if !ok {
		id, ok = d.email[login]
	}
	if !ok {
		return goSession.Account{}, fmt.Errorf("%w: %q", goSession.ErrUserNotFound, login)
	}
	return d.byID[id], nil
}

func (d *Directory) FindByID(_ context.Context, id string) (goSession.Account, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	account, ok := d.byID[id]
	if !ok {
		return goSession.Account{}, fmt.Errorf("%w: id %q", goSession.ErrUserNotFound, id)
	}
	return account, nil
}

func (d *Directory) UsernameExists(_ context.Context, username string) (bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.username[username]
	return ok, nil
}

func (d *Directory) EmailExists(_ context.Context, email string) (bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.email[email]
	return ok, nil
}

// Create stores a new account under a random UUID.
func (d *Directory) Create(_ context.Context, in goSession.NewAccount) (goSession.Account, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.username[in.Username]; ok {
		return goSession.Account{}, goSession.ErrUsernameTaken
	}
	if _, ok := d.email[in.Email]; ok {
		return goSession.Account{}, goSession.ErrEmailTaken
	}

	created := in.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	account := goSession.Account{
		ID:           uuid.NewString(),
		Username:     in.Username,
		Email:        in.Email,
		DisplayName:  in.DisplayName,
		PasswordHash: in.PasswordHash,
		CreatedAt:    created,
		UpdatedAt:    created,
	}

	d.byID[account.ID] = account
	d.username[account.Username] = account.ID
	d.email[account.Email] = account.ID
	d.order = append(d.order, account.ID)
	return account, nil
}

// List returns accounts in creation order.
func (d *Directory) List(context.Context) ([]goSession.Account, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]goSession.Account, 0, len(d.order))
	for _, id := range d.order {
		if account, ok := d.byID[id]; ok {
			out = append(out, account)
		}
	}
	return out, nil
}

// Delete removes an account. Sessions it owned stay in Redis until they
// expire but no longer pass the guard.
func (d *Directory) Delete(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	account, ok := d.byID[id]
	if !ok {
		return
	}
	delete(d.byID, id)
	delete(d.username, account.Username)
	delete(d.email, account.Email)
}

var _ goSession.UserDirectory = (*Directory)(nil)
