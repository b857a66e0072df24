package memory

import (
	"context"
	"testing"

	goSession "github.com/MrEthical07/goSession"
	"github.com/stretchr/testify/require"
)

func TestDirectoryCreateAndFind(t *testing.T) {
	ctx := context.Background()
	d := New()

	created, err := d.Create(ctx, goSession.NewAccount{
		Username:     "alice",
		Email:        "alice@example.com",
		DisplayName:  "alice",
		PasswordHash: "hash",
	})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	require.False(t, created.CreatedAt.IsZero())

	byName, err := d.FindByLogin(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, created.ID, byName.ID)

	byEmail, err := d.FindByLogin(ctx, "alice@example.com")
	require.NoError(t, err)
	require.Equal(t, created.ID, byEmail.ID)

	byID, err := d.FindByID(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, "hash", byID.PasswordHash)
}

func TestDirectoryMisses(t *testing.T) {
	ctx := context.Background()
	d := New()

	_, err := d.FindByLogin(ctx, "ghost")
	require.ErrorIs(t, err, goSession.ErrUserNotFound)
	_, err = d.FindByID(ctx, "nope")
	require.ErrorIs(t, err, goSession.ErrUserNotFound)
}

func TestDirectoryUniqueness(t *testing.T) {
	ctx := context.Background()
	d := New()

	_, err := d.Create(ctx, goSession.NewAccount{Username: "alice", Email: "a@example.com"})
	require.NoError(t, err)

	_, err = d.Create(ctx, goSession.NewAccount{Username: "alice", Email: "other@example.com"})
	require.ErrorIs(t, err, goSession.ErrUsernameTaken)
	require.ErrorIs(t, err, goSession.ErrAccountExists)

	_, err = d.Create(ctx, goSession.NewAccount{Username: "bob", Email: "a@example.com"})
	require.ErrorIs(t, err, goSession.ErrEmailTaken)

	exists, err := d.UsernameExists(ctx, "alice")
	require.NoError(t, err)
	require.True(t, exists)
	exists, err = d.EmailExists(ctx, "b@example.com")
	require.NoError(t, err)
	require.False(t, exists)
}

func TestDirectoryListAndDelete(t *testing.T) {
	ctx := context.Background()
	d := New()

	a, err := d.Create(ctx, goSession.NewAccount{Username: "alice", Email: "a@example.com"})
	require.NoError(t, err)
	_, err = d.Create(ctx, goSession.NewAccount{Username: "bob", Email: "b@example.com"})
	require.NoError(t, err)

	list, err := d.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "alice", list[0].Username)

	d.Delete(a.ID)
	list, err = d.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	_, err = d.FindByID(ctx, a.ID)
	require.ErrorIs(t, err, goSession.ErrUserNotFound)
}
