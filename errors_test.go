package goSession

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	cases := []struct {
		err  error
		want ErrorKind
	}{
		{nil, KindNone},
		{ErrUnauthorized, KindUnauthorized},
		{ErrInvalidCredentials, KindUnauthorized},
		{ErrInvalidPassword, KindUnauthorized},
		{ErrUserNotFound, KindNotFound},
		{ErrSessionNotFound, KindNotFound},
		{ErrSessionConflict, KindConflict},
		{ErrUsernameTaken, KindConflict},
		{ErrEmailTaken, KindConflict},
		{ErrLoginRateLimited, KindRateLimited},
		{ErrAccountCreationRateLimited, KindRateLimited},
		{ErrAccountCreationInvalid, KindInvalid},
		{errors.Join(ErrAccountCreationInvalid, ErrPasswordPolicy), KindInvalid},
		{fmt.Errorf("wrapped: %w", ErrSessionNotFound), KindNotFound},
		{errors.Join(ErrSessionStoreUnavailable, errors.New("dial tcp")), KindInternal},
		{ErrSessionCreationFailed, KindInternal},
		{errors.New("anything else"), KindInternal},
	}

	for _, tc := range cases {
		if got := KindOf(tc.err); got != tc.want {
			t.Fatalf("KindOf(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}

func TestTakenErrorsWrapAccountExists(t *testing.T) {
	for _, err := range []error{ErrUsernameTaken, ErrEmailTaken} {
		if !errors.Is(err, ErrAccountExists) {
			t.Fatalf("%v must wrap ErrAccountExists", err)
		}
	}
	if errors.Is(ErrUsernameTaken, ErrEmailTaken) {
		t.Fatal("taken errors must stay distinguishable")
	}
}
