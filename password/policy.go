package password

import (
	"errors"
	"strings"
)

// MinLength is the shortest password accepted at registration.
const MinLength = 8

const specialChars = "@$!%*?&"

var (
	// ErrTooShort is returned for passwords under [MinLength] bytes.
	ErrTooShort = errors.New("password must be at least 8 characters long")
	// ErrWeak is returned when a required character class is missing or an
	// unsupported character is present.
	ErrWeak = errors.New("password must contain an uppercase letter, a lowercase letter, a digit and one of @$!%*?&, and nothing else")
)

// CheckPolicy enforces the registration policy: at least [MinLength]
// characters drawn only from ASCII letters, digits and @$!%*?&, with at least
// one of each class.
func CheckPolicy(password string) error {
	if len(password) < MinLength {
		return ErrTooShort
	}

	var lower, upper, digit, special bool
	for _, r := range password {
		switch {
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= '0' && r <= '9':
			digit = true
		case strings.ContainsRune(specialChars, r):
			special = true
		default:
			return ErrWeak
		}
	}
	if !lower || !upper || !digit || !special {
		return ErrWeak
	}

	return nil
}
