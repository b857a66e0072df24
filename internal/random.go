package internal

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
)

// SessionID is 128 bits of CSPRNG output.
type SessionID [16]byte

var strictEncoding = base64.RawURLEncoding.Strict()

// ErrInvalidSessionID is returned for ids that are not 16 bytes of base64url.
var ErrInvalidSessionID = errors.New("invalid session id")

func NewSessionID() (SessionID, error) {
	var sid SessionID
	_, err := rand.Read(sid[:])
	return sid, err
}

// NewSessionIDString returns a fresh id in its wire form.
func NewSessionIDString() (string, error) {
	sid, err := NewSessionID()
	if err != nil {
		return "", err
	}
	return sid.String(), nil
}

func (s SessionID) String() string {
	// base64url, no padding, compact
	return base64.RawURLEncoding.EncodeToString(s[:])
}

func ParseSessionID(sessionID string) (SessionID, error) {
	var sid SessionID

	if len(sessionID) != base64.RawURLEncoding.EncodedLen(len(sid)) {
		return sid, ErrInvalidSessionID
	}
	raw, err := strictEncoding.DecodeString(sessionID)
	if err != nil || len(raw) != len(sid) {
		return sid, ErrInvalidSessionID
	}

	copy(sid[:], raw)
	return sid, nil
}

// ValidSessionID reports whether s has the shape of an id from NewSessionID.
func ValidSessionID(s string) bool {
	_, err := ParseSessionID(s)
	return err == nil
}
