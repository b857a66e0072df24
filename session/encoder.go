package session

import (
	"encoding/json"
	"errors"
	"time"
)

const maxUserIDLength = 255

// ErrCorruptRecord is returned when a stored value cannot be decoded.
var ErrCorruptRecord = errors.New("session record corrupt")

// record is the persisted value layout. The session id lives in the key only.
type record struct {
	UserID    string    `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
	Metadata  Metadata  `json:"metadata"`
}

// Encode serializes the persisted part of s.
func Encode(s *Session) ([]byte, error) {
	if s == nil {
		return nil, errors.New("nil session")
	}
	if len(s.UserID) > maxUserIDLength {
		return nil, errors.New("userID too long")
	}

	return json.Marshal(record{
		UserID:    s.UserID,
		CreatedAt: s.CreatedAt.UTC(),
		Metadata:  s.Metadata,
	})
}

// Decode parses a persisted value. The returned session has no ID; callers
// set it from the key they read.
func Decode(data []byte) (*Session, error) {
	if len(data) == 0 {
		return nil, ErrCorruptRecord
	}

	var r record
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, errors.Join(ErrCorruptRecord, err)
	}

	return &Session{
		UserID:    r.UserID,
		CreatedAt: r.CreatedAt,
		Metadata:  r.Metadata,
	}, nil
}
