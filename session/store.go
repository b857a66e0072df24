package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrRedisUnavailable wraps every failure of the backing Redis client.
var ErrRedisUnavailable = errors.New("redis unavailable")

// ErrNotFound is returned when no record exists for a session id.
var ErrNotFound = errors.New("session not found")

const (
	userIndexNamespace = "su:"
	scanBatchSize      = 1000
)

const deleteSessionScript = `
local existed = redis.call("DEL", KEYS[1])
if KEYS[2] ~= "" then
  redis.call("SREM", KEYS[2], ARGV[1])
end
return existed
`

var deleteSessionLua = redis.NewScript(deleteSessionScript)

// Store is a Redis-backed session store.
//
// Records live at <prefix><id>. Every authenticated record is also listed in
// a per-user SET so owner-scoped queries never scan the keyspace.
type Store struct {
	redis     redis.UniversalClient
	prefix    string
	ttl       time.Duration
	onCorrupt func(sessionID string, err error)
}

// NewStore creates a session [Store] backed by the given Redis client.
// prefix is the key namespace for session records; a ttl of zero stores
// records without expiry.
func NewStore(client redis.UniversalClient, prefix string, ttl time.Duration) *Store {
	if ttl < 0 {
		ttl = 0
	}
	return &Store{
		redis:  client,
		prefix: prefix,
		ttl:    ttl,
	}
}

// Key returns the storage key of a session id.
func (s *Store) Key(sessionID string) string {
	return s.prefix + sessionID
}

// IDFromKey strips the configured prefix from a storage key.
func (s *Store) IDFromKey(key string) (string, bool) {
	if !strings.HasPrefix(key, s.prefix) {
		return "", false
	}
	id := key[len(s.prefix):]
	if id == "" {
		return "", false
	}
	return id, true
}

// OnCorrupt registers fn to be told about undecodable records that
// [Store.ListByUser] discards.
func (s *Store) OnCorrupt(fn func(sessionID string, err error)) {
	s.onCorrupt = fn
}

// TTL returns the lifetime applied to saved records.
func (s *Store) TTL() time.Duration {
	return s.ttl
}

func (s *Store) userKey(userID string) string {
	return userIndexNamespace + s.prefix + userID
}

// Save writes the record and its index entry in a single MULTI/EXEC, so a
// failed save leaves nothing behind.
func (s *Store) Save(ctx context.Context, sess *Session) error {
	if sess == nil || sess.ID == "" {
		return errors.New("session id required")
	}

	data, err := Encode(sess)
	if err != nil {
		return err
	}

	key := s.Key(sess.ID)
	_, err = s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, key, data, s.ttl)
		if sess.Authenticated() {
			userKey := s.userKey(sess.UserID)
			pipe.SAdd(ctx, userKey, sess.ID)
			if s.ttl > 0 {
				pipe.Expire(ctx, userKey, s.ttl)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	return nil
}

// Get retrieves a session by id. Returns [ErrNotFound] when the key is absent.
func (s *Store) Get(ctx context.Context, sessionID string) (*Session, error) {
	data, err := s.redis.Get(ctx, s.Key(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	sess, err := Decode(data)
	if err != nil {
		return nil, err
	}
	sess.ID = sessionID

	return sess, nil
}

// Delete removes a session and its index entry. Deleting a missing session
// is not an error.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	sess, err := s.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		if !errors.Is(err, ErrCorruptRecord) {
			return err
		}
		sess = &Session{ID: sessionID}
	}

	return s.deleteWithIndex(ctx, sessionID, sess.UserID)
}

// DeleteForUser removes the given sessions of one user in a single
// transaction and returns how many records existed.
func (s *Store) DeleteForUser(ctx context.Context, userID string, sessionIDs []string) (int, error) {
	if len(sessionIDs) == 0 {
		return 0, nil
	}

	keys := make([]string, 0, len(sessionIDs))
	members := make([]any, 0, len(sessionIDs))
	for _, id := range sessionIDs {
		keys = append(keys, s.Key(id))
		members = append(members, id)
	}

	var del *redis.IntCmd
	_, err := s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		del = pipe.Del(ctx, keys...)
		if userID != "" {
			pipe.SRem(ctx, s.userKey(userID), members...)
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	return int(del.Val()), nil
}

// ListByUser returns every live session indexed under userID, in index order.
// Index members whose record has expired or been removed are pruned. Records
// that no longer decode are deleted along with their index entry.
func (s *Store) ListByUser(ctx context.Context, userID string) ([]Session, error) {
	userKey := s.userKey(userID)

	ids, err := s.redis.SMembers(ctx, userKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []Session{}, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if len(ids) == 0 {
		return []Session{}, nil
	}

	pipe := s.redis.Pipeline()
	cmds := make([]*redis.StringCmd, len(ids))
	for i, id := range ids {
		cmds[i] = pipe.Get(ctx, s.Key(id))
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	sessions := make([]Session, 0, len(ids))
	var stale []any
	var corrupt []string
	for i, cmd := range cmds {
		data, cmdErr := cmd.Bytes()
		if cmdErr != nil {
			if errors.Is(cmdErr, redis.Nil) {
				stale = append(stale, ids[i])
				continue
			}
			return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, cmdErr)
		}

		sess, decErr := Decode(data)
		if decErr != nil {
			if s.onCorrupt != nil {
				s.onCorrupt(ids[i], decErr)
			}
			stale = append(stale, ids[i])
			corrupt = append(corrupt, s.Key(ids[i]))
			continue
		}
		sess.ID = ids[i]
		sessions = append(sessions, *sess)
	}

	if len(stale) > 0 {
		_, err := s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			if len(corrupt) > 0 {
				pipe.Del(ctx, corrupt...)
			}
			pipe.SRem(ctx, userKey, stale...)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
	}

	return sessions, nil
}

// IndexedIDs returns the raw index members for a user without touching records.
func (s *Store) IndexedIDs(ctx context.Context, userID string) ([]string, error) {
	ids, err := s.redis.SMembers(ctx, s.userKey(userID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return ids, nil
}

// CountSessions scans the session namespace and counts records.
// This is an O(n) admin operation and must not be used in request hot paths.
func (s *Store) CountSessions(ctx context.Context) (int, error) {
	pattern := s.prefix + "*"
	var (
		cursor uint64
		total  int
	)

	for {
		keys, next, err := s.redis.Scan(ctx, cursor, pattern, scanBatchSize).Result()
		if err != nil {
			return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
		for _, key := range keys {
			if strings.HasPrefix(key, userIndexNamespace) {
				continue
			}
			if _, ok := s.IDFromKey(key); ok {
				total++
			}
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}

	return total, nil
}

// Ping returns a point-in-time Redis availability check and latency.
func (s *Store) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return time.Since(start), fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return time.Since(start), nil
}

func (s *Store) deleteWithIndex(ctx context.Context, sessionID, userID string) error {
	userKey := ""
	if userID != "" {
		userKey = s.userKey(userID)
	}

	if err := deleteSessionLua.Run(ctx, s.redis, []string{s.Key(sessionID), userKey}, sessionID).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	return nil
}
