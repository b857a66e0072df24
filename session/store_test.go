package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newSessionStoreTest(t *testing.T) (*Store, *miniredis.Miniredis, *redis.Client, func()) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewStore(rdb, "sess:", time.Hour)
	return store, mr, rdb, func() {
		rdb.Close()
		mr.Close()
	}
}

func testSession(id, userID string) *Session {
	return &Session{
		ID:        id,
		UserID:    userID,
		CreatedAt: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		Metadata: Metadata{
			Location: Location{Country: "Germany", City: "Berlin", Latitude: 52.52, Longitude: 13.40},
			Device:   Device{Browser: "Firefox", OS: "Linux", Type: "desktop"},
			IP:       "203.0.113.7",
		},
	}
}

func TestStoreSaveGetRoundTrip(t *testing.T) {
	store, mr, _, done := newSessionStoreTest(t)
	defer done()
	ctx := context.Background()

	sess := testSession("sid-1", "u-1")
	if err := store.Save(ctx, sess); err != nil {
		t.Fatalf("save: %v", err)
	}

	if !mr.Exists("sess:sid-1") {
		t.Fatal("expected record at <prefix><id>")
	}
	if ttl := mr.TTL("sess:sid-1"); ttl != time.Hour {
		t.Fatalf("expected record ttl 1h, got %v", ttl)
	}
	if ttl := mr.TTL("su:sess:u-1"); ttl != time.Hour {
		t.Fatalf("expected index ttl 1h, got %v", ttl)
	}

	got, err := store.Get(ctx, "sid-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ID != "sid-1" || got.UserID != "u-1" {
		t.Fatalf("unexpected session %+v", got)
	}
	if !got.CreatedAt.Equal(sess.CreatedAt) {
		t.Fatalf("createdAt mismatch: %v vs %v", got.CreatedAt, sess.CreatedAt)
	}
	if got.Metadata != sess.Metadata {
		t.Fatalf("metadata mismatch: %+v", got.Metadata)
	}
}

func TestStoreGetMissing(t *testing.T) {
	store, _, _, done := newSessionStoreTest(t)
	defer done()

	_, err := store.Get(context.Background(), "nope")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStoreGetCorruptRecord(t *testing.T) {
	store, mr, _, done := newSessionStoreTest(t)
	defer done()

	if err := mr.Set("sess:bad", "{not json"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	_, err := store.Get(context.Background(), "bad")
	if !errors.Is(err, ErrCorruptRecord) {
		t.Fatalf("expected ErrCorruptRecord, got %v", err)
	}
}

func TestStoreAnonymousSessionNotIndexed(t *testing.T) {
	store, mr, _, done := newSessionStoreTest(t)
	defer done()
	ctx := context.Background()

	if err := store.Save(ctx, testSession("anon", "")); err != nil {
		t.Fatalf("save: %v", err)
	}
	for _, key := range mr.Keys() {
		if key != "sess:anon" {
			t.Fatalf("unexpected key %q", key)
		}
	}
}

func TestStoreDeleteIdempotentAndIndex(t *testing.T) {
	store, mr, _, done := newSessionStoreTest(t)
	defer done()
	ctx := context.Background()

	if err := store.Save(ctx, testSession("sid-1", "u-1")); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.Delete(ctx, "sid-1"); err != nil {
		t.Fatalf("first delete: %v", err)
	}
	if err := store.Delete(ctx, "sid-1"); err != nil {
		t.Fatalf("second delete: %v", err)
	}

	if mr.Exists("sess:sid-1") {
		t.Fatal("record should be gone")
	}
	ids, err := store.IndexedIDs(ctx, "u-1")
	if err != nil {
		t.Fatalf("indexed ids: %v", err)
	}
	if len(ids) != 0 {
		t.Fatalf("expected empty index, got %v", ids)
	}
}

func TestStoreDeleteCorruptRecord(t *testing.T) {
	store, mr, _, done := newSessionStoreTest(t)
	defer done()

	if err := mr.Set("sess:bad", "garbage"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := store.Delete(context.Background(), "bad"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if mr.Exists("sess:bad") {
		t.Fatal("corrupt record should be deleted")
	}
}

func TestStoreListByUserPrunesExpiredMembers(t *testing.T) {
	store, mr, _, done := newSessionStoreTest(t)
	defer done()
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		if err := store.Save(ctx, testSession(id, "u-1")); err != nil {
			t.Fatalf("save %s: %v", id, err)
		}
	}
	if err := store.Save(ctx, testSession("other", "u-2")); err != nil {
		t.Fatalf("save other: %v", err)
	}

	// Simulate expiry of one record while its index entry survives.
	mr.Del("sess:b")

	list, err := store.ListByUser(ctx, "u-1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(list))
	}
	for _, s := range list {
		if s.UserID != "u-1" {
			t.Fatalf("foreign session leaked: %+v", s)
		}
		if s.ID == "b" {
			t.Fatal("expired session returned")
		}
	}

	ids, err := store.IndexedIDs(ctx, "u-1")
	if err != nil {
		t.Fatalf("indexed ids: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("expected stale member pruned, index=%v", ids)
	}
}

func TestStoreListByUserDiscardsCorruptRecords(t *testing.T) {
	store, mr, _, done := newSessionStoreTest(t)
	defer done()
	ctx := context.Background()

	for _, id := range []string{"a", "b"} {
		if err := store.Save(ctx, testSession(id, "u-1")); err != nil {
			t.Fatalf("save %s: %v", id, err)
		}
	}
	if err := mr.Set("sess:junk", "not-json"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, err := mr.SetAdd("su:sess:u-1", "junk"); err != nil {
		t.Fatalf("seed index: %v", err)
	}

	var reported []string
	store.OnCorrupt(func(sessionID string, err error) {
		if !errors.Is(err, ErrCorruptRecord) {
			t.Errorf("expected ErrCorruptRecord, got %v", err)
		}
		reported = append(reported, sessionID)
	})

	list, err := store.ListByUser(ctx, "u-1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 healthy sessions, got %d", len(list))
	}
	if len(reported) != 1 || reported[0] != "junk" {
		t.Fatalf("expected junk reported, got %v", reported)
	}
	if mr.Exists("sess:junk") {
		t.Fatal("corrupt record should be deleted")
	}
	ids, err := store.IndexedIDs(ctx, "u-1")
	if err != nil {
		t.Fatalf("indexed ids: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("expected corrupt member pruned, index=%v", ids)
	}
}

func TestStoreListByUserUnknownUser(t *testing.T) {
	store, _, _, done := newSessionStoreTest(t)
	defer done()

	list, err := store.ListByUser(context.Background(), "ghost")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("expected empty list, got %d", len(list))
	}
}

func TestStoreDeleteForUser(t *testing.T) {
	store, mr, _, done := newSessionStoreTest(t)
	defer done()
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		if err := store.Save(ctx, testSession(id, "u-1")); err != nil {
			t.Fatalf("save %s: %v", id, err)
		}
	}

	n, err := store.DeleteForUser(ctx, "u-1", []string{"a", "b", "missing"})
	if err != nil {
		t.Fatalf("delete for user: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 deleted, got %d", n)
	}
	if !mr.Exists("sess:c") {
		t.Fatal("untouched session removed")
	}
	ids, err := store.IndexedIDs(ctx, "u-1")
	if err != nil {
		t.Fatalf("indexed ids: %v", err)
	}
	if len(ids) != 1 || ids[0] != "c" {
		t.Fatalf("unexpected index %v", ids)
	}
}

func TestStoreCountSessionsSkipsIndexKeys(t *testing.T) {
	store, mr, _, done := newSessionStoreTest(t)
	defer done()
	ctx := context.Background()

	for _, id := range []string{"a", "b"} {
		if err := store.Save(ctx, testSession(id, "u-1")); err != nil {
			t.Fatalf("save %s: %v", id, err)
		}
	}
	if err := mr.Set("unrelated", "x"); err != nil {
		t.Fatalf("seed: %v", err)
	}

	n, err := store.CountSessions(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2, got %d", n)
	}
}

func TestStoreRedisUnavailable(t *testing.T) {
	store, mr, _, done := newSessionStoreTest(t)
	defer done()
	mr.Close()

	err := store.Save(context.Background(), testSession("sid", "u-1"))
	if !errors.Is(err, ErrRedisUnavailable) {
		t.Fatalf("expected ErrRedisUnavailable, got %v", err)
	}
	if _, err := store.Ping(context.Background()); !errors.Is(err, ErrRedisUnavailable) {
		t.Fatalf("expected ping ErrRedisUnavailable, got %v", err)
	}
}

func TestStoreIDFromKey(t *testing.T) {
	store := NewStore(nil, "sess:", 0)
	if id, ok := store.IDFromKey("sess:abc"); !ok || id != "abc" {
		t.Fatalf("unexpected (%q, %v)", id, ok)
	}
	if _, ok := store.IDFromKey("other:abc"); ok {
		t.Fatal("foreign key accepted")
	}
	if _, ok := store.IDFromKey("sess:"); ok {
		t.Fatal("empty id accepted")
	}
}
