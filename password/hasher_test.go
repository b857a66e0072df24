package password

import (
	"errors"
	"strings"
	"testing"
)

func fastConfig() Config {
	return Config{
		Memory:      8 * 1024,
		Time:        1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	}
}

func newTestHasher(t *testing.T, cfg Config) *Hasher {
	t.Helper()
	h, err := NewHasher(cfg)
	if err != nil {
		t.Fatalf("NewHasher error: %v", err)
	}
	return h
}

func TestHashAndVerify(t *testing.T) {
	h := newTestHasher(t, fastConfig())

	hash, err := h.Hash("Passw0rd!")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$v=19$m=8192,t=1,p=1$") {
		t.Fatalf("unexpected PHC prefix: %s", hash)
	}
	if strings.Contains(hash, "=$") || strings.HasSuffix(hash, "=") {
		t.Fatalf("expected unpadded base64: %s", hash)
	}

	ok, err := h.Verify("Passw0rd!", hash)
	if err != nil || !ok {
		t.Fatalf("Verify failed: ok=%v err=%v", ok, err)
	}
}

func TestVerifyWrongPassword(t *testing.T) {
	h := newTestHasher(t, fastConfig())

	hash, err := h.Hash("Passw0rd!")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}
	ok, err := h.Verify("passw0rd!", hash)
	if err != nil {
		t.Fatalf("Verify error: %v", err)
	}
	if ok {
		t.Fatal("expected mismatch")
	}
}

func TestVerifyAcceptsPaddedBase64(t *testing.T) {
	h := newTestHasher(t, fastConfig())

	hash, err := h.Hash("Passw0rd!")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}
	parts := strings.Split(hash, "$")
	parts[4] += "=="
	parts[5] += "="
	padded := strings.Join(parts, "$")

	ok, err := h.Verify("Passw0rd!", padded)
	if err != nil || !ok {
		t.Fatalf("Verify(padded) failed: ok=%v err=%v", ok, err)
	}
}

func TestVerifyMalformedHash(t *testing.T) {
	h := newTestHasher(t, fastConfig())

	for _, encoded := range []string{
		"not-a-phc-hash",
		"$argon2i$v=19$m=8192,t=1,p=1$c2FsdHNhbHRzYWx0c2FsdA$a2V5",
		"$argon2id$v=18$m=8192,t=1,p=1$c2FsdHNhbHRzYWx0c2FsdA$a2V5",
		"$argon2id$v=19$m=8192,t=1$c2FsdHNhbHRzYWx0c2FsdA$a2V5",
		"$argon2id$v=19$m=8192,t=1,x=1$c2FsdHNhbHRzYWx0c2FsdA$a2V5",
		"$argon2id$v=19$m=8192,t=1,p=1$c2FsdA$a2V5",
	} {
		if _, err := h.Verify("whatever", encoded); !errors.Is(err, ErrMalformedHash) {
			t.Fatalf("%q: expected ErrMalformedHash, got %v", encoded, err)
		}
	}
}

func TestNeedsRehash(t *testing.T) {
	old := newTestHasher(t, fastConfig())
	hash, err := old.Hash("Passw0rd!")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}

	stronger := fastConfig()
	stronger.Time = 2
	current := newTestHasher(t, stronger)

	needs, err := current.NeedsRehash(hash)
	if err != nil || !needs {
		t.Fatalf("expected rehash for weaker params: needs=%v err=%v", needs, err)
	}

	needs, err = old.NeedsRehash(hash)
	if err != nil || needs {
		t.Fatalf("expected no rehash for same params: needs=%v err=%v", needs, err)
	}
}

func TestHashRejectsEmptyAndTooLong(t *testing.T) {
	cfg := fastConfig()
	cfg.MaxPasswordBytes = 64
	h := newTestHasher(t, cfg)

	if _, err := h.Hash(""); !errors.Is(err, ErrEmptyPassword) {
		t.Fatalf("expected ErrEmptyPassword, got %v", err)
	}
	if _, err := h.Hash(strings.Repeat("a", 65)); !errors.Is(err, ErrPasswordTooLong) {
		t.Fatalf("expected ErrPasswordTooLong, got %v", err)
	}
	if _, err := h.Verify(strings.Repeat("a", 65), "$argon2id$"); !errors.Is(err, ErrPasswordTooLong) {
		t.Fatalf("expected Verify ErrPasswordTooLong, got %v", err)
	}
	if _, err := h.Hash(strings.Repeat("b", 64)); err != nil {
		t.Fatalf("expected exactly-max password accepted: %v", err)
	}
}

func TestNewHasherRejectsWeakConfig(t *testing.T) {
	cfg := fastConfig()
	cfg.Memory = 1024
	if _, err := NewHasher(cfg); err == nil {
		t.Fatal("expected weak memory rejected")
	}
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}
