package middleware

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"net/http"
	"strings"
	"time"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/internal"
)

const signedPrefix = "s:"

// ErrNoSecret is returned when a Signer is built without any secret.
var ErrNoSecret = errors.New("cookie secret required")

// Signer signs and verifies session ids. The first secret signs; every
// secret verifies.
type Signer struct {
	secrets [][]byte
}

func NewSigner(secrets ...string) (*Signer, error) {
	s := &Signer{}
	for _, secret := range secrets {
		if secret != "" {
			s.secrets = append(s.secrets, []byte(secret))
		}
	}
	if len(s.secrets) == 0 {
		return nil, ErrNoSecret
	}
	return s, nil
}

// Sign returns "s:<value>.<signature>".
func (s *Signer) Sign(value string) string {
	return signedPrefix + value + "." + s.mac(s.secrets[0], value)
}

// Unsign returns the value of a signed string and whether its signature
// matched one of the secrets.
func (s *Signer) Unsign(signed string) (string, bool) {
	rest, ok := strings.CutPrefix(signed, signedPrefix)
	if !ok {
		return "", false
	}
	dot := strings.LastIndexByte(rest, '.')
	if dot <= 0 {
		return "", false
	}
	value, sig := rest[:dot], rest[dot+1:]

	for _, secret := range s.secrets {
		if subtle.ConstantTimeCompare([]byte(sig), []byte(s.mac(secret, value))) == 1 {
			return value, true
		}
	}
	return "", false
}

func (s *Signer) mac(secret []byte, value string) string {
	m := hmac.New(sha256.New, secret)
	m.Write([]byte(value))
	return base64.RawURLEncoding.EncodeToString(m.Sum(nil))
}

// Cookies issues, reads and clears the session cookie.
type Cookies struct {
	cfg    goSession.CookieConfig
	maxAge time.Duration
	signer *Signer
}

// NewCookies builds the cookie codec. When no secrets are passed,
// cfg.Secret is used.
func NewCookies(cfg goSession.CookieConfig, maxAge time.Duration, secrets ...string) (*Cookies, error) {
	if len(secrets) == 0 {
		secrets = []string{cfg.Secret}
	}
	signer, err := NewSigner(secrets...)
	if err != nil {
		return nil, err
	}
	if cfg.Path == "" {
		cfg.Path = "/"
	}
	return &Cookies{cfg: cfg, maxAge: maxAge, signer: signer}, nil
}

// SessionID returns the verified session id carried by r. A correctly
// signed value that is not a well-formed session id is ignored.
func (c *Cookies) SessionID(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(c.cfg.Name)
	if err != nil || cookie.Value == "" {
		return "", false
	}
	id, ok := c.signer.Unsign(cookie.Value)
	if !ok || !internal.ValidSessionID(id) {
		return "", false
	}
	return id, true
}

// Issue sets the cookie for sessionID with the configured max-age.
func (c *Cookies) Issue(w http.ResponseWriter, sessionID string) {
	http.SetCookie(w, c.cookie(c.signer.Sign(sessionID), int(c.maxAge/time.Second)))
}

// Clear expires the cookie in the client.
func (c *Cookies) Clear(w http.ResponseWriter) {
	http.SetCookie(w, c.cookie("", -1))
}

func (c *Cookies) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     c.cfg.Name,
		Value:    value,
		Domain:   c.cfg.Domain,
		Path:     c.cfg.Path,
		MaxAge:   maxAge,
		HttpOnly: c.cfg.HTTPOnly,
		Secure:   c.cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}
