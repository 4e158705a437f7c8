package testserver

import (
	"crypto/rand"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/ovaphlow/pitchfork/dashboard-core-go/internal/entity"
)

var errTokenRevoked = errors.New("token revoked")

// refreshSession is what the session cookie points at.
type refreshSession struct {
	User      entity.User
	ExpiresAt time.Time
}

// tokenIssuer signs short-lived HS256 access tokens and keeps the
// cookie-backed refresh sessions in memory.
type tokenIssuer struct {
	key        []byte
	issuer     string
	accessTTL  time.Duration
	sessionTTL time.Duration
	now        func() time.Time

	mu       sync.Mutex
	live     map[string]bool // access token jti → still accepted
	sessions map[string]refreshSession
}

func newTokenIssuer(key []byte, issuer string, accessTTL time.Duration) (*tokenIssuer, error) {
	if len(key) == 0 {
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			return nil, err
		}
	}
	if accessTTL <= 0 {
		accessTTL = 15 * time.Minute
	}
	return &tokenIssuer{
		key:        key,
		issuer:     issuer,
		accessTTL:  accessTTL,
		sessionTTL: 30 * 24 * time.Hour,
		now:        time.Now,
		live:       map[string]bool{},
		sessions:   map[string]refreshSession{},
	}, nil
}

// issueAccess creates an access token for u.
func (t *tokenIssuer) issueAccess(u entity.User) (string, error) {
	now := t.now()
	jti := uuid.NewString()
	claims := jwt.MapClaims{
		"iss":      t.issuer,
		"sub":      u.ID,
		"username": u.Username,
		"role":     u.Role,
		"jti":      jti,
		"iat":      now.Unix(),
		"exp":      now.Add(t.accessTTL).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.key)
	if err != nil {
		return "", err
	}
	t.mu.Lock()
	t.live[jti] = true
	t.mu.Unlock()
	return signed, nil
}

// verifyAccess checks signature, expiry and revocation and returns the
// username the token was issued to.
func (t *tokenIssuer) verifyAccess(token string) (string, error) {
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(tk *jwt.Token) (any, error) {
		if _, ok := tk.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", tk.Header["alg"])
		}
		return t.key, nil
	}, jwt.WithIssuer(t.issuer), jwt.WithTimeFunc(t.now), jwt.WithExpirationRequired())
	if err != nil {
		return "", err
	}
	jti, _ := claims["jti"].(string)
	t.mu.Lock()
	ok := t.live[jti]
	t.mu.Unlock()
	if !ok {
		return "", errTokenRevoked
	}
	username, _ := claims["username"].(string)
	return username, nil
}

// expireAll revokes every access token issued so far.
func (t *tokenIssuer) expireAll() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for jti := range t.live {
		t.live[jti] = false
	}
}

// newSession opens a refresh session and returns its opaque id for the
// session cookie.
func (t *tokenIssuer) newSession(u entity.User) string {
	id := uuid.NewString()
	t.mu.Lock()
	t.sessions[id] = refreshSession{User: u, ExpiresAt: t.now().Add(t.sessionTTL)}
	t.mu.Unlock()
	return id
}

func (t *tokenIssuer) validateSession(id string) (*refreshSession, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	rs, ok := t.sessions[id]
	if !ok || rs.ExpiresAt.Before(t.now()) {
		return nil, false
	}
	return &rs, true
}

func (t *tokenIssuer) revokeSession(id string) {
	t.mu.Lock()
	delete(t.sessions, id)
	t.mu.Unlock()
}

// revokeAllSessions drops every refresh session, as if every session
// cookie had expired.
func (t *tokenIssuer) revokeAllSessions() {
	t.mu.Lock()
	clear(t.sessions)
	t.mu.Unlock()
}
