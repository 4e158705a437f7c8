package entity

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Credential is the in-memory authentication state: who is signed in and
// the short-lived bearer token for API calls. It is never persisted.
type Credential struct {
	Identity    string
	AccessToken string
}

// ExpiresAt returns the exp claim of a JWT access token. The signature is
// not checked; the server remains the authority. Opaque tokens and tokens
// without exp report ok=false.
func (c *Credential) ExpiresAt() (time.Time, bool) {
	if c == nil || c.AccessToken == "" {
		return time.Time{}, false
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(c.AccessToken, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

// Expired reports whether the access token is a JWT whose exp is not after now.
func (c *Credential) Expired(now time.Time) bool {
	exp, ok := c.ExpiresAt()
	return ok && !exp.After(now)
}

// User is the signed-in account as returned by the current-user endpoint.
type User struct {
	ID        string `json:"_id,omitempty"`
	Username  string `json:"username"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Role      string `json:"role,omitempty"`
}

// Signup is the registration payload; Username is the e-mail address.
type Signup struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Username  string `json:"username"`
	Password  string `json:"password"`
}
