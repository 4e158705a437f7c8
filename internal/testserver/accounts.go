package testserver

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/ovaphlow/pitchfork/dashboard-core-go/internal/entity"
	"github.com/ovaphlow/pitchfork/dashboard-core-go/pkg/utilities"
)

// PasswordHasher hashes and checks account passwords.
type PasswordHasher interface {
	Hash(pw string) (string, error)
	Verify(hash, pw string) bool
}

type BcryptHasher struct{ Cost int }

func (b BcryptHasher) Hash(pw string) (string, error) {
	cost := b.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	h, err := bcrypt.GenerateFromPassword([]byte(pw), cost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

func (b BcryptHasher) Verify(hash, pw string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)) == nil
}

const (
	statusPending = "pending"
	statusActive  = "active"
	statusLocked  = "locked"
)

var (
	ErrBadCredentials = errors.New("invalid credentials")
	ErrLocked         = errors.New("account locked")
	ErrNotActivated   = errors.New("account not activated")
	ErrUserExists     = errors.New("user already exists")
	ErrUserNotFound   = errors.New("user not found")
	ErrAlreadyActive  = errors.New("account already activated")
	ErrUnknownToken   = errors.New("invalid or expired token")
)

type account struct {
	user            entity.User
	passwordHash    string
	status          string
	failedAttempts  int
	lockedUntil     time.Time
	activationToken string
	resetToken      string
}

// accounts is the user table of the fake server. Usernames are e-mail
// addresses and compared case-insensitively.
type accounts struct {
	hasher      PasswordHasher
	maxFailed   int
	lockFor     time.Duration
	now         func() time.Time
	snowflakeID int64

	mu     sync.Mutex
	byName map[string]*account
}

func newAccounts(hasher PasswordHasher) *accounts {
	if hasher == nil {
		hasher = BcryptHasher{Cost: bcrypt.MinCost}
	}
	return &accounts{
		hasher:    hasher,
		maxFailed: 6,
		lockFor:   15 * time.Minute,
		now:       time.Now,
		byName:    map[string]*account{},
	}
}

func normalize(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// signup creates a pending account and returns its activation token.
func (a *accounts) signup(in entity.Signup, role string) (entity.User, string, error) {
	name := normalize(in.Username)
	hash, err := a.hasher.Hash(in.Password)
	if err != nil {
		return entity.User{}, "", err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.byName[name]; ok {
		return entity.User{}, "", ErrUserExists
	}
	acc := &account{
		user: entity.User{
			ID:        utilities.NewSnowflakeIDWithNode(a.snowflakeID),
			Username:  name,
			FirstName: strings.TrimSpace(in.FirstName),
			LastName:  strings.TrimSpace(in.LastName),
			Role:      role,
		},
		passwordHash:    hash,
		status:          statusPending,
		activationToken: uuid.NewString(),
	}
	a.byName[name] = acc
	return acc.user, acc.activationToken, nil
}

func (a *accounts) activate(token string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, acc := range a.byName {
		if token != "" && acc.activationToken == token {
			acc.status = statusActive
			acc.activationToken = ""
			return nil
		}
	}
	return ErrUnknownToken
}

// resendActivation issues a new activation token for a pending account.
func (a *accounts) resendActivation(username string) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	acc, ok := a.byName[normalize(username)]
	if !ok {
		return "", ErrUserNotFound
	}
	if acc.status != statusPending {
		return "", ErrAlreadyActive
	}
	acc.activationToken = uuid.NewString()
	return acc.activationToken, nil
}

// authenticate checks a password. Repeated failures lock the account for
// lockFor; an expired lock is lifted on the next attempt.
func (a *accounts) authenticate(username, password string) (entity.User, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	acc, ok := a.byName[normalize(username)]
	if !ok {
		// avoid user enumeration
		return entity.User{}, ErrBadCredentials
	}
	if acc.status == statusLocked && acc.lockedUntil.Before(a.now()) {
		acc.status = statusActive
		acc.failedAttempts = 0
	}
	switch acc.status {
	case statusLocked:
		return entity.User{}, ErrLocked
	case statusPending:
		return entity.User{}, ErrNotActivated
	}
	if !a.hasher.Verify(acc.passwordHash, password) {
		acc.failedAttempts++
		if acc.failedAttempts >= a.maxFailed {
			acc.status = statusLocked
			acc.lockedUntil = a.now().Add(a.lockFor)
		}
		return entity.User{}, ErrBadCredentials
	}
	acc.failedAttempts = 0
	return acc.user, nil
}

func (a *accounts) lookup(username string) (entity.User, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	acc, ok := a.byName[normalize(username)]
	if !ok {
		return entity.User{}, false
	}
	return acc.user, true
}

// forgotPassword issues a reset token for the account.
func (a *accounts) forgotPassword(email string) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	acc, ok := a.byName[normalize(email)]
	if !ok {
		return "", ErrUserNotFound
	}
	acc.resetToken = uuid.NewString()
	return acc.resetToken, nil
}

func (a *accounts) resetPassword(token, password string) error {
	hash, err := a.hasher.Hash(password)
	if err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, acc := range a.byName {
		if token != "" && acc.resetToken == token {
			acc.passwordHash = hash
			acc.resetToken = ""
			acc.failedAttempts = 0
			if acc.status == statusLocked {
				acc.status = statusActive
			}
			return nil
		}
	}
	return ErrUnknownToken
}

func (a *accounts) tokens(username string) (activation, reset string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if acc, ok := a.byName[normalize(username)]; ok {
		return acc.activationToken, acc.resetToken
	}
	return "", ""
}
