// Package auth owns the access-token lifecycle: the in-memory credential,
// the cookie-based refresh, the retrying gateway used for every
// authenticated request, and the cold-start bootstrap.
package auth

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/dashboard-core-go/internal/entity"
	"github.com/ovaphlow/pitchfork/dashboard-core-go/internal/setting"
)

// PersistKey is the settings key of the "remember this device" flag.
const PersistKey = "auth.persist"

// TokenStore holds the current credential in memory. Only the remember
// flag is persisted, never the token.
type TokenStore struct {
	settings *setting.Service
	logger   *zap.SugaredLogger

	mu       sync.RWMutex
	cred     *entity.Credential
	remember bool
	subs     map[int]func(*entity.Credential)
	nextSub  int
}

// NewTokenStore loads the remember flag from settings. A nil settings
// service keeps the flag in memory only.
func NewTokenStore(ctx context.Context, settings *setting.Service, logger *zap.SugaredLogger) (*TokenStore, error) {
	if settings == nil {
		settings = setting.NewService(nil)
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	remember, err := settings.Bool(ctx, PersistKey, false)
	if err != nil {
		return nil, err
	}
	return &TokenStore{
		settings: settings,
		logger:   logger,
		remember: remember,
		subs:     map[int]func(*entity.Credential){},
	}, nil
}

// Get returns a copy of the current credential, or nil when signed out.
func (s *TokenStore) Get() *entity.Credential {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.cred == nil {
		return nil
	}
	c := *s.cred
	return &c
}

// Set replaces the credential; nil signs out.
func (s *TokenStore) Set(c *entity.Credential) {
	var stored *entity.Credential
	if c != nil {
		cp := *c
		stored = &cp
	}
	s.mu.Lock()
	s.cred = stored
	s.mu.Unlock()
	s.notify()
}

func (s *TokenStore) Clear() { s.Set(nil) }

// replaceAccessToken swaps the token and keeps the identity.
func (s *TokenStore) replaceAccessToken(token string) {
	s.mu.Lock()
	next := entity.Credential{AccessToken: token}
	if s.cred != nil {
		next.Identity = s.cred.Identity
	}
	s.cred = &next
	s.mu.Unlock()
	s.notify()
}

func (s *TokenStore) Remember() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.remember
}

// SetRemember persists the flag first and only then updates memory, so a
// failed write leaves both unchanged.
func (s *TokenStore) SetRemember(ctx context.Context, v bool) error {
	if err := s.settings.SetBool(ctx, PersistKey, v); err != nil {
		return err
	}
	s.mu.Lock()
	s.remember = v
	s.mu.Unlock()
	return nil
}

// Subscribe registers fn to be called after every credential change.
// Call the returned func to unsubscribe.
func (s *TokenStore) Subscribe(fn func(*entity.Credential)) func() {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

func (s *TokenStore) notify() {
	s.mu.RLock()
	fns := make([]func(*entity.Credential), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.RUnlock()
	cur := s.Get()
	for _, fn := range fns {
		fn(cur)
	}
}
