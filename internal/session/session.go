// Package session wires the dashboard core together: one authenticated
// HTTP stack, the token store, the cache and the data facade. It starts
// the bulk load whenever a session is established and tears everything
// down when the server ends the session.
package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/dashboard-core-go/internal/api"
	"github.com/ovaphlow/pitchfork/dashboard-core-go/internal/auth"
	"github.com/ovaphlow/pitchfork/dashboard-core-go/internal/cache"
	"github.com/ovaphlow/pitchfork/dashboard-core-go/internal/config"
	"github.com/ovaphlow/pitchfork/dashboard-core-go/internal/datasync"
	"github.com/ovaphlow/pitchfork/dashboard-core-go/internal/entity"
	"github.com/ovaphlow/pitchfork/dashboard-core-go/internal/setting"
)

// ErrPartialLoad is returned by Login and Bootstrap when the session is
// established but the bulk load did not fully succeed.
var ErrPartialLoad = errors.New("dashboard data partially loaded")

type Session struct {
	logger    *zap.SugaredLogger
	tokens    *auth.TokenStore
	accounts  *auth.Service
	bootstrap *auth.Bootstrap
	refresher *auth.Refresher
	store     *cache.Store
	data      *datasync.Facade

	loads atomic.Int64

	mu       sync.RWMutex
	onLogout []func(error)
}

// New builds the stack for cfg. settings keeps the remember flag; nil
// keeps it in memory. httpClient may be nil; its Jar is replaced with a
// fresh cookie jar when unset.
func New(ctx context.Context, cfg config.Config, settings *setting.Service, httpClient *http.Client, logger *zap.SugaredLogger) (*Session, error) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if httpClient.Jar == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("cookie jar: %w", err)
		}
		httpClient.Jar = jar
	}

	tokens, err := auth.NewTokenStore(ctx, settings, logger)
	if err != nil {
		return nil, fmt.Errorf("token store: %w", err)
	}
	public := api.New(cfg.APIURL, httpClient, logger)
	refresher := auth.NewRefresher(public, tokens, logger)
	gateway := auth.NewGateway(httpClient, tokens, refresher, logger)
	store := cache.NewStore(logger)

	s := &Session{
		logger:    logger,
		tokens:    tokens,
		accounts:  auth.NewService(public, tokens, logger),
		bootstrap: auth.NewBootstrap(tokens, refresher, logger),
		refresher: refresher,
		store:     store,
		data:      datasync.New(public.Authenticated(gateway), store, logger),
	}
	gateway.OnSessionInvalid(s.forceLogout)
	return s, nil
}

func (s *Session) Data() *datasync.Facade     { return s.data }
func (s *Session) Accounts() *auth.Service    { return s.accounts }
func (s *Session) Tokens() *auth.TokenStore   { return s.tokens }
func (s *Session) Refresher() *auth.Refresher { return s.refresher }

// Loads is how many bulk loads have been started.
func (s *Session) Loads() int64 { return s.loads.Load() }

// OnLogout registers fn to run after the session ends, whether by Logout
// (err is nil) or because the server rejected it.
func (s *Session) OnLogout(fn func(err error)) {
	s.mu.Lock()
	s.onLogout = append(s.onLogout, fn)
	s.mu.Unlock()
}

// Login signs in and runs the bulk load. A load failure does not undo the
// sign-in; it is reported as ErrPartialLoad.
func (s *Session) Login(ctx context.Context, username, password string, remember bool) (*entity.Credential, error) {
	cred, err := s.accounts.Login(ctx, username, password, remember)
	if err != nil {
		return nil, err
	}
	return cred, s.load(ctx)
}

// Bootstrap restores a remembered session and, if one is established,
// runs the bulk load.
func (s *Session) Bootstrap(ctx context.Context) (auth.Status, error) {
	st := s.bootstrap.Run(ctx)
	if st != auth.StatusEstablished || ctx.Err() != nil {
		return st, nil
	}
	return st, s.load(ctx)
}

// StartBootstrap is Bootstrap in the background. If ctx is cancelled
// before the session check completes, neither the load nor report runs.
func (s *Session) StartBootstrap(ctx context.Context, report func(auth.Status, error)) <-chan auth.Status {
	return s.bootstrap.Start(ctx, func(st auth.Status) {
		var err error
		if st == auth.StatusEstablished {
			err = s.load(ctx)
		}
		if report != nil {
			report(st, err)
		}
	})
}

// Logout ends the session locally and on the server and clears the cache.
func (s *Session) Logout(ctx context.Context) error {
	err := s.accounts.Logout(ctx)
	s.store.Reset()
	s.notifyLogout(nil)
	return err
}

func (s *Session) load(ctx context.Context) error {
	s.loads.Add(1)
	if err := s.data.LoadAll(ctx); err != nil {
		if api.IsSessionInvalid(err) {
			return err
		}
		return fmt.Errorf("%w: %w", ErrPartialLoad, err)
	}
	return nil
}

// forceLogout runs when an authenticated call could not be recovered by a
// refresh.
func (s *Session) forceLogout(cause error) {
	if s.tokens.Get() == nil {
		return
	}
	s.logger.Warnw("session ended by server", "err", cause)
	s.tokens.Clear()
	s.store.Reset()
	s.notifyLogout(cause)
}

func (s *Session) notifyLogout(err error) {
	s.mu.RLock()
	fns := append([]func(error){}, s.onLogout...)
	s.mu.RUnlock()
	for _, fn := range fns {
		fn(err)
	}
}
