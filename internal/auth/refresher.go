package auth

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/ovaphlow/pitchfork/dashboard-core-go/internal/api"
)

// Refresher exchanges the session cookie for a new access token.
// Concurrent callers share one in-flight exchange.
type Refresher struct {
	api    *api.Client
	tokens *TokenStore
	logger *zap.SugaredLogger

	// mu orders "is the stored token still the one that failed" checks
	// against the store update at the end of an exchange.
	mu    sync.Mutex
	group singleflight.Group
	calls atomic.Int64
}

// NewRefresher uses client's public transport, whose cookie jar holds the
// session cookie.
func NewRefresher(client *api.Client, tokens *TokenStore, logger *zap.SugaredLogger) *Refresher {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Refresher{api: client, tokens: tokens, logger: logger}
}

// Refresh returns a fresh access token and stores it, keeping the current
// identity. On failure the token store is left untouched.
//
// The exchange is detached from ctx so that one caller giving up does not
// fail the others waiting on it; ctx only bounds how long this caller waits.
func (r *Refresher) Refresh(ctx context.Context) (string, error) {
	r.mu.Lock()
	ch := r.start(ctx)
	r.mu.Unlock()
	return r.wait(ctx, ch)
}

// RefreshStale is Refresh for a caller whose request was rejected while
// carrying stale. If the store already holds a different token, another
// caller has refreshed in the meantime and that token is returned without
// a new exchange.
func (r *Refresher) RefreshStale(ctx context.Context, stale string) (string, error) {
	r.mu.Lock()
	if cur := r.tokens.Get(); cur != nil && cur.AccessToken != "" && cur.AccessToken != stale {
		r.mu.Unlock()
		return cur.AccessToken, nil
	}
	ch := r.start(ctx)
	r.mu.Unlock()
	return r.wait(ctx, ch)
}

func (r *Refresher) start(ctx context.Context) <-chan singleflight.Result {
	return r.group.DoChan("refresh", func() (any, error) {
		r.calls.Add(1)
		token, err := r.api.Refresh(context.WithoutCancel(ctx))
		if err != nil {
			r.logger.Debugw("token refresh failed", "err", err)
			return "", fmt.Errorf("refresh: %w", err)
		}
		if token == "" {
			return "", fmt.Errorf("refresh: %w: empty access token", api.ErrSessionInvalid)
		}
		r.mu.Lock()
		r.tokens.replaceAccessToken(token)
		r.mu.Unlock()
		r.logger.Debugw("access token refreshed")
		return token, nil
	})
}

func (r *Refresher) wait(ctx context.Context, ch <-chan singleflight.Result) (string, error) {
	select {
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Calls is the number of refresh exchanges actually sent.
func (r *Refresher) Calls() int64 { return r.calls.Load() }
