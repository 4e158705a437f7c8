package auth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/dashboard-core-go/internal/api"
)

// Gateway is the api.Doer for bearer-protected calls. It attaches the
// current access token and, when the server rejects it, refreshes once and
// resends once. A second rejection ends the session.
type Gateway struct {
	next      api.Doer
	tokens    *TokenStore
	refresher *Refresher
	logger    *zap.SugaredLogger
	now       func() time.Time

	mu        sync.RWMutex
	onInvalid []func(error)
}

func NewGateway(next api.Doer, tokens *TokenStore, refresher *Refresher, logger *zap.SugaredLogger) *Gateway {
	if next == nil {
		next = http.DefaultClient
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Gateway{
		next:      next,
		tokens:    tokens,
		refresher: refresher,
		logger:    logger,
		now:       time.Now,
	}
}

// OnSessionInvalid registers fn to run whenever a call ends in
// api.ErrSessionInvalid.
func (g *Gateway) OnSessionInvalid(fn func(error)) {
	g.mu.Lock()
	g.onInvalid = append(g.onInvalid, fn)
	g.mu.Unlock()
}

func isAuthFailure(status int) bool {
	return status == http.StatusUnauthorized || status == http.StatusForbidden
}

// Do sends req with the bearer token. At most one refresh happens per call,
// whether it is made up front for a token already known to be expired or
// after the server rejects the first attempt.
func (g *Gateway) Do(req *http.Request) (*http.Response, error) {
	ctx := req.Context()

	var token string
	cred := g.tokens.Get()
	if cred != nil {
		token = cred.AccessToken
	}
	refreshed := false
	if cred.Expired(g.now()) {
		g.logger.Debugw("access token expired, refreshing before send", "path", req.URL.Path)
		t, err := g.refresher.RefreshStale(ctx, token)
		if err != nil {
			return nil, g.refreshFailed(ctx, req, err)
		}
		token, refreshed = t, true
	}

	resp, err := g.send(req, token)
	if err != nil || !isAuthFailure(resp.StatusCode) {
		return resp, err
	}
	if refreshed {
		return nil, g.rejected(req, resp)
	}
	if req.Body != nil && req.Body != http.NoBody && req.GetBody == nil {
		// body already consumed and cannot be rebuilt for a resend
		return resp, nil
	}
	drain(resp)

	g.logger.Debugw("access token rejected, refreshing", "path", req.URL.Path, "status", resp.StatusCode)
	t, err := g.refresher.RefreshStale(ctx, token)
	if err != nil {
		return nil, g.refreshFailed(ctx, req, err)
	}
	resp, err = g.send(req, t)
	if err != nil || !isAuthFailure(resp.StatusCode) {
		return resp, err
	}
	return nil, g.rejected(req, resp)
}

func (g *Gateway) send(req *http.Request, token string) (*http.Response, error) {
	r := req.Clone(req.Context())
	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, fmt.Errorf("rebuild request body: %w", err)
		}
		r.Body = body
	}
	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	} else {
		r.Header.Del("Authorization")
	}
	return g.next.Do(r)
}

// refreshFailed classifies a failed refresh. Transport trouble and caller
// cancellation are surfaced as they are and keep the session; a refusal
// from the server invalidates it.
func (g *Gateway) refreshFailed(ctx context.Context, req *http.Request, err error) error {
	if ctx.Err() != nil || api.IsNetwork(err) {
		return err
	}
	if !errors.Is(err, api.ErrSessionInvalid) {
		err = fmt.Errorf("%s %s: %w: %w", req.Method, req.URL.Path, api.ErrSessionInvalid, err)
	}
	g.invalidate(err)
	return err
}

func (g *Gateway) rejected(req *http.Request, resp *http.Response) error {
	drain(resp)
	err := fmt.Errorf("%s %s: %w: HTTP %d after token refresh",
		req.Method, req.URL.Path, api.ErrSessionInvalid, resp.StatusCode)
	g.invalidate(err)
	return err
}

func (g *Gateway) invalidate(err error) {
	g.logger.Warnw("session invalid", "err", err)
	g.mu.RLock()
	fns := append([]func(error){}, g.onInvalid...)
	g.mu.RUnlock()
	for _, fn := range fns {
		fn(err)
	}
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	_ = resp.Body.Close()
}
