// Package api is a typed client for the order-management REST API.
//
// Public endpoints (login, refresh, password flows) go through the plain
// HTTP client, whose cookie jar carries the session cookie. Everything
// else goes through the authenticated Doer, normally an auth.Gateway.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/dashboard-core-go/pkg/utilities"
)

// Doer sends one HTTP request. *http.Client and auth.Gateway implement it.
type Doer interface {
	Do(*http.Request) (*http.Response, error)
}

// maxErrorBody bounds how much of a failed response is read for the message.
const maxErrorBody = 64 << 10

type Client struct {
	baseURL string
	public  Doer
	private Doer
	logger  *zap.SugaredLogger
}

// New creates a client for baseURL. public is used for every call until
// Authenticated supplies a Doer for the bearer-protected endpoints.
func New(baseURL string, public Doer, logger *zap.SugaredLogger) *Client {
	if public == nil {
		public = http.DefaultClient
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		public:  public,
		private: public,
		logger:  logger,
	}
}

// Authenticated returns a copy of c that sends bearer-protected calls
// through d.
func (c *Client) Authenticated(d Doer) *Client {
	cp := *c
	cp.private = d
	return &cp
}

// BaseURL returns the API root without a trailing slash.
func (c *Client) BaseURL() string { return c.baseURL }

func (c *Client) publicCall(ctx context.Context, method, path string, in, out any) error {
	return c.call(ctx, c.public, method, path, in, out)
}

func (c *Client) privateCall(ctx context.Context, method, path string, in, out any) error {
	return c.call(ctx, c.private, method, path, in, out)
}

func (c *Client) call(ctx context.Context, d Doer, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, path, err)
	}
	reqID := utilities.NewKSUID()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", reqID)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := d.Do(req)
	if err != nil {
		c.logger.Debugw("api request failed", "method", method, "path", path, "request_id", reqID, "err", err)
		switch {
		case errors.Is(err, ErrSessionInvalid), ctx.Err() != nil:
			return err
		default:
			return fmt.Errorf("%s %s: %w: %v", method, path, ErrNetworkUnavailable, err)
		}
	}
	defer resp.Body.Close()

	c.logger.Debugw("api request",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"request_id", reqID,
		"duration_ms", float64(time.Since(start).Microseconds())/1000.0,
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp, method, path)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func decodeError(resp *http.Response, method, path string) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var body errorBody
	if len(bytes.TrimSpace(raw)) > 0 && json.Unmarshal(raw, &body) != nil {
		// plain-text error page
		body.Error = strings.TrimSpace(string(raw))
	}
	return body.toAPIError(method, path, resp.StatusCode)
}
