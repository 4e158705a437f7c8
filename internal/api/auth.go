package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/ovaphlow/pitchfork/dashboard-core-go/internal/entity"
)

// TokenResponse is returned by login and refresh.
type TokenResponse struct {
	AccessToken string `json:"accessToken"`
}

// StatusResponse is the acknowledgement returned by the account flows.
type StatusResponse struct {
	Status  string `json:"status,omitempty"`
	Message string `json:"message,omitempty"`
}

// Text returns whichever of Status or Message the server filled in.
func (s StatusResponse) Text() string {
	if s.Status != "" {
		return s.Status
	}
	return s.Message
}

// Login exchanges credentials for an access token. The server also sets
// the long-lived session cookie on the public client's jar.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	in := map[string]string{"username": username, "password": password}
	var out TokenResponse
	if err := c.publicCall(ctx, http.MethodPost, "/api/auth/login", in, &out); err != nil {
		return "", err
	}
	return out.AccessToken, nil
}

// Refresh exchanges the session cookie for a new access token.
func (c *Client) Refresh(ctx context.Context) (string, error) {
	var out TokenResponse
	if err := c.publicCall(ctx, http.MethodGet, "/api/auth/refresh", nil, &out); err != nil {
		return "", err
	}
	return out.AccessToken, nil
}

// Logout asks the server to drop the session cookie.
func (c *Client) Logout(ctx context.Context) error {
	return c.publicCall(ctx, http.MethodGet, "/api/auth/logout", nil, nil)
}

func (c *Client) Signup(ctx context.Context, s entity.Signup) (StatusResponse, error) {
	var out StatusResponse
	err := c.publicCall(ctx, http.MethodPost, "/api/auth/signup", s, &out)
	return out, err
}

func (c *Client) ForgotPassword(ctx context.Context, email string) (StatusResponse, error) {
	var out StatusResponse
	err := c.publicCall(ctx, http.MethodPost, "/api/auth/forgot-password", map[string]string{"email": email}, &out)
	return out, err
}

func (c *Client) ResetPassword(ctx context.Context, token, newPassword, confirmPassword string) (StatusResponse, error) {
	in := map[string]string{"newPassword": newPassword, "confirmPassword": confirmPassword}
	var out StatusResponse
	err := c.publicCall(ctx, http.MethodPatch, "/api/auth/reset-password/"+url.PathEscape(token), in, &out)
	return out, err
}

func (c *Client) Activate(ctx context.Context, token string) (StatusResponse, error) {
	var out StatusResponse
	err := c.publicCall(ctx, http.MethodPatch, "/api/auth/activation/"+url.PathEscape(token), nil, &out)
	return out, err
}

func (c *Client) ResendActivation(ctx context.Context, username string) (StatusResponse, error) {
	var out StatusResponse
	err := c.publicCall(ctx, http.MethodGet, "/api/auth/resend-activation/"+url.PathEscape(username), nil, &out)
	return out, err
}

// CurrentUser returns the signed-in account.
func (c *Client) CurrentUser(ctx context.Context) (entity.User, error) {
	var out entity.User
	err := c.privateCall(ctx, http.MethodGet, "/api/auth/user", nil, &out)
	return out, err
}
