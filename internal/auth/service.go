package auth

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/dashboard-core-go/internal/api"
	"github.com/ovaphlow/pitchfork/dashboard-core-go/internal/entity"
)

// Service runs the account flows: sign-in and sign-out plus the public
// signup, activation and password-reset endpoints.
type Service struct {
	api    *api.Client
	tokens *TokenStore
	logger *zap.SugaredLogger
}

func NewService(client *api.Client, tokens *TokenStore, logger *zap.SugaredLogger) *Service {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Service{api: client, tokens: tokens, logger: logger}
}

// Login signs in and stores the credential. The remember flag is saved
// before the credential so that a subscriber reacting to the new
// credential already sees it. On failure the token store is unchanged.
func (s *Service) Login(ctx context.Context, username, password string, remember bool) (*entity.Credential, error) {
	username = strings.TrimSpace(username)
	if fields := missing(map[string]string{"username": username, "password": password}); len(fields) > 0 {
		return nil, &api.ValidationError{Fields: fields}
	}
	token, err := s.api.Login(ctx, username, password)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	if err := s.tokens.SetRemember(ctx, remember); err != nil {
		s.logger.Warnw("could not save remember flag", "err", err)
	}
	cred := &entity.Credential{Identity: username, AccessToken: token}
	s.tokens.Set(cred)
	s.logger.Infow("signed in", "user", username, "remember", remember)
	return s.tokens.Get(), nil
}

// Logout drops the local credential first and then asks the server to
// clear the session cookie. The server error is returned but the local
// session is gone either way.
func (s *Service) Logout(ctx context.Context) error {
	s.tokens.Clear()
	if err := s.api.Logout(ctx); err != nil {
		s.logger.Warnw("server logout failed", "err", err)
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

func (s *Service) Signup(ctx context.Context, in entity.Signup) (string, error) {
	fields := missing(map[string]string{
		"firstName": in.FirstName,
		"lastName":  in.LastName,
		"username":  in.Username,
		"password":  in.Password,
	})
	if len(fields) > 0 {
		return "", &api.ValidationError{Fields: fields}
	}
	out, err := s.api.Signup(ctx, in)
	if err != nil {
		return "", fmt.Errorf("signup: %w", err)
	}
	return out.Text(), nil
}

func (s *Service) ForgotPassword(ctx context.Context, email string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return "", &api.ValidationError{Fields: []string{"email"}}
	}
	out, err := s.api.ForgotPassword(ctx, email)
	if err != nil {
		return "", fmt.Errorf("forgot password: %w", err)
	}
	return out.Text(), nil
}

func (s *Service) ResetPassword(ctx context.Context, token, newPassword, confirmPassword string) (string, error) {
	if fields := missing(map[string]string{"newPassword": newPassword, "confirmPassword": confirmPassword}); len(fields) > 0 {
		return "", &api.ValidationError{Fields: fields}
	}
	if newPassword != confirmPassword {
		return "", &api.ValidationError{Fields: []string{"confirmPassword"}}
	}
	out, err := s.api.ResetPassword(ctx, token, newPassword, confirmPassword)
	if err != nil {
		return "", fmt.Errorf("reset password: %w", err)
	}
	return out.Text(), nil
}

func (s *Service) Activate(ctx context.Context, token string) (string, error) {
	out, err := s.api.Activate(ctx, token)
	if err != nil {
		return "", fmt.Errorf("activate: %w", err)
	}
	return out.Text(), nil
}

func (s *Service) ResendActivation(ctx context.Context, username string) (string, error) {
	out, err := s.api.ResendActivation(ctx, username)
	if err != nil {
		return "", fmt.Errorf("resend activation: %w", err)
	}
	return out.Text(), nil
}

// missing lists the keys with blank values, sorted.
func missing(fields map[string]string) []string {
	var out []string
	for k, v := range fields {
		if strings.TrimSpace(v) == "" {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}
