package testserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ovaphlow/pitchfork/dashboard-core-go/internal/entity"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if strings.TrimSpace(req.Username) == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "All fields are required")
		return
	}
	u, err := s.accounts.authenticate(req.Username, req.Password)
	if err != nil {
		s.logger.Debugw("login failed", "user", req.Username, "err", err)
		switch {
		case errors.Is(err, ErrLocked), errors.Is(err, ErrNotActivated):
			writeError(w, http.StatusForbidden, err.Error())
		case errors.Is(err, ErrBadCredentials):
			writeError(w, http.StatusUnauthorized, "Invalid credentials")
		default:
			writeError(w, http.StatusInternalServerError, "login failed")
		}
		return
	}
	s.issue(w, u, true)
}

// issue answers with a fresh access token, opening a refresh session
// first when withSession is set.
func (s *Server) issue(w http.ResponseWriter, u entity.User, withSession bool) {
	token, err := s.tokens.issueAccess(u)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	if withSession {
		http.SetCookie(w, &http.Cookie{
			Name:     SessionCookie,
			Value:    s.tokens.newSession(u),
			Path:     "/",
			HttpOnly: true,
			MaxAge:   int(s.tokens.sessionTTL.Seconds()),
		})
	}
	writeJSON(w, http.StatusOK, map[string]string{"accessToken": token})
}

func (s *Server) refresh(w http.ResponseWriter, r *http.Request) {
	c, err := r.Cookie(SessionCookie)
	if err != nil || c.Value == "" {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	rs, ok := s.tokens.validateSession(c.Value)
	if !ok {
		writeError(w, http.StatusForbidden, "Forbidden")
		return
	}
	s.issue(w, rs.User, false)
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(SessionCookie); err == nil {
		s.tokens.revokeSession(c.Value)
	}
	http.SetCookie(w, &http.Cookie{Name: SessionCookie, Value: "", Path: "/", MaxAge: -1, HttpOnly: true})
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) signup(w http.ResponseWriter, r *http.Request) {
	var req entity.Signup
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	var missing []string
	for name, v := range map[string]string{"firstName": req.FirstName, "lastName": req.LastName, "username": req.Username, "password": req.Password} {
		if strings.TrimSpace(v) == "" {
			missing = append(missing, name+" is required")
		}
	}
	if len(missing) > 0 {
		writeError(w, http.StatusBadRequest, "Invalid data", missing...)
		return
	}
	if _, _, err := s.accounts.signup(req, "user"); err != nil {
		if errors.Is(err, ErrUserExists) {
			writeError(w, http.StatusConflict, "Username already taken")
			return
		}
		writeError(w, http.StatusInternalServerError, "signup failed")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"status": "Activation link sent to your e-mail"})
}

func (s *Server) activate(w http.ResponseWriter, r *http.Request) {
	if err := s.accounts.activate(chi.URLParam(r, "token")); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Account activated"})
}

func (s *Server) resendActivation(w http.ResponseWriter, r *http.Request) {
	_, err := s.accounts.resendActivation(chi.URLParam(r, "username"))
	switch {
	case errors.Is(err, ErrUserNotFound):
		writeError(w, http.StatusNotFound, "User not found")
	case errors.Is(err, ErrAlreadyActive):
		writeError(w, http.StatusBadRequest, "Account already activated")
	case err != nil:
		writeError(w, http.StatusInternalServerError, "resend failed")
	default:
		writeJSON(w, http.StatusOK, map[string]string{"status": "Activation link sent to your e-mail"})
	}
}

func (s *Server) forgotPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Email) == "" {
		writeError(w, http.StatusBadRequest, "Email is required")
		return
	}
	if _, err := s.accounts.forgotPassword(req.Email); err != nil {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "Password reset link sent to your e-mail"})
}

func (s *Server) resetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		NewPassword     string `json:"newPassword"`
		ConfirmPassword string `json:"confirmPassword"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.NewPassword == "" {
		writeError(w, http.StatusBadRequest, "New password is required")
		return
	}
	if req.NewPassword != req.ConfirmPassword {
		writeError(w, http.StatusBadRequest, "Passwords do not match")
		return
	}
	if err := s.accounts.resetPassword(chi.URLParam(r, "token"), req.NewPassword); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "Password updated"})
}

func (s *Server) currentUser(w http.ResponseWriter, r *http.Request) {
	u, ok := s.accounts.lookup(usernameFrom(r.Context()))
	if !ok {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	writeJSON(w, http.StatusOK, u)
}
