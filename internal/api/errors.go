package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Error classes surfaced to callers. Use errors.Is against these; an
// *APIError unwraps to the class matching its status code.
var (
	// ErrAuthExpired: the access token was rejected (401/403).
	ErrAuthExpired = errors.New("authorization expired")
	// ErrSessionInvalid: no valid session can be obtained; sign out.
	ErrSessionInvalid = errors.New("session invalid")
	// ErrValidationFailed: the payload was rejected (400/409/422), or failed
	// client-side checks before being sent.
	ErrValidationFailed = errors.New("validation failed")
	// ErrNetworkUnavailable: no response was received.
	ErrNetworkUnavailable = errors.New("network unavailable")
	ErrNotFound           = errors.New("not found")
)

// APIError is a non-2xx response from the order-management API.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	// Message is the top-level description sent by the server.
	Message string
	// Details are per-field validation messages, when present.
	Details []string
}

func (e *APIError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s: HTTP %d", e.Method, e.Path, e.StatusCode)
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	for _, d := range e.Details {
		b.WriteString("; ")
		b.WriteString(d)
	}
	return b.String()
}

func (e *APIError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusBadRequest, http.StatusConflict, http.StatusUnprocessableEntity:
		return ErrValidationFailed
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrAuthExpired
	case http.StatusNotFound:
		return ErrNotFound
	}
	return nil
}

// UserMessage is the text to show a user: the server's own wording when it
// sent any, otherwise a generic description of the status.
func (e *APIError) UserMessage() string {
	parts := make([]string, 0, 1+len(e.Details))
	if e.Message != "" {
		parts = append(parts, e.Message)
	}
	parts = append(parts, e.Details...)
	if len(parts) == 0 {
		return http.StatusText(e.StatusCode)
	}
	return strings.Join(parts, "; ")
}

// errorBody covers the shapes the server uses for failures.
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Status  string `json:"status"`
	Details any    `json:"details"`
	Errors  []struct {
		Msg   string `json:"msg"`
		Path  string `json:"path"`
		Param string `json:"param"`
	} `json:"errors"`
}

func (b errorBody) toAPIError(method, path string, status int) *APIError {
	e := &APIError{Method: method, Path: path, StatusCode: status}
	switch {
	case b.Error != "":
		e.Message = b.Error
	case b.Message != "":
		e.Message = b.Message
	case b.Status != "":
		e.Message = b.Status
	}
	switch d := b.Details.(type) {
	case string:
		if d != "" {
			e.Details = append(e.Details, d)
		}
	case []any:
		for _, v := range d {
			e.Details = append(e.Details, fmt.Sprint(v))
		}
	}
	for _, v := range b.Errors {
		e.Details = append(e.Details, v.Msg)
	}
	return e
}

func IsNotFound(err error) bool         { return errors.Is(err, ErrNotFound) }
func IsValidationFailed(err error) bool { return errors.Is(err, ErrValidationFailed) }
func IsSessionInvalid(err error) bool   { return errors.Is(err, ErrSessionInvalid) }
func IsNetwork(err error) bool          { return errors.Is(err, ErrNetworkUnavailable) }

// ValidationError is a client-side rejection, raised before any request.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "missing or invalid fields: " + strings.Join(e.Fields, ", ")
}

func (e *ValidationError) Unwrap() error { return ErrValidationFailed }
