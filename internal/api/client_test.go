package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ovaphlow/pitchfork/dashboard-core-go/internal/entity"
)

func testClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return New(server.URL+"/", server.Client(), nil)
}

func TestLoginSendsCredentials(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var in map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		assert.Equal(t, "admin@example.com", in["username"])
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
		json.NewEncoder(w).Encode(TokenResponse{AccessToken: "tok"})
	})

	tok, err := testClient(t, mux).Login(context.Background(), "admin@example.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, "tok", tok)
}

func TestErrorClasses(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		is     error
		msg    string
	}{
		{"validation", http.StatusBadRequest, `{"error":"Invalid data","details":"email already used"}`, ErrValidationFailed, "Invalid data; email already used"},
		{"express-validator", http.StatusUnprocessableEntity, `{"errors":[{"msg":"too short"},{"msg":"no digit"}]}`, ErrValidationFailed, "too short; no digit"},
		{"expired", http.StatusForbidden, `{"message":"Forbidden"}`, ErrAuthExpired, "Forbidden"},
		{"not found", http.StatusNotFound, `not here`, ErrNotFound, "not here"},
		{"server", http.StatusInternalServerError, ``, nil, "Internal Server Error"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mux := http.NewServeMux()
			mux.HandleFunc("DELETE /api/products/p1", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				w.Write([]byte(tc.body))
			})
			err := testClient(t, mux).DeleteProduct(context.Background(), "p1")
			require.Error(t, err)

			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tc.status, apiErr.StatusCode)
			assert.Equal(t, tc.msg, apiErr.UserMessage())
			if tc.is != nil {
				assert.ErrorIs(t, err, tc.is)
			} else {
				assert.Nil(t, apiErr.Unwrap())
			}
		})
	}
}

func TestNetworkFailure(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	_, err := New(url, nil, nil).ListProducts(context.Background())
	require.Error(t, err)
	assert.True(t, IsNetwork(err))
}

type sessionFailingDoer struct{}

func (sessionFailingDoer) Do(*http.Request) (*http.Response, error) {
	return nil, ErrSessionInvalid
}

func TestSessionInvalidIsNotNetwork(t *testing.T) {
	c := New("http://unused", nil, nil).Authenticated(sessionFailingDoer{})
	_, err := c.ListOrders(context.Background())
	assert.True(t, IsSessionInvalid(err))
	assert.False(t, IsNetwork(err))
}

func TestLatestOrderNumber(t *testing.T) {
	latest := `{"latestOrderNumber":"ORD100041"}`
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/orders/latestOrderNumber", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(latest))
	})
	c := testClient(t, mux)

	n, err := c.LatestOrderNumber(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ORD100041", n)

	latest = `{"latestOrderNumber":null}`
	n, err = c.LatestOrderNumber(context.Background())
	require.NoError(t, err)
	assert.Empty(t, n)
}

func TestCreateProductDecodesCanonicalRecord(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/products", func(w http.ResponseWriter, r *http.Request) {
		var in map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		assert.Equal(t, 3.5, in["unitPrice"])
		in["_id"] = "srv-1"
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(in)
	})

	p, err := testClient(t, mux).CreateProduct(context.Background(), entity.ProductDraft{
		Name: "Tea", Category: "Drinks", Unit: "box", UnitPrice: decimal.RequireFromString("3.5"), Stock: 4,
	})
	require.NoError(t, err)
	assert.Equal(t, "srv-1", p.ID)
	assert.Equal(t, 4, p.Stock)
}

func TestPathEscaping(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/auth/resend-activation/{username}", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "a b@example.com", r.PathValue("username"))
		json.NewEncoder(w).Encode(StatusResponse{Status: "sent"})
	})
	out, err := testClient(t, mux).ResendActivation(context.Background(), "a b@example.com")
	require.NoError(t, err)
	assert.Equal(t, "sent", out.Text())
}

func TestValidationErrorUnwraps(t *testing.T) {
	err := error(&ValidationError{Fields: []string{"name", "stock"}})
	assert.True(t, IsValidationFailed(err))
	assert.Equal(t, "missing or invalid fields: name, stock", err.Error())
}
