package testserver

import (
	"context"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ovaphlow/pitchfork/dashboard-core-go/internal/api"
	"github.com/ovaphlow/pitchfork/dashboard-core-go/internal/entity"
)

const (
	adminUser = "admin@example.com"
	adminPass = "Passw0rd!"
)

// bearer adds a fixed access token to every request.
type bearer struct {
	next  *http.Client
	token string
}

func (b *bearer) Do(r *http.Request) (*http.Response, error) {
	r.Header.Set("Authorization", "Bearer "+b.token)
	return b.next.Do(r)
}

type harness struct {
	srv    *Server
	public *api.Client
	authed *api.Client
	bearer *bearer
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	srv, err := New(Options{})
	require.NoError(t, err)
	_, err = srv.AddUser(entity.Signup{FirstName: "Ada", LastName: "Admin", Username: adminUser, Password: adminPass}, "admin", false)
	require.NoError(t, err)

	hs := httptest.NewServer(srv.Handler())
	t.Cleanup(hs.Close)
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	hc := hs.Client()
	hc.Jar = jar

	b := &bearer{next: hc}
	public := api.New(hs.URL, hc, nil)
	return &harness{srv: srv, public: public, authed: public.Authenticated(b), bearer: b}
}

func (h *harness) login(t *testing.T) {
	t.Helper()
	tok, err := h.public.Login(context.Background(), adminUser, adminPass)
	require.NoError(t, err)
	require.NotEmpty(t, tok)
	h.bearer.token = tok
}

func TestLoginRefreshLogout(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.login(t)

	u, err := h.authed.CurrentUser(ctx)
	require.NoError(t, err)
	assert.Equal(t, adminUser, u.Username)
	assert.Equal(t, "Ada", u.FirstName)
	assert.NotEmpty(t, u.ID)

	fresh, err := h.public.Refresh(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, fresh)

	require.NoError(t, h.public.Logout(ctx))
	_, err = h.public.Refresh(ctx)
	assert.ErrorIs(t, err, api.ErrAuthExpired)
	assert.Equal(t, 2, h.srv.Hits(http.MethodGet, "/api/auth/refresh"))
}

func TestBearerRules(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	_, err := h.public.ListProducts(ctx)
	var apiErr *api.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)

	h.bearer.token = "garbage"
	_, err = h.authed.ListProducts(ctx)
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)

	h.login(t)
	_, err = h.authed.ListProducts(ctx)
	require.NoError(t, err)

	h.srv.ExpireAccessTokens()
	_, err = h.authed.ListProducts(ctx)
	assert.ErrorIs(t, err, api.ErrAuthExpired)

	// the session cookie still works
	tok, err := h.public.Refresh(ctx)
	require.NoError(t, err)
	h.bearer.token = tok
	_, err = h.authed.ListProducts(ctx)
	require.NoError(t, err)
}

func TestLockoutAfterRepeatedFailures(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	for i := 0; i < 6; i++ {
		_, err := h.public.Login(ctx, adminUser, "wrong")
		require.Error(t, err)
	}
	_, err := h.public.Login(ctx, adminUser, adminPass)
	var apiErr *api.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)
	assert.Equal(t, ErrLocked.Error(), apiErr.Message)
}

func TestSignupActivationAndPasswordReset(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	const user = "new@example.com"

	_, err := h.public.Signup(ctx, entity.Signup{FirstName: "New", LastName: "User", Username: user, Password: "first"})
	require.NoError(t, err)

	_, err = h.public.Signup(ctx, entity.Signup{FirstName: "New", LastName: "User", Username: user, Password: "first"})
	assert.ErrorIs(t, err, api.ErrValidationFailed)

	_, err = h.public.Login(ctx, user, "first")
	require.Error(t, err, "pending accounts cannot sign in")

	_, err = h.public.ResendActivation(ctx, user)
	require.NoError(t, err)
	out, err := h.public.Activate(ctx, h.srv.ActivationToken(user))
	require.NoError(t, err)
	assert.Equal(t, "Account activated", out.Text())

	_, err = h.public.Login(ctx, user, "first")
	require.NoError(t, err)

	_, err = h.public.ForgotPassword(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, api.ErrNotFound)
	_, err = h.public.ForgotPassword(ctx, user)
	require.NoError(t, err)
	_, err = h.public.ResetPassword(ctx, h.srv.ResetToken(user), "second", "second")
	require.NoError(t, err)

	_, err = h.public.Login(ctx, user, "first")
	require.Error(t, err)
	_, err = h.public.Login(ctx, user, "second")
	require.NoError(t, err)
}

func TestProductLifecycle(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.login(t)

	_, err := h.authed.CreateProduct(ctx, entity.ProductDraft{Name: "Milk"})
	var apiErr *api.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.ErrorIs(t, err, api.ErrValidationFailed)
	assert.Contains(t, apiErr.Details, "category")

	p, err := h.authed.CreateProduct(ctx, entity.ProductDraft{Name: "Milk", Category: "Dairy", Unit: "l", UnitPrice: decimal.RequireFromString("1.25"), Stock: 10})
	require.NoError(t, err)
	assert.Len(t, p.ID, 24)

	require.NoError(t, h.authed.UpdateProduct(ctx, p.ID, map[string]any{"_id": p.ID, "stock": 3}))
	assert.Equal(t, 3, h.srv.Products()[0].Stock)

	err = h.authed.UpdateProduct(ctx, "000000000000000000000000", map[string]any{"stock": 1})
	assert.True(t, api.IsNotFound(err))

	require.NoError(t, h.authed.DeleteProduct(ctx, p.ID))
	assert.Empty(t, h.srv.Products())
}

func TestOrderFlow(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.login(t)
	milk := h.srv.SeedProducts(entity.Product{Name: "Milk", Category: "Dairy", Unit: "l", UnitPrice: decimal.NewFromInt(2), Stock: 10})[0]

	latest, err := h.authed.LatestOrderNumber(ctx)
	require.NoError(t, err)
	assert.Empty(t, latest)

	cust := entity.Customer{FirstName: "Ann", LastName: "Lee", Email: "ann@example.com", Phone: "555",
		Address: entity.Address{Street: "1 Main", City: "Pune", State: "MH", ZipCode: "411001", Country: "IN"}}
	c1, err := h.authed.CreateCustomer(ctx, cust)
	require.NoError(t, err)
	c2, err := h.authed.CreateCustomer(ctx, cust)
	require.NoError(t, err)
	assert.Equal(t, c1.ID, c2.ID, "same e-mail reuses the customer")

	o := entity.Order{
		OrderNumber: "ORD100000",
		Customer:    entity.CustomerRef{ID: c1.ID},
		Products: []entity.OrderLine{{
			Product: entity.ProductRef{ID: milk.ID}, Name: "Milk", Quantity: 4, Unit: "l",
			UnitPrice: decimal.NewFromInt(2), TotalPrice: decimal.NewFromInt(8),
		}},
		TotalAmount:    decimal.NewFromInt(8),
		PaymentMethod:  entity.PaymentCash,
		DeliveryStatus: entity.DeliveryInStore,
	}
	created, err := h.authed.CreateOrder(ctx, o)
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.False(t, created.OrderDate.IsZero())
	assert.Equal(t, 6, h.srv.Products()[0].Stock)

	_, err = h.authed.CreateOrder(ctx, o)
	assert.ErrorIs(t, err, api.ErrValidationFailed, "duplicate order number")

	latest, err = h.authed.LatestOrderNumber(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ORD100000", latest)

	got, err := h.authed.GetOrder(ctx, "ORD100000")
	require.NoError(t, err)
	require.NotNil(t, got.Customer.Value, "detail view populates the customer")
	assert.Equal(t, "Ann", got.Customer.Value.FirstName)
	assert.Equal(t, c1.ID, got.Customer.ID)

	list, err := h.authed.ListOrders(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)

	require.NoError(t, h.authed.DeleteOrder(ctx, created.ID))
	_, err = h.authed.GetOrder(ctx, created.ID)
	assert.True(t, api.IsNotFound(err))
}

func TestFailNext(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.login(t)
	h.srv.FailNext(http.MethodGet, "/api/products", http.StatusInternalServerError)

	_, err := h.authed.ListProducts(ctx)
	var apiErr *api.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)

	_, err = h.authed.ListProducts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, h.srv.Hits(http.MethodGet, "/api/products"))
}
