// Package testserver is an in-memory stand-in for the order-management
// API. It serves the same routes with the same auth rules: a bearer access
// token for data and a session cookie for refresh and logout. Tests use
// its hooks to count requests, expire tokens and inject failures.
package testserver

import (
	"encoding/json"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/dashboard-core-go/internal/entity"
)

// SessionCookie is the name of the refresh-session cookie.
const SessionCookie = "jwt"

type Options struct {
	Logger *zap.SugaredLogger
	// Secret signs access tokens; random when empty.
	Secret    []byte
	Issuer    string
	AccessTTL time.Duration
	// Hasher defaults to bcrypt at minimum cost.
	Hasher PasswordHasher
	// SnowflakeNode is the node id for user ids.
	SnowflakeNode int64
}

type Server struct {
	logger   *zap.SugaredLogger
	accounts *accounts
	tokens   *tokenIssuer
	now      func() time.Time

	mu        sync.Mutex
	products  []entity.Product
	customers []entity.Customer
	orders    []entity.Order
	hits      map[string]int
	faults    map[string][]int
}

func New(opts Options) (*Server, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	issuer := opts.Issuer
	if issuer == "" {
		issuer = "dashboard-testserver"
	}
	tokens, err := newTokenIssuer(opts.Secret, issuer, opts.AccessTTL)
	if err != nil {
		return nil, err
	}
	acc := newAccounts(opts.Hasher)
	acc.snowflakeID = opts.SnowflakeNode
	return &Server{
		logger:    logger,
		accounts:  acc,
		tokens:    tokens,
		now:       time.Now,
		products:  []entity.Product{},
		customers: []entity.Customer{},
		orders:    []entity.Order{},
		hits:      map[string]int{},
		faults:    map[string][]int{},
	}, nil
}

// Handler mounts every route.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(LoggingMiddleware(s.logger))
	r.Use(SecurityHeadersMiddleware())
	r.Use(s.countAndInject)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/login", s.login)
		r.Post("/signup", s.signup)
		r.Get("/refresh", s.refresh)
		r.Get("/logout", s.logout)
		r.Post("/forgot-password", s.forgotPassword)
		r.Patch("/reset-password/{token}", s.resetPassword)
		r.Patch("/activation/{token}", s.activate)
		r.Get("/resend-activation/{username}", s.resendActivation)
		r.With(s.requireBearer).Get("/user", s.currentUser)
	})

	r.Group(func(r chi.Router) {
		r.Use(s.requireBearer)
		r.Route("/api/products", func(r chi.Router) {
			r.Get("/", s.listProducts)
			r.Post("/", s.createProduct)
			r.Put("/{id}", s.updateProduct)
			r.Delete("/{id}", s.deleteProduct)
		})
		r.Route("/api/customers", func(r chi.Router) {
			r.Get("/", s.listCustomers)
			r.Post("/", s.createCustomer)
			r.Put("/{id}", s.updateCustomer)
			r.Delete("/{id}", s.deleteCustomer)
		})
		r.Route("/api/orders", func(r chi.Router) {
			r.Get("/", s.listOrders)
			r.Post("/", s.createOrder)
			r.Get("/latestOrderNumber", s.latestOrderNumber)
			r.Get("/{key}", s.getOrder)
			r.Delete("/{key}", s.deleteOrder)
		})
	})
	return r
}

// AddUser registers an account, activated unless pending is set.
func (s *Server) AddUser(in entity.Signup, role string, pending bool) (entity.User, error) {
	u, token, err := s.accounts.signup(in, role)
	if err != nil {
		return entity.User{}, err
	}
	if !pending {
		if err := s.accounts.activate(token); err != nil {
			return entity.User{}, err
		}
	}
	return u, nil
}

// ActivationToken and ResetToken return the token that would have been
// e-mailed to username.
func (s *Server) ActivationToken(username string) string {
	a, _ := s.accounts.tokens(username)
	return a
}

func (s *Server) ResetToken(username string) string {
	_, r := s.accounts.tokens(username)
	return r
}

// SeedProducts stores ps, assigning ids to those without one.
func (s *Server) SeedProducts(ps ...entity.Product) []entity.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range ps {
		if ps[i].ID == "" {
			ps[i].ID = newID()
		}
	}
	s.products = append(s.products, ps...)
	return ps
}

func (s *Server) SeedCustomers(cs ...entity.Customer) []entity.Customer {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range cs {
		if cs[i].ID == "" {
			cs[i].ID = newID()
		}
	}
	s.customers = append(s.customers, cs...)
	return cs
}

func (s *Server) SeedOrders(in ...entity.Order) []entity.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range in {
		if in[i].ID == "" {
			in[i].ID = newID()
		}
	}
	s.orders = append(s.orders, in...)
	return in
}

func (s *Server) Products() []entity.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.products)
}

func (s *Server) Customers() []entity.Customer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.customers)
}

func (s *Server) Orders() []entity.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.orders)
}

// Hits is how many requests reached method and path, injected failures
// included.
func (s *Server) Hits(method, path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[routeKey(method, path)]
}

// FailNext queues statuses to be returned, one per request, by the next
// requests to method and path.
func (s *Server) FailNext(method, path string, statuses ...int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := routeKey(method, path)
	s.faults[key] = append(s.faults[key], statuses...)
}

// ExpireAccessTokens invalidates every access token issued so far.
// Refresh sessions stay valid.
func (s *Server) ExpireAccessTokens() { s.tokens.expireAll() }

// EndSessions drops every refresh session.
func (s *Server) EndSessions() { s.tokens.revokeAllSessions() }

func newID() string { return primitive.NewObjectID().Hex() }

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string, details ...string) {
	body := map[string]any{"error": msg}
	if len(details) > 0 {
		body["details"] = details
	}
	writeJSON(w, status, body)
}
