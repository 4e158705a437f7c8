package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/ovaphlow/pitchfork/dashboard-core-go/internal/entity"
	"github.com/ovaphlow/pitchfork/dashboard-core-go/internal/testserver"
	"github.com/ovaphlow/pitchfork/dashboard-core-go/pkg/utilities"
)

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func main() {
	// best effort: without a .env the real environment and defaults apply
	_ = godotenv.Load()

	lg, err := utilities.Init(utilities.ConfigFromEnv())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer lg.Sync()
	sugar := lg.Sugar()

	srv, err := testserver.New(testserver.Options{
		Logger: sugar,
		Secret: []byte(os.Getenv("MOCKAPI_SECRET")),
	})
	if err != nil {
		sugar.Fatalf("test server: %v", err)
	}
	username := getenv("MOCKAPI_USER", "admin@example.com")
	if _, err := srv.AddUser(entity.Signup{
		FirstName: "Demo",
		LastName:  "Admin",
		Username:  username,
		Password:  getenv("MOCKAPI_PASSWORD", "admin"),
	}, "admin", false); err != nil {
		sugar.Fatalf("seed user: %v", err)
	}
	seed(srv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	addr := getenv("MOCKAPI_ADDR", "127.0.0.1:8431")
	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			sugar.Fatalf("http server failed: %v", err)
		}
	}()
	sugar.Infow("mock API listening", "addr", addr, "user", username)

	<-ctx.Done()
	sugar.Info("shutting down")

	doneCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(doneCtx); err != nil {
		sugar.Warnf("http server shutdown failed: %v", err)
	}
	sugar.Info("goodbye")
}

// seed fills the store with a small supermarket catalogue.
func seed(srv *testserver.Server) {
	price := decimal.RequireFromString
	ps := srv.SeedProducts(
		entity.Product{Name: "Whole Milk", Category: "Dairy", Unit: "l", UnitPrice: price("1.20"), Stock: 40},
		entity.Product{Name: "Cheddar", Category: "Dairy", Unit: "kg", UnitPrice: price("9.80"), Stock: 12},
		entity.Product{Name: "Basmati Rice", Category: "Grains", Unit: "kg", UnitPrice: price("2.75"), Stock: 60},
		entity.Product{Name: "Free Range Eggs", Category: "Poultry", Unit: "dozen", UnitPrice: price("3.40"), Stock: 0},
		entity.Product{Name: "Bananas", Category: "Produce", Unit: "kg", UnitPrice: price("1.10"), Stock: 8},
	)
	cs := srv.SeedCustomers(entity.Customer{
		FirstName: "Priya",
		LastName:  "Shah",
		Email:     "priya@example.com",
		Phone:     "+91 98200 00000",
		Address:   entity.Address{Street: "12 Hill Road", City: "Mumbai", State: "MH", ZipCode: "400050", Country: "India"},
	})
	line := func(p entity.Product, qty int) entity.OrderLine {
		return entity.OrderLine{
			Product:    entity.ProductRef{ID: p.ID},
			Name:       p.Name,
			Quantity:   qty,
			Unit:       p.Unit,
			UnitPrice:  p.UnitPrice,
			TotalPrice: p.UnitPrice.Mul(decimal.NewFromInt(int64(qty))),
		}
	}
	lines := []entity.OrderLine{line(ps[0], 2), line(ps[2], 5)}
	srv.SeedOrders(entity.Order{
		OrderNumber:    "ORD100000",
		OrderDate:      time.Now().UTC().Add(-24 * time.Hour),
		Customer:       entity.CustomerRef{ID: cs[0].ID},
		Products:       lines,
		TotalAmount:    lines[0].TotalPrice.Add(lines[1].TotalPrice),
		PaymentMethod:  entity.PaymentUPI,
		DeliveryStatus: entity.DeliveryHome,
	})
}
