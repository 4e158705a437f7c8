package stats

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ovaphlow/pitchfork/dashboard-core-go/internal/cache"
	"github.com/ovaphlow/pitchfork/dashboard-core-go/internal/entity"
)

func TestCompute(t *testing.T) {
	day := time.Date(2024, 5, 2, 10, 0, 0, 0, time.UTC)
	state := cache.Initial()
	state.Products = []entity.Product{
		{ID: "p1", Category: "Dairy", Stock: 0},
		{ID: "p2", Category: "Dairy", Stock: 15},
		{ID: "p3", Category: "Grains", Stock: 16},
	}
	state.Customers = []entity.Customer{{ID: "c1"}}
	for i, n := range []string{"ORD100001", "ORD100009", "ORD100010", "ORD100002", "ORD100003", "ORD100004"} {
		o := entity.Order{OrderNumber: n, TotalAmount: decimal.NewFromInt(10)}
		if i < 3 {
			o.OrderDate = day.Add(time.Duration(i) * 24 * time.Hour)
		}
		state.Orders = append(state.Orders, o)
	}
	state.Orders[1].OrderDate = day

	s := Compute(state)
	assert.Equal(t, 6, s.TotalOrders)
	assert.True(t, decimal.NewFromInt(60).Equal(s.TotalRevenue))
	assert.Equal(t, 3, s.Products)
	assert.Equal(t, 1, s.Customers)
	assert.Equal(t, 2, s.LowStock)
	assert.Equal(t, 1, s.OutOfStock)
	assert.Equal(t, map[string]int{"Dairy": 2, "Grains": 1}, s.ProductsByCategory)

	require.Len(t, s.RevenueByDay, 2)
	assert.Equal(t, "2024-05-02", s.RevenueByDay[0].Day)
	assert.Equal(t, 2, s.RevenueByDay[0].Orders)
	assert.True(t, decimal.NewFromInt(20).Equal(s.RevenueByDay[0].Revenue))
	assert.Equal(t, "2024-05-04", s.RevenueByDay[1].Day)

	require.Len(t, s.Latest, RecentOrders)
	assert.Equal(t, "ORD100010", s.Latest[0].OrderNumber)
	assert.Equal(t, "ORD100002", s.Latest[4].OrderNumber)
}

func TestComputeEmpty(t *testing.T) {
	s := Compute(cache.Initial())
	assert.Zero(t, s.TotalOrders)
	assert.True(t, s.TotalRevenue.IsZero())
	assert.Empty(t, s.RevenueByDay)
	assert.Empty(t, s.Latest)
}
