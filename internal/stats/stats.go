// Package stats derives the dashboard figures from a cache snapshot.
package stats

import (
	"maps"
	"slices"

	"github.com/shopspring/decimal"

	"github.com/ovaphlow/pitchfork/dashboard-core-go/internal/cache"
	"github.com/ovaphlow/pitchfork/dashboard-core-go/internal/entity"
	"github.com/ovaphlow/pitchfork/dashboard-core-go/internal/order"
)

const (
	// LowStockThreshold is the stock level at or below which a product
	// counts as low.
	LowStockThreshold = 15
	RecentOrders      = 5
	dayLayout         = "2006-01-02"
)

type DailyRevenue struct {
	Day     string          `json:"day"`
	Revenue decimal.Decimal `json:"revenue"`
	Orders  int             `json:"orders"`
}

type Summary struct {
	TotalOrders        int             `json:"totalOrders"`
	TotalRevenue       decimal.Decimal `json:"totalRevenue"`
	Products           int             `json:"products"`
	Customers          int             `json:"customers"`
	LowStock           int             `json:"lowStock"`
	OutOfStock         int             `json:"outOfStock"`
	ProductsByCategory map[string]int  `json:"productsByCategory"`
	RevenueByDay       []DailyRevenue  `json:"revenueByDay"`
	Latest             []entity.Order  `json:"latest"`
}

// Compute summarises s. Orders without a date are left out of
// RevenueByDay but still count towards the totals.
func Compute(s cache.State) Summary {
	sum := Summary{
		TotalOrders:        len(s.Orders),
		TotalRevenue:       decimal.Zero,
		Products:           len(s.Products),
		Customers:          len(s.Customers),
		ProductsByCategory: map[string]int{},
		Latest:             order.Recent(s.Orders, RecentOrders),
	}

	for _, p := range s.Products {
		if p.Stock <= LowStockThreshold {
			sum.LowStock++
		}
		if p.Stock == 0 {
			sum.OutOfStock++
		}
		sum.ProductsByCategory[p.Category]++
	}

	days := map[string]*DailyRevenue{}
	for _, o := range s.Orders {
		sum.TotalRevenue = sum.TotalRevenue.Add(o.TotalAmount)
		if o.OrderDate.IsZero() {
			continue
		}
		key := o.OrderDate.UTC().Format(dayLayout)
		d, ok := days[key]
		if !ok {
			d = &DailyRevenue{Day: key, Revenue: decimal.Zero}
			days[key] = d
		}
		d.Revenue = d.Revenue.Add(o.TotalAmount)
		d.Orders++
	}
	for _, key := range slices.Sorted(maps.Keys(days)) {
		sum.RevenueByDay = append(sum.RevenueByDay, *days[key])
	}
	return sum
}
