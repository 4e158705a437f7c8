package order

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/ovaphlow/pitchfork/dashboard-core-go/internal/entity"
)

func TestNextNumber(t *testing.T) {
	cases := map[string]string{
		"ORD100005": "ORD100006",
		"ORD100099": "ORD100100",
		"":          Seed,
		"  ":        Seed,
		"ORD":       Seed,
		"ORDx12":    Seed,
		"INV100005": Seed,
	}
	for in, want := range cases {
		assert.Equal(t, want, NextNumber(in), "NextNumber(%q)", in)
	}
}

func TestTotal(t *testing.T) {
	lines := []entity.LineDraft{
		{Quantity: 2, UnitPrice: decimal.RequireFromString("3.5")},
		{Quantity: 1, UnitPrice: decimal.NewFromInt(10)},
	}
	assert.True(t, decimal.NewFromInt(17).Equal(Total(lines)), "got %s", Total(lines))
	assert.True(t, Total(nil).IsZero())
}

func TestSortByNumberIsNumericAware(t *testing.T) {
	orders := []entity.Order{
		{OrderNumber: "ORD99999"},
		{OrderNumber: "ORD100010"},
		{OrderNumber: "ORD100002"},
	}
	sorted := SortByNumber(orders)
	assert.Equal(t, "ORD100010", sorted[0].OrderNumber)
	assert.Equal(t, "ORD100002", sorted[1].OrderNumber)
	assert.Equal(t, "ORD99999", sorted[2].OrderNumber)
	assert.Equal(t, "ORD99999", orders[0].OrderNumber, "input untouched")

	assert.Len(t, Recent(orders, 2), 2)
	assert.Len(t, Recent(orders, 10), 3)
}

func TestSortByDate(t *testing.T) {
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	orders := []entity.Order{
		{OrderNumber: "a", OrderDate: day},
		{OrderNumber: "b"},
		{OrderNumber: "c", OrderDate: day.Add(48 * time.Hour)},
	}
	sorted := SortByDate(orders)
	assert.Equal(t, []string{"c", "a", "b"}, []string{sorted[0].OrderNumber, sorted[1].OrderNumber, sorted[2].OrderNumber})
}

func TestCompareNatural(t *testing.T) {
	assert.Negative(t, CompareNatural("ORD9", "ORD10"))
	assert.Positive(t, CompareNatural("ORD010", "ORD9"))
	assert.Zero(t, CompareNatural("ORD007", "ORD7"))
	assert.Negative(t, CompareNatural("ORD1", "ORD1a"))
	assert.Negative(t, CompareNatural("A1", "B0"))
}
