// Package order has the client-side order helpers: the next order number,
// totals and the orderings used by the order lists.
package order

import (
	"slices"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ovaphlow/pitchfork/dashboard-core-go/internal/entity"
)

const (
	Prefix = "ORD"
	// Seed is used when there is no previous order number to follow.
	Seed = "ORD100000"
)

// NextNumber returns the number following latest, e.g. ORD100005 →
// ORD100006. Empty or unparsable input yields Seed.
//
// The result is a best guess from the client. Two clients placing orders
// at the same time can compute the same number.
func NextNumber(latest string) string {
	digits, ok := strings.CutPrefix(strings.TrimSpace(latest), Prefix)
	if !ok || digits == "" {
		return Seed
	}
	n, err := strconv.ParseUint(digits, 10, 64)
	if err != nil {
		return Seed
	}
	return Prefix + strconv.FormatUint(n+1, 10)
}

// Total is the sum of quantity × unit price over lines.
func Total(lines []entity.LineDraft) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(LineTotal(l.Quantity, l.UnitPrice))
	}
	return total
}

func LineTotal(quantity int, unitPrice decimal.Decimal) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(int64(quantity)))
}

// SortByNumber orders by order number, highest first, comparing digit
// runs by value so that ORD100010 sorts above ORD99999.
func SortByNumber(orders []entity.Order) []entity.Order {
	out := slices.Clone(orders)
	slices.SortStableFunc(out, func(a, b entity.Order) int {
		return CompareNatural(b.OrderNumber, a.OrderNumber)
	})
	return out
}

// SortByDate orders newest first. Orders without a date go last.
func SortByDate(orders []entity.Order) []entity.Order {
	out := slices.Clone(orders)
	slices.SortStableFunc(out, func(a, b entity.Order) int {
		return b.OrderDate.Compare(a.OrderDate)
	})
	return out
}

// Recent returns the n highest-numbered orders.
func Recent(orders []entity.Order, n int) []entity.Order {
	sorted := SortByNumber(orders)
	if n >= 0 && len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

// CompareNatural compares a and b treating runs of ASCII digits as numbers.
func CompareNatural(a, b string) int {
	for a != "" && b != "" {
		da, db := isDigit(a[0]), isDigit(b[0])
		switch {
		case da && db:
			var na, nb string
			na, a = splitDigits(a)
			nb, b = splitDigits(b)
			if c := compareDigits(na, nb); c != 0 {
				return c
			}
		case a[0] != b[0]:
			if a[0] < b[0] {
				return -1
			}
			return 1
		default:
			a, b = a[1:], b[1:]
		}
	}
	return len(a) - len(b)
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func splitDigits(s string) (string, string) {
	i := 0
	for i < len(s) && isDigit(s[i]) {
		i++
	}
	return s[:i], s[i:]
}

func compareDigits(a, b string) int {
	a = strings.TrimLeft(a, "0")
	b = strings.TrimLeft(b, "0")
	if len(a) != len(b) {
		return len(a) - len(b)
	}
	return strings.Compare(a, b)
}
