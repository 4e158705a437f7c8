package entity

import (
	"strings"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID        string          `json:"_id,omitempty"`
	Name      string          `json:"name"`
	Category  string          `json:"category"`
	Unit      string          `json:"unit"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Stock     int             `json:"stock"`
}

func (p Product) EntityID() string { return p.ID }

// ProductDraft is a product that has not been created on the server yet.
type ProductDraft struct {
	Name      string          `json:"name"`
	Category  string          `json:"category"`
	Unit      string          `json:"unit"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Stock     int             `json:"stock"`
}

// MissingFields lists the json names of fields that are empty or zero.
// Negative price or stock is reported as missing as well.
func (d ProductDraft) MissingFields() []string {
	var out []string
	if strings.TrimSpace(d.Name) == "" {
		out = append(out, "name")
	}
	if strings.TrimSpace(d.Category) == "" {
		out = append(out, "category")
	}
	if strings.TrimSpace(d.Unit) == "" {
		out = append(out, "unit")
	}
	if !d.UnitPrice.IsPositive() {
		out = append(out, "unitPrice")
	}
	if d.Stock <= 0 {
		out = append(out, "stock")
	}
	return out
}
