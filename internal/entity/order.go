package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

type (
	CustomerRef = Ref[Customer]
	ProductRef  = Ref[Product]
)

// OrderLine is one product line of an order. TotalPrice is Quantity×UnitPrice.
type OrderLine struct {
	Product    ProductRef      `json:"product"`
	Name       string          `json:"name"`
	Quantity   int             `json:"quantity"`
	Unit       string          `json:"unit"`
	UnitPrice  decimal.Decimal `json:"unitPrice"`
	TotalPrice decimal.Decimal `json:"totalPrice"`
}

type Order struct {
	ID             string          `json:"_id,omitempty"`
	OrderNumber    string          `json:"orderNumber"`
	OrderDate      time.Time       `json:"orderDate,omitzero"`
	Customer       CustomerRef     `json:"customer"`
	Products       []OrderLine     `json:"products"`
	TotalAmount    decimal.Decimal `json:"totalAmount"`
	PaymentMethod  string          `json:"paymentMethod"`
	DeliveryStatus string          `json:"deliveryStatus"`
}

func (o Order) EntityID() string { return o.ID }

// Payment methods and delivery options offered by the order form.
const (
	PaymentCreditCard = "Credit Card"
	PaymentDebitCard  = "Debit Card"
	PaymentUPI        = "UPI"
	PaymentCash       = "Cash"

	DeliveryInStore = "In-Store Pickup"
	DeliveryHome    = "Home Delivery"
)

// LineDraft is an order line as entered by a user: the product is chosen
// by name and resolved to an id when the order is placed.
type LineDraft struct {
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	Unit      string          `json:"unit"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
}

type OrderDraft struct {
	Customer       Customer    `json:"customer"`
	Products       []LineDraft `json:"products"`
	PaymentMethod  string      `json:"paymentMethod"`
	DeliveryStatus string      `json:"deliveryStatus"`
}
