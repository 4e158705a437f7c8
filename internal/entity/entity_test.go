package entity

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderDecodesBareAndPopulatedRefs(t *testing.T) {
	raw := `{
		"_id": "o1",
		"orderNumber": "ORD100001",
		"orderDate": "2024-03-01T10:00:00Z",
		"customer": {"_id": "c1", "firstName": "Ada", "lastName": "Lovelace"},
		"products": [{"product": "p1", "name": "Milk", "quantity": 2, "unit": "l", "unitPrice": 1.25, "totalPrice": 2.5}],
		"totalAmount": 2.5,
		"paymentMethod": "Cash",
		"deliveryStatus": "In-Store Pickup"
	}`
	var o Order
	require.NoError(t, json.Unmarshal([]byte(raw), &o))

	assert.Equal(t, "c1", o.Customer.ID)
	require.NotNil(t, o.Customer.Value)
	assert.Equal(t, "Ada Lovelace", o.Customer.Value.FullName())
	assert.Equal(t, "p1", o.Products[0].Product.ID)
	assert.Nil(t, o.Products[0].Product.Value)
	assert.True(t, decimal.RequireFromString("2.5").Equal(o.TotalAmount))
}

func TestRefMarshalsAsBareID(t *testing.T) {
	o := Order{
		OrderNumber: "ORD100002",
		Customer:    RefTo(Customer{ID: "c9", FirstName: "Grace"}),
		TotalAmount: decimal.NewFromFloat(17),
	}
	b, err := json.Marshal(o)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(b, &m))
	assert.Equal(t, "c9", m["customer"])
	assert.Equal(t, float64(17), m["totalAmount"])
	assert.NotContains(t, m, "orderDate")
	assert.NotContains(t, m, "_id")
}

func TestRefNull(t *testing.T) {
	var r CustomerRef
	require.NoError(t, json.Unmarshal([]byte("null"), &r))
	assert.Empty(t, r.ID)
}

func TestProductDraftMissingFields(t *testing.T) {
	d := ProductDraft{Name: "Rice", Category: "Grains", Unit: "kg", UnitPrice: decimal.NewFromInt(2), Stock: 10}
	assert.Empty(t, d.MissingFields())

	assert.Equal(t, []string{"category", "unitPrice", "stock"},
		ProductDraft{Name: "Rice", Unit: "kg", UnitPrice: decimal.NewFromInt(-1)}.MissingFields())
}

func TestCustomerMissingFields(t *testing.T) {
	c := Customer{FirstName: "A", LastName: "B", Email: "a@b.c", Phone: "1",
		Address: Address{Street: "s", City: "c", State: "st", ZipCode: "z"}}
	assert.Equal(t, []string{"address.country"}, c.MissingFields())
}

func signed(t *testing.T, exp time.Time) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"exp": exp.Unix()}).SignedString([]byte("k"))
	require.NoError(t, err)
	return tok
}

func TestCredentialExpiry(t *testing.T) {
	now := time.Now()

	fresh := &Credential{Identity: "u", AccessToken: signed(t, now.Add(time.Hour))}
	exp, ok := fresh.ExpiresAt()
	require.True(t, ok)
	assert.WithinDuration(t, now.Add(time.Hour), exp, time.Second)
	assert.False(t, fresh.Expired(now))

	stale := &Credential{Identity: "u", AccessToken: signed(t, now.Add(-time.Minute))}
	assert.True(t, stale.Expired(now))

	opaque := &Credential{AccessToken: "not-a-jwt"}
	_, ok = opaque.ExpiresAt()
	assert.False(t, ok)
	assert.False(t, opaque.Expired(now))

	var none *Credential
	assert.False(t, none.Expired(now))
}

func TestMoneyEncodesAsNumber(t *testing.T) {
	b, err := json.Marshal(Product{ID: "p1", UnitPrice: decimal.RequireFromString("3.10")})
	require.NoError(t, err)
	assert.Contains(t, string(b), `"unitPrice":3.1`)

	var p Product
	require.NoError(t, json.Unmarshal([]byte(`{"unitPrice":"4.25"}`), &p))
	assert.True(t, decimal.RequireFromString("4.25").Equal(p.UnitPrice), "quoted money still decodes")
}

func TestPatchKeepsPopulatedRefs(t *testing.T) {
	cust := Customer{ID: "c1", FirstName: "Ada"}
	milk := Product{ID: "p1", Name: "Milk"}
	o := Order{
		ID:             "o1",
		Customer:       RefTo(cust),
		Products:       []OrderLine{{Product: RefTo(milk), Name: "Milk", Quantity: 1}},
		DeliveryStatus: DeliveryInStore,
	}

	out, err := Patch(o, map[string]any{"deliveryStatus": DeliveryHome, "nonsense": 1})
	require.NoError(t, err)
	assert.Equal(t, DeliveryHome, out.DeliveryStatus)
	require.NotNil(t, out.Customer.Value)
	assert.Equal(t, cust, *out.Customer.Value)
	require.NotNil(t, out.Products[0].Product.Value)
	assert.Equal(t, milk, *out.Products[0].Product.Value)
	assert.Equal(t, DeliveryInStore, o.DeliveryStatus, "input must not change")

	out, err = Patch(o, map[string]any{"customer": "c2"})
	require.NoError(t, err)
	assert.Equal(t, CustomerRef{ID: "c2"}, out.Customer)
}

func TestPatchRejectsBadValue(t *testing.T) {
	_, err := Patch(Product{ID: "p1"}, map[string]any{"stock": "many"})
	assert.Error(t, err)

	_, err = Patch(42, map[string]any{"x": 1})
	assert.Error(t, err)
}
