package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/ovaphlow/pitchfork/dashboard-core-go/internal/entity"
)

const customersPath = "/api/customers"

func (c *Client) ListCustomers(ctx context.Context) ([]entity.Customer, error) {
	var out []entity.Customer
	err := c.privateCall(ctx, http.MethodGet, customersPath, nil, &out)
	return out, err
}

// CreateCustomer creates a customer or returns the existing one with the
// same e-mail; de-duplication is the server's call.
func (c *Client) CreateCustomer(ctx context.Context, in entity.Customer) (entity.Customer, error) {
	in.ID = ""
	var out entity.Customer
	err := c.privateCall(ctx, http.MethodPost, customersPath, in, &out)
	return out, err
}

func (c *Client) UpdateCustomer(ctx context.Context, id string, row map[string]any) error {
	return c.privateCall(ctx, http.MethodPut, customersPath+"/"+url.PathEscape(id), row, nil)
}

func (c *Client) DeleteCustomer(ctx context.Context, id string) error {
	return c.privateCall(ctx, http.MethodDelete, customersPath+"/"+url.PathEscape(id), nil, nil)
}
