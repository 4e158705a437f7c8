package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/ovaphlow/pitchfork/dashboard-core-go/internal/entity"
)

const ordersPath = "/api/orders"

func (c *Client) ListOrders(ctx context.Context) ([]entity.Order, error) {
	var out []entity.Order
	err := c.privateCall(ctx, http.MethodGet, ordersPath, nil, &out)
	return out, err
}

func (c *Client) CreateOrder(ctx context.Context, o entity.Order) (entity.Order, error) {
	var out entity.Order
	err := c.privateCall(ctx, http.MethodPost, ordersPath, o, &out)
	return out, err
}

// LatestOrderNumber returns the highest order number the server knows of,
// or "" when there are no orders yet.
func (c *Client) LatestOrderNumber(ctx context.Context) (string, error) {
	var out struct {
		LatestOrderNumber *string `json:"latestOrderNumber"`
	}
	if err := c.privateCall(ctx, http.MethodGet, ordersPath+"/latestOrderNumber", nil, &out); err != nil {
		return "", err
	}
	if out.LatestOrderNumber == nil {
		return "", nil
	}
	return *out.LatestOrderNumber, nil
}

// GetOrder fetches one order by order number or id.
func (c *Client) GetOrder(ctx context.Context, key string) (entity.Order, error) {
	var out entity.Order
	err := c.privateCall(ctx, http.MethodGet, ordersPath+"/"+url.PathEscape(key), nil, &out)
	return out, err
}

func (c *Client) DeleteOrder(ctx context.Context, id string) error {
	return c.privateCall(ctx, http.MethodDelete, ordersPath+"/"+url.PathEscape(id), nil, nil)
}
