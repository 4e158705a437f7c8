package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/ovaphlow/pitchfork/dashboard-core-go/internal/entity"
)

const productsPath = "/api/products"

func (c *Client) ListProducts(ctx context.Context) ([]entity.Product, error) {
	var out []entity.Product
	err := c.privateCall(ctx, http.MethodGet, productsPath, nil, &out)
	return out, err
}

// CreateProduct returns the server's canonical record, id included.
func (c *Client) CreateProduct(ctx context.Context, d entity.ProductDraft) (entity.Product, error) {
	var out entity.Product
	err := c.privateCall(ctx, http.MethodPost, productsPath, d, &out)
	return out, err
}

// UpdateProduct sends row as the new state of product id.
func (c *Client) UpdateProduct(ctx context.Context, id string, row map[string]any) error {
	return c.privateCall(ctx, http.MethodPut, productsPath+"/"+url.PathEscape(id), row, nil)
}

func (c *Client) DeleteProduct(ctx context.Context, id string) error {
	return c.privateCall(ctx, http.MethodDelete, productsPath+"/"+url.PathEscape(id), nil, nil)
}
