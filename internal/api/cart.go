package api

import (
	"context"
	"net/http"

	"github.com/and161185/storefront/internal/model"
)

func (c *Client) AddCartItem(ctx context.Context, slug string, item model.AddCartItem) error {
	return c.do(ctx, http.MethodPost, join("tiendas", slug, "carrito", "agregar"), item, nil)
}

// Cart returns the server-side cart of a buyer in one shop.
func (c *Client) Cart(ctx context.Context, slug string, dni model.DNI) ([]model.CartItem, error) {
	var out page[model.CartItem]
	if err := c.do(ctx, http.MethodGet, join("tiendas", slug, "carrito", dni.String()), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) DeleteCartItem(ctx context.Context, slug string, itemID int64) error {
	return c.do(ctx, http.MethodDelete, join("tiendas", slug, "carrito", "item", itoa(itemID)), nil, nil)
}

func (c *Client) ClearCart(ctx context.Context, slug string, dni model.DNI) error {
	return c.do(ctx, http.MethodDelete, join("tiendas", slug, "carrito", "vaciar", dni.String()), nil, nil)
}
