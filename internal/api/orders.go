package api

import (
	"context"
	"net/http"

	"github.com/and161185/storefront/internal/model"
)

func (c *Client) CreateOrder(ctx context.Context, slug string, req model.OrderRequest) (*model.Order, error) {
	if req.Items == nil {
		req.Items = []model.OrderLine{}
	}
	var o model.Order
	if err := c.do(ctx, http.MethodPost, join("tiendas", slug, "pedidos"), req, &o); err != nil {
		return nil, err
	}
	return &o, nil
}

func (c *Client) ShopOrders(ctx context.Context, slug string) ([]model.Order, error) {
	var out page[model.Order]
	if err := c.do(ctx, http.MethodGet, join("tiendas", slug, "pedidos"), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Order(ctx context.Context, slug string, id int64) (*model.Order, error) {
	var o model.Order
	if err := c.do(ctx, http.MethodGet, join("tiendas", slug, "pedidos", itoa(id)), nil, &o); err != nil {
		return nil, err
	}
	return &o, nil
}

// UpdateOrderStatus sets the order status. Transition rules are enforced by
// callers; the API accepts any status.
func (c *Client) UpdateOrderStatus(ctx context.Context, slug string, id int64, status model.OrderStatus) (*model.Order, error) {
	body := struct {
		Status model.OrderStatus `json:"estado"`
	}{status}
	var o model.Order
	if err := c.do(ctx, http.MethodPatch, join("tiendas", slug, "pedidos", itoa(id)), body, &o); err != nil {
		return nil, err
	}
	return &o, nil
}

// ShopBuyerOrders lists the orders a buyer placed in one shop.
func (c *Client) ShopBuyerOrders(ctx context.Context, slug string, dni model.DNI) ([]model.Order, error) {
	var out page[model.Order]
	if err := c.do(ctx, http.MethodGet, join("tiendas", slug, "pedidos", "usuario", dni.String()), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
