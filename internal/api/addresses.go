package api

import (
	"context"
	"net/http"

	"github.com/and161185/storefront/internal/model"
)

func (c *Client) Addresses(ctx context.Context, dni model.DNI) ([]model.Address, error) {
	var out page[model.Address]
	if err := c.do(ctx, http.MethodGet, join("usuarios", "direcciones", dni.String()), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateAddress(ctx context.Context, a model.Address) (*model.Address, error) {
	var out model.Address
	if err := c.do(ctx, http.MethodPost, "usuarios/direcciones", a, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
