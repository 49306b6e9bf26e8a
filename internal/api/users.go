package api

import (
	"context"
	"net/http"

	"github.com/and161185/storefront/internal/model"
)

// UserPatch carries the profile fields to change; empty fields are kept.
type UserPatch struct {
	Name    string `json:"nombre,omitempty"`
	Surname string `json:"apellido,omitempty"`
	Email   string `json:"email,omitempty"`
}

func (c *Client) UserByDNI(ctx context.Context, dni model.DNI) (*model.User, error) {
	var u model.User
	if err := c.do(ctx, http.MethodGet, join("usuarios", dni.String()), nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *Client) Users(ctx context.Context) ([]model.User, error) {
	var out page[model.User]
	if err := c.do(ctx, http.MethodGet, "usuarios", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateUser(ctx context.Context, reg model.Registration) (*model.User, error) {
	var u model.User
	if err := c.do(ctx, http.MethodPost, "usuarios", reg, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *Client) UpdateUser(ctx context.Context, dni model.DNI, patch UserPatch) (*model.User, error) {
	var u model.User
	if err := c.do(ctx, http.MethodPatch, join("usuarios", dni.String()), patch, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *Client) DeleteUser(ctx context.Context, dni model.DNI) error {
	return c.do(ctx, http.MethodDelete, join("usuarios", dni.String()), nil, nil)
}

// BuyerOrders lists the orders of a buyer across every shop.
func (c *Client) BuyerOrders(ctx context.Context, dni model.DNI) ([]model.Order, error) {
	var out page[model.Order]
	if err := c.do(ctx, http.MethodGet, join("usuarios", dni.String(), "pedidos"), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
