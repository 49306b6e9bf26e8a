package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/and161185/storefront/internal/errs"
	"github.com/and161185/storefront/internal/model"
)

// CategoryInput is the create/update payload of a category.
type CategoryInput struct {
	Name        string `json:"nombre"`
	Description string `json:"descripcion,omitempty"`
}

func (c *Client) Categories(ctx context.Context, slug string) ([]model.Category, error) {
	var out page[model.Category]
	if err := c.do(ctx, http.MethodGet, join("tiendas", slug, "categorias"), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Category(ctx context.Context, slug string, id int64) (*model.Category, error) {
	var cat model.Category
	if err := c.do(ctx, http.MethodGet, join("tiendas", slug, "categorias", itoa(id)), nil, &cat); err != nil {
		return nil, err
	}
	return &cat, nil
}

// CreateCategory adds a category. The reserved bucket always exists and
// cannot be created again.
func (c *Client) CreateCategory(ctx context.Context, slug string, in CategoryInput) (*model.Category, error) {
	if model.IsReservedName(in.Name) {
		return nil, fmt.Errorf("create %q: %w", in.Name, errs.ErrReservedCategory)
	}
	in.Name = strings.TrimSpace(in.Name)
	var cat model.Category
	if err := c.do(ctx, http.MethodPost, join("tiendas", slug, "categorias"), in, &cat); err != nil {
		return nil, err
	}
	return &cat, nil
}

// UpdateCategory renames or re-describes an existing category.
func (c *Client) UpdateCategory(ctx context.Context, slug string, existing model.Category, in CategoryInput) (*model.Category, error) {
	if existing.IsReserved() || model.IsReservedName(in.Name) {
		return nil, fmt.Errorf("update category %d: %w", existing.ID, errs.ErrReservedCategory)
	}
	in.Name = strings.TrimSpace(in.Name)
	var cat model.Category
	if err := c.do(ctx, http.MethodPatch, join("tiendas", slug, "categorias", itoa(existing.ID)), in, &cat); err != nil {
		return nil, err
	}
	return &cat, nil
}

// DeleteCategory removes a category; products in it fall back to the reserved bucket server-side.
func (c *Client) DeleteCategory(ctx context.Context, slug string, existing model.Category) error {
	if existing.IsReserved() {
		return fmt.Errorf("delete category %d: %w", existing.ID, errs.ErrReservedCategory)
	}
	return c.do(ctx, http.MethodDelete, join("tiendas", slug, "categorias", itoa(existing.ID)), nil, nil)
}
