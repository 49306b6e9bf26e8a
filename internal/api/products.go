package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/shopspring/decimal"

	"github.com/and161185/storefront/internal/model"
)

// ProductInput is the product metadata sent in the "producto" field.
// On update, Images lists the existing image URLs to keep.
type ProductInput struct {
	CategoryID  int64           `json:"categoriaId"`
	Name        string          `json:"nombre"`
	Description *string         `json:"descripcion"`
	Price       decimal.Decimal `json:"precio"`
	Stock       int             `json:"stock"`
	Images      []string        `json:"imagenes,omitempty"`
}

func productForm(in ProductInput, files []File) *Multipart {
	m := &Multipart{MetaField: "producto", Meta: in}
	for _, f := range files {
		f.Field = "files"
		m.Files = append(m.Files, f)
	}
	return m
}

// Products lists a shop catalog; sort is passed through when non-empty.
func (c *Client) Products(ctx context.Context, slug, sort string) ([]model.Product, error) {
	path := join("tiendas", slug, "productos")
	if sort != "" {
		path += "?" + url.Values{"sort": {sort}}.Encode()
	}
	var out page[model.Product]
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Product(ctx context.Context, slug string, id int64) (*model.Product, error) {
	var p model.Product
	if err := c.do(ctx, http.MethodGet, join("tiendas", slug, "productos", itoa(id)), nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) CreateProduct(ctx context.Context, slug string, in ProductInput, images []File) (*model.Product, error) {
	var p model.Product
	if err := c.do(ctx, http.MethodPost, join("tiendas", slug, "productos"), productForm(in, images), &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) UpdateProduct(ctx context.Context, slug string, id int64, in ProductInput, images []File) (*model.Product, error) {
	var p model.Product
	if err := c.do(ctx, http.MethodPatch, join("tiendas", slug, "productos", itoa(id)), productForm(in, images), &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) DeleteProduct(ctx context.Context, slug string, id int64) error {
	return c.do(ctx, http.MethodDelete, join("tiendas", slug, "productos", itoa(id)), nil, nil)
}

func (c *Client) SearchProducts(ctx context.Context, slug, term string) ([]model.Product, error) {
	path := join("tiendas", slug, "productos", "buscar") + "?" + url.Values{"q": {term}}.Encode()
	var out page[model.Product]
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ProductsByCategory(ctx context.Context, slug string, categoryID int64) ([]model.Product, error) {
	var out page[model.Product]
	if err := c.do(ctx, http.MethodGet, join("tiendas", slug, "productos", "categoria", itoa(categoryID)), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
