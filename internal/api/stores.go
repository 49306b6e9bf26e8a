package api

import (
	"context"
	"net/http"

	"github.com/and161185/storefront/internal/model"
)

// StoreForm is the create/update payload of a store: metadata plus an
// optional new logo and new banner images. Store.Banners lists the
// existing banner URLs to keep.
type StoreForm struct {
	Store   model.Store
	Logo    *File
	Banners []File
}

func (f StoreForm) multipart() *Multipart {
	m := &Multipart{MetaField: "tienda", Meta: f.Store}
	if f.Logo != nil {
		logo := *f.Logo
		logo.Field = "file"
		m.Files = append(m.Files, logo)
	}
	for _, b := range f.Banners {
		b.Field = "banners"
		m.Files = append(m.Files, b)
	}
	return m
}

func (c *Client) Stores(ctx context.Context) ([]model.Store, error) {
	var out page[model.Store]
	if err := c.do(ctx, http.MethodGet, "tiendas", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) StoreBySlug(ctx context.Context, slug string) (*model.Store, error) {
	var s model.Store
	if err := c.do(ctx, http.MethodGet, join("tiendas", slug), nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// StoreByVendor returns the store owned by dni, or nil when the vendor has
// none (the API answers 404 or 403). Credentials are kept on a 403.
func (c *Client) StoreByVendor(ctx context.Context, dni model.DNI) (*model.Store, error) {
	var s model.Store
	err := c.do(ctx, http.MethodGet, join("tiendas", "vendedor", dni.String()), nil, &s, withoutAuthReset())
	switch StatusOf(err) {
	case http.StatusNotFound, http.StatusForbidden:
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if s.Slug == "" {
		return nil, nil
	}
	return &s, nil
}

func (c *Client) CreateStore(ctx context.Context, form StoreForm) (*model.Store, error) {
	var s model.Store
	if err := c.do(ctx, http.MethodPost, "tiendas", form.multipart(), &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *Client) UpdateStore(ctx context.Context, slug string, form StoreForm) (*model.Store, error) {
	var s model.Store
	if err := c.do(ctx, http.MethodPatch, join("tiendas", slug), form.multipart(), &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *Client) DeleteStore(ctx context.Context, slug string) error {
	return c.do(ctx, http.MethodDelete, join("tiendas", slug), nil, nil)
}
