// Package storectx resolves the shop named by the current route.
package storectx

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/and161185/storefront/internal/errs"
	"github.com/and161185/storefront/internal/model"
)

// Fetcher loads a public shop record.
type Fetcher interface {
	StoreBySlug(ctx context.Context, slug string) (*model.Store, error)
}

// Context is the resolved shop of the current route. The zero value (no
// slug) is a valid, non-error state.
type Context struct {
	Slug    string
	Shop    *model.Store
	Loading bool
	Err     error
}

// Resolver tracks the active slug and its shop. Identical concurrent fetches
// are collapsed; a response for a slug that is no longer active is dropped.
type Resolver struct {
	fetch Fetcher
	log   *zap.Logger
	group singleflight.Group

	mu  sync.Mutex
	cur Context
	gen uint64
}

func NewResolver(f Fetcher, log *zap.Logger) *Resolver {
	if log == nil {
		log = zap.NewNop()
	}
	return &Resolver{fetch: f, log: log}
}

// Current returns the latest context.
func (r *Resolver) Current() Context {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cur
}

// SetSlug switches to slug and fetches its shop. An empty slug clears the
// context without a network call.
func (r *Resolver) SetSlug(ctx context.Context, slug string) (Context, error) {
	r.mu.Lock()
	r.gen++
	gen := r.gen
	if slug == "" {
		r.cur = Context{}
		r.mu.Unlock()
		return Context{}, nil
	}
	r.cur = Context{Slug: slug, Loading: true}
	r.mu.Unlock()
	return r.load(ctx, gen, slug)
}

// Reload re-fetches the current slug.
func (r *Resolver) Reload(ctx context.Context) (Context, error) {
	r.mu.Lock()
	slug := r.cur.Slug
	if slug == "" {
		r.mu.Unlock()
		return Context{}, nil
	}
	r.gen++
	gen := r.gen
	r.cur.Loading = true
	r.mu.Unlock()
	return r.load(ctx, gen, slug)
}

func (r *Resolver) load(ctx context.Context, gen uint64, slug string) (Context, error) {
	ch := r.group.DoChan(slug, func() (any, error) {
		return r.fetch.StoreBySlug(context.WithoutCancel(ctx), slug)
	})
	var (
		shop *model.Store
		err  error
	)
	select {
	case res := <-ch:
		shop, _ = res.Val.(*model.Store)
		err = res.Err
	case <-ctx.Done():
		err = ctx.Err()
	}
	if errors.Is(err, errs.ErrNotFound) {
		err = fmt.Errorf("shop %q: %w", slug, errs.ErrShopNotFound)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.gen != gen {
		r.log.Debug("stale shop response dropped", zap.String("slug", slug))
		return r.cur, nil
	}
	r.cur = Context{Slug: slug, Shop: shop, Err: err}
	if err != nil {
		r.cur.Shop = nil
	}
	return r.cur, err
}
