package main

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/and161185/storefront/internal/api"
	"github.com/and161185/storefront/internal/cart"
	"github.com/and161185/storefront/internal/checkout"
	"github.com/and161185/storefront/internal/config"
	"github.com/and161185/storefront/internal/errs"
	"github.com/and161185/storefront/internal/migrate"
	"github.com/and161185/storefront/internal/model"
	"github.com/and161185/storefront/internal/notify"
	"github.com/and161185/storefront/internal/route"
	"github.com/and161185/storefront/internal/session"
	"github.com/and161185/storefront/internal/storage"
	"github.com/and161185/storefront/internal/storectx"
)

// app wires the client components for one invocation.
type app struct {
	cfg    config.Config
	log    *zap.Logger
	out    io.Writer
	errOut io.Writer

	store      storage.Storage
	closeStore func()

	router   *route.Tracker
	api      *api.Client
	session  *session.Store
	shops    *storectx.Resolver
	notes    *notify.Queue
	cart     *cart.Synchronizer
	checkout *checkout.Service

	renderDone chan struct{}
}

func newApp(ctx context.Context, cfg config.Config, log *zap.Logger, out, errOut io.Writer) (*app, error) {
	st, closeStore, err := openStorage(ctx, cfg, log)
	if err != nil {
		return nil, fmt.Errorf("open %s storage: %w", cfg.Storage, err)
	}
	return buildApp(cfg, log, st, closeStore, out, errOut), nil
}

// buildApp assembles the components on top of an open storage.
func buildApp(cfg config.Config, log *zap.Logger, st storage.Storage, closeStore func(), out, errOut io.Writer) *app {
	a := &app{
		cfg:        cfg,
		log:        log,
		out:        out,
		errOut:     errOut,
		store:      st,
		closeStore: closeStore,
		router:     route.NewTracker(route.Landing),
		notes:      notify.NewQueue(cfg.NotifyCapacity),
		renderDone: make(chan struct{}),
	}
	a.api = api.New(api.Options{BaseURL: cfg.APIURL, Timeout: cfg.Timeout}, st, a.router, log)
	a.session = session.NewStore(a.api, st, log)
	a.shops = storectx.NewResolver(a.api, log)
	a.cart = cart.New(a.api, a.notes, a.router, log)
	a.checkout = checkout.New(a.api, a.router, log)

	go func() {
		defer close(a.renderDone)
		_ = notify.Render(context.Background(), a.notes, errOut)
	}()
	return a
}

// close flushes pending notifications and releases the storage.
func (a *app) close() {
	a.notes.Shutdown()
	<-a.renderDone
	if a.closeStore != nil {
		a.closeStore()
	}
}

func openStorage(ctx context.Context, cfg config.Config, log *zap.Logger) (storage.Storage, func(), error) {
	switch cfg.Storage {
	case config.StorageMemory:
		return storage.NewMemory(), nil, nil
	case config.StorageFile:
		f, err := storage.NewFile(cfg.StorageDir)
		return f, nil, err
	case config.StorageRedis:
		r, err := storage.NewRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisPrefix)
		if err != nil {
			return nil, nil, err
		}
		return r, func() { _ = r.Close() }, nil
	case config.StoragePostgres:
		if err := migrate.Up(ctx, cfg.PostgresDSN, log); err != nil {
			return nil, nil, fmt.Errorf("migrate: %w", err)
		}
		p, err := storage.OpenPostgres(ctx, cfg.PostgresDSN, cfg.PostgresNamespace)
		if err != nil {
			return nil, nil, err
		}
		return p, p.Close, nil
	}
	return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.Storage)
}

// at moves the tracker to the surface a command acts on.
func (a *app) at(path string) { a.router.Navigate(path) }

// reportRedirect prints where the client was sent, if anywhere.
func (a *app) reportRedirect() {
	if to, ok := a.router.Redirected(); ok {
		fmt.Fprintln(a.errOut, "redirect:", to)
	}
}

// authenticated resolves the session and requires a token.
func (a *app) authenticated(ctx context.Context) (session.State, error) {
	st, err := a.session.Resolve(ctx)
	if err != nil {
		return st, err
	}
	if !st.IsAuthenticated() {
		return st, fmt.Errorf("%w: run sf login", errs.ErrAuthRequired)
	}
	return st, nil
}

// buyer resolves the session and requires a known user identifier.
func (a *app) buyer(ctx context.Context) (session.State, error) {
	st, err := a.authenticated(ctx)
	if err != nil {
		return st, err
	}
	if !st.DNI().Valid() {
		return st, fmt.Errorf("identity not resolved: %w", errs.ErrSessionUnresolved)
	}
	return st, nil
}

// vendorStore resolves the session and returns the owned store.
func (a *app) vendorStore(ctx context.Context) (session.State, *model.Store, error) {
	st, err := a.authenticated(ctx)
	if err != nil {
		return st, nil, err
	}
	if st.VendorStore == nil {
		if st.IsVendor() {
			return st, nil, fmt.Errorf("vendor store not resolved yet: %w", errs.ErrSessionUnresolved)
		}
		return st, nil, fmt.Errorf("%w: this account owns no shop, run sf store-config", errs.ErrUnauthorized)
	}
	a.at(route.Admin(st.VendorStore.Slug))
	return st, st.VendorStore, nil
}

// openShop resolves slug, or the last active shop when slug is empty, and
// makes it the active shop.
func (a *app) openShop(ctx context.Context, slug string, parts ...string) (*model.Store, error) {
	if slug == "" {
		v, _, err := a.store.Get(ctx, storage.KeyActiveShop)
		if err != nil {
			return nil, err
		}
		slug = v
	}
	if slug == "" {
		return nil, fmt.Errorf("%w: pass -shop", errs.ErrNoActiveShop)
	}
	a.at(route.Shop(slug, parts...))
	sc, err := a.shops.SetSlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if err := a.session.SetActiveShop(ctx, slug); err != nil {
		a.log.Warn("remember active shop", zap.Error(err))
	}
	return sc.Shop, nil
}

// bindCart resolves the session and the shop and binds the cart to them.
func (a *app) bindCart(ctx context.Context, slug string, parts ...string) (*model.Store, error) {
	st, err := a.session.Resolve(ctx)
	if err != nil {
		return nil, err
	}
	shop, err := a.openShop(ctx, slug, parts...)
	if err != nil {
		return nil, err
	}
	if err := a.cart.Bind(ctx, st.DNI(), shop); err != nil {
		return nil, err
	}
	return shop, nil
}
