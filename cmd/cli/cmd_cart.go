package main

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/and161185/storefront/internal/cart"
	"github.com/and161185/storefront/internal/errs"
	"github.com/and161185/storefront/internal/model"
)

type cartView struct {
	Shop   string           `json:"shop"`
	Items  []model.CartItem `json:"items"`
	Count  int              `json:"count"`
	Total  decimal.Decimal  `json:"total"`
	Result string           `json:"result,omitempty"`
}

func (a *app) cartView(shop *model.Store) cartView {
	items := a.cart.Items()
	if items == nil {
		items = []model.CartItem{}
	}
	return cartView{Shop: shop.Slug, Items: items, Count: a.cart.Count(), Total: a.cart.Total()}
}

func cmdCart(ctx context.Context, a *app, args []string) error {
	fs := newFlags("cart", a.errOut)
	slug := fs.String("shop", "", "shop slug (default: active shop)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	shop, err := a.bindCart(ctx, *slug, "carrito")
	a.reportRedirect()
	if err != nil {
		return err
	}
	return printJSON(a.out, a.cartView(shop))
}

func cmdCartAdd(ctx context.Context, a *app, args []string) error {
	fs := newFlags("cart-add", a.errOut)
	slug := fs.String("shop", "", "shop slug (default: active shop)")
	product := fs.Int64("product", 0, "product id")
	qty := fs.Int("qty", 1, "quantity")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *product <= 0 {
		return errors.New("need -product")
	}
	shop, err := a.bindCart(ctx, *slug, "producto", itoa(*product))
	if err != nil {
		return err
	}
	err = a.cart.Add(ctx, *product, *qty)
	a.reportRedirect()
	if err != nil {
		return err
	}
	a.notes.Success("Added to cart", "")
	return printJSON(a.out, a.cartView(shop))
}

// cmdCartQty applies quantity edits through the debouncer: only the last
// -qty value reaches the API.
func cmdCartQty(ctx context.Context, a *app, args []string) error {
	fs := newFlags("cart-qty", a.errOut)
	slug := fs.String("shop", "", "shop slug (default: active shop)")
	item := fs.Int64("item", 0, "cart item id")
	var qtys intsFlag
	fs.Var(&qtys, "qty", "new quantity (repeatable, last wins)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *item <= 0 || len(qtys) == 0 {
		return errors.New("need -item and -qty")
	}
	shop, err := a.bindCart(ctx, *slug, "carrito")
	if err != nil {
		return err
	}

	type outcome struct {
		res cart.Result
		err error
	}
	done := make(chan outcome, 1)
	d := cart.NewDebouncer(a.cfg.DebounceDelay, func(id int64, qty int) {
		res, err := a.cart.UpdateQuantity(ctx, id, qty)
		done <- outcome{res, err}
	})
	defer d.Stop()
	for _, q := range qtys {
		d.Set(*item, q)
	}
	if d.Pending() == 0 {
		return errs.ErrInvalidQuantity
	}

	var o outcome
	select {
	case o = <-done:
	case <-ctx.Done():
		return ctx.Err()
	}
	a.reportRedirect()
	if o.res == cart.ResultUnknown {
		a.notes.Warning("Cart may have changed", "the cart was reloaded, check the quantities")
	}
	view := a.cartView(shop)
	view.Result = o.res.String()
	if err := printJSON(a.out, view); err != nil {
		return err
	}
	return o.err
}

func cmdCartRm(ctx context.Context, a *app, args []string) error {
	fs := newFlags("cart-rm", a.errOut)
	slug := fs.String("shop", "", "shop slug (default: active shop)")
	item := fs.Int64("item", 0, "cart item id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *item <= 0 {
		return errors.New("need -item")
	}
	shop, err := a.bindCart(ctx, *slug, "carrito")
	if err != nil {
		return err
	}
	err = a.cart.Remove(ctx, *item)
	a.reportRedirect()
	if err != nil {
		return err
	}
	return printJSON(a.out, a.cartView(shop))
}

func cmdCartClear(ctx context.Context, a *app, args []string) error {
	fs := newFlags("cart-clear", a.errOut)
	slug := fs.String("shop", "", "shop slug (default: active shop)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	shop, err := a.bindCart(ctx, *slug, "carrito")
	if err != nil {
		return err
	}
	err = a.cart.Clear(ctx)
	a.reportRedirect()
	if err != nil {
		return err
	}
	return printJSON(a.out, a.cartView(shop))
}
