package main

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/and161185/storefront/internal/checkout"
	"github.com/and161185/storefront/internal/errs"
	"github.com/and161185/storefront/internal/model"
	"github.com/and161185/storefront/internal/payreturn"
	"github.com/and161185/storefront/internal/route"
	"github.com/and161185/storefront/internal/storage"
)

func cmdAddresses(ctx context.Context, a *app, _ []string) error {
	st, err := a.buyer(ctx)
	if err != nil {
		return err
	}
	a.at(route.Profile)
	list, err := a.api.Addresses(ctx, st.DNI())
	a.reportRedirect()
	if err != nil {
		return err
	}
	if list == nil {
		list = []model.Address{}
	}
	return printJSON(a.out, list)
}

type checkoutView struct {
	Order      *model.Order         `json:"order"`
	PaymentURL string               `json:"paymentUrl"`
	Payment    *model.PaymentResult `json:"payment,omitempty"`
	BackTo     string               `json:"backTo,omitempty"`
}

func cmdCheckout(ctx context.Context, a *app, args []string) error {
	fs := newFlags("checkout", a.errOut)
	slug := fs.String("shop", "", "shop slug (default: active shop)")
	method := fs.String("method", "home", "home or pickup")
	saved := fs.Int64("address", 0, "saved address id")
	street := fs.String("street", "", "street")
	number := fs.String("number", "", "street number")
	floor := fs.String("floor", "", "floor")
	apt := fs.String("apt", "", "apartment")
	city := fs.String("city", "", "city")
	province := fs.String("province", "", "province")
	postal := fs.String("postal", "", "postal code")
	save := fs.Bool("save", false, "save the new address")
	wait := fs.Bool("wait", false, "wait for the payment return on the local return address")
	if err := fs.Parse(args); err != nil {
		return err
	}

	req := checkout.Request{}
	switch *method {
	case "home":
		req.Method = model.ShippingHome
	case "pickup":
		req.Method = model.ShippingPickup
	default:
		return fmt.Errorf("unknown -method %q", *method)
	}
	if req.Method == model.ShippingHome {
		if *saved > 0 {
			req.Address.SavedID = *saved
		} else {
			req.Address.New = &model.Address{
				Street: *street, Number: *number, Floor: *floor, Apartment: *apt,
				City: *city, Province: *province, PostalCode: *postal,
			}
			req.Address.Save = *save
		}
	}

	st, err := a.buyer(ctx)
	if err != nil {
		return err
	}
	shop, err := a.openShop(ctx, *slug, "checkout")
	if err != nil {
		return err
	}
	req.Buyer, req.Shop = st.DNI(), shop

	rec, err := a.checkout.Place(ctx, req)
	if err != nil {
		a.reportRedirect()
		return err
	}
	fmt.Fprintln(a.errOut, "open to pay:", rec.PaymentURL)
	view := checkoutView{Order: rec.Order, PaymentURL: rec.PaymentURL}
	if !*wait {
		return printJSON(a.out, view)
	}

	res, err := a.awaitPayment(ctx)
	if err != nil {
		return err
	}
	view.Payment = &res
	view.BackTo = route.Landing
	if last, _, _ := a.store.Get(ctx, storage.KeyActiveShop); last != "" {
		view.BackTo = route.Shop(last, "catalogo")
	}
	return printJSON(a.out, view)
}

// awaitPayment serves the payment return routes until the first result.
func (a *app) awaitPayment(ctx context.Context) (model.PaymentResult, error) {
	results := make(chan model.PaymentResult, 1)
	sink := func(r model.PaymentResult) {
		select {
		case results <- r:
		default:
		}
	}
	lastShop := func(ctx context.Context) string {
		v, _, _ := a.store.Get(ctx, storage.KeyActiveShop)
		return v
	}
	h := payreturn.NewHandler(sink, lastShop, a.log)

	srvCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	errCh := make(chan error, 1)
	go func() { errCh <- payreturn.Serve(srvCtx, a.cfg.PaymentReturnAddr, payreturn.NewRouter(h), a.log) }()
	fmt.Fprintf(a.errOut, "waiting for the payment return on http://%s\n", a.cfg.PaymentReturnAddr)

	select {
	case res := <-results:
		cancel()
		if err := <-errCh; err != nil {
			a.log.Warn("payment return server", zap.Error(err))
		}
		switch res.Outcome {
		case model.PaymentSuccess:
			a.notes.Success("Payment successful", res.OrderRef)
		case model.PaymentFailure:
			a.notes.Error("Payment failed", res.OrderRef)
		default:
			a.notes.Info("Payment pending", res.OrderRef)
		}
		return res, nil
	case err := <-errCh:
		return model.PaymentResult{}, err
	case <-ctx.Done():
		cancel()
		<-errCh
		return model.PaymentResult{}, ctx.Err()
	}
}

func cmdOrders(ctx context.Context, a *app, args []string) error {
	fs := newFlags("orders", a.errOut)
	status := fs.String("status", "", "only orders in this status")
	if err := fs.Parse(args); err != nil {
		return err
	}
	var want model.OrderStatus
	if *status != "" {
		s, ok := model.ParseOrderStatus(*status)
		if !ok {
			return fmt.Errorf("unknown status %q", *status)
		}
		want = s
	}
	_, shop, err := a.vendorStore(ctx)
	if err != nil {
		return err
	}
	a.at(route.Admin(shop.Slug, "pedidos"))
	orders, err := a.api.ShopOrders(ctx, shop.Slug)
	a.reportRedirect()
	if err != nil {
		return err
	}
	out := make([]model.Order, 0, len(orders))
	for _, o := range orders {
		if want == "" || o.Status == want {
			out = append(out, o)
		}
	}
	return printJSON(a.out, out)
}

type orderView struct {
	model.Order
	Next []model.OrderStatus `json:"next,omitempty"`
}

func cmdOrder(ctx context.Context, a *app, args []string) error {
	fs := newFlags("order", a.errOut)
	slug := fs.String("shop", "", "shop slug (default: your store, else the active shop)")
	id := fs.Int64("id", 0, "order id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id <= 0 {
		return errors.New("need -id")
	}
	st, err := a.authenticated(ctx)
	if err != nil {
		return err
	}
	shopSlug := *slug
	owner := false
	if st.VendorStore != nil && (shopSlug == "" || shopSlug == st.VendorStore.Slug) {
		shopSlug, owner = st.VendorStore.Slug, true
		a.at(route.Admin(shopSlug, "pedidos"))
	} else {
		shop, err := a.openShop(ctx, shopSlug, "pedidos")
		if err != nil {
			return err
		}
		shopSlug = shop.Slug
	}
	o, err := a.api.Order(ctx, shopSlug, *id)
	a.reportRedirect()
	if err != nil {
		return err
	}
	view := orderView{Order: *o}
	if owner {
		view.Next = model.NextStatuses(o.Status)
	}
	return printJSON(a.out, view)
}

// cmdOrderStatus moves an order forward. Transitions the lifecycle does not
// allow are refused before calling the API.
func cmdOrderStatus(ctx context.Context, a *app, args []string) error {
	fs := newFlags("order-status", a.errOut)
	id := fs.Int64("id", 0, "order id")
	status := fs.String("status", "", "new status")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id <= 0 {
		return errors.New("need -id")
	}
	to, ok := model.ParseOrderStatus(*status)
	if !ok {
		return fmt.Errorf("unknown status %q", *status)
	}
	_, shop, err := a.vendorStore(ctx)
	if err != nil {
		return err
	}
	a.at(route.Admin(shop.Slug, "pedidos"))
	cur, err := a.api.Order(ctx, shop.Slug, *id)
	if err != nil {
		return err
	}
	if !model.CanTransition(cur.Status, to) {
		return fmt.Errorf("order %d from %s to %s: %w", *id, cur.Status.Label(), to.Label(), errs.ErrInvalidTransition)
	}
	o, err := a.api.UpdateOrderStatus(ctx, shop.Slug, *id, to)
	a.reportRedirect()
	if err != nil {
		return err
	}
	a.notes.Success("Order updated", to.Label())
	return printJSON(a.out, o)
}

func cmdMyOrders(ctx context.Context, a *app, args []string) error {
	fs := newFlags("my-orders", a.errOut)
	slug := fs.String("shop", "", "only orders placed in this shop")
	if err := fs.Parse(args); err != nil {
		return err
	}
	st, err := a.buyer(ctx)
	if err != nil {
		return err
	}
	var orders []model.Order
	if *slug != "" {
		var shop *model.Store
		if shop, err = a.openShop(ctx, *slug, "mis-pedidos"); err != nil {
			return err
		}
		orders, err = a.api.ShopBuyerOrders(ctx, shop.Slug, st.DNI())
	} else {
		a.at(route.MyOrders)
		orders, err = a.api.BuyerOrders(ctx, st.DNI())
	}
	a.reportRedirect()
	if err != nil {
		return err
	}
	if orders == nil {
		orders = []model.Order{}
	}
	return printJSON(a.out, orders)
}

func cmdUsers(ctx context.Context, a *app, _ []string) error {
	if _, err := a.authenticated(ctx); err != nil {
		return err
	}
	a.at("/usuarios")
	users, err := a.api.Users(ctx)
	a.reportRedirect()
	if err != nil {
		return err
	}
	return printJSON(a.out, users)
}
