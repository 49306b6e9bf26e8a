package main

import (
	"context"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/and161185/storefront/internal/model"
)

// dashboardView is the seller panel summary.
type dashboardView struct {
	Shop           string          `json:"shop"`
	ActiveProducts int             `json:"activeProducts"`
	PendingOrders  int             `json:"pendingOrders"`
	TotalSold      decimal.Decimal `json:"totalSold"`
}

// summarize counts listed products, orders awaiting the vendor (pending or
// paid) and the revenue of paid and delivered orders.
func summarize(products []model.Product, orders []model.Order) dashboardView {
	var v dashboardView
	for _, p := range products {
		if p.IsActive() {
			v.ActiveProducts++
		}
	}
	for _, o := range orders {
		switch o.Status {
		case model.StatusPending:
			v.PendingOrders++
		case model.StatusPaid:
			v.PendingOrders++
			v.TotalSold = v.TotalSold.Add(o.Total)
		case model.StatusDelivered:
			v.TotalSold = v.TotalSold.Add(o.Total)
		}
	}
	return v
}

func cmdDashboard(ctx context.Context, a *app, _ []string) error {
	_, shop, err := a.vendorStore(ctx)
	if err != nil {
		return err
	}

	var (
		products []model.Product
		orders   []model.Order
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		products, err = a.api.Products(gctx, shop.Slug, "")
		return err
	})
	g.Go(func() (err error) {
		orders, err = a.api.ShopOrders(gctx, shop.Slug)
		return err
	})
	err = g.Wait()
	a.reportRedirect()
	if err != nil {
		return err
	}
	v := summarize(products, orders)
	v.Shop = shop.Slug
	return printJSON(a.out, v)
}
