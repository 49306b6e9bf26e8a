// Package checkout places an order for the bound cart and hands the buyer
// off to the payment processor.
package checkout

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/and161185/storefront/internal/errs"
	"github.com/and161185/storefront/internal/model"
)

// Backend is the part of the API used by checkout.
type Backend interface {
	Addresses(ctx context.Context, dni model.DNI) ([]model.Address, error)
	CreateAddress(ctx context.Context, a model.Address) (*model.Address, error)
	CreateOrder(ctx context.Context, slug string, req model.OrderRequest) (*model.Order, error)
	CreatePayment(ctx context.Context, orderID int64) (*model.PaymentHandoff, error)
}

// Redirector performs the full-page handoff to the payment URL.
type Redirector interface {
	Redirect(url string)
}

// Address selects where a home delivery goes: a saved address by ID, or a
// new one that is optionally saved for later.
type Address struct {
	SavedID int64
	New     *model.Address
	Save    bool
}

// Request is one checkout attempt.
type Request struct {
	Buyer   model.DNI
	Shop    *model.Store
	Method  model.ShippingMethod
	Address Address
}

// Receipt is the result of a successful handoff.
type Receipt struct {
	Order      *model.Order
	PaymentURL string
}

type Service struct {
	backend    Backend
	redirector Redirector
	log        *zap.Logger
}

func New(b Backend, r Redirector, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{backend: b, redirector: r, log: log}
}

// Place creates the order, starts its payment and redirects to the payment
// URL. The redirect happens only when both calls succeed.
func (s *Service) Place(ctx context.Context, req Request) (*Receipt, error) {
	order, err := s.Build(ctx, req)
	if err != nil {
		return nil, err
	}

	created, err := s.backend.CreateOrder(ctx, req.Shop.Slug, order)
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}
	handoff, err := s.backend.CreatePayment(ctx, created.ID)
	if err != nil {
		return nil, fmt.Errorf("start payment for order %d: %w", created.ID, err)
	}
	if handoff == nil || strings.TrimSpace(handoff.URL) == "" {
		return nil, fmt.Errorf("order %d: %w", created.ID, errs.ErrNoPaymentURL)
	}

	s.log.Info("checkout handoff",
		zap.String("shop", req.Shop.Slug),
		zap.Int64("order", created.ID),
		zap.String("method", string(req.Method)))
	if s.redirector != nil {
		s.redirector.Redirect(handoff.URL)
	}
	return &Receipt{Order: created, PaymentURL: handoff.URL}, nil
}

// Build resolves the address and shipping cost into an order request.
// Saving a new address is best-effort and never fails the build.
func (s *Service) Build(ctx context.Context, req Request) (model.OrderRequest, error) {
	if !req.Buyer.Valid() {
		return model.OrderRequest{}, errs.ErrAuthRequired
	}
	if req.Shop == nil {
		return model.OrderRequest{}, errs.ErrNoActiveShop
	}
	if model.Owns(req.Shop, req.Buyer) {
		return model.OrderRequest{}, errs.ErrOwnShop
	}

	out := model.OrderRequest{
		BuyerDNI:       req.Buyer,
		ShippingMethod: req.Method,
		Items:          []model.OrderLine{},
	}
	switch req.Method {
	case model.ShippingPickup:
		out.ShippingAddress = PickupAddress(req.Shop)
		out.ShippingCost = decimal.Zero
	case model.ShippingHome:
		addr, err := s.resolveAddress(ctx, req.Buyer, req.Address)
		if err != nil {
			return model.OrderRequest{}, err
		}
		out.ShippingAddress = addr
		out.ShippingCost = req.Shop.ShippingCost
	default:
		return model.OrderRequest{}, fmt.Errorf("shipping method %q: %w", req.Method, errs.ErrValidation)
	}
	return out, nil
}

// PickupAddress is the address text of an in-store pickup order.
func PickupAddress(shop *model.Store) string {
	name := shop.DisplayName
	if name == "" {
		name = shop.Slug
	}
	return string(model.ShippingPickup) + " - " + name
}

func (s *Service) resolveAddress(ctx context.Context, buyer model.DNI, sel Address) (string, error) {
	if sel.New == nil {
		saved, err := s.backend.Addresses(ctx, buyer)
		if err != nil {
			return "", fmt.Errorf("load addresses: %w", err)
		}
		for _, a := range saved {
			if a.ID == sel.SavedID {
				return a.Format(), nil
			}
		}
		return "", fmt.Errorf("address %d is not one of yours: %w", sel.SavedID, errs.ErrValidation)
	}

	a := *sel.New
	if missing := MissingAddressFields(a); len(missing) > 0 {
		return "", fmt.Errorf("address is missing %s: %w", strings.Join(missing, ", "), errs.ErrValidation)
	}
	if sel.Save {
		a.BuyerDNI = buyer
		if _, err := s.backend.CreateAddress(ctx, a); err != nil {
			s.log.Warn("save address", zap.Error(err))
		}
	}
	return a.Format(), nil
}

// MissingAddressFields names the required fields left blank.
func MissingAddressFields(a model.Address) []string {
	var missing []string
	for _, f := range []struct{ name, value string }{
		{"street", a.Street},
		{"number", a.Number},
		{"city", a.City},
		{"postal code", a.PostalCode},
		{"province", a.Province},
	} {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	return missing
}
