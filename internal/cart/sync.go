// Package cart mirrors the server-side cart of one (buyer, shop) pair.
//
// Every mutation is followed by a full reload; mutations and reloads are
// serialized so an older reload never overwrites a newer mutation.
package cart

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/and161185/storefront/internal/errs"
	"github.com/and161185/storefront/internal/model"
	"github.com/and161185/storefront/internal/route"
)

// Backend is the cart part of the API.
type Backend interface {
	Cart(ctx context.Context, slug string, dni model.DNI) ([]model.CartItem, error)
	AddCartItem(ctx context.Context, slug string, item model.AddCartItem) error
	DeleteCartItem(ctx context.Context, slug string, itemID int64) error
	ClearCart(ctx context.Context, slug string, dni model.DNI) error
}

// Notifier surfaces failures to the user.
type Notifier interface {
	Error(title, text string)
}

// Result is the outcome of a quantity update.
type Result int

const (
	// ResultApplied: the new quantity is on the server.
	ResultApplied Result = iota
	// ResultUnknown: the item may be missing or changed; reload before trusting the view.
	ResultUnknown
	// ResultFailed: nothing changed server-side.
	ResultFailed
)

func (r Result) String() string {
	switch r {
	case ResultApplied:
		return "applied"
	case ResultUnknown:
		return "unknown"
	case ResultFailed:
		return "failed"
	}
	return "invalid"
}

// Synchronizer holds the local view of the bound cart.
type Synchronizer struct {
	backend  Backend
	notifier Notifier
	router   route.Router
	log      *zap.Logger

	opMu sync.Mutex

	mu    sync.RWMutex
	dni   model.DNI
	shop  *model.Store
	items []model.CartItem
	gen   uint64
}

// New constructs an unbound synchronizer. notifier and router may be nil.
func New(b Backend, n Notifier, r route.Router, log *zap.Logger) *Synchronizer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Synchronizer{backend: b, notifier: n, router: r, log: log}
}

func (s *Synchronizer) pair() (model.DNI, *model.Store, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dni, s.shop, s.gen
}

// held fails when the pair was rebound while the caller waited for opMu.
// Callers hold opMu.
func (s *Synchronizer) held(gen uint64) error {
	if _, _, cur := s.pair(); cur != gen {
		return fmt.Errorf("cart rebound before the change was sent: %w", errs.ErrAuthRequired)
	}
	return nil
}

func slugOf(shop *model.Store) string {
	if shop == nil {
		return ""
	}
	return shop.Slug
}

// Bind sets the (buyer, shop) pair. Items are cleared at once when the pair
// changes and reloaded when both sides are present.
func (s *Synchronizer) Bind(ctx context.Context, dni model.DNI, shop *model.Store) error {
	s.mu.Lock()
	if s.dni == dni && slugOf(s.shop) == slugOf(shop) {
		s.shop = shop
		s.mu.Unlock()
		return nil
	}
	s.dni, s.shop = dni, shop
	s.items = nil
	s.gen++
	s.mu.Unlock()

	if !dni.Valid() || shop == nil {
		return nil
	}
	return s.Reload(ctx)
}

// Reload replaces the local items with the server cart.
func (s *Synchronizer) Reload(ctx context.Context) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()
	return s.reloadLocked(ctx)
}

func (s *Synchronizer) reloadLocked(ctx context.Context) error {
	dni, shop, gen := s.pair()
	if !dni.Valid() || shop == nil {
		return nil
	}
	items, err := s.backend.Cart(ctx, shop.Slug, dni)
	if err != nil {
		return fmt.Errorf("load cart: %w", err)
	}
	slices.SortStableFunc(items, func(a, b model.CartItem) int {
		return strings.Compare(strings.ToLower(a.ProductName), strings.ToLower(b.ProductName))
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen {
		s.log.Debug("stale cart reload dropped", zap.String("shop", shop.Slug))
		return nil
	}
	s.items = items
	return nil
}

// Add puts qty units of a product in the cart. Without a buyer it asks for
// login and redirects to the shop login, keeping the current page as the
// return path. A vendor may not buy from their own shop.
func (s *Synchronizer) Add(ctx context.Context, productID int64, qty int) error {
	dni, shop, gen := s.pair()
	if shop == nil {
		return errs.ErrNoActiveShop
	}
	if !dni.Valid() {
		s.notify("Login required", "sign in to add products to your cart")
		if s.router != nil {
			s.router.Redirect(route.ShopLogin(shop.Slug, s.router.CurrentPath()))
		}
		return errs.ErrAuthRequired
	}
	if model.Owns(shop, dni) {
		s.notify("Not allowed", "you cannot buy from your own shop")
		return errs.ErrOwnShop
	}
	if qty < 1 {
		return errs.ErrInvalidQuantity
	}

	s.opMu.Lock()
	defer s.opMu.Unlock()
	if err := s.held(gen); err != nil {
		return err
	}
	err := s.backend.AddCartItem(ctx, shop.Slug, model.AddCartItem{BuyerDNI: dni, ProductID: productID, Quantity: qty})
	if err != nil {
		return fmt.Errorf("add to cart: %w", err)
	}
	return s.reloadLocked(ctx)
}

// Remove deletes one item.
func (s *Synchronizer) Remove(ctx context.Context, itemID int64) error {
	dni, shop, gen := s.pair()
	if shop == nil || !dni.Valid() {
		return errs.ErrAuthRequired
	}
	s.opMu.Lock()
	defer s.opMu.Unlock()
	if err := s.held(gen); err != nil {
		return err
	}
	if err := s.backend.DeleteCartItem(ctx, shop.Slug, itemID); err != nil {
		return fmt.Errorf("remove item %d: %w", itemID, err)
	}
	return s.reloadLocked(ctx)
}

// Clear empties the cart.
func (s *Synchronizer) Clear(ctx context.Context) error {
	dni, shop, gen := s.pair()
	if shop == nil || !dni.Valid() {
		return errs.ErrAuthRequired
	}
	s.opMu.Lock()
	defer s.opMu.Unlock()
	if err := s.held(gen); err != nil {
		return err
	}
	if err := s.backend.ClearCart(ctx, shop.Slug, dni); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return s.reloadLocked(ctx)
}

// UpdateQuantity changes the quantity of an item. The API has no update, so
// this deletes the item and adds it again with the new quantity. The two
// steps are not atomic: a failure after the delete yields ResultUnknown and
// the view is reloaded. Nothing is retried.
func (s *Synchronizer) UpdateQuantity(ctx context.Context, itemID int64, qty int) (Result, error) {
	if qty < 1 {
		return ResultFailed, errs.ErrInvalidQuantity
	}
	dni, shop, gen := s.pair()
	if shop == nil || !dni.Valid() {
		return ResultFailed, errs.ErrAuthRequired
	}

	s.opMu.Lock()
	defer s.opMu.Unlock()
	if err := s.held(gen); err != nil {
		return ResultFailed, err
	}

	item, ok := s.find(itemID)
	if !ok {
		return ResultFailed, fmt.Errorf("item %d: %w", itemID, errs.ErrItemNotFound)
	}
	if item.Quantity == qty {
		return ResultApplied, nil
	}

	if err := s.backend.DeleteCartItem(ctx, shop.Slug, itemID); err != nil {
		if errors.Is(err, errs.ErrNetwork) || errors.Is(err, errs.ErrTimeout) {
			s.reconcile(ctx)
			return ResultUnknown, fmt.Errorf("update item %d: %w: %w", itemID, errs.ErrStateUnknown, err)
		}
		return ResultFailed, fmt.Errorf("update item %d: %w", itemID, err)
	}
	add := model.AddCartItem{BuyerDNI: dni, ProductID: item.ProductID, Quantity: qty}
	if err := s.backend.AddCartItem(ctx, shop.Slug, add); err != nil {
		s.reconcile(ctx)
		return ResultUnknown, fmt.Errorf("update item %d: %w: %w", itemID, errs.ErrStateUnknown, err)
	}
	if err := s.reloadLocked(ctx); err != nil {
		return ResultApplied, err
	}
	return ResultApplied, nil
}

// reconcile reloads after a partial failure; its own error is only logged.
func (s *Synchronizer) reconcile(ctx context.Context) {
	if err := s.reloadLocked(ctx); err != nil {
		s.log.Warn("cart reload after partial update", zap.Error(err))
	}
}

func (s *Synchronizer) find(itemID int64) (model.CartItem, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, it := range s.items {
		if it.ItemID == itemID {
			return it, true
		}
	}
	return model.CartItem{}, false
}

func (s *Synchronizer) notify(title, text string) {
	if s.notifier != nil {
		s.notifier.Error(title, text)
	}
}

// Items returns a copy of the local items, sorted by product name.
func (s *Synchronizer) Items() []model.CartItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.items)
}

// Total is the display total. The order total is computed server-side.
func (s *Synchronizer) Total() decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	total := decimal.Zero
	for _, it := range s.items {
		total = total.Add(it.LineTotal())
	}
	return total
}

// Count is the number of units in the cart.
func (s *Synchronizer) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, it := range s.items {
		n += it.Quantity
	}
	return n
}
