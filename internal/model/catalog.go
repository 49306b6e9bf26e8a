package model

import (
	"cmp"
	"slices"
	"strings"
)

// ProductOrder is a catalog ordering.
type ProductOrder string

const (
	OrderNameAsc   ProductOrder = "a-z"
	OrderNameDesc  ProductOrder = "z-a"
	OrderPriceAsc  ProductOrder = "precio-menor"
	OrderPriceDesc ProductOrder = "precio-mayor"
	OrderNewest    ProductOrder = "nuevos"
	OrderOldest    ProductOrder = "viejos"
)

// DefaultProductOrder lists the newest products first.
const DefaultProductOrder = OrderNewest

var productOrders = []ProductOrder{OrderNameAsc, OrderNameDesc, OrderPriceAsc, OrderPriceDesc, OrderNewest, OrderOldest}

// ParseProductOrder accepts one of the catalog orderings; empty means newest first.
func ParseProductOrder(s string) (ProductOrder, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return DefaultProductOrder, true
	}
	for _, o := range productOrders {
		if string(o) == s {
			return o, true
		}
	}
	return "", false
}

// SortProducts orders ps in place. Names compare case-insensitively, newest
// means highest id. Ties keep their incoming order.
func SortProducts(ps []Product, o ProductOrder) {
	byName := func(a, b Product) int {
		return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	}
	var fn func(a, b Product) int
	switch o {
	case OrderNameAsc:
		fn = byName
	case OrderNameDesc:
		fn = func(a, b Product) int { return byName(b, a) }
	case OrderPriceAsc:
		fn = func(a, b Product) int { return a.Price.Cmp(b.Price) }
	case OrderPriceDesc:
		fn = func(a, b Product) int { return b.Price.Cmp(a.Price) }
	case OrderOldest:
		fn = func(a, b Product) int { return cmp.Compare(a.ID, b.ID) }
	default:
		fn = func(a, b Product) int { return cmp.Compare(b.ID, a.ID) }
	}
	slices.SortStableFunc(ps, fn)
}
