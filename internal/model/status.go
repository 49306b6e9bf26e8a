package model

import "strings"

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	StatusPending   OrderStatus = "PENDIENTE"
	StatusPaid      OrderStatus = "PAGADO"
	StatusPreparing OrderStatus = "EN_PREPARACION"
	StatusShipping  OrderStatus = "EN_CAMINO"
	StatusDelivered OrderStatus = "ENTREGADO"
	StatusCancelled OrderStatus = "CANCELADO"
)

// OrderStatuses lists statuses in lifecycle order.
var OrderStatuses = []OrderStatus{
	StatusPending, StatusPaid, StatusPreparing, StatusShipping, StatusDelivered, StatusCancelled,
}

var statusRank = map[OrderStatus]int{
	StatusPending:   0,
	StatusPaid:      1,
	StatusPreparing: 2,
	StatusShipping:  3,
	StatusDelivered: 4,
}

// ParseOrderStatus normalizes user input ("en preparacion", "pagado") to a status.
func ParseOrderStatus(s string) (OrderStatus, bool) {
	norm := OrderStatus(strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), " ", "_")))
	for _, st := range OrderStatuses {
		if st == norm {
			return st, true
		}
	}
	return "", false
}

// Terminal reports whether no further transitions are allowed.
func (s OrderStatus) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// Label is the human form of the status ("EN CAMINO").
func (s OrderStatus) Label() string { return strings.ReplaceAll(string(s), "_", " ") }

// CanTransition reports whether an order may move from one status to another.
// Statuses move forward only; CANCELLED is reachable from PENDING and PAID;
// DELIVERED and CANCELLED are terminal.
func CanTransition(from, to OrderStatus) bool {
	if from == to || from.Terminal() {
		return false
	}
	if to == StatusCancelled {
		return from == StatusPending || from == StatusPaid
	}
	fr, ok1 := statusRank[from]
	tr, ok2 := statusRank[to]
	return ok1 && ok2 && tr > fr
}

// NextStatuses lists the statuses an order in the given status may move to.
func NextStatuses(from OrderStatus) []OrderStatus {
	var out []OrderStatus
	for _, st := range OrderStatuses {
		if CanTransition(from, st) {
			out = append(out, st)
		}
	}
	return out
}
