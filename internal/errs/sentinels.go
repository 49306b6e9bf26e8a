// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import "errors"

// Transport and API sentinels. *api.Error unwraps to one of these.
var (
	// ErrNotFound indicates the requested entity does not exist (HTTP 404).
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized indicates failed authentication/authorization (HTTP 401/403).
	ErrUnauthorized = errors.New("unauthorized")

	// ErrBadRequest indicates the server rejected the payload (HTTP 400).
	ErrBadRequest = errors.New("bad request")

	// ErrConflict indicates a uniqueness or state conflict (HTTP 409).
	ErrConflict = errors.New("conflict")

	// ErrNetwork indicates no response was received from the server.
	ErrNetwork = errors.New("network unavailable")

	// ErrTimeout indicates the request did not complete in time.
	ErrTimeout = errors.New("request timed out")
)

// Domain sentinels raised on the client before or instead of a network call.
var (
	// ErrValidation indicates input rejected by client-side validation.
	ErrValidation = errors.New("validation")

	// ErrAuthRequired indicates the operation needs a logged-in user.
	ErrAuthRequired = errors.New("authentication required")

	// ErrOwnShop indicates a seller tried to buy from their own shop.
	ErrOwnShop = errors.New("cannot buy from your own shop")

	// ErrDNIMismatch indicates the cross-check DNI belongs to another email.
	ErrDNIMismatch = errors.New("dni does not match the login email")

	// ErrInvalidDNI indicates the cross-check DNI could not be resolved.
	ErrInvalidDNI = errors.New("invalid dni")

	// ErrShopNotFound indicates the shop slug does not exist.
	ErrShopNotFound = errors.New("shop not found")

	// ErrNoActiveShop indicates the operation needs a resolved shop context.
	ErrNoActiveShop = errors.New("no active shop")

	// ErrInvalidQuantity indicates a cart quantity below 1.
	ErrInvalidQuantity = errors.New("quantity must be at least 1")

	// ErrItemNotFound indicates a cart item absent from the local view.
	ErrItemNotFound = errors.New("cart item not found")

	// ErrStateUnknown indicates a partially applied multi-step change; reload before trusting local state.
	ErrStateUnknown = errors.New("state unknown, reload required")

	// ErrNoPaymentURL indicates the payment handoff returned no redirect URL.
	ErrNoPaymentURL = errors.New("payment handoff returned no url")

	// ErrReservedCategory indicates an attempt to rename or delete the reserved category.
	ErrReservedCategory = errors.New("reserved category cannot be modified")

	// ErrInvalidTransition indicates an order status change not allowed by the forward-only rule.
	ErrInvalidTransition = errors.New("invalid order status transition")

	// ErrSessionUnresolved indicates the session could not be resolved after all fallbacks.
	ErrSessionUnresolved = errors.New("session could not be resolved")
)
