// Package session reconciles the bearer token, the cached user and the
// vendor store into one authenticated identity.
//
// The transition functions in this file are pure: they take the current
// state plus the outcome of a fetch and return the next state. Store drives
// them against the API and persists every result.
package session

import (
	"github.com/and161185/storefront/internal/model"
)

// Phase is the resolution stage of a session.
type Phase int

const (
	PhaseUnauthenticated Phase = iota
	PhaseResolving
	PhaseVendor
	PhaseBuyer
)

func (p Phase) String() string {
	switch p {
	case PhaseUnauthenticated:
		return "unauthenticated"
	case PhaseResolving:
		return "resolving"
	case PhaseVendor:
		return "vendor"
	case PhaseBuyer:
		return "buyer"
	}
	return "unknown"
}

// Role is the persisted user kind. The empty role means unresolved.
type Role string

const (
	RoleUnknown Role = ""
	RoleVendor  Role = "vendedor"
	RoleBuyer   Role = "comprador"
)

// State is the in-memory session.
type State struct {
	Phase       Phase
	Token       string
	User        *model.User
	Role        Role
	VendorStore *model.Store
	ActiveShop  string
	// Degraded is set while the identity comes from the token payload only.
	Degraded bool
}

// IsVendor is true when a vendor store is resolved or the role says vendor.
func (s State) IsVendor() bool { return s.VendorStore != nil || s.Role == RoleVendor }

// IsAuthenticated reports whether a token is held.
func (s State) IsAuthenticated() bool { return s.Token != "" }

// DNI returns the identifier of the session user, or 0.
func (s State) DNI() model.DNI {
	if s.User == nil {
		return 0
	}
	return s.User.DNI
}

// Snapshot is what durable storage holds for a session.
type Snapshot struct {
	Token      string
	User       *model.User
	Store      *model.Store
	Role       Role
	ActiveShop string
}

// Snapshot returns the persistable part of the state.
func (s State) Snapshot() Snapshot {
	return Snapshot{
		Token:      s.Token,
		User:       s.User,
		Store:      s.VendorStore,
		Role:       s.Role,
		ActiveShop: s.ActiveShop,
	}
}

// trusted returns store only if it belongs to user.
func trusted(store *model.Store, user *model.User) *model.Store {
	if user == nil || !model.Owns(store, user.DNI) {
		return nil
	}
	return store
}

// Restore builds the cold-start state from storage. A token moves the
// session to resolving; the cached role is kept for instant rendering and
// the cached store only if it belongs to the cached user.
func Restore(snap Snapshot) State {
	if snap.Token == "" {
		return State{Phase: PhaseUnauthenticated, ActiveShop: snap.ActiveShop}
	}
	st := State{
		Phase:      PhaseResolving,
		Token:      snap.Token,
		User:       snap.User,
		Role:       snap.Role,
		ActiveShop: snap.ActiveShop,
	}
	if st.User != nil && !st.User.DNI.Valid() {
		st.User = nil
	}
	st.VendorStore = trusted(snap.Store, st.User)
	return st
}

// WithToken starts a fresh identity for a newly issued token.
func WithToken(st State, token string) State {
	return State{Phase: PhaseResolving, Token: token, ActiveShop: st.ActiveShop}
}

// ApplyUser installs the authoritative user record.
func ApplyUser(st State, u *model.User) State {
	if u == nil {
		return st
	}
	st.User = u
	st.Degraded = false
	st.VendorStore = trusted(st.VendorStore, u)
	if st.Phase == PhaseUnauthenticated {
		return st
	}
	st.Phase = PhaseResolving
	return st
}

// ApplyFallbackIdentity keeps the token-derived identity when the user
// record cannot be fetched. The role stays unresolved.
func ApplyFallbackIdentity(st State, c Claims) State {
	st.Degraded = true
	st.Phase = PhaseResolving
	st.Role = RoleUnknown
	if !c.DNI.Valid() {
		st.User = nil
		st.VendorStore = nil
		return st
	}
	st.User = &model.User{DNI: c.DNI, Email: c.Email, Name: c.Name, Surname: c.Surname}
	st.VendorStore = trusted(st.VendorStore, st.User)
	return st
}

// StoreLookup is the outcome of fetching the vendor store of the session user.
// Store nil with Err nil means the user owns no store.
type StoreLookup struct {
	Store *model.Store
	Err   error
}

// ApplyStoreLookup derives the role from the authoritative store lookup.
// A transient failure falls back to the cached store (when still owned),
// then to the cached role, then to buyer.
func ApplyStoreLookup(st State, l StoreLookup) State {
	if st.User == nil || st.Phase == PhaseUnauthenticated {
		return st
	}
	if l.Err == nil {
		if owned := trusted(l.Store, st.User); owned != nil {
			st.VendorStore, st.Role, st.Phase = owned, RoleVendor, PhaseVendor
			return st
		}
		st.VendorStore, st.Role, st.Phase = nil, RoleBuyer, PhaseBuyer
		return st
	}
	st.VendorStore = trusted(st.VendorStore, st.User)
	switch {
	case st.VendorStore != nil:
		st.Role, st.Phase = RoleVendor, PhaseVendor
	case st.Role == RoleVendor:
		st.Phase = PhaseVendor
	default:
		st.Role, st.Phase = RoleBuyer, PhaseBuyer
	}
	return st
}

// Reset is the logged-out state.
func Reset() State { return State{Phase: PhaseUnauthenticated} }
