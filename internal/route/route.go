// Package route names the application surfaces and tracks where the user is.
//
// A Router stands in for browser navigation: components ask it for the
// current path and send redirects through it.
package route

import (
	"net/url"
	"strings"
	"sync"
)

const (
	Landing  = "/"
	Login    = "/login"
	Shops    = "/tiendas"
	Profile  = "/perfil"
	MyOrders = "/mis-compras"
)

// Router exposes the current location and accepts redirects.
type Router interface {
	CurrentPath() string
	Redirect(path string)
}

// IsPublic reports whether a path stays browsable without a session:
// the landing page, the login page and every shop-scoped page.
func IsPublic(path string) bool {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	switch path {
	case Landing, Login, "":
		return true
	}
	return strings.HasPrefix(path, "/tienda/")
}

// Shop is the storefront path of a shop, optionally followed by sub-paths.
func Shop(slug string, parts ...string) string {
	p := "/tienda/" + url.PathEscape(slug)
	for _, part := range parts {
		p += "/" + strings.Trim(part, "/")
	}
	return p
}

// ShopLogin is the shop-scoped login route keeping the page to return to.
func ShopLogin(slug, returnPath string) string {
	p := Shop(slug, "login")
	if returnPath == "" {
		return p
	}
	return p + "?" + url.Values{"return": {returnPath}}.Encode()
}

// Admin is the seller panel path of a shop.
func Admin(slug string, parts ...string) string {
	p := "/admin/" + url.PathEscape(slug)
	for _, part := range parts {
		p += "/" + strings.Trim(part, "/")
	}
	return p
}

// Tracker is a Router that records the current path and the last redirect.
type Tracker struct {
	mu         sync.Mutex
	current    string
	redirected string
}

// NewTracker starts at the given path.
func NewTracker(start string) *Tracker { return &Tracker{current: start} }

// Navigate sets the current path and clears any pending redirect.
func (t *Tracker) Navigate(path string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.current = path
	t.redirected = ""
}

func (t *Tracker) CurrentPath() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.current
}

// Redirect moves to path and remembers it as the redirect target.
func (t *Tracker) Redirect(path string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.current = path
	t.redirected = path
}

// Redirected returns the last redirect target since the previous Navigate.
func (t *Tracker) Redirected() (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.redirected, t.redirected != ""
}
