// Package model defines the domain entities exchanged with the storefront API.
//
// JSON tags follow the backend contract, which is fixed by the server.
package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// The API expects money as JSON numbers.
func init() { decimal.MarshalJSONWithoutQuotes = true }

// DNI is the numeric personal identifier used as the primary key for users.
// The API sends it either as a JSON number or as a numeric string.
type DNI int64

// UnmarshalJSON accepts a number, a numeric string or null.
func (d *DNI) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*d = 0
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		v, err := ParseDNI(s)
		if err != nil {
			return err
		}
		*d = v
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	v, err := ParseDNI(n.String())
	if err != nil {
		return err
	}
	*d = v
	return nil
}

// ParseDNI coerces a decimal string (optionally "123.0") into a DNI.
func ParseDNI(s string) (DNI, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return DNI(i), nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != float64(int64(f)) {
		return 0, fmt.Errorf("dni %q is not an integer", s)
	}
	return DNI(int64(f)), nil
}

func (d DNI) String() string { return strconv.FormatInt(int64(d), 10) }

// Valid reports whether the identifier is set.
func (d DNI) Valid() bool { return d > 0 }

// User is a registered account.
type User struct {
	DNI           DNI    `json:"dni"`
	Name          string `json:"nombre"`
	Surname       string `json:"apellido"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"emailVerificado"`
}

// Registration is the sign-up payload.
type Registration struct {
	DNI             DNI    `json:"dni"`
	Name            string `json:"nombre"`
	Surname         string `json:"apellido"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"-"`
}

// Credentials is the login payload.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthToken is the login/register response.
type AuthToken struct {
	Token string `json:"token"`
}

// Store is a vendor-owned shop. Slug is immutable after creation.
type Store struct {
	Slug         string          `json:"nombreUrl"`
	DisplayName  string          `json:"nombreFantasia"`
	Description  string          `json:"descripcion,omitempty"`
	VendorDNI    DNI             `json:"vendedorDni"`
	ShippingCost decimal.Decimal `json:"costoEnvio"`
	LogoURL      string          `json:"logoUrl,omitempty"`
	Banners      []string        `json:"banners"`
	Vendor       *User           `json:"vendedor,omitempty"`
}

// Owns reports whether the store belongs to the given user. Both the flat
// vendedorDni field and the embedded vendor record are accepted.
func Owns(s *Store, dni DNI) bool {
	if s == nil || !dni.Valid() {
		return false
	}
	if s.VendorDNI == dni {
		return true
	}
	return s.Vendor != nil && s.Vendor.DNI == dni
}

// Category groups products inside one shop.
type Category struct {
	ID          int64  `json:"id"`
	Name        string `json:"nombre"`
	Description string `json:"descripcion,omitempty"`
}

// ReservedCategory is the per-shop bucket that always exists and cannot be renamed or deleted.
const ReservedCategory = "otros"

// IsReserved reports whether the category is the reserved bucket.
func (c Category) IsReserved() bool { return IsReservedName(c.Name) }

// IsReservedName reports whether name denotes the reserved bucket.
func IsReservedName(name string) bool {
	return strings.EqualFold(strings.TrimSpace(name), ReservedCategory)
}

// ReservedIn returns the reserved bucket of a category list, if present.
func ReservedIn(cats []Category) (Category, bool) {
	for _, c := range cats {
		if c.IsReserved() {
			return c, true
		}
	}
	return Category{}, false
}

// Product is a catalog entry of a shop.
type Product struct {
	ID          int64           `json:"id"`
	CategoryID  int64           `json:"categoriaId"`
	Name        string          `json:"nombre"`
	Description string          `json:"descripcion,omitempty"`
	Price       decimal.Decimal `json:"precio"`
	Stock       int             `json:"stock"`
	Images      []string        `json:"imagenes,omitempty"`
	Active      *bool           `json:"activo,omitempty"`
}

// IsActive reports whether the product is listed; a missing flag means active.
func (p Product) IsActive() bool { return p.Active == nil || *p.Active }

// CartItem is one (shop, buyer, product, quantity) association held by the server.
type CartItem struct {
	ItemID      int64           `json:"idItem"`
	ProductID   int64           `json:"productoId"`
	ProductName string          `json:"nombreProducto"`
	UnitPrice   decimal.Decimal `json:"precioUnitario"`
	Price       decimal.Decimal `json:"precio"`
	Quantity    int             `json:"cantidad"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

// LineTotal is the server subtotal when present, else unit price × quantity.
func (it CartItem) LineTotal() decimal.Decimal {
	if !it.Subtotal.IsZero() {
		return it.Subtotal
	}
	price := it.UnitPrice
	if price.IsZero() {
		price = it.Price
	}
	qty := it.Quantity
	if qty == 0 {
		qty = 1
	}
	return price.Mul(decimal.NewFromInt(int64(qty)))
}

// AddCartItem is the add-to-cart payload.
type AddCartItem struct {
	BuyerDNI  DNI   `json:"usuarioDni"`
	ProductID int64 `json:"productoId"`
	Quantity  int   `json:"cantidad"`
}

// ShippingMethod is the delivery option chosen at checkout.
type ShippingMethod string

const (
	ShippingHome   ShippingMethod = "Envío a Domicilio"
	ShippingPickup ShippingMethod = "Retiro en Tienda"
)

// Address is a saved shipping address of a buyer.
type Address struct {
	ID         int64  `json:"id,omitempty"`
	BuyerDNI   DNI    `json:"usuarioDni"`
	Street     string `json:"calle"`
	Number     string `json:"numero"`
	Floor      string `json:"piso,omitempty"`
	Apartment  string `json:"departamento,omitempty"`
	City       string `json:"localidad"`
	Province   string `json:"provincia"`
	PostalCode string `json:"codigoPostal"`
}

// Format renders the address the way orders store it.
func (a Address) Format() string {
	var b strings.Builder
	b.WriteString(a.Street)
	b.WriteString(" ")
	b.WriteString(a.Number)
	if a.Floor != "" {
		b.WriteString(", Piso ")
		b.WriteString(a.Floor)
	}
	if a.Apartment != "" {
		b.WriteString(" Dpto ")
		b.WriteString(a.Apartment)
	}
	fmt.Fprintf(&b, ", %s, %s, CP: %s", a.City, a.Province, a.PostalCode)
	return b.String()
}

// OrderLine is one line of a placed order.
type OrderLine struct {
	ProductID   int64           `json:"productoId"`
	ProductName string          `json:"nombreProducto,omitempty"`
	UnitPrice   decimal.Decimal `json:"precioUnitario"`
	Quantity    int             `json:"cantidad"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

// Order is a placed order.
type Order struct {
	ID              int64           `json:"id"`
	BuyerDNI        DNI             `json:"usuarioDni"`
	Status          OrderStatus     `json:"estado"`
	ShippingAddress string          `json:"direccionEnvio"`
	ShippingMethod  ShippingMethod  `json:"metodoEnvio"`
	ShippingCost    decimal.Decimal `json:"costoEnvio"`
	Items           []OrderLine     `json:"items"`
	Total           decimal.Decimal `json:"total"`
	CreatedAt       string          `json:"fecha,omitempty"`
}

// OrderRequest is the create-order payload. Items are filled server-side from the cart.
type OrderRequest struct {
	BuyerDNI        DNI             `json:"usuarioDni"`
	ShippingAddress string          `json:"direccionEnvio"`
	ShippingMethod  ShippingMethod  `json:"metodoEnvio"`
	ShippingCost    decimal.Decimal `json:"costoEnvio"`
	Items           []OrderLine     `json:"items"`
}

// PaymentHandoff is the payment processor redirect returned for an order.
type PaymentHandoff struct {
	URL string `json:"url"`
}

// PaymentOutcome is the result class reported by the payment processor redirect.
type PaymentOutcome string

const (
	PaymentSuccess PaymentOutcome = "success"
	PaymentFailure PaymentOutcome = "failure"
	PaymentPending PaymentOutcome = "pending"
)

// PaymentResult is what the payment processor reports on its return redirect.
type PaymentResult struct {
	Outcome   PaymentOutcome `json:"outcome"`
	PaymentID string         `json:"paymentId,omitempty"`
	Status    string         `json:"status,omitempty"`
	OrderRef  string         `json:"orderRef,omitempty"`
}
