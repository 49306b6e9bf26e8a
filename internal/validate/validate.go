// Package validate holds the client-side checks run before any network call.
//
// Each check returns the first failure as a *FieldError, which matches
// errs.ErrValidation.
package validate

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
	"github.com/shopspring/decimal"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/and161185/storefront/internal/errs"
	"github.com/and161185/storefront/internal/model"
)

const (
	MinPasswordLen    = 6
	MinDNIDigits      = 7
	MaxDescriptionLen = 500
	MinProductNameLen = 3
	MaxProductNameLen = 100
	MaxImageSize      = 5 << 20
	// MaxCustomCategories does not count the reserved bucket.
	MaxCustomCategories = 5
)

// FieldError is a failed check on one input field.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string { return e.Field + ": " + e.Message }

func (e *FieldError) Unwrap() error { return errs.ErrValidation }

func fail(field, format string, args ...any) error {
	return &FieldError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// Required rejects blank values.
func Required(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return fail(field, "is required")
	}
	return nil
}

func Email(email string) error {
	if err := Required("email", email); err != nil {
		return err
	}
	if !strings.Contains(email, "@") {
		return fail("email", "is not a valid address")
	}
	return nil
}

// Password requires MinPasswordLen characters, an uppercase letter and a digit.
func Password(p string) error {
	if utf8.RuneCountInString(p) < MinPasswordLen {
		return fail("password", "must be at least %d characters", MinPasswordLen)
	}
	if !strings.ContainsFunc(p, unicode.IsUpper) {
		return fail("password", "must contain an uppercase letter")
	}
	if !strings.ContainsFunc(p, unicode.IsDigit) {
		return fail("password", "must contain a digit")
	}
	return nil
}

// ParseDNI accepts only digits, at least MinDNIDigits of them.
func ParseDNI(s string) (model.DNI, error) {
	s = strings.TrimSpace(s)
	if len(s) < MinDNIDigits {
		return 0, fail("dni", "must have at least %d digits", MinDNIDigits)
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, fail("dni", "must contain only digits")
		}
	}
	dni, err := model.ParseDNI(s)
	if err != nil {
		return 0, fail("dni", "%v", err)
	}
	return dni, nil
}

// Registration checks a sign-up form.
func Registration(r model.Registration) error {
	if _, err := ParseDNI(r.DNI.String()); err != nil {
		return err
	}
	if err := Required("name", r.Name); err != nil {
		return err
	}
	if err := Required("surname", r.Surname); err != nil {
		return err
	}
	if err := Email(r.Email); err != nil {
		return err
	}
	if err := Password(r.Password); err != nil {
		return err
	}
	if r.Password != r.ConfirmPassword {
		return fail("confirm password", "does not match")
	}
	return nil
}

// Login checks the login form.
func Login(c model.Credentials) error {
	if err := Email(c.Email); err != nil {
		return err
	}
	if len(c.Password) < MinPasswordLen {
		return fail("password", "must be at least %d characters", MinPasswordLen)
	}
	return nil
}

var slugRe = regexp.MustCompile(`^[a-z0-9-]+$`)

// Slug checks a store URL name.
func Slug(s string) error {
	if s == "" {
		return fail("slug", "is required")
	}
	if !slugRe.MatchString(s) {
		return fail("slug", "may contain only lowercase letters, digits and hyphens")
	}
	return nil
}

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify derives a store URL name from its display name.
func Slugify(name string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, strings.ToLower(name))
	if err != nil {
		folded = strings.ToLower(name)
	}
	return strings.Trim(nonAlnum.ReplaceAllString(folded, "-"), "-")
}

// ShippingCost rejects negative costs.
func ShippingCost(c decimal.Decimal) error {
	if c.IsNegative() {
		return fail("shipping cost", "cannot be negative")
	}
	return nil
}

// Store checks the store configuration form.
func Store(s model.Store) error {
	if err := Required("display name", s.DisplayName); err != nil {
		return err
	}
	if err := Slug(s.Slug); err != nil {
		return err
	}
	return ShippingCost(s.ShippingCost)
}

// Product is the product form as entered.
type Product struct {
	Name        string
	Description string
	Price       decimal.Decimal
	Stock       int
	// Images counts kept and new images together.
	Images int
}

func (p Product) Validate() error {
	name := strings.TrimSpace(p.Name)
	if name == "" {
		return fail("name", "is required")
	}
	if n := utf8.RuneCountInString(name); n < MinProductNameLen || n > MaxProductNameLen {
		return fail("name", "must be between %d and %d characters", MinProductNameLen, MaxProductNameLen)
	}
	if !p.Price.IsInteger() || p.Price.LessThan(decimal.NewFromInt(1)) {
		return fail("price", "must be a whole number of at least 1")
	}
	if p.Stock < 1 {
		return fail("stock", "must be at least 1")
	}
	if p.Images < 1 {
		return fail("images", "at least one image is required")
	}
	if utf8.RuneCountInString(p.Description) > MaxDescriptionLen {
		return fail("description", "cannot exceed %d characters", MaxDescriptionLen)
	}
	return nil
}

// CategoryName rejects blank names and the reserved bucket name.
func CategoryName(name string) error {
	if err := Required("category", name); err != nil {
		return err
	}
	if model.IsReservedName(name) {
		return fmt.Errorf("category %q: %w", name, errs.ErrReservedCategory)
	}
	return nil
}

// CanAddCategory enforces the custom category limit of a shop.
func CanAddCategory(existing []model.Category) error {
	n := 0
	for _, c := range existing {
		if !c.IsReserved() {
			n++
		}
	}
	if n >= MaxCustomCategories {
		return fail("category", "limit of %d custom categories reached", MaxCustomCategories)
	}
	return nil
}

// Image checks an upload and returns its detected content type.
func Image(name string, content []byte) (string, error) {
	if len(content) == 0 {
		return "", fail(name, "is empty")
	}
	if len(content) > MaxImageSize {
		return "", fail(name, "exceeds %d MB", MaxImageSize>>20)
	}
	mt := mimetype.Detect(content)
	if !strings.HasPrefix(mt.String(), "image/") {
		return "", fail(name, "is not an image (%s)", mt.String())
	}
	return mt.String(), nil
}
