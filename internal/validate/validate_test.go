package validate

import (
	"bytes"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/and161185/storefront/internal/errs"
	"github.com/and161185/storefront/internal/model"
)

func TestPassword(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in string
		ok bool
	}{
		{"Abc123", true},
		{"Ab1", false},
		{"abcdef1", false},
		{"Abcdefg", false},
		{"ÁBCDE9", true},
	}
	for _, tt := range tests {
		err := Password(tt.in)
		if tt.ok {
			assert.NoError(t, err, tt.in)
		} else {
			assert.ErrorIs(t, err, errs.ErrValidation, tt.in)
		}
	}
}

func TestParseDNI(t *testing.T) {
	t.Parallel()
	dni, err := ParseDNI(" 30111222 ")
	require.NoError(t, err)
	require.Equal(t, model.DNI(30111222), dni)

	_, err = ParseDNI("123456")
	require.ErrorIs(t, err, errs.ErrValidation)

	_, err = ParseDNI("3011122a")
	var fe *FieldError
	require.ErrorAs(t, err, &fe)
	require.Equal(t, "dni", fe.Field)
}

func TestRegistration(t *testing.T) {
	t.Parallel()
	ok := model.Registration{DNI: 30111222, Name: "Ana", Surname: "Paz", Email: "ana@x.com", Password: "Secret1", ConfirmPassword: "Secret1"}
	require.NoError(t, Registration(ok))

	bad := ok
	bad.ConfirmPassword = "Secret2"
	require.ErrorIs(t, Registration(bad), errs.ErrValidation)

	bad = ok
	bad.Email = "ana.x.com"
	require.ErrorIs(t, Registration(bad), errs.ErrValidation)

	bad = ok
	bad.DNI = 12345
	require.ErrorIs(t, Registration(bad), errs.ErrValidation)
}

func TestLogin(t *testing.T) {
	t.Parallel()
	require.NoError(t, Login(model.Credentials{Email: "a@b", Password: "whatever"}))
	require.Error(t, Login(model.Credentials{Email: "a@b", Password: "short"}))
}

func TestSlug(t *testing.T) {
	t.Parallel()
	require.NoError(t, Slug("mi-tienda-2"))
	require.Error(t, Slug("Mi Tienda"))
	require.Error(t, Slug(""))

	assert.Equal(t, "cafe-nino", Slugify("  Café Niño! "))
	assert.Equal(t, "la-tienda-de-jose", Slugify("La Tienda de José"))
	assert.Equal(t, "", Slugify("!!!"))
}

func TestStore(t *testing.T) {
	t.Parallel()
	s := model.Store{Slug: "ok", DisplayName: "Ok", ShippingCost: decimal.NewFromInt(0)}
	require.NoError(t, Store(s))
	s.ShippingCost = decimal.NewFromInt(-1)
	require.ErrorIs(t, Store(s), errs.ErrValidation)
}

func TestProduct(t *testing.T) {
	t.Parallel()
	valid := Product{Name: "Mate", Price: decimal.NewFromInt(1200), Stock: 3, Images: 1}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name  string
		tweak func(*Product)
		field string
	}{
		{"short name", func(p *Product) { p.Name = "ab" }, "name"},
		{"fractional price", func(p *Product) { p.Price = decimal.RequireFromString("10.5") }, "price"},
		{"zero price", func(p *Product) { p.Price = decimal.Zero }, "price"},
		{"no stock", func(p *Product) { p.Stock = 0 }, "stock"},
		{"no images", func(p *Product) { p.Images = 0 }, "images"},
		{"long description", func(p *Product) { p.Description = string(bytes.Repeat([]byte("x"), 501)) }, "description"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			p := valid
			tt.tweak(&p)
			var fe *FieldError
			require.ErrorAs(t, p.Validate(), &fe)
			require.Equal(t, tt.field, fe.Field)
		})
	}
}

func TestCategories(t *testing.T) {
	t.Parallel()
	require.ErrorIs(t, CategoryName(" Otros "), errs.ErrReservedCategory)
	require.ErrorIs(t, CategoryName(""), errs.ErrValidation)
	require.NoError(t, CategoryName("Bebidas"))

	cats := []model.Category{{Name: "otros"}, {Name: "a"}, {Name: "b"}, {Name: "c"}, {Name: "d"}}
	require.NoError(t, CanAddCategory(cats))
	cats = append(cats, model.Category{Name: "e"})
	require.ErrorIs(t, CanAddCategory(cats), errs.ErrValidation)
}

func TestImage(t *testing.T) {
	t.Parallel()
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")
	ct, err := Image("logo.png", png)
	require.NoError(t, err)
	require.Equal(t, "image/png", ct)

	_, err = Image("notes.txt", []byte("plain text"))
	require.ErrorIs(t, err, errs.ErrValidation)

	_, err = Image("huge.png", append(png, make([]byte, MaxImageSize)...))
	require.ErrorIs(t, err, errs.ErrValidation)

	_, err = Image("empty.png", nil)
	require.Error(t, err)
}
