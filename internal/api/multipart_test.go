package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/and161185/storefront/internal/model"
)

func TestUpdateStore_Multipart(t *testing.T) {
	t.Parallel()
	c, _, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPatch, r.Method)
		require.True(t, strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data; boundary="))
		require.NoError(t, r.ParseMultipartForm(1<<20))

		var meta map[string]any
		require.NoError(t, json.Unmarshal([]byte(r.FormValue("tienda")), &meta))
		require.Equal(t, "mi-tienda", meta["nombreUrl"])
		require.Equal(t, 150.5, meta["costoEnvio"])

		require.Len(t, r.MultipartForm.File["file"], 1)
		require.Equal(t, "logo.png", r.MultipartForm.File["file"][0].Filename)
		require.Equal(t, "image/png", r.MultipartForm.File["file"][0].Header.Get("Content-Type"))
		require.Len(t, r.MultipartForm.File["banners"], 2)

		f, err := r.MultipartForm.File["banners"][1].Open()
		require.NoError(t, err)
		b, _ := io.ReadAll(f)
		require.Equal(t, "b2", string(b))
		_, _ = io.WriteString(w, `{"nombreUrl":"mi-tienda","vendedorDni":111}`)
	}))

	st, err := c.UpdateStore(context.Background(), "mi-tienda", StoreForm{
		Store: model.Store{Slug: "mi-tienda", DisplayName: "Mi Tienda", VendorDNI: 111, ShippingCost: decimal.RequireFromString("150.5")},
		Logo:  &File{Name: "logo.png", ContentType: "image/png", Content: strings.NewReader("png")},
		Banners: []File{
			{Name: "b1.jpg", Content: strings.NewReader("b1")},
			{Name: "b2.jpg", Content: strings.NewReader("b2")},
		},
	})
	require.NoError(t, err)
	require.Equal(t, model.DNI(111), st.VendorDNI)
}

func TestCreateProduct_Multipart(t *testing.T) {
	t.Parallel()
	c, _, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/tiendas/s/productos", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		var meta map[string]any
		require.NoError(t, json.Unmarshal([]byte(r.FormValue("producto")), &meta))
		require.Equal(t, float64(3), meta["categoriaId"])
		require.Equal(t, float64(1200), meta["precio"])
		require.Nil(t, meta["descripcion"])
		require.Len(t, r.MultipartForm.File["files"], 1)
		_, _ = io.WriteString(w, `{"id":5,"nombre":"Taza"}`)
	}))
	p, err := c.CreateProduct(context.Background(), "s",
		ProductInput{CategoryID: 3, Name: "Taza", Price: decimal.NewFromInt(1200), Stock: 4},
		[]File{{Name: "taza.jpg", Content: strings.NewReader("img")}})
	require.NoError(t, err)
	require.Equal(t, int64(5), p.ID)
}
