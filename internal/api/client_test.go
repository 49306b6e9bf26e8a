package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/and161185/storefront/internal/errs"
	"github.com/and161185/storefront/internal/model"
	"github.com/and161185/storefront/internal/route"
	"github.com/and161185/storefront/internal/storage"
)

func newTestClient(t *testing.T, h http.Handler) (*Client, *storage.Memory, *route.Tracker) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	st := storage.NewMemory()
	tr := route.NewTracker(route.Landing)
	return New(Options{BaseURL: srv.URL}, st, tr, zap.NewNop()), st, tr
}

func TestNormalizeBaseURL(t *testing.T) {
	t.Parallel()
	cases := map[string]string{
		"https://x.io/api/": "https://x.io/api/",
		"https://x.io/api":  "https://x.io/api/",
		"https://x.io/":     "https://x.io/api/",
		"https://x.io":      "https://x.io/api/",
		"":                  "",
	}
	for in, want := range cases {
		require.Equal(t, want, NormalizeBaseURL(in), in)
	}
}

func TestClient_BearerAndJSONContentType(t *testing.T) {
	t.Parallel()
	var gotAuth, gotCT, gotPath string
	c, st, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth, gotCT, gotPath = r.Header.Get("Authorization"), r.Header.Get("Content-Type"), r.URL.Path
		_ = json.NewEncoder(w).Encode(map[string]string{"token": "t-new"})
	}))

	_, err := c.Login(context.Background(), model.Credentials{Email: "a@x.com", Password: "Secret1"})
	require.NoError(t, err)
	require.Empty(t, gotAuth)
	require.Equal(t, "application/json", gotCT)
	require.Equal(t, "/api/auth/login", gotPath)

	require.NoError(t, st.Set(context.Background(), storage.KeyToken, "tok"))
	_, err = c.Login(context.Background(), model.Credentials{})
	require.NoError(t, err)
	require.Equal(t, "Bearer tok", gotAuth)
}

func TestClient_GetHasNoContentType(t *testing.T) {
	t.Parallel()
	var gotCT string
	c, _, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotCT = r.Header.Get("Content-Type")
		_, _ = io.WriteString(w, `[]`)
	}))
	_, err := c.Stores(context.Background())
	require.NoError(t, err)
	require.Empty(t, gotCT)
}

func TestClient_UnauthorizedOnPrivateRouteRedirects(t *testing.T) {
	t.Parallel()
	c, st, tr := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	ctx := context.Background()
	require.NoError(t, st.Set(ctx, storage.KeyToken, "tok"))
	require.NoError(t, st.Set(ctx, storage.KeyUser, `{"dni":1}`))
	require.NoError(t, st.Set(ctx, storage.KeyActiveShop, "s"))
	tr.Navigate(route.Admin("s", "pedidos"))

	_, err := c.ShopOrders(ctx, "s")
	require.ErrorIs(t, err, errs.ErrUnauthorized)
	require.Equal(t, http.StatusUnauthorized, StatusOf(err))

	_, ok, _ := st.Get(ctx, storage.KeyToken)
	require.False(t, ok)
	_, ok, _ = st.Get(ctx, storage.KeyUser)
	require.False(t, ok)
	_, ok, _ = st.Get(ctx, storage.KeyActiveShop)
	require.True(t, ok, "only token and user are cleared by the gateway")

	p, redirected := tr.Redirected()
	require.True(t, redirected)
	require.Equal(t, route.Login, p)
}

func TestClient_ForbiddenOnPublicRouteStays(t *testing.T) {
	t.Parallel()
	c, st, tr := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	ctx := context.Background()
	require.NoError(t, st.Set(ctx, storage.KeyToken, "tok"))
	tr.Navigate(route.Shop("s", "carrito"))

	_, err := c.Cart(ctx, "s", 111)
	require.ErrorIs(t, err, errs.ErrUnauthorized)
	_, ok, _ := st.Get(ctx, storage.KeyToken)
	require.False(t, ok)
	_, redirected := tr.Redirected()
	require.False(t, redirected)
	require.Equal(t, route.Shop("s", "carrito"), tr.CurrentPath())
}

func TestClient_StoreByVendorNoStore(t *testing.T) {
	t.Parallel()
	status := int32(http.StatusForbidden)
	c, st, tr := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/tiendas/vendedor/111", r.URL.Path)
		w.WriteHeader(int(atomic.LoadInt32(&status)))
	}))
	ctx := context.Background()
	require.NoError(t, st.Set(ctx, storage.KeyToken, "tok"))
	tr.Navigate(route.Admin("x"))

	s, err := c.StoreByVendor(ctx, 111)
	require.NoError(t, err)
	require.Nil(t, s)
	_, ok, _ := st.Get(ctx, storage.KeyToken)
	require.True(t, ok, "a denied vendor lookup must keep credentials")
	_, redirected := tr.Redirected()
	require.False(t, redirected)

	atomic.StoreInt32(&status, http.StatusNotFound)
	s, err = c.StoreByVendor(ctx, 111)
	require.NoError(t, err)
	require.Nil(t, s)

	atomic.StoreInt32(&status, http.StatusInternalServerError)
	_, err = c.StoreByVendor(ctx, 111)
	require.Error(t, err)
	require.Equal(t, http.StatusInternalServerError, StatusOf(err))
}

func TestClient_ErrorMessages(t *testing.T) {
	t.Parallel()
	c, _, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/tiendas/nope":
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `{"message":"Tienda no encontrada","code":"SHOP_NOT_FOUND"}`)
		case "/api/tiendas/bad":
			w.WriteHeader(http.StatusBadRequest)
			_, _ = io.WriteString(w, `{"error":"Bad Request"}`)
		default:
			w.WriteHeader(http.StatusBadGateway)
		}
	}))
	ctx := context.Background()

	_, err := c.StoreBySlug(ctx, "nope")
	require.ErrorIs(t, err, errs.ErrNotFound)
	var ae *Error
	require.True(t, errors.As(err, &ae))
	require.Equal(t, "Tienda no encontrada", ae.Message)
	require.Equal(t, "SHOP_NOT_FOUND", ae.Code)

	_, err = c.StoreBySlug(ctx, "bad")
	require.ErrorIs(t, err, errs.ErrBadRequest)
	require.Equal(t, "Bad Request", err.Error())

	_, err = c.StoreBySlug(ctx, "other")
	require.Equal(t, "server error, try again later", err.Error())
	require.False(t, IsTransport(err))
}

func TestClient_NetworkAndTimeout(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()
	c := New(Options{BaseURL: url}, storage.NewMemory(), nil, nil)
	_, err := c.Stores(ctx)
	require.ErrorIs(t, err, errs.ErrNetwork)
	require.True(t, IsTransport(err))
	require.Equal(t, msgNetwork, err.Error())

	release := make(chan struct{})
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	t.Cleanup(slow.Close)
	t.Cleanup(func() { close(release) })
	c = New(Options{BaseURL: slow.URL, Timeout: 50 * time.Millisecond}, storage.NewMemory(), nil, nil)
	_, err = c.Stores(ctx)
	require.ErrorIs(t, err, errs.ErrTimeout)
	require.NotErrorIs(t, err, errs.ErrNetwork)
	require.Equal(t, msgTimeout, err.Error())
}

func TestClient_ReservedCategoryNeverSent(t *testing.T) {
	t.Parallel()
	var calls int32
	c, _, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	ctx := context.Background()
	otros := model.Category{ID: 9, Name: "Otros"}

	_, err := c.CreateCategory(ctx, "s", CategoryInput{Name: "otros"})
	require.ErrorIs(t, err, errs.ErrReservedCategory)
	_, err = c.UpdateCategory(ctx, "s", otros, CategoryInput{Name: "Varios"})
	require.ErrorIs(t, err, errs.ErrReservedCategory)
	_, err = c.UpdateCategory(ctx, "s", model.Category{ID: 2, Name: "Remeras"}, CategoryInput{Name: " OTROS"})
	require.ErrorIs(t, err, errs.ErrReservedCategory)
	require.ErrorIs(t, c.DeleteCategory(ctx, "s", otros), errs.ErrReservedCategory)
	require.Zero(t, atomic.LoadInt32(&calls))
}

func TestClient_CreateOrderSendsEmptyItems(t *testing.T) {
	t.Parallel()
	var body map[string]any
	c, _, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/tiendas/mi-tienda/pedidos", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		_, _ = io.WriteString(w, `{"id":7,"estado":"PENDIENTE","costoEnvio":0}`)
	}))
	o, err := c.CreateOrder(context.Background(), "mi-tienda", model.OrderRequest{
		BuyerDNI:       111,
		ShippingMethod: model.ShippingPickup,
		ShippingCost:   decimal.Zero,
	})
	require.NoError(t, err)
	require.Equal(t, int64(7), o.ID)
	require.Equal(t, model.StatusPending, o.Status)
	require.Equal(t, []any{}, body["items"])
	require.Equal(t, float64(0), body["costoEnvio"])
	require.Equal(t, "Retiro en Tienda", body["metodoEnvio"])
}

func TestClient_AckMessages(t *testing.T) {
	t.Parallel()
	c, _, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/auth/verify":
			require.Equal(t, "abc 1", r.URL.Query().Get("code"))
			_, _ = io.WriteString(w, `Cuenta verificada`)
		case "/api/auth/forgot-password":
			var b map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&b))
			require.Equal(t, float64(111), b["dni"])
			_, _ = io.WriteString(w, `{"message":"enviado"}`)
		default:
			_, _ = io.WriteString(w, `"ok"`)
		}
	}))
	ctx := context.Background()
	msg, err := c.VerifyAccount(ctx, "abc 1")
	require.NoError(t, err)
	require.Equal(t, "Cuenta verificada", msg)
	msg, err = c.ForgotPassword(ctx, 111, "a@x.com")
	require.NoError(t, err)
	require.Equal(t, "enviado", msg)
	msg, err = c.ChangePassword(ctx, "Old1aa", "New1aa")
	require.NoError(t, err)
	require.Equal(t, "ok", msg)
}

func TestClient_SearchEscapesTerm(t *testing.T) {
	t.Parallel()
	c, _, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/tiendas/s/productos/buscar", r.URL.Path)
		require.Equal(t, "remera & short", r.URL.Query().Get("q"))
		_, _ = io.WriteString(w, `[{"id":1,"nombre":"Remera","precio":100,"stock":2}]`)
	}))
	ps, err := c.SearchProducts(context.Background(), "s", "remera & short")
	require.NoError(t, err)
	require.Len(t, ps, 1)
	require.True(t, ps[0].Price.Equal(decimal.NewFromInt(100)))
	require.True(t, strings.HasPrefix(c.BaseURL(), "http://"))
}

func TestClient_RequestIDPerCall(t *testing.T) {
	t.Parallel()
	var ids []string
	c, _, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ids = append(ids, r.Header.Get(RequestIDHeader))
		_ = json.NewEncoder(w).Encode([]model.Store{})
	}))

	for i := 0; i < 2; i++ {
		_, err := c.Stores(context.Background())
		require.NoError(t, err)
	}
	require.Len(t, ids, 2)
	require.Len(t, ids[0], 36)
	require.NotEqual(t, ids[0], ids[1])
}

func TestClient_ListsAcceptArrayAndPage(t *testing.T) {
	t.Parallel()
	bodies := map[string]string{
		"/api/tiendas/s/productos":        `{"content":[{"id":1,"nombre":"Mate"},{"id":2,"nombre":"Termo"}],"totalElements":2}`,
		"/api/tiendas/s/productos/buscar": `[{"id":3,"nombre":"Yerba"}]`,
		"/api/tiendas/s/pedidos":          `{"content":[{"id":9,"estado":"PAGADO"}],"totalPages":1}`,
		"/api/tiendas/s/categorias":       `{"content":[]}`,
		"/api/usuarios/30111222/pedidos":  `null`,
	}
	c, _, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := bodies[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = io.WriteString(w, body)
	}))
	ctx := context.Background()

	ps, err := c.Products(ctx, "s", "")
	require.NoError(t, err)
	require.Len(t, ps, 2)
	require.Equal(t, "Termo", ps[1].Name)

	found, err := c.SearchProducts(ctx, "s", "yerba")
	require.NoError(t, err)
	require.Len(t, found, 1)

	orders, err := c.ShopOrders(ctx, "s")
	require.NoError(t, err)
	require.Len(t, orders, 1)
	require.Equal(t, model.StatusPaid, orders[0].Status)

	cats, err := c.Categories(ctx, "s")
	require.NoError(t, err)
	require.Empty(t, cats)

	mine, err := c.BuyerOrders(ctx, 30111222)
	require.NoError(t, err)
	require.Empty(t, mine)
}

func TestPage_RejectsOtherShapes(t *testing.T) {
	t.Parallel()
	var p page[model.Product]
	require.Error(t, json.Unmarshal([]byte(`"nope"`), &p))
	require.Error(t, json.Unmarshal([]byte(`{"content":{"id":1}}`), &p))
}
