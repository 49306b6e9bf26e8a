package session

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/and161185/storefront/internal/api"
	"github.com/and161185/storefront/internal/errs"
	"github.com/and161185/storefront/internal/model"
	"github.com/and161185/storefront/internal/storage"
)

type fakeBackend struct {
	mu sync.Mutex

	token    string
	loginErr error
	users    map[model.DNI]*model.User
	userErr  error
	stores   map[model.DNI]*model.Store
	storeErr error

	// gate, when set, blocks StoreByVendor until closed.
	gate chan struct{}

	userCalls  int
	storeCalls int
}

var _ Backend = (*fakeBackend)(nil)

func (f *fakeBackend) Login(context.Context, model.Credentials) (string, error) {
	if f.loginErr != nil {
		return "", f.loginErr
	}
	return f.token, nil
}

func (f *fakeBackend) Register(context.Context, model.Registration) (string, error) {
	return f.token, nil
}

func (f *fakeBackend) UserByDNI(_ context.Context, dni model.DNI) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.userCalls++
	if f.userErr != nil {
		return nil, f.userErr
	}
	u, ok := f.users[dni]
	if !ok {
		return nil, &api.Error{Status: 404, Message: "not found"}
	}
	return u, nil
}

func (f *fakeBackend) StoreByVendor(ctx context.Context, dni model.DNI) (*model.Store, error) {
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.storeCalls++
	if f.storeErr != nil {
		return nil, f.storeErr
	}
	return f.stores[dni], nil
}

const (
	timeout = time.Second
	tick    = 5 * time.Millisecond
)

func tokenFor(t *testing.T, dni model.DNI) string {
	t.Helper()
	return signed(t, jwt.MapClaims{"sub": dni.String(), "email": "a@x.com"})
}

func newStore(t *testing.T, fb *fakeBackend) (*Store, *storage.Memory) {
	t.Helper()
	mem := storage.NewMemory()
	return NewStore(fb, mem, zap.NewNop()), mem
}

func requireKeys(t *testing.T, mem *storage.Memory, present ...string) {
	t.Helper()
	want := map[string]bool{}
	for _, k := range present {
		want[k] = true
	}
	for _, k := range storage.SessionKeys {
		_, ok, err := mem.Get(context.Background(), k)
		require.NoError(t, err)
		require.Equalf(t, want[k], ok, "key %s", k)
	}
}

func TestLogin_CrossCheckMismatch(t *testing.T) {
	t.Parallel()
	fb := &fakeBackend{
		token: tokenFor(t, 111),
		users: map[model.DNI]*model.User{111: {DNI: 111, Email: "b@x.com"}},
	}
	s, mem := newStore(t, fb)

	st, err := s.Login(context.Background(), model.Credentials{Email: "a@x.com", Password: "Secret1"}, 111)
	require.ErrorIs(t, err, errs.ErrDNIMismatch)
	require.NotErrorIs(t, err, errs.ErrUnauthorized)
	require.Equal(t, PhaseUnauthenticated, st.Phase)
	require.False(t, s.IsAuthenticated())
	requireKeys(t, mem)
	require.Zero(t, fb.storeCalls)
}

func TestLogin_CrossCheckEmailNormalized(t *testing.T) {
	t.Parallel()
	fb := &fakeBackend{
		token: tokenFor(t, 111),
		users: map[model.DNI]*model.User{111: {DNI: 111, Email: " A@X.com "}},
	}
	s, mem := newStore(t, fb)

	st, err := s.Login(context.Background(), model.Credentials{Email: "a@x.COM"}, 111)
	require.NoError(t, err)
	require.Equal(t, PhaseBuyer, st.Phase)
	requireKeys(t, mem, storage.KeyToken, storage.KeyUser, storage.KeyRole)
}

func TestLogin_CrossCheckUnknownDNI(t *testing.T) {
	t.Parallel()
	fb := &fakeBackend{token: tokenFor(t, 111), users: map[model.DNI]*model.User{}}
	s, mem := newStore(t, fb)

	_, err := s.Login(context.Background(), model.Credentials{Email: "a@x.com"}, 999)
	require.ErrorIs(t, err, errs.ErrInvalidDNI)
	requireKeys(t, mem)

	fb.userErr = &api.Error{Message: "connection error"}
	_, err = s.Login(context.Background(), model.Credentials{Email: "a@x.com"}, 999)
	require.ErrorIs(t, err, errs.ErrInvalidDNI)
	require.ErrorIs(t, err, errs.ErrNetwork)
	require.False(t, s.IsAuthenticated())
}

func TestLogin_BadCredentialsKeepsState(t *testing.T) {
	t.Parallel()
	fb := &fakeBackend{loginErr: &api.Error{Status: 401, Message: "bad credentials"}}
	s, mem := newStore(t, fb)

	_, err := s.Login(context.Background(), model.Credentials{Email: "a@x.com"}, 0)
	require.ErrorIs(t, err, errs.ErrUnauthorized)
	require.Zero(t, mem.Len())
}

func TestLogin_NoStoreResolvesBuyer(t *testing.T) {
	t.Parallel()
	fb := &fakeBackend{
		token: tokenFor(t, 111),
		users: map[model.DNI]*model.User{111: {DNI: 111, Email: "a@x.com"}},
	}
	s, mem := newStore(t, fb)

	st, err := s.Login(context.Background(), model.Credentials{Email: "a@x.com"}, 0)
	require.NoError(t, err)
	require.Equal(t, PhaseBuyer, st.Phase)
	require.Equal(t, RoleBuyer, st.Role)
	require.False(t, s.IsVendor())
	require.Nil(t, st.VendorStore)
	require.Equal(t, 1, fb.storeCalls)

	role, _, _ := mem.Get(context.Background(), storage.KeyRole)
	require.Equal(t, string(RoleBuyer), role)
}

func TestLogin_VendorPersistsStore(t *testing.T) {
	t.Parallel()
	fb := &fakeBackend{
		token:  tokenFor(t, 111),
		users:  map[model.DNI]*model.User{111: {DNI: 111, Email: "a@x.com"}},
		stores: map[model.DNI]*model.Store{111: {Slug: "mia", VendorDNI: 111}},
	}
	s, mem := newStore(t, fb)

	st, err := s.Login(context.Background(), model.Credentials{Email: "a@x.com"}, 111)
	require.NoError(t, err)
	require.Equal(t, PhaseVendor, st.Phase)
	require.True(t, s.IsVendor())

	raw, ok, _ := mem.Get(context.Background(), storage.KeyStore)
	require.True(t, ok)
	var cached model.Store
	require.NoError(t, json.Unmarshal([]byte(raw), &cached))
	require.Equal(t, "mia", cached.Slug)
}

func TestLogout_ClearsEverything(t *testing.T) {
	t.Parallel()
	fb := &fakeBackend{
		token:  tokenFor(t, 111),
		users:  map[model.DNI]*model.User{111: {DNI: 111, Email: "a@x.com"}},
		stores: map[model.DNI]*model.Store{111: {Slug: "mia", VendorDNI: 111}},
	}
	s, mem := newStore(t, fb)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := s.Login(ctx, model.Credentials{Email: "a@x.com"}, 0)
		require.NoError(t, err)
		require.NoError(t, s.SetActiveShop(ctx, "otra"))
		requireKeys(t, mem, storage.SessionKeys...)

		require.NoError(t, s.Logout(ctx))
		requireKeys(t, mem)
		require.Equal(t, Reset(), s.State())
	}
}

func TestResolve_ColdStart(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("no token", func(t *testing.T) {
		s, _ := newStore(t, &fakeBackend{})
		st, err := s.Resolve(ctx)
		require.NoError(t, err)
		require.Equal(t, PhaseUnauthenticated, st.Phase)
	})

	t.Run("token without cached user", func(t *testing.T) {
		fb := &fakeBackend{users: map[model.DNI]*model.User{111: {DNI: 111, Email: "a@x.com"}}}
		s, mem := newStore(t, fb)
		require.NoError(t, mem.Set(ctx, storage.KeyToken, tokenFor(t, 111)))

		st, err := s.Resolve(ctx)
		require.NoError(t, err)
		require.Equal(t, PhaseBuyer, st.Phase)
		require.Equal(t, model.DNI(111), st.DNI())
		require.False(t, st.Degraded)
	})

	t.Run("user fetch fails keeps token identity", func(t *testing.T) {
		fb := &fakeBackend{userErr: &api.Error{Status: 500, Message: "boom"}}
		s, mem := newStore(t, fb)
		require.NoError(t, mem.Set(ctx, storage.KeyToken, tokenFor(t, 111)))

		st, err := s.Resolve(ctx)
		require.NoError(t, err)
		require.True(t, st.Degraded)
		require.True(t, st.IsAuthenticated())
		require.Equal(t, RoleUnknown, st.Role)
		require.Equal(t, model.DNI(111), st.DNI())
		require.Zero(t, fb.storeCalls)

		fb.userErr = nil
		fb.users = map[model.DNI]*model.User{111: {DNI: 111, Email: "a@x.com"}}
		st, err = s.Sync(ctx)
		require.NoError(t, err)
		require.False(t, st.Degraded)
		require.Equal(t, PhaseBuyer, st.Phase)
	})

	t.Run("token without identifier", func(t *testing.T) {
		s, mem := newStore(t, &fakeBackend{})
		require.NoError(t, mem.Set(ctx, storage.KeyToken, signed(t, jwt.MapClaims{"sub": "a@x.com"})))

		st, err := s.Resolve(ctx)
		require.ErrorIs(t, err, errs.ErrSessionUnresolved)
		require.True(t, st.IsAuthenticated())
		require.Equal(t, PhaseResolving, st.Phase)
	})

	t.Run("transient lookup keeps owned cached store", func(t *testing.T) {
		fb := &fakeBackend{storeErr: &api.Error{Message: "connection error"}}
		s, mem := newStore(t, fb)
		seed(t, mem, tokenFor(t, 111), user111, store111, RoleVendor)

		st, err := s.Resolve(ctx)
		require.NoError(t, err)
		require.Equal(t, PhaseVendor, st.Phase)
		require.Equal(t, "mia", st.VendorStore.Slug)
	})

	t.Run("cached store of another user is invalidated", func(t *testing.T) {
		fb := &fakeBackend{storeErr: &api.Error{Message: "connection error"}}
		s, mem := newStore(t, fb)
		seed(t, mem, tokenFor(t, 111), user111, store222, "")

		st, err := s.Resolve(ctx)
		require.NoError(t, err)
		require.Nil(t, st.VendorStore)
		require.Equal(t, PhaseBuyer, st.Phase)
		_, ok, _ := mem.Get(ctx, storage.KeyStore)
		require.False(t, ok)
	})

	t.Run("authoritative lookup wins over cache", func(t *testing.T) {
		fb := &fakeBackend{}
		s, mem := newStore(t, fb)
		seed(t, mem, tokenFor(t, 111), user111, store111, RoleVendor)

		st, err := s.Resolve(ctx)
		require.NoError(t, err)
		require.Equal(t, 1, fb.storeCalls)
		require.Equal(t, PhaseBuyer, st.Phase)
		require.False(t, st.IsVendor())
	})
}

func TestRegister_UsesSuppliedDNI(t *testing.T) {
	t.Parallel()
	fb := &fakeBackend{
		token: signed(t, jwt.MapClaims{"sub": "a@x.com"}),
		users: map[model.DNI]*model.User{111: {DNI: 111, Email: "a@x.com"}},
	}
	s, _ := newStore(t, fb)

	st, err := s.Register(context.Background(), model.Registration{DNI: 111, Email: "a@x.com"})
	require.NoError(t, err)
	require.Equal(t, PhaseBuyer, st.Phase)
	require.Equal(t, model.DNI(111), st.DNI())
}

func TestSync_StorageClearedElsewhere(t *testing.T) {
	t.Parallel()
	fb := &fakeBackend{
		token: tokenFor(t, 111),
		users: map[model.DNI]*model.User{111: {DNI: 111, Email: "a@x.com"}},
	}
	s, mem := newStore(t, fb)
	ctx := context.Background()
	_, err := s.Login(ctx, model.Credentials{Email: "a@x.com"}, 0)
	require.NoError(t, err)

	require.NoError(t, mem.Delete(ctx, storage.KeyToken))
	st, err := s.Sync(ctx)
	require.NoError(t, err)
	require.Equal(t, PhaseUnauthenticated, st.Phase)
	requireKeys(t, mem)
}

func TestLogout_DiscardsInFlightResolution(t *testing.T) {
	t.Parallel()
	gate := make(chan struct{})
	fb := &fakeBackend{
		token: tokenFor(t, 111),
		users: map[model.DNI]*model.User{111: {DNI: 111, Email: "a@x.com"}},
		gate:  gate,
	}
	s, mem := newStore(t, fb)
	ctx := context.Background()

	done := make(chan error, 1)
	go func() {
		_, err := s.Login(ctx, model.Credentials{Email: "a@x.com"}, 0)
		done <- err
	}()

	require.Eventually(t, func() bool {
		_, ok, _ := mem.Get(ctx, storage.KeyToken)
		return ok
	}, timeout, tick)
	require.NoError(t, s.Logout(ctx))
	close(gate)
	require.NoError(t, <-done)

	require.Equal(t, PhaseUnauthenticated, s.State().Phase)
	requireKeys(t, mem)
}

func TestSetVendorStore_RejectsForeign(t *testing.T) {
	t.Parallel()
	fb := &fakeBackend{
		token: tokenFor(t, 111),
		users: map[model.DNI]*model.User{111: {DNI: 111, Email: "a@x.com"}},
	}
	s, _ := newStore(t, fb)
	ctx := context.Background()
	_, err := s.Login(ctx, model.Credentials{Email: "a@x.com"}, 0)
	require.NoError(t, err)

	st, err := s.SetVendorStore(ctx, store222)
	require.NoError(t, err)
	require.False(t, st.IsVendor())

	st, err = s.SetVendorStore(ctx, store111)
	require.NoError(t, err)
	require.Equal(t, PhaseVendor, st.Phase)
}

func seed(t *testing.T, mem *storage.Memory, token string, u *model.User, st *model.Store, role Role) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, mem.Set(ctx, storage.KeyToken, token))
	ub, _ := json.Marshal(u)
	require.NoError(t, mem.Set(ctx, storage.KeyUser, string(ub)))
	sb, _ := json.Marshal(st)
	require.NoError(t, mem.Set(ctx, storage.KeyStore, string(sb)))
	if role != "" {
		require.NoError(t, mem.Set(ctx, storage.KeyRole, string(role)))
	}
}
