package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/and161185/storefront/internal/errs"
	"github.com/and161185/storefront/internal/model"
	"github.com/and161185/storefront/internal/storage"
)

// Backend is the part of the API the session needs.
type Backend interface {
	Login(ctx context.Context, creds model.Credentials) (string, error)
	Register(ctx context.Context, reg model.Registration) (string, error)
	UserByDNI(ctx context.Context, dni model.DNI) (*model.User, error)
	// StoreByVendor returns nil, nil when the user owns no store.
	StoreByVendor(ctx context.Context, dni model.DNI) (*model.Store, error)
}

// Store owns the session state and its persisted copy.
//
// Operations run one at a time. Logout does not wait for them: it bumps the
// generation so that a running operation discards its result.
type Store struct {
	backend Backend
	storage storage.Storage
	log     *zap.Logger

	opMu sync.Mutex

	mu    sync.RWMutex
	state State
	gen   uint64
}

// NewStore constructs an unauthenticated session store; call Resolve to load
// the persisted session.
func NewStore(backend Backend, st storage.Storage, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{backend: backend, storage: st, log: log, state: Reset()}
}

// State returns a copy of the current state.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Store) IsVendor() bool        { return s.State().IsVendor() }
func (s *Store) IsAuthenticated() bool { return s.State().IsAuthenticated() }

func (s *Store) generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.gen
}

// commit installs and persists st unless the session was torn down since gen.
func (s *Store) commit(ctx context.Context, gen uint64, st State) (State, error) {
	s.mu.Lock()
	if s.gen != gen {
		cur := s.state
		s.mu.Unlock()
		s.log.Debug("session result discarded", zap.Uint64("gen", gen))
		return cur, nil
	}
	s.state = st
	s.mu.Unlock()
	return st, s.persist(ctx, st.Snapshot())
}

// persist is the single write path: every owned key is set or deleted.
func (s *Store) persist(ctx context.Context, snap Snapshot) error {
	var del []string
	set := func(key, val string) error {
		if val == "" {
			del = append(del, key)
			return nil
		}
		return s.storage.Set(ctx, key, val)
	}
	setJSON := func(key string, v any, present bool) error {
		if !present {
			del = append(del, key)
			return nil
		}
		b, err := json.Marshal(v)
		if err != nil {
			return err
		}
		return s.storage.Set(ctx, key, string(b))
	}
	if err := set(storage.KeyToken, snap.Token); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}
	if err := setJSON(storage.KeyUser, snap.User, snap.User != nil); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}
	if err := setJSON(storage.KeyStore, snap.Store, snap.Store != nil); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}
	if err := set(storage.KeyRole, string(snap.Role)); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}
	if err := set(storage.KeyActiveShop, snap.ActiveShop); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}
	if len(del) == 0 {
		return nil
	}
	if err := s.storage.Delete(ctx, del...); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}
	return nil
}

// load reads the persisted snapshot. Unreadable records are dropped.
func (s *Store) load(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	get := func(key string) (string, error) {
		v, _, err := s.storage.Get(ctx, key)
		return v, err
	}
	var err error
	if snap.Token, err = get(storage.KeyToken); err != nil {
		return snap, err
	}
	if raw, err := get(storage.KeyUser); err != nil {
		return snap, err
	} else if raw != "" {
		var u model.User
		if err := json.Unmarshal([]byte(raw), &u); err != nil {
			s.log.Warn("drop unreadable cached user", zap.Error(err))
		} else {
			snap.User = &u
		}
	}
	if raw, err := get(storage.KeyStore); err != nil {
		return snap, err
	} else if raw != "" {
		var st model.Store
		if err := json.Unmarshal([]byte(raw), &st); err != nil {
			s.log.Warn("drop unreadable cached store", zap.Error(err))
		} else {
			snap.Store = &st
		}
	}
	role, err := get(storage.KeyRole)
	if err != nil {
		return snap, err
	}
	switch Role(role) {
	case RoleVendor, RoleBuyer:
		snap.Role = Role(role)
	}
	if snap.ActiveShop, err = get(storage.KeyActiveShop); err != nil {
		return snap, err
	}
	return snap, nil
}

// Resolve performs the cold start: restore from storage, then reconcile
// the identity and role against the API.
func (s *Store) Resolve(ctx context.Context) (State, error) {
	s.opMu.Lock()
	defer s.opMu.Unlock()
	gen := s.generation()

	snap, err := s.load(ctx)
	if err != nil {
		return s.State(), fmt.Errorf("load session: %w", err)
	}
	prev := s.State()
	st := Restore(snap)
	if prev.Degraded && prev.Token == st.Token {
		st.Degraded = true
	}
	if st, err = s.commit(ctx, gen, st); err != nil {
		return st, err
	}
	if st.Phase == PhaseUnauthenticated {
		return st, nil
	}
	st, err = s.establish(ctx, gen, st, 0)
	if revoked(err) {
		return st, nil
	}
	return st, err
}

// revoked reports whether the API rejected the credentials; the gateway has
// already cleared the stored token and user by then.
func revoked(err error) bool { return errors.Is(err, errs.ErrUnauthorized) }

// expire ends a session whose token the API no longer accepts.
func (s *Store) expire(ctx context.Context, gen uint64, cause error) (State, error) {
	s.log.Info("session token rejected", zap.Error(cause))
	s.abandon(ctx, gen)
	return s.State(), fmt.Errorf("session expired: %w", cause)
}

// establish completes identity and role resolution for a state holding a token.
// hint is an identifier supplied by the caller, tried before the token payload.
func (s *Store) establish(ctx context.Context, gen uint64, st State, hint model.DNI) (State, error) {
	if hint.Valid() && (st.User == nil || st.User.DNI != hint) {
		u, err := s.backend.UserByDNI(ctx, hint)
		switch {
		case err == nil:
			st = ApplyUser(st, u)
		case revoked(err):
			return s.expire(ctx, gen, err)
		default:
			s.log.Debug("user by hint", zap.Stringer("dni", hint), zap.Error(err))
		}
	}
	if st.User == nil || st.Degraded {
		claims, err := DecodeToken(st.Token)
		if err != nil || !claims.DNI.Valid() {
			next, cerr := s.commit(ctx, gen, ApplyFallbackIdentity(st, claims))
			if cerr != nil {
				return next, cerr
			}
			return next, fmt.Errorf("token carries no identifier: %w", errs.ErrSessionUnresolved)
		}
		u, err := s.backend.UserByDNI(ctx, claims.DNI)
		if revoked(err) {
			return s.expire(ctx, gen, err)
		}
		if err != nil {
			s.log.Info("user fetch failed, using token identity", zap.Stringer("dni", claims.DNI), zap.Error(err))
			return s.commit(ctx, gen, ApplyFallbackIdentity(st, claims))
		}
		st = ApplyUser(st, u)
	}
	store, err := s.backend.StoreByVendor(ctx, st.User.DNI)
	if errors.Is(err, errs.ErrNotFound) {
		store, err = nil, nil
	}
	if revoked(err) {
		return s.expire(ctx, gen, err)
	}
	if err != nil {
		s.log.Info("vendor store lookup failed", zap.Stringer("dni", st.User.DNI), zap.Error(err))
	}
	return s.commit(ctx, gen, ApplyStoreLookup(st, StoreLookup{Store: store, Err: err}))
}

// Login authenticates with credentials. When crossCheck is set, the user
// record for that identifier must carry the login email (trimmed,
// case-insensitive); otherwise the token is discarded and the session stays
// logged out.
func (s *Store) Login(ctx context.Context, creds model.Credentials, crossCheck model.DNI) (State, error) {
	s.opMu.Lock()
	defer s.opMu.Unlock()
	gen := s.generation()

	token, err := s.backend.Login(ctx, creds)
	if err != nil {
		return s.State(), err
	}
	// The token goes to storage first so follow-up calls are authenticated.
	if err := s.storage.Set(ctx, storage.KeyToken, token); err != nil {
		return s.State(), fmt.Errorf("store token: %w", err)
	}
	st := WithToken(s.State(), token)

	if !crossCheck.Valid() {
		return s.establish(ctx, gen, st, 0)
	}
	u, err := s.backend.UserByDNI(ctx, crossCheck)
	if err != nil {
		s.abandon(ctx, gen)
		if errors.Is(err, errs.ErrNotFound) {
			return s.State(), fmt.Errorf("dni %s: %w", crossCheck, errs.ErrInvalidDNI)
		}
		return s.State(), fmt.Errorf("dni %s: %w: %w", crossCheck, errs.ErrInvalidDNI, err)
	}
	if !sameEmail(u.Email, creds.Email) {
		s.abandon(ctx, gen)
		return s.State(), errs.ErrDNIMismatch
	}
	return s.establish(ctx, gen, ApplyUser(st, u), 0)
}

// abandon drops a just-issued token and leaves the session logged out.
func (s *Store) abandon(ctx context.Context, gen uint64) {
	st := Reset()
	st.ActiveShop = s.State().ActiveShop
	if _, err := s.commit(ctx, gen, st); err != nil {
		s.log.Warn("discard token", zap.Error(err))
	}
}

func sameEmail(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// Register creates an account and signs it in.
func (s *Store) Register(ctx context.Context, reg model.Registration) (State, error) {
	s.opMu.Lock()
	defer s.opMu.Unlock()
	gen := s.generation()

	token, err := s.backend.Register(ctx, reg)
	if err != nil {
		return s.State(), err
	}
	if err := s.storage.Set(ctx, storage.KeyToken, token); err != nil {
		return s.State(), fmt.Errorf("store token: %w", err)
	}
	return s.establish(ctx, gen, WithToken(s.State(), token), reg.DNI)
}

// Logout clears every persisted session key and resets the state. It makes
// no network call and invalidates any operation in flight.
func (s *Store) Logout(ctx context.Context) error {
	s.mu.Lock()
	s.gen++
	s.state = Reset()
	s.mu.Unlock()
	return s.storage.Delete(ctx, storage.SessionKeys...)
}

// SetActiveShop remembers the shop the buyer is browsing.
func (s *Store) SetActiveShop(ctx context.Context, slug string) error {
	s.mu.Lock()
	s.state.ActiveShop = slug
	s.mu.Unlock()
	if slug == "" {
		return s.storage.Delete(ctx, storage.KeyActiveShop)
	}
	return s.storage.Set(ctx, storage.KeyActiveShop, slug)
}

// SetVendorStore records a store the user just created or configured.
// A store owned by someone else is ignored.
func (s *Store) SetVendorStore(ctx context.Context, store *model.Store) (State, error) {
	s.opMu.Lock()
	defer s.opMu.Unlock()
	gen := s.generation()
	return s.commit(ctx, gen, ApplyStoreLookup(s.State(), StoreLookup{Store: store}))
}

// Sync reconciles with storage changed by another process: a cleared token
// logs out, a different token resolves again, a degraded identity retries.
func (s *Store) Sync(ctx context.Context) (State, error) {
	tok, _, err := s.storage.Get(ctx, storage.KeyToken)
	if err != nil {
		return s.State(), err
	}
	cur := s.State()
	switch {
	case tok == "" && cur.IsAuthenticated():
		s.mu.Lock()
		s.gen++
		s.state = Reset()
		s.mu.Unlock()
		return s.State(), s.storage.Delete(ctx, storage.SessionKeys...)
	case tok != cur.Token, cur.Degraded, cur.Phase == PhaseResolving:
		return s.Resolve(ctx)
	}
	return cur, nil
}
