package storage

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgxPool is a minimal abstraction over a Postgres connection pool.
// It is implemented by *pgxpool.Pool and pgxmock.PgxPoolIface.
type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// Postgres keeps values in the client_storage table, one namespace per profile.
type Postgres struct {
	pool      PgxPool
	namespace string
}

var _ Storage = (*Postgres)(nil)

// NewPostgres wraps an existing pool.
func NewPostgres(pool PgxPool, namespace string) *Postgres {
	return &Postgres{pool: pool, namespace: namespace}
}

// OpenPostgres creates a new connection pool for the given DSN.
func OpenPostgres(ctx context.Context, dsn, namespace string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return NewPostgres(pool, namespace), nil
}

func (s *Postgres) Get(ctx context.Context, key string) (string, bool, error) {
	const q = `SELECT value FROM client_storage WHERE namespace=$1 AND key=$2`
	var v string
	err := s.pool.QueryRow(ctx, q, s.namespace, key).Scan(&v)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (s *Postgres) Set(ctx context.Context, key, value string) error {
	const q = `INSERT INTO client_storage (namespace, key, value, updated_at) VALUES ($1,$2,$3,now())
ON CONFLICT (namespace, key) DO UPDATE SET value=EXCLUDED.value, updated_at=now()`
	_, err := s.pool.Exec(ctx, q, s.namespace, key, value)
	return err
}

func (s *Postgres) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	const q = `DELETE FROM client_storage WHERE namespace=$1 AND key = ANY($2)`
	_, err := s.pool.Exec(ctx, q, s.namespace, keys)
	return err
}

// Close closes the underlying pool.
func (s *Postgres) Close() { s.pool.Close() }
