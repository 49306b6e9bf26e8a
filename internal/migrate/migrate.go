// Package migrate keeps the client_storage schema of the postgres backend current.
package migrate

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"

	"github.com/and161185/storefront/migrations"
)

// Up applies pending migrations against dsn.
func Up(ctx context.Context, dsn string, log *zap.Logger) error {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	applied, err := apply(ctx, db)
	if err != nil {
		return err
	}
	for _, v := range applied {
		log.Info("storage migration applied", zap.Int64("version", v))
	}
	return nil
}

// apply runs pending migrations and returns the versions it applied.
func apply(ctx context.Context, db *sql.DB) ([]int64, error) {
	p, err := goose.NewProvider(goose.DialectPostgres, db, migrations.FS)
	if err != nil {
		return nil, fmt.Errorf("migration provider: %w", err)
	}
	res, err := p.Up(ctx)
	if err != nil {
		return nil, err
	}
	versions := make([]int64, 0, len(res))
	for _, r := range res {
		versions = append(versions, r.Source.Version)
	}
	return versions, nil
}
