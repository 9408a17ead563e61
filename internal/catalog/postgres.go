package catalog

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"strings"

	migrate "github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5" // registers the pgx5:// scheme
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

const (
	selectPriceSQL = `SELECT unit_price::text FROM catalog_products WHERE name = $1 AND unit = $2`
	existsSQL      = `SELECT EXISTS (SELECT 1 FROM catalog_products WHERE name = $1 AND unit = $2)`
	upsertPriceSQL = `INSERT INTO catalog_products (name, unit, unit_price) VALUES ($1, $2, $3::numeric)
ON CONFLICT (name, unit) DO UPDATE SET unit_price = EXCLUDED.unit_price, updated_at = now()`
)

type queryProvider interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresStore reads unit prices from the catalog_products table.
type PostgresStore struct {
	queries queryProvider
}

// NewPostgresStore constructs a store on top of a pgx pool or connection.
func NewPostgresStore(q queryProvider) (*PostgresStore, error) {
	if q == nil {
		return nil, errors.New("catalog: queries provider is required")
	}
	return &PostgresStore{queries: q}, nil
}

// AddProduct upserts the unit price of p.
func (s *PostgresStore) AddProduct(ctx context.Context, p Product, price decimal.Decimal) error {
	if err := validatePrice(price); err != nil {
		return err
	}
	if _, err := s.queries.Exec(ctx, upsertPriceSQL, p.Name, p.Unit.String(), price.String()); err != nil {
		return fmt.Errorf("catalog: upsert %s: %w", p, err)
	}
	return nil
}

// UnitPrice selects the unit price of p.
func (s *PostgresStore) UnitPrice(ctx context.Context, p Product) (decimal.Decimal, error) {
	var raw string
	if err := s.queries.QueryRow(ctx, selectPriceSQL, p.Name, p.Unit.String()).Scan(&raw); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, NotFound(p)
		}
		return decimal.Zero, fmt.Errorf("catalog: select %s: %w", p, err)
	}
	price, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("catalog: decode price for %s: %w", p, err)
	}
	return price, nil
}

// Contains reports whether p has a row.
func (s *PostgresStore) Contains(ctx context.Context, p Product) (bool, error) {
	var exists bool
	if err := s.queries.QueryRow(ctx, existsSQL, p.Name, p.Unit.String()).Scan(&exists); err != nil {
		return false, fmt.Errorf("catalog: exists %s: %w", p, err)
	}
	return exists, nil
}

// Migrate applies the embedded catalog schema migrations.
func Migrate(databaseURL string) error {
	src, err := iofs.New(migrationFS, "migrations")
	if err != nil {
		return fmt.Errorf("catalog: open migrations: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, MigrationURL(databaseURL))
	if err != nil {
		return fmt.Errorf("catalog: init migrate: %w", err)
	}
	defer func() { _, _ = m.Close() }()
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("catalog: migrate up: %w", err)
	}
	return nil
}

// MigrationURL rewrites a postgres:// URL into the pgx5:// form expected by
// the migrate driver.
func MigrationURL(databaseURL string) string {
	trimmed := strings.TrimSpace(databaseURL)
	for _, prefix := range []string{"postgresql://", "postgres://"} {
		if strings.HasPrefix(trimmed, prefix) {
			return "pgx5://" + strings.TrimPrefix(trimmed, prefix)
		}
	}
	return trimmed
}
