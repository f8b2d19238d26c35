// Package postgres provides the PostgreSQL persistence adapter: the user
// and contact stores plus embedded schema migrations (via goose).
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Store owns the connection pool and vends the typed stores.
type Store struct {
	pool *pgxpool.Pool
}

// Open connects and pings. The returned Store must be closed by the caller.
func Open(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("open pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return &Store{pool: pool}, nil
}

// Close releases the pool.
func (s *Store) Close() {
	s.pool.Close()
}

// Users returns the account store.
func (s *Store) Users() *UserStore {
	return &UserStore{pool: s.pool}
}

// Contacts returns the contact store.
func (s *Store) Contacts() *ContactStore {
	return &ContactStore{pool: s.pool}
}

// Migrate applies the embedded migrations. It opens a separate
// database/sql connection because goose drives *sql.DB, not pgx pools.
func Migrate(ctx context.Context, dsn string) error {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("open migration connection: %w", err)
	}
	defer db.Close()

	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}
