package repo

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib" // registers "pgx" driver for database/sql
)

// OpenPool creates a pgx pool for dsn and verifies the database is reachable.
func OpenPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	// New() does not open connections immediately — the first query or Ping does.
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("repo.OpenPool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("repo.OpenPool: ping: %w", err)
	}
	return pool, nil
}

// OpenSQLDB opens and pings a *sql.DB for dsn using the pgx stdlib driver.
// goose migrations run over database/sql rather than a pgx pool.
func OpenSQLDB(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("repo.OpenSQLDB: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("repo.OpenSQLDB: ping: %w", err)
	}
	return db, nil
}
