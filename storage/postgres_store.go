package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"airbnb-dashboard/models"
)

// PostgresStore serves and persists listings in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore opens a connection to PostgreSQL, runs schema migrations,
// and returns a ready-to-use PostgresStore.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	for i := 0; i < 10; i++ {
		if err = db.PingContext(ctx); err == nil {
			break
		}
		select {
		case <-ctx.Done():
			_ = db.Close()
			return nil, fmt.Errorf("postgres: ping: %w", ctx.Err())
		case <-time.After(2 * time.Second):
		}
	}
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: ping failed after retries: %w", err)
	}

	ps := &PostgresStore{db: db}
	if err := ps.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}

	return ps, nil
}

func (ps *PostgresStore) migrate(ctx context.Context) error {
	_, err := ps.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS listings (
			id                         SERIAL PRIMARY KEY,
			city                       TEXT NOT NULL,
			period                     TEXT NOT NULL,
			lat                        DOUBLE PRECISION,
			lng                        DOUBLE PRECISION,
			room_type                  TEXT NOT NULL DEFAULT '',
			person_capacity            DOUBLE PRECISION,
			"realSum"                  DOUBLE PRECISION,
			guest_satisfaction_overall DOUBLE PRECISION,
			cleanliness_rating         DOUBLE PRECISION,
			dist                       DOUBLE PRECISION,
			metro_dist                 DOUBLE PRECISION,
			attr_index                 DOUBLE PRECISION,
			rest_index                 DOUBLE PRECISION,
			bedrooms                   DOUBLE PRECISION
		);

		CREATE INDEX IF NOT EXISTS idx_listings_city_period ON listings(city, period);
	`)
	return err
}

// WriteScope replaces every row of scope with records in one transaction.
func (ps *PostgresStore) WriteScope(ctx context.Context, scope models.Scope, records []models.ListingRecord) error {
	tx, err := ps.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("postgres: begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx,
		"DELETE FROM listings WHERE city = $1 AND period = $2",
		scope.City, string(scope.Period)); err != nil {
		return fmt.Errorf("postgres: clear %s: %w", scope, err)
	}

	const batchSize = 50
	for i := 0; i < len(records); i += batchSize {
		end := i + batchSize
		if end > len(records) {
			end = len(records)
		}
		query, args := insertStatement(records[i:end], func(n int) string {
			return fmt.Sprintf("$%d", n)
		})
		if _, err = tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("postgres: insert %s: %w", scope, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("postgres: commit: %w", err)
	}
	return nil
}

// Fetch retrieves the stored rows of one scope in insertion order.
func (ps *PostgresStore) Fetch(ctx context.Context, scope models.Scope) ([]models.RawRow, error) {
	rows, err := ps.db.QueryContext(ctx,
		"SELECT "+quotedColumns()+" FROM listings WHERE city = $1 AND period = $2 ORDER BY id",
		scope.City, string(scope.Period))
	if err != nil {
		return nil, fmt.Errorf("postgres: fetch %s: %w", scope, err)
	}
	defer rows.Close()

	out, err := scanRawRows(rows)
	if err != nil {
		return nil, fmt.Errorf("postgres: %w", err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("postgres: %s: %w", scope, ErrScopeNotFound)
	}
	return out, nil
}

// Count returns the total number of stored listings.
func (ps *PostgresStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := ps.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM listings").Scan(&n); err != nil {
		return 0, fmt.Errorf("postgres: count: %w", err)
	}
	return n, nil
}

func (ps *PostgresStore) Close() error {
	return ps.db.Close()
}
