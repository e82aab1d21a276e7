package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"airbnb-dashboard/models"

	_ "modernc.org/sqlite" // SQLite driver.
)

// SQLiteStore serves and persists listings in a local SQLite file.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens or creates the SQLite database and applies migrations.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("sqlite: create dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}
	// A single connection serialises writers and avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	store := &SQLiteStore{db: db}
	if err := store.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: migrate: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS listings (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			city TEXT NOT NULL,
			period TEXT NOT NULL,
			lat REAL,
			lng REAL,
			room_type TEXT,
			person_capacity INTEGER,
			"realSum" REAL,
			guest_satisfaction_overall REAL,
			cleanliness_rating REAL,
			dist REAL,
			metro_dist REAL,
			attr_index REAL,
			rest_index REAL,
			bedrooms INTEGER
		);`,
		`CREATE INDEX IF NOT EXISTS idx_city_period ON listings(city, period);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// WriteScope replaces every row of scope with records in one transaction.
func (s *SQLiteStore) WriteScope(ctx context.Context, scope models.Scope, records []models.ListingRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx,
		`DELETE FROM listings WHERE city = ? AND period = ?`,
		scope.City, string(scope.Period)); err != nil {
		return fmt.Errorf("sqlite: clear %s: %w", scope, err)
	}

	// SQLite caps bind variables per statement; 50 rows stays well under it.
	const batchSize = 50
	for i := 0; i < len(records); i += batchSize {
		end := i + batchSize
		if end > len(records) {
			end = len(records)
		}
		query, args := insertStatement(records[i:end], func(int) string { return "?" })
		if _, err = tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("sqlite: insert %s: %w", scope, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: commit: %w", err)
	}
	return nil
}

// Fetch retrieves the stored rows of one scope in insertion order.
func (s *SQLiteStore) Fetch(ctx context.Context, scope models.Scope) ([]models.RawRow, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+quotedColumns()+` FROM listings WHERE city = ? AND period = ? ORDER BY id`,
		scope.City, string(scope.Period))
	if err != nil {
		return nil, fmt.Errorf("sqlite: fetch %s: %w", scope, err)
	}
	defer rows.Close()

	out, err := scanRawRows(rows)
	if err != nil {
		return nil, fmt.Errorf("sqlite: %w", err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("sqlite: %s: %w", scope, ErrScopeNotFound)
	}
	return out, nil
}

// Count returns the total number of stored listings.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM listings`).Scan(&n); err != nil {
		return 0, fmt.Errorf("sqlite: count: %w", err)
	}
	return n, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
