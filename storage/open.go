package storage

import (
	"context"
	"fmt"
	"strings"

	"airbnb-dashboard/config"
)

// Open returns the listing source selected by cfg.DataSource, plus a close
// function for it.
func Open(ctx context.Context, cfg *config.Config) (Source, func() error, error) {
	switch strings.ToLower(cfg.DataSource) {
	case "csv":
		return NewCSVSource(cfg.DataDir), func() error { return nil }, nil
	case "sqlite", "postgres":
		b, err := OpenBackend(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		return b, b.Close, nil
	}
	return nil, nil, fmt.Errorf("storage: %w: %q", ErrUnknownSource, cfg.DataSource)
}

// OpenBackend opens the database named by cfg.DataSource.
func OpenBackend(ctx context.Context, cfg *config.Config) (Backend, error) {
	switch strings.ToLower(cfg.DataSource) {
	case "sqlite":
		return OpenSQLite(cfg.SQLitePath)
	case "postgres":
		return NewPostgresStore(ctx, cfg.DSN())
	}
	return nil, fmt.Errorf("storage: %w: %q is not a database", ErrUnknownSource, cfg.DataSource)
}
