package storage

import (
	"context"
	"errors"

	"airbnb-dashboard/models"
)

// ErrScopeNotFound is returned by a Source that has no dataset for a scope.
var ErrScopeNotFound = errors.New("no dataset for scope")

// ErrUnknownSource is returned for an unsupported DATA_SOURCE value.
var ErrUnknownSource = errors.New("unknown data source")

// Source yields the raw rows of one (city, period) dataset.
type Source interface {
	Fetch(ctx context.Context, scope models.Scope) ([]models.RawRow, error)
}

// ListingWriter is the interface any database backend must satisfy for import.
// WriteScope replaces every stored row of scope with records.
type ListingWriter interface {
	WriteScope(ctx context.Context, scope models.Scope, records []models.ListingRecord) error
	Close() error
}

// Backend is a database that can both serve and store listings.
type Backend interface {
	Source
	ListingWriter
	Count(ctx context.Context) (int, error)
}
