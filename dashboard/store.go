// Package dashboard holds the in-memory record store and the cross-filter
// coordinator that keeps every chart on the same filtered snapshot.
package dashboard

import (
	"context"
	"errors"
	"sync"
	"time"

	"airbnb-dashboard/models"
	"airbnb-dashboard/observability"
	"airbnb-dashboard/services"
	"airbnb-dashboard/storage"
	"airbnb-dashboard/utils"
)

// ErrNoData is returned when a load produced no records at all. It is
// recoverable: the store keeps its previous contents.
var ErrNoData = errors.New("no data loaded")

// StoreOptions tunes how scopes are fetched.
type StoreOptions struct {
	MaxConcurrency int
	MaxRetries     int
	RetryBaseDelay time.Duration
	// RateLimitMs is the minimum gap between starting two fetches; zero disables it.
	RateLimitMs int
}

// Collection is the result of fetching a set of scopes, before it is
// installed in the store.
type Collection struct {
	Records []models.ListingRecord
	Scopes  []models.Scope
	Failed  []models.Scope
}

// RecordStore holds the listing records of the active load scope.
type RecordStore struct {
	source  storage.Source
	cleaner *services.Cleaner
	opts    StoreOptions
	logger  *utils.Logger
	metrics *observability.Metrics

	mu      sync.RWMutex
	records []models.ListingRecord
}

// NewRecordStore creates an empty store backed by source.
func NewRecordStore(source storage.Source, opts StoreOptions, logger *utils.Logger, metrics *observability.Metrics) *RecordStore {
	if opts.MaxConcurrency < 1 {
		opts.MaxConcurrency = 1
	}
	return &RecordStore{
		source:  source,
		cleaner: services.NewCleaner(logger),
		opts:    opts,
		logger:  logger,
		metrics: metrics,
	}
}

// Fetch retrieves and coerces every scope concurrently. A scope that fails
// contributes no records and is reported in Collection.Failed. Records are
// concatenated in scope order regardless of completion order. The only
// error returned is cancellation of ctx.
func (s *RecordStore) Fetch(ctx context.Context, scopes []models.Scope) (Collection, error) {
	unique := dedupeScopes(scopes)
	parts := make([][]models.ListingRecord, len(unique))
	failed := utils.NewKeySet()

	retry := &utils.RetryConfig{
		MaxAttempts: s.opts.MaxRetries,
		BaseDelay:   s.opts.RetryBaseDelay,
		Logger:      s.logger,
	}
	pool := utils.NewWorkerPool(s.opts.MaxConcurrency, s.opts.RateLimitMs)

	for i, scope := range unique {
		pool.Submit(func() {
			var rows []models.RawRow
			err := retry.Do(ctx, "fetch "+scope.String(), func() error {
				var ferr error
				rows, ferr = s.source.Fetch(ctx, scope)
				return ferr
			})
			if err != nil {
				s.logger.Warn("[store] Could not load %s, continuing without it: %v", scope, err)
				failed.Add(scope.Key())
				s.metrics.ScopeFetchFailures.WithLabelValues(scope.City, string(scope.Period)).Inc()
				return
			}
			parts[i] = s.cleaner.CoerceAll(rows, scope)
		})
	}
	pool.Wait()

	if err := ctx.Err(); err != nil {
		return Collection{}, err
	}

	if n := failed.Size(); n > 0 {
		s.logger.Warn("[store] %d of %d scope(s) failed to load", n, len(unique))
	}

	col := Collection{Scopes: unique}
	for i, scope := range unique {
		if failed.Contains(scope.Key()) {
			col.Failed = append(col.Failed, scope)
			continue
		}
		col.Records = append(col.Records, parts[i]...)
	}
	return col, nil
}

// Replace installs a fetched collection, discarding the previous contents.
func (s *RecordStore) Replace(col Collection) {
	s.mu.Lock()
	s.records = col.Records
	s.mu.Unlock()

	s.metrics.RecordsLoaded.Add(float64(len(col.Records)))
	s.metrics.StoreRecords.Set(float64(len(col.Records)))
}

// All returns a copy of the stored records in load order.
func (s *RecordStore) All() []models.ListingRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.ListingRecord, len(s.records))
	copy(out, s.records)
	return out
}

// Len returns the number of stored records.
func (s *RecordStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

func dedupeScopes(scopes []models.Scope) []models.Scope {
	seen := utils.NewKeySet()
	out := make([]models.Scope, 0, len(scopes))
	for _, sc := range scopes {
		if seen.Add(sc.Key()) {
			out = append(out, sc)
		}
	}
	return out
}
