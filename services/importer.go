package services

import (
	"context"
	"errors"

	"airbnb-dashboard/models"
	"airbnb-dashboard/storage"
	"airbnb-dashboard/utils"
)

// ImportResult summarises one import run.
type ImportResult struct {
	Imported map[string]int
	Skipped  []models.Scope
	Failed   []models.Scope
}

// Total returns the number of imported rows across all scopes.
func (r ImportResult) Total() int {
	n := 0
	for _, c := range r.Imported {
		n += c
	}
	return n
}

// Importer copies per-scope CSV datasets into a database backend.
type Importer struct {
	source  storage.Source
	writer  storage.ListingWriter
	cleaner *Cleaner
	logger  *utils.Logger
}

// NewImporter creates an Importer reading from source and writing to writer.
func NewImporter(source storage.Source, writer storage.ListingWriter, logger *utils.Logger) *Importer {
	return &Importer{
		source:  source,
		writer:  writer,
		cleaner: NewCleaner(logger),
		logger:  logger,
	}
}

// Import loads every scope in turn. A missing dataset is skipped and a failed
// read or write is logged; neither stops the run. Only cancellation of ctx
// is returned as an error.
func (im *Importer) Import(ctx context.Context, scopes []models.Scope) (ImportResult, error) {
	res := ImportResult{Imported: make(map[string]int)}

	for _, scope := range scopes {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		rows, err := im.source.Fetch(ctx, scope)
		if err != nil {
			if errors.Is(err, storage.ErrScopeNotFound) {
				im.logger.Info("[import] No dataset for %s, skipping", scope)
				res.Skipped = append(res.Skipped, scope)
				continue
			}
			im.logger.Error("[import] Reading %s failed: %v", scope, err)
			res.Failed = append(res.Failed, scope)
			continue
		}

		normalised := make([]models.RawRow, len(rows))
		for i, row := range rows {
			normalised[i] = im.cleaner.Normalise(row, scope)
		}
		records := im.cleaner.CoerceAll(normalised, scope)

		if err := im.writer.WriteScope(ctx, scope, records); err != nil {
			im.logger.Error("[import] Writing %s failed: %v", scope, err)
			res.Failed = append(res.Failed, scope)
			continue
		}

		res.Imported[scope.Key()] = len(records)
		im.logger.Info("[import] Imported %d rows from %s", len(records), scope.SourceTag())
	}

	im.logger.Info("[import] Done: %d rows, %d scopes imported, %d skipped, %d failed",
		res.Total(), len(res.Imported), len(res.Skipped), len(res.Failed))
	return res, nil
}

// AllScopes returns every known city in every period.
func AllScopes() []models.Scope {
	out := make([]models.Scope, 0, len(models.KnownCities)*len(models.Periods))
	for _, city := range models.KnownCities {
		for _, p := range models.Periods {
			out = append(out, models.Scope{City: city, Period: p})
		}
	}
	return out
}
