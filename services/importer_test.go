package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"airbnb-dashboard/models"
	"airbnb-dashboard/storage"
)

type mapSource map[string][]models.RawRow

func (m mapSource) Fetch(_ context.Context, scope models.Scope) ([]models.RawRow, error) {
	if scope.City == "broken" {
		return nil, errors.New("disk on fire")
	}
	rows, ok := m[scope.Key()]
	if !ok {
		return nil, fmt.Errorf("%s: %w", scope, storage.ErrScopeNotFound)
	}
	return rows, nil
}

type memWriter struct {
	written map[string][]models.ListingRecord
	failOn  string
}

func (w *memWriter) WriteScope(_ context.Context, scope models.Scope, records []models.ListingRecord) error {
	if scope.Key() == w.failOn {
		return errors.New("write refused")
	}
	w.written[scope.Key()] = records
	return nil
}

func (w *memWriter) Close() error { return nil }

func TestImporterImportsSkipsAndFails(t *testing.T) {
	src := mapSource{
		"berlin_weekday": {{"realSum": "100", "dist": "2"}, {"realSum": "200"}},
		"paris_weekend":  {{"realSum": "300"}},
		"rome_weekday":   {{"realSum": "50"}},
	}
	w := &memWriter{written: make(map[string][]models.ListingRecord), failOn: "rome_weekday"}
	scopes := []models.Scope{
		{City: "berlin", Period: models.Weekday},
		{City: "paris", Period: models.Weekend},
		{City: "vienna", Period: models.Weekday},
		{City: "rome", Period: models.Weekday},
		{City: "broken", Period: models.Weekday},
	}

	res, err := NewImporter(src, w, newTestLogger()).Import(context.Background(), scopes)
	if err != nil {
		t.Fatalf("Import returned error: %v", err)
	}

	if res.Total() != 3 {
		t.Errorf("Total() = %d; want 3", res.Total())
	}
	if len(res.Skipped) != 1 || res.Skipped[0].City != "vienna" {
		t.Errorf("Skipped = %v; want [vienna/weekday]", res.Skipped)
	}
	if len(res.Failed) != 2 {
		t.Errorf("Failed = %v; want rome and broken", res.Failed)
	}

	berlin := w.written["berlin_weekday"]
	if len(berlin) != 2 || berlin[0].City != "berlin" || berlin[0].Source != "berlin_weekdays" {
		t.Errorf("berlin records = %+v", berlin)
	}
	if berlin[1].Dist.Valid {
		t.Error("missing dist should be written as invalid")
	}
}

func TestImporterStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	w := &memWriter{written: make(map[string][]models.ListingRecord)}
	_, err := NewImporter(mapSource{}, w, newTestLogger()).Import(ctx, AllScopes())
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestAllScopes(t *testing.T) {
	scopes := AllScopes()
	if len(scopes) != len(models.KnownCities)*2 {
		t.Fatalf("AllScopes() returned %d scopes", len(scopes))
	}
	if scopes[0] != (models.Scope{City: "amsterdam", Period: models.Weekday}) {
		t.Errorf("first scope = %v", scopes[0])
	}
}
