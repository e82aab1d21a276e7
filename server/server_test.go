package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"airbnb-dashboard/config"
	"airbnb-dashboard/dashboard"
	"airbnb-dashboard/models"
	"airbnb-dashboard/observability"
	"airbnb-dashboard/services"
	"airbnb-dashboard/storage"
	"airbnb-dashboard/utils"
)

type memSource map[string][]models.RawRow

func (m memSource) Fetch(_ context.Context, scope models.Scope) ([]models.RawRow, error) {
	if scope.City == "athens" {
		return nil, fmt.Errorf("upstream exploded")
	}
	rows, ok := m[scope.Key()]
	if !ok {
		return nil, fmt.Errorf("mem: %s: %w", scope, storage.ErrScopeNotFound)
	}
	return rows, nil
}

func newTestRouter(t *testing.T) (http.Handler, *dashboard.Coordinator) {
	t.Helper()
	src := memSource{
		"berlin_weekday": {
			{"realSum": "100", "dist": "1", "lat": "52.5", "lng": "13.4"},
			{"realSum": "200", "dist": "2"},
			{"realSum": "300", "dist": "3"},
		},
		"paris_weekend": {{"realSum": "180", "dist": "0.5"}},
	}
	logger := utils.Discard()
	metrics := observability.NewMetrics("test")
	store := dashboard.NewRecordStore(src, dashboard.StoreOptions{MaxConcurrency: 2, MaxRetries: 1}, logger, metrics)
	coord := dashboard.NewCoordinator(store, services.NewAggregator(config.DefaultAnalytics()), logger, metrics)
	return NewRouter(NewHandlers(coord, src, logger), metrics), coord
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeSnapshot(t *testing.T, rec *httptest.ResponseRecorder) models.Snapshot {
	t.Helper()
	var snap models.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	return snap
}

func TestHealthAndCities(t *testing.T) {
	h, _ := newTestRouter(t)

	rec := do(t, h, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	rec = do(t, h, http.MethodGet, "/api/cities", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var views []models.CityView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &views))
	require.Len(t, views, len(models.KnownCities))
	assert.Equal(t, "amsterdam", views[0].City)
}

func TestGetData(t *testing.T) {
	h, _ := newTestRouter(t)

	rec := do(t, h, http.MethodGet, "/api/data/Berlin/weekdays", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var records []models.ListingRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &records))
	require.Len(t, records, 3)
	assert.Equal(t, "berlin_weekdays", records[0].Source)

	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, "/api/data/berlin/monday", "").Code)
	rec = do(t, h, http.MethodGet, "/api/data/oslo/weekday", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "unknown city oslo")
	assert.Equal(t, http.StatusInternalServerError, do(t, h, http.MethodGet, "/api/data/athens/weekday", "").Code)
}

func TestLoadThenFilter(t *testing.T) {
	h, _ := newTestRouter(t)

	rec := do(t, h, http.MethodPost, "/api/load", `{"scopes":[]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	snap := decodeSnapshot(t, rec)
	assert.Len(t, snap.Records, 3)
	assert.Equal(t, 200.0, snap.PriceStats["berlin"].Median)
	assert.Len(t, snap.GeoPoints, 1)

	rec = do(t, h, http.MethodPut, "/api/filter/max-price", `{"max_price":150}`)
	require.Equal(t, http.StatusOK, rec.Code)
	snap = decodeSnapshot(t, rec)
	require.Len(t, snap.Records, 1)
	assert.Equal(t, models.Num(100), snap.Records[0].RealSum)

	rec = do(t, h, http.MethodGet, "/api/view", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, snap.Generation, decodeSnapshot(t, rec).Generation)
}

func TestSatisfactionNoDataEncodesNull(t *testing.T) {
	h, _ := newTestRouter(t)

	rec := do(t, h, http.MethodGet, "/api/view", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"score":null`)
	assert.NotContains(t, rec.Body.String(), "NaN")
}

func TestSetMaxPriceValidation(t *testing.T) {
	h, _ := newTestRouter(t)

	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPut, "/api/filter/max-price", `{}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPut, "/api/filter/max-price", `{"max_price":-1}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPut, "/api/filter/max-price", `nope`).Code)
}

func TestSetScopeLoadsNewData(t *testing.T) {
	h, coord := newTestRouter(t)

	rec := do(t, h, http.MethodPut, "/api/filter/scope", `{"city":"paris","period":"weekend"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	snap := decodeSnapshot(t, rec)
	assert.Equal(t, "paris", snap.Filter.City)
	require.Len(t, snap.Records, 1)
	require.NotNil(t, snap.View)
	assert.Equal(t, "paris", snap.View.City)

	rec = do(t, h, http.MethodPut, "/api/filter/scope", `{"city":"vienna","period":"weekday"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "no data")
	assert.Equal(t, "vienna", coord.Filter().City)

	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPut, "/api/filter/scope", `{"city":"paris","period":"someday"}`).Code)
}

func TestSetCitiesAndLoadScopes(t *testing.T) {
	h, _ := newTestRouter(t)

	rec := do(t, h, http.MethodPost, "/api/load", `{"scopes":[{"city":"paris","period":"weekend"},{"city":"rome","period":"weekend"}]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, h, http.MethodPut, "/api/filter/scope", `{"city":"","period":"weekend"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, h, http.MethodPut, "/api/filter/cities", `{"cities":["Paris"]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	snap := decodeSnapshot(t, rec)
	assert.Equal(t, []string{"paris"}, snap.Filter.SelectedCities)
	assert.Equal(t, []string{"paris"}, snap.Cities())

	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPost, "/api/load", `{"scopes":[{"city":"paris","period":"x"}]}`).Code)
}

func TestUnknownCitiesRejected(t *testing.T) {
	h, coord := newTestRouter(t)
	before := coord.Filter()

	for _, tc := range []struct{ method, path, body string }{
		{http.MethodPost, "/api/load", `{"scopes":[{"city":"oslo","period":"weekend"}]}`},
		{http.MethodPut, "/api/filter/cities", `{"cities":["paris","oslo"]}`},
		{http.MethodPut, "/api/filter/scope", `{"city":"oslo","period":"weekday"}`},
	} {
		rec := do(t, h, tc.method, tc.path, tc.body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, tc.path)
		assert.Contains(t, rec.Body.String(), "unknown city oslo", tc.path)
	}
	assert.Equal(t, before, coord.Filter(), "rejected requests leave the filter alone")
}

func TestMetricsEndpoint(t *testing.T) {
	h, _ := newTestRouter(t)
	do(t, h, http.MethodPost, "/api/load", `{}`)

	rec := do(t, h, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `test_loads_total{outcome="applied"} 1`)
}

func TestRunShutsDownOnCancel(t *testing.T) {
	h, _ := newTestRouter(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- Run(ctx, "127.0.0.1:0", h, utils.Discard()) }()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
