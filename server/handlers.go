// Package server exposes the dashboard over a JSON HTTP API.
package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"sort"

	"github.com/gorilla/mux"

	"airbnb-dashboard/dashboard"
	"airbnb-dashboard/models"
	"airbnb-dashboard/services"
	"airbnb-dashboard/storage"
	"airbnb-dashboard/utils"
)

// Handlers holds the dependencies of the HTTP endpoints.
type Handlers struct {
	coord   *dashboard.Coordinator
	source  storage.Source
	cleaner *services.Cleaner
	logger  *utils.Logger
}

// NewHandlers creates Handlers serving coord, with source backing the raw data route.
func NewHandlers(coord *dashboard.Coordinator, source storage.Source, logger *utils.Logger) *Handlers {
	return &Handlers{
		coord:   coord,
		source:  source,
		cleaner: services.NewCleaner(logger),
		logger:  logger,
	}
}

// HealthCheck reports liveness.
// GET /health
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetCities lists the cities with datasets and their default map views.
// GET /api/cities
func (h *Handlers) GetCities(w http.ResponseWriter, r *http.Request) {
	views := make([]models.CityView, 0, len(models.CityViews))
	for _, v := range models.CityViews {
		views = append(views, v)
	}
	sort.Slice(views, func(i, j int) bool { return views[i].City < views[j].City })
	writeJSON(w, http.StatusOK, views)
}

// GetData returns the coerced records of one dataset straight from the source,
// bypassing the filter.
// GET /api/data/{city}/{period}
func (h *Handlers) GetData(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	scope, err := models.NewScope(vars["city"], vars["period"])
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !models.IsKnownCity(scope.City) {
		writeError(w, http.StatusNotFound, "unknown city "+scope.City)
		return
	}

	rows, err := h.source.Fetch(r.Context(), scope)
	if err != nil {
		if errors.Is(err, storage.ErrScopeNotFound) {
			writeError(w, http.StatusNotFound, "no data for "+scope.String())
			return
		}
		h.logger.Error("[server] Fetching %s failed: %v", scope, err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, h.cleaner.CoerceAll(rows, scope))
}

// GetView returns the current snapshot.
// GET /api/view
func (h *Handlers) GetView(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.coord.Snapshot())
}

// LoadRequest is the body of POST /api/load.
type LoadRequest struct {
	Scopes []struct {
		City   string `json:"city"`
		Period string `json:"period"`
	} `json:"scopes"`
}

// Load replaces the record store with the requested datasets. An empty
// scope list reloads whatever the current filter needs.
// POST /api/load
func (h *Handlers) Load(w http.ResponseWriter, r *http.Request) {
	var req LoadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	scopes := make([]models.Scope, 0, len(req.Scopes))
	for _, s := range req.Scopes {
		scope, err := models.NewScope(s.City, s.Period)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if !models.IsKnownCity(scope.City) {
			writeError(w, http.StatusBadRequest, "unknown city "+scope.City)
			return
		}
		scopes = append(scopes, scope)
	}
	if len(scopes) == 0 {
		scopes = dashboard.ScopesFor(h.coord.Filter())
	}

	res, err := h.coord.Load(r.Context(), scopes)
	h.respondLoad(w, res, err)
}

// FilterCitiesRequest is the body of PUT /api/filter/cities.
type FilterCitiesRequest struct {
	Cities []string `json:"cities"`
}

// SetCities updates the multi-city selection.
// PUT /api/filter/cities
func (h *Handlers) SetCities(w http.ResponseWriter, r *http.Request) {
	var req FilterCitiesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	for _, c := range req.Cities {
		if !models.IsKnownCity(c) {
			writeError(w, http.StatusBadRequest, "unknown city "+c)
			return
		}
	}
	snap, err := h.coord.SetCities(req.Cities)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// FilterPriceRequest is the body of PUT /api/filter/max-price.
type FilterPriceRequest struct {
	MaxPrice *float64 `json:"max_price"`
}

// SetMaxPrice updates the price bound.
// PUT /api/filter/max-price
func (h *Handlers) SetMaxPrice(w http.ResponseWriter, r *http.Request) {
	var req FilterPriceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.MaxPrice == nil {
		writeError(w, http.StatusBadRequest, "max_price is required")
		return
	}
	snap, err := h.coord.SetMaxPrice(*req.MaxPrice)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// FilterScopeRequest is the body of PUT /api/filter/scope.
type FilterScopeRequest struct {
	City   string `json:"city"`
	Period string `json:"period"`
}

// SetScope switches the active city/period and loads the matching datasets.
// PUT /api/filter/scope
func (h *Handlers) SetScope(w http.ResponseWriter, r *http.Request) {
	var req FilterScopeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.City != "" && !models.IsKnownCity(req.City) {
		writeError(w, http.StatusBadRequest, "unknown city "+req.City)
		return
	}
	if _, err := h.coord.SetCityPeriod(req.City, req.Period); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := h.coord.Reload(r.Context())
	h.respondLoad(w, res, err)
}

func (h *Handlers) respondLoad(w http.ResponseWriter, res dashboard.LoadResult, err error) {
	switch {
	case dashboard.IsNoData(err):
		writeJSON(w, http.StatusNotFound, map[string]any{
			"error":  "no data",
			"failed": res.Failed,
		})
	case err != nil:
		h.logger.Error("[server] Load failed: %v", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	case !res.Applied:
		writeJSON(w, http.StatusConflict, map[string]any{
			"error":   "superseded by a newer load",
			"request": res.Request,
		})
	default:
		writeJSON(w, http.StatusOK, h.coord.Snapshot())
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
