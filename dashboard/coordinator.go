package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"airbnb-dashboard/models"
	"airbnb-dashboard/observability"
	"airbnb-dashboard/services"
	"airbnb-dashboard/utils"
)

// Renderer draws one chart from a snapshot. Renderers must not mutate the
// snapshot or call back into the coordinator.
type Renderer interface {
	Render(models.Snapshot)
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(models.Snapshot)

// Render calls f(s).
func (f RendererFunc) Render(s models.Snapshot) { f(s) }

// LoadResult describes the outcome of a Load call.
type LoadResult struct {
	// Request is the load generation assigned when the request started.
	Request uint64
	// Applied is false when a newer load started before this one finished;
	// its records were discarded.
	Applied bool
	Records int
	Failed  []models.Scope
}

// Coordinator owns the FilterState, applies it to the RecordStore and
// publishes a single snapshot per update to every subscribed renderer.
type Coordinator struct {
	store   *RecordStore
	agg     *services.Aggregator
	logger  *utils.Logger
	metrics *observability.Metrics

	mu         sync.Mutex
	renderMu   sync.Mutex
	filter     models.FilterState
	latestLoad uint64
	generation uint64
	renderers  []Renderer
	last       models.Snapshot
}

// NewCoordinator creates a Coordinator whose filter starts from the
// aggregator's configured defaults.
func NewCoordinator(store *RecordStore, agg *services.Aggregator, logger *utils.Logger, metrics *observability.Metrics) *Coordinator {
	cfg := agg.Config()
	period, err := models.ParsePeriod(cfg.DefaultPeriod)
	if err != nil {
		period = models.Weekday
	}
	c := &Coordinator{
		store:   store,
		agg:     agg,
		logger:  logger,
		metrics: metrics,
		filter: models.FilterState{
			MaxPrice: cfg.DefaultMaxPrice,
			City:     models.NormaliseCity(cfg.DefaultCity),
			Period:   period,
		},
	}
	c.last = c.buildLocked()
	return c
}

// Subscribe registers a renderer for every future snapshot.
func (c *Coordinator) Subscribe(r Renderer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.renderers = append(c.renderers, r)
}

// Filter returns a copy of the current filter state.
func (c *Coordinator) Filter() models.FilterState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.filter.Clone()
}

// Snapshot returns the most recently published snapshot.
func (c *Coordinator) Snapshot() models.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last
}

// FilteredView returns every stored record matching the current filter,
// in store order. An empty store yields an empty, non-nil slice.
func (c *Coordinator) FilteredView() []models.ListingRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewLocked()
}

func (c *Coordinator) viewLocked() []models.ListingRecord {
	all := c.store.All()
	out := make([]models.ListingRecord, 0, len(all))
	for _, r := range all {
		if c.filter.Matches(r) {
			out = append(out, r)
		}
	}
	return out
}

// SetCities restricts the view to cities; an empty set lifts the restriction.
func (c *Coordinator) SetCities(cities []string) (models.Snapshot, error) {
	return c.update("cities", func(f *models.FilterState) {
		f.SelectedCities = models.CitySet(cities)
	})
}

// SetMaxPrice sets the inclusive upper price bound. Negative and non-finite
// bounds are rejected and leave the filter unchanged.
func (c *Coordinator) SetMaxPrice(p float64) (models.Snapshot, error) {
	return c.update("max_price", func(f *models.FilterState) {
		f.MaxPrice = p
	})
}

// SetCityPeriod sets the active city and period. An empty city switches to
// multi-city mode.
func (c *Coordinator) SetCityPeriod(city, period string) (models.Snapshot, error) {
	p, err := models.ParsePeriod(period)
	if err != nil {
		return models.Snapshot{}, err
	}
	return c.update("scope", func(f *models.FilterState) {
		f.City = models.NormaliseCity(city)
		f.Period = p
	})
}

// update applies mutate to a copy of the filter and publishes it only if the
// result is valid.
func (c *Coordinator) update(kind string, mutate func(*models.FilterState)) (models.Snapshot, error) {
	c.mu.Lock()
	next := c.filter.Clone()
	mutate(&next)
	if err := next.Validate(); err != nil {
		c.mu.Unlock()
		return models.Snapshot{}, err
	}
	c.filter = next
	c.metrics.FilterUpdates.WithLabelValues(kind).Inc()
	return c.publishLocked(), nil
}

// publishLocked builds the next snapshot, releases c.mu and hands the
// snapshot to every renderer. renderMu is taken before c.mu is released so
// renderers observe snapshots in generation order.
func (c *Coordinator) publishLocked() models.Snapshot {
	snap := c.buildLocked()
	c.last = snap
	renderers := append([]Renderer(nil), c.renderers...)
	c.renderMu.Lock()
	c.mu.Unlock()
	defer c.renderMu.Unlock()

	for _, r := range renderers {
		r.Render(snap)
	}
	return snap
}

func (c *Coordinator) buildLocked() models.Snapshot {
	start := time.Now()
	c.generation++

	view := c.agg.ExcludeOutliers(c.viewLocked())
	filter := c.filter.Clone()
	snap := models.Snapshot{
		Generation:    c.generation,
		Filter:        filter,
		Records:       view,
		PriceStats:    c.agg.PriceStatsByCity(view),
		Histogram:     c.agg.PriceHistogram(view, c.agg.Config().HistogramBins),
		Satisfaction:  c.agg.SatisfactionProfile(view),
		DistancePairs: c.agg.PriceDistancePairs(view, filter.MaxPrice, c.agg.Config().RequireDist),
		GeoPoints:     c.agg.GeoPoints(view),
	}
	if cv, ok := models.CityViews[filter.City]; ok {
		snap.View = &cv
	}

	c.metrics.FilteredRecords.Set(float64(len(view)))
	c.metrics.AggregationDuration.Observe(time.Since(start).Seconds())
	return snap
}

// Load fetches scopes into the store. Each call is tagged with a request
// generation; if a newer Load starts before this one finishes, this
// result is discarded and Applied is false. When nothing at all could be
// loaded the store keeps its contents and ErrNoData is returned.
func (c *Coordinator) Load(ctx context.Context, scopes []models.Scope) (LoadResult, error) {
	c.mu.Lock()
	c.latestLoad++
	req := c.latestLoad
	c.mu.Unlock()

	col, err := c.store.Fetch(ctx, scopes)
	if err != nil {
		c.metrics.LoadsTotal.WithLabelValues(observability.LoadFailed).Inc()
		return LoadResult{Request: req}, fmt.Errorf("coordinator: load: %w", err)
	}
	res := LoadResult{Request: req, Records: len(col.Records), Failed: col.Failed}

	c.mu.Lock()
	if req != c.latestLoad {
		c.mu.Unlock()
		c.logger.Debug("[coordinator] Discarding load #%d, superseded by #%d", req, c.latestLoad)
		c.metrics.LoadsTotal.WithLabelValues(observability.LoadSuperseded).Inc()
		return res, nil
	}
	if len(col.Records) == 0 {
		c.mu.Unlock()
		c.logger.Warn("[coordinator] Load #%d produced no records for %d scope(s), keeping %d stored records",
			req, len(col.Scopes), c.store.Len())
		c.metrics.LoadsTotal.WithLabelValues(observability.LoadEmpty).Inc()
		return res, ErrNoData
	}

	c.store.Replace(col)
	res.Applied = true
	c.metrics.LoadsTotal.WithLabelValues(observability.LoadApplied).Inc()
	c.logger.Info("[coordinator] Load #%d applied: %d records from %d scope(s), %d failed",
		req, len(col.Records), len(col.Scopes)-len(col.Failed), len(col.Failed))
	c.publishLocked()
	return res, nil
}

// Reload loads the scopes implied by the current filter: the active city in
// single-city mode, otherwise the selected (or all known) cities, always
// for the active period.
func (c *Coordinator) Reload(ctx context.Context) (LoadResult, error) {
	return c.Load(ctx, ScopesFor(c.Filter()))
}

// ScopesFor derives the datasets a filter state needs.
func ScopesFor(f models.FilterState) []models.Scope {
	if f.City != "" {
		return []models.Scope{{City: f.City, Period: f.Period}}
	}
	cities := f.SelectedCities
	if len(cities) == 0 {
		cities = models.KnownCities
	}
	out := make([]models.Scope, 0, len(cities))
	for _, city := range cities {
		out = append(out, models.Scope{City: city, Period: f.Period})
	}
	return out
}

// IsNoData reports whether err is the recoverable empty-load condition.
func IsNoData(err error) bool {
	return errors.Is(err, ErrNoData)
}
