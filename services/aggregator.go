package services

import (
	"math"
	"sort"

	"airbnb-dashboard/config"
	"airbnb-dashboard/models"
)

// Aggregator computes chart statistics from a record sequence. Every method
// is a pure function of its arguments and the fixed normalization constants;
// none of them fails on empty input.
type Aggregator struct {
	cfg config.Analytics
}

// NewAggregator creates an Aggregator with the given normalization constants.
func NewAggregator(cfg config.Analytics) *Aggregator {
	return &Aggregator{cfg: cfg}
}

// Config returns the constants the aggregator was built with.
func (a *Aggregator) Config() config.Analytics {
	return a.cfg
}

// PriceStatsByCity groups records by city and summarises realSum per group.
// Records without a valid realSum are skipped; a city with none is not emitted.
func (a *Aggregator) PriceStatsByCity(records []models.ListingRecord) map[string]models.CityPriceStats {
	prices := make(map[string][]float64)
	for _, r := range records {
		if v, ok := r.RealSum.Get(); ok {
			prices[r.City] = append(prices[r.City], v)
		}
	}

	out := make(map[string]models.CityPriceStats, len(prices))
	for city, values := range prices {
		out[city] = a.priceStats(city, values)
	}
	return out
}

func (a *Aggregator) priceStats(city string, values []float64) models.CityPriceStats {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	n := len(sorted)

	// Summing the sorted copy keeps the mean independent of input order.
	sum := 0.0
	for _, v := range sorted {
		sum += v
	}

	st := models.CityPriceStats{
		City:   city,
		Q1:     Quantile(sorted, 0.25),
		Median: Quantile(sorted, 0.50),
		Q3:     Quantile(sorted, 0.75),
		Min:    sorted[0],
		Max:    sorted[n-1],
		Mean:   sum / float64(n),
		Count:  n,
	}

	// The display cap bounds the whole box, so min <= q1 <= median <= q3 <= max
	// still holds after clamping.
	if limit := a.cfg.PriceCap; limit > 0 {
		st.Min = clamp(st.Min, 0, limit)
		st.Max = clamp(st.Max, 0, limit)
		st.Q1 = clamp(st.Q1, st.Min, st.Max)
		st.Median = clamp(st.Median, st.Min, st.Max)
		st.Q3 = clamp(st.Q3, st.Min, st.Max)
	}
	return st
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}

// PriceHistogram counts valid prices in bins equal-width bins spanning
// [0, max price]. Negative prices fall outside the domain and are not
// counted. Empty input yields no bins; when every price is zero a single
// zero-width bin holds them all.
func (a *Aggregator) PriceHistogram(records []models.ListingRecord, bins int) []models.PriceBin {
	if bins < 1 {
		bins = 1
	}

	prices := make([]float64, 0, len(records))
	top := 0.0
	for _, r := range records {
		v, ok := r.RealSum.Get()
		if !ok || v < 0 {
			continue
		}
		prices = append(prices, v)
		top = math.Max(top, v)
	}
	if len(prices) == 0 {
		return []models.PriceBin{}
	}
	if top == 0 {
		return []models.PriceBin{{Lower: 0, Upper: 0, Count: len(prices)}}
	}

	out := make([]models.PriceBin, bins)
	for i := range out {
		out[i].Lower = top * float64(i) / float64(bins)
		out[i].Upper = top * float64(i+1) / float64(bins)
	}
	out[bins-1].Upper = top

	for _, v := range prices {
		idx := int(v * float64(bins) / top)
		if idx >= bins {
			idx = bins - 1
		}
		// Rounding in the division can land one bin off at an edge.
		if idx > 0 && v < out[idx].Lower {
			idx--
		} else if idx < bins-1 && v >= out[idx+1].Lower {
			idx++
		}
		out[idx].Count++
	}
	return out
}

// Quantile uses linear interpolation between the order statistics bracketing
// index p*(n-1) (the R-7 estimator). sorted must be ascending.
func Quantile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	if n == 1 || p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}

	idx := p * float64(n-1)
	lower := int(idx)
	upper := lower + 1
	if upper >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lower)
	return sorted[lower] + frac*(sorted[upper]-sorted[lower])
}

type radarMetric struct {
	key       string
	label     string
	max       float64
	value     func(models.ListingRecord) models.Number
	normalise func(v, max float64) float64
}

func (a *Aggregator) radarMetrics() []radarMetric {
	return []radarMetric{
		{
			key: models.MetricGuestSatisfaction, label: "Guest Satisfaction", max: 100,
			value:     func(r models.ListingRecord) models.Number { return r.GuestSatisfactionOverall },
			normalise: func(v, _ float64) float64 { return v },
		},
		{
			key: models.MetricCleanliness, label: "Cleanliness", max: 10,
			value:     func(r models.ListingRecord) models.Number { return r.CleanlinessRating },
			normalise: func(v, _ float64) float64 { return v * 10 },
		},
		{
			key: models.MetricCentrality, label: "Central Location", max: a.cfg.DistMax,
			value:     func(r models.ListingRecord) models.Number { return r.Dist },
			normalise: func(v, max float64) float64 { return math.Max(0, 100-(v/max*100)) },
		},
		{
			key: models.MetricAttractions, label: "Attractions", max: a.cfg.IndexMax,
			value:     func(r models.ListingRecord) models.Number { return r.AttrIndex },
			normalise: func(v, max float64) float64 { return math.Min(100, v/max*100) },
		},
		{
			key: models.MetricRestaurants, label: "Restaurants", max: a.cfg.IndexMax,
			value:     func(r models.ListingRecord) models.Number { return r.RestIndex },
			normalise: func(v, max float64) float64 { return math.Min(100, v/max*100) },
		},
	}
}

// SatisfactionProfile averages the normalised radar metrics over records.
// A record missing one metric is excluded from that metric's mean only.
func (a *Aggregator) SatisfactionProfile(records []models.ListingRecord) models.SatisfactionProfile {
	metrics := a.radarMetrics()
	profile := models.SatisfactionProfile{Metrics: make([]models.MetricScore, 0, len(metrics))}

	for _, m := range metrics {
		sum, count := 0.0, 0
		for _, r := range records {
			v, ok := m.value(r).Get()
			if !ok {
				continue
			}
			sum += m.normalise(v, m.max)
			count++
		}

		score := models.MetricScore{Key: m.key, Label: m.label, Max: m.max}
		if count > 0 {
			score.Score = models.Num(sum / float64(count))
		}
		profile.Metrics = append(profile.Metrics, score)
	}
	return profile
}

// PriceDistancePairs returns (dist, realSum) for records priced at or below
// maxPrice with a finite dist, in input order. With requireDist a zero
// distance counts as missing too.
func (a *Aggregator) PriceDistancePairs(records []models.ListingRecord, maxPrice float64, requireDist bool) []models.PriceDistancePair {
	out := make([]models.PriceDistancePair, 0, len(records))
	for _, r := range records {
		price, ok := r.RealSum.Get()
		if !ok || price > maxPrice {
			continue
		}
		dist, ok := r.Dist.Get()
		if !ok || (requireDist && dist == 0) {
			continue
		}
		out = append(out, models.PriceDistancePair{Dist: dist, RealSum: price})
	}
	return out
}

// ExcludeOutliers drops records priced above the configured cutoff. Records
// without a valid price are kept so they still count toward other metrics.
// With no cutoff configured the input is returned unchanged.
func (a *Aggregator) ExcludeOutliers(records []models.ListingRecord) []models.ListingRecord {
	if a.cfg.OutlierCutoff <= 0 {
		return records
	}
	out := make([]models.ListingRecord, 0, len(records))
	for _, r := range records {
		if v, ok := r.RealSum.Get(); ok && v > a.cfg.OutlierCutoff {
			continue
		}
		out = append(out, r)
	}
	return out
}

// GeoPoints returns map markers for records with coordinates and a price.
// Zero coordinates are treated as missing.
func (a *Aggregator) GeoPoints(records []models.ListingRecord) []models.GeoPoint {
	out := make([]models.GeoPoint, 0, len(records))
	for _, r := range records {
		lat, okLat := r.Lat.Get()
		lng, okLng := r.Lng.Get()
		price, okPrice := r.RealSum.Get()
		if !okLat || !okLng || !okPrice || lat == 0 || lng == 0 {
			continue
		}
		out = append(out, models.GeoPoint{
			Lat:                      lat,
			Lng:                      lng,
			RealSum:                  price,
			Band:                     models.PriceBand(price),
			RoomType:                 r.RoomType,
			PersonCapacity:           r.PersonCapacity,
			GuestSatisfactionOverall: r.GuestSatisfactionOverall,
			CleanlinessRating:        r.CleanlinessRating,
		})
	}
	return out
}
