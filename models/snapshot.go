package models

import "sort"

// Snapshot is everything the charts render for one coordinator update.
// All renderers receive the same Snapshot and must treat it as read-only.
type Snapshot struct {
	Generation    uint64                    `json:"generation"`
	Filter        FilterState               `json:"filter"`
	Records       []ListingRecord           `json:"records"`
	PriceStats    map[string]CityPriceStats `json:"price_stats"`
	Histogram     []PriceBin                `json:"price_histogram"`
	Satisfaction  SatisfactionProfile       `json:"satisfaction"`
	DistancePairs []PriceDistancePair       `json:"distance_pairs"`
	GeoPoints     []GeoPoint                `json:"geo_points"`
	View          *CityView                 `json:"view,omitempty"`
}

// Empty reports the "no data" state: the filter selected zero records.
func (s Snapshot) Empty() bool {
	return len(s.Records) == 0
}

// Cities returns the cities present in PriceStats, sorted.
func (s Snapshot) Cities() []string {
	out := make([]string, 0, len(s.PriceStats))
	for c := range s.PriceStats {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}
