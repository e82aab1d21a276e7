package models

import "fmt"

// Satisfaction metric keys, in radar-chart order.
const (
	MetricGuestSatisfaction = "guest_satisfaction_overall"
	MetricCleanliness       = "cleanliness_rating"
	MetricCentrality        = "dist"
	MetricAttractions       = "attr_index"
	MetricRestaurants       = "rest_index"
)

// CityPriceStats is the box-plot summary of realSum for one city.
type CityPriceStats struct {
	City   string  `json:"city"`
	Q1     float64 `json:"q1"`
	Median float64 `json:"median"`
	Q3     float64 `json:"q3"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	Count  int     `json:"count"`
}

// MetricScore is one radar axis normalised to [0,100].
// Score is invalid when no record had a usable value for the metric.
type MetricScore struct {
	Key   string  `json:"key"`
	Label string  `json:"label"`
	Max   float64 `json:"max"`
	Score Number  `json:"score"`
}

// Display renders the score in the unit a reader expects on the chart label.
func (m MetricScore) Display() string {
	v, ok := m.Score.Get()
	if !ok {
		return "no data"
	}
	switch m.Key {
	case MetricCleanliness:
		return fmt.Sprintf("%.1f/10", v/10)
	case MetricCentrality:
		return fmt.Sprintf("%.1fkm", (100-v)/100*m.Max)
	default:
		return fmt.Sprintf("%.0f%%", v)
	}
}

// SatisfactionProfile holds the five radar metrics over a record subset.
type SatisfactionProfile struct {
	Metrics []MetricScore `json:"metrics"`
}

// NoData reports whether every metric lacks a score.
func (p SatisfactionProfile) NoData() bool {
	for _, m := range p.Metrics {
		if m.Score.Valid {
			return false
		}
	}
	return true
}

// PriceBin is one bar of the price histogram. Values in [Lower, Upper)
// are counted; the last bin also includes Upper.
type PriceBin struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
	Count int     `json:"count"`
}

// PriceDistancePair is one point of the price-vs-distance scatter.
type PriceDistancePair struct {
	Dist    float64 `json:"dist"`
	RealSum float64 `json:"realSum"`
}

// GeoPoint is one map marker. Band indexes the price legend grades.
type GeoPoint struct {
	Lat                      float64 `json:"lat"`
	Lng                      float64 `json:"lng"`
	RealSum                  float64 `json:"realSum"`
	Band                     int     `json:"band"`
	RoomType                 string  `json:"room_type"`
	PersonCapacity           Number  `json:"person_capacity"`
	GuestSatisfactionOverall Number  `json:"guest_satisfaction_overall"`
	CleanlinessRating        Number  `json:"cleanliness_rating"`
}

// PriceBands are the lower bounds of the map legend colours.
var PriceBands = []float64{0, 100, 200, 300, 400, 500}

// PriceBand returns the index of the legend band containing price.
func PriceBand(price float64) int {
	band := 0
	for i, lower := range PriceBands {
		if price >= lower {
			band = i
		}
	}
	return band
}
