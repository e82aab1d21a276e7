package models

import (
	"errors"
	"fmt"
	"strings"
)

// Period partitions every city dataset into weekday and weekend listings.
type Period string

const (
	Weekday Period = "weekday"
	Weekend Period = "weekend"
)

// Periods lists both periods in display order.
var Periods = []Period{Weekday, Weekend}

// ErrInvalidPeriod is returned when a period is neither weekday nor weekend.
var ErrInvalidPeriod = errors.New("period must be weekday or weekend")

// ParsePeriod accepts "weekday"/"weekend" and their plural file-name forms.
func ParsePeriod(s string) (Period, error) {
	switch strings.TrimSuffix(strings.ToLower(strings.TrimSpace(s)), "s") {
	case string(Weekday):
		return Weekday, nil
	case string(Weekend):
		return Weekend, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidPeriod, s)
}

// Scope identifies one source dataset: a single city in a single period.
type Scope struct {
	City   string `json:"city"`
	Period Period `json:"period"`
}

// NewScope normalises the city name and validates the period.
func NewScope(city, period string) (Scope, error) {
	p, err := ParsePeriod(period)
	if err != nil {
		return Scope{}, err
	}
	c := NormaliseCity(city)
	if c == "" {
		return Scope{}, errors.New("city must not be empty")
	}
	return Scope{City: c, Period: p}, nil
}

// Key is a stable identifier, e.g. "berlin_weekday".
func (s Scope) Key() string {
	return s.City + "_" + string(s.Period)
}

// SourceTag names the originating file, e.g. "berlin_weekdays".
func (s Scope) SourceTag() string {
	return s.City + "_" + string(s.Period) + "s"
}

func (s Scope) String() string {
	return s.City + "/" + string(s.Period)
}

// NormaliseCity returns the lowercase canonical city name.
func NormaliseCity(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// RawRow is one row as yielded by a loader: column name to string, number or nil.
type RawRow map[string]any

// ListingRecord is one rental listing observation after numeric coercion.
// Records are immutable once loaded.
type ListingRecord struct {
	City     string `json:"city"`
	Period   Period `json:"period"`
	RoomType string `json:"room_type"`

	RealSum                  Number `json:"realSum"`
	Lat                      Number `json:"lat"`
	Lng                      Number `json:"lng"`
	PersonCapacity           Number `json:"person_capacity"`
	CleanlinessRating        Number `json:"cleanliness_rating"`
	GuestSatisfactionOverall Number `json:"guest_satisfaction_overall"`
	Bedrooms                 Number `json:"bedrooms"`
	Dist                     Number `json:"dist"`
	MetroDist                Number `json:"metro_dist"`
	AttrIndex                Number `json:"attr_index"`
	RestIndex                Number `json:"rest_index"`

	Source string `json:"_source"`
}

// Scope returns the (city, period) pair the record belongs to.
func (r ListingRecord) Scope() Scope {
	return Scope{City: r.City, Period: r.Period}
}
