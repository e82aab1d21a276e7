package models

import (
	"errors"
	"math"
	"sort"
)

var (
	// ErrNegativePrice is returned when a max price below zero is requested.
	ErrNegativePrice = errors.New("max price must not be negative")
	// ErrNonFinitePrice is returned for a NaN or infinite max price.
	ErrNonFinitePrice = errors.New("max price must be a finite number")
)

// FilterState is the current view selection. It is owned by the coordinator;
// renderers only ever see copies.
type FilterState struct {
	// SelectedCities restricts the view to these cities; empty means no restriction.
	SelectedCities []string `json:"selected_cities"`
	// MaxPrice is an inclusive upper bound on realSum.
	MaxPrice float64 `json:"max_price"`
	// City is the single active city. Empty switches to multi-city mode,
	// where only Period and SelectedCities scope the view.
	City   string `json:"city"`
	Period Period `json:"period"`
}

// Validate checks the FilterState invariants.
func (f FilterState) Validate() error {
	if math.IsNaN(f.MaxPrice) || math.IsInf(f.MaxPrice, 0) {
		return ErrNonFinitePrice
	}
	if f.MaxPrice < 0 {
		return ErrNegativePrice
	}
	if _, err := ParsePeriod(string(f.Period)); err != nil {
		return err
	}
	return nil
}

// Clone returns a deep copy safe to hand to a renderer.
func (f FilterState) Clone() FilterState {
	out := f
	if f.SelectedCities != nil {
		out.SelectedCities = append([]string(nil), f.SelectedCities...)
	}
	return out
}

// CitySet normalises, de-duplicates and sorts a city selection.
func CitySet(cities []string) []string {
	seen := make(map[string]struct{}, len(cities))
	out := make([]string, 0, len(cities))
	for _, c := range cities {
		c = NormaliseCity(c)
		if c == "" {
			continue
		}
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// Matches reports whether r belongs in the filtered view.
// A record without a valid price cannot satisfy the price bound.
func (f FilterState) Matches(r ListingRecord) bool {
	if r.Period != f.Period {
		return false
	}
	if f.City != "" && r.City != f.City {
		return false
	}
	price, ok := r.RealSum.Get()
	if !ok || price > f.MaxPrice {
		return false
	}
	if len(f.SelectedCities) == 0 {
		return true
	}
	for _, c := range f.SelectedCities {
		if c == r.City {
			return true
		}
	}
	return false
}
