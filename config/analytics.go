package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Analytics holds the normalization constants and filter defaults used by
// the aggregator and the cross-filter coordinator.
type Analytics struct {
	// DistMax is the distance (km) at which centrality reaches zero.
	DistMax float64
	// IndexMax is the attraction/restaurant index value that scores 100.
	IndexMax float64
	// PriceCap clamps the reported min/max of a city's price box. Zero disables clamping.
	PriceCap float64
	// OutlierCutoff drops listings priced above it before aggregation. Zero disables it.
	OutlierCutoff float64
	// HistogramBins is the number of equal-width price histogram bars.
	HistogramBins int

	DefaultMaxPrice float64
	RequireDist     bool
	DefaultCity     string
	DefaultPeriod   string
}

// DefaultAnalytics returns the constants the dashboard was tuned with.
func DefaultAnalytics() Analytics {
	return Analytics{
		DistMax:         20,
		IndexMax:        100,
		PriceCap:        0,
		OutlierCutoff:   0,
		HistogramBins:   30,
		DefaultMaxPrice: 500,
		RequireDist:     true,
		DefaultCity:     "berlin",
		DefaultPeriod:   "weekday",
	}
}

// FileConfig represents the TOML analytics file.
type FileConfig struct {
	Analytics AnalyticsFile `toml:"analytics"`
}

// AnalyticsFile maps the [analytics] table. Nil fields keep the defaults.
type AnalyticsFile struct {
	DistMax         *float64 `toml:"dist_max"`
	IndexMax        *float64 `toml:"index_max"`
	PriceCap        *float64 `toml:"price_cap"`
	OutlierCutoff   *float64 `toml:"outlier_cutoff"`
	HistogramBins   *int     `toml:"histogram_bins"`
	DefaultMaxPrice *float64 `toml:"default_max_price"`
	RequireDist     *bool    `toml:"require_dist"`
	DefaultCity     *string  `toml:"default_city"`
	DefaultPeriod   *string  `toml:"default_period"`
}

// LoadAnalyticsFile reads a TOML config from the given path. Missing file is not an error.
func LoadAnalyticsFile(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, nil
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("config: stat analytics file: %w", err)
	}
	var cfg FileConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return FileConfig{}, fmt.Errorf("config: decode analytics file: %w", err)
	}
	return cfg, nil
}

// Merge returns a copy of a with every non-nil field of f applied.
func (a Analytics) Merge(f AnalyticsFile) Analytics {
	if f.DistMax != nil && *f.DistMax > 0 {
		a.DistMax = *f.DistMax
	}
	if f.IndexMax != nil && *f.IndexMax > 0 {
		a.IndexMax = *f.IndexMax
	}
	if f.PriceCap != nil && *f.PriceCap >= 0 {
		a.PriceCap = *f.PriceCap
	}
	if f.OutlierCutoff != nil && *f.OutlierCutoff >= 0 {
		a.OutlierCutoff = *f.OutlierCutoff
	}
	if f.HistogramBins != nil && *f.HistogramBins > 0 {
		a.HistogramBins = *f.HistogramBins
	}
	if f.DefaultMaxPrice != nil && *f.DefaultMaxPrice >= 0 {
		a.DefaultMaxPrice = *f.DefaultMaxPrice
	}
	if f.RequireDist != nil {
		a.RequireDist = *f.RequireDist
	}
	if f.DefaultCity != nil && *f.DefaultCity != "" {
		a.DefaultCity = *f.DefaultCity
	}
	if f.DefaultPeriod != nil && *f.DefaultPeriod != "" {
		a.DefaultPeriod = *f.DefaultPeriod
	}
	return a
}
