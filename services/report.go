package services

import (
	"fmt"
	"io"
	"strings"

	"airbnb-dashboard/models"
)

// ReportPrinter renders a snapshot as a coloured terminal report.
type ReportPrinter struct {
	out io.Writer
}

// NewReportPrinter creates a ReportPrinter writing to out.
func NewReportPrinter(out io.Writer) *ReportPrinter {
	return &ReportPrinter{out: out}
}

// Render prints the snapshot.
func (p *ReportPrinter) Render(s models.Snapshot) {
	w := p.out
	sep := strings.Repeat("═", 54)
	thin := strings.Repeat("─", 54)

	fmt.Fprintf(w, "\n\033[1;35m%s\033[0m\n", sep)
	fmt.Fprintf(w, "\033[1;35m  📊 LISTINGS DASHBOARD\033[0m\n")
	fmt.Fprintf(w, "\033[1;35m%s\033[0m\n\n", sep)

	// Filter
	fmt.Fprintf(w, "\033[1;33m  Filter\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	city := s.Filter.City
	if city == "" {
		city = "(all)"
	}
	fmt.Fprintf(w, "  City      : \033[1m%s\033[0m\n", city)
	fmt.Fprintf(w, "  Period    : \033[1m%s\033[0m\n", s.Filter.Period)
	fmt.Fprintf(w, "  Max price : \033[1m€%.0f\033[0m\n", s.Filter.MaxPrice)
	if len(s.Filter.SelectedCities) > 0 {
		fmt.Fprintf(w, "  Selected  : %s\n", strings.Join(s.Filter.SelectedCities, ", "))
	}
	fmt.Fprintf(w, "  Listings  : \033[1m%d\033[0m\n", len(s.Records))
	fmt.Fprintln(w)

	if s.Empty() {
		fmt.Fprintf(w, "  \033[1;31mNo data for the current selection\033[0m\n")
		fmt.Fprintf(w, "\n\033[1;35m%s\033[0m\n\n", sep)
		return
	}

	// Price Stats
	fmt.Fprintf(w, "\033[1;33m  Price Statistics\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	if len(s.PriceStats) == 0 {
		fmt.Fprintf(w, "  No price data available\n")
	} else {
		fmt.Fprintf(w, "  %-12s %6s %6s %6s %6s %6s %6s %6s\n",
			"City", "Min", "Q1", "Median", "Q3", "Max", "Mean", "Count")
		for _, c := range s.Cities() {
			st := s.PriceStats[c]
			fmt.Fprintf(w, "  %-12s %6.0f %6.0f \033[1m%6.0f\033[0m %6.0f %6.0f %6.0f %6d\n",
				truncate(title(c), 12), st.Min, st.Q1, st.Median, st.Q3, st.Max, st.Mean, st.Count)
		}
	}
	fmt.Fprintln(w)

	// Histogram
	fmt.Fprintf(w, "\033[1;33m  Price Distribution\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	p.renderHistogram(s.Histogram)
	fmt.Fprintln(w)

	// Satisfaction
	fmt.Fprintf(w, "\033[1;33m  Satisfaction Profile\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	if s.Satisfaction.NoData() {
		fmt.Fprintf(w, "  No rating data available\n")
	}
	for _, m := range s.Satisfaction.Metrics {
		bar := ""
		if v, ok := m.Score.Get(); ok {
			bar = strings.Repeat("█", int(v/5))
		}
		fmt.Fprintf(w, "  %-20s %-20s \033[1;32m%s\033[0m\n", m.Label, bar, m.Display())
	}
	fmt.Fprintln(w)

	// Distance
	fmt.Fprintf(w, "\033[1;33m  Price vs Distance\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	fmt.Fprintf(w, "  Plotted points : %d\n", len(s.DistancePairs))
	fmt.Fprintf(w, "  Map markers    : %d\n", len(s.GeoPoints))

	fmt.Fprintf(w, "\n\033[1;35m%s\033[0m\n\n", sep)
}

// renderHistogram prints one bar per non-empty bin, scaled to the fullest bin.
func (p *ReportPrinter) renderHistogram(bins []models.PriceBin) {
	peak := 0
	for _, b := range bins {
		if b.Count > peak {
			peak = b.Count
		}
	}
	if peak == 0 {
		fmt.Fprintf(p.out, "  No price data available\n")
		return
	}
	for _, b := range bins {
		if b.Count == 0 {
			continue
		}
		bar := strings.Repeat("▇", max(1, b.Count*30/peak))
		fmt.Fprintf(p.out, "  €%5.0f-%-5.0f %-30s %d\n", b.Lower, b.Upper, bar, b.Count)
	}
}

func title(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
