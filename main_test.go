package main

import (
	"testing"

	"airbnb-dashboard/models"
)

func TestReportScope(t *testing.T) {
	defaults := models.FilterState{City: "berlin", Period: models.Weekday, MaxPrice: 500}

	tests := []struct {
		args       []string
		wantCity   string
		wantPeriod string
	}{
		{nil, "berlin", "weekday"},
		{[]string{"--city", "rome", "--period", "weekend"}, "rome", "weekend"},
		{[]string{"--cities", "paris,rome"}, "", "weekday"},
		{[]string{"--cities", "paris", "--city", "paris"}, "paris", "weekday"},
		{[]string{"--city", ""}, "", "weekday"},
	}

	for _, tt := range tests {
		reportCity, reportPeriod, reportCities = "", "", nil
		cmd := newReportCmd()
		if err := cmd.ParseFlags(tt.args); err != nil {
			t.Fatalf("ParseFlags(%v): %v", tt.args, err)
		}
		city, period := reportScope(cmd, defaults)
		if city != tt.wantCity || period != tt.wantPeriod {
			t.Errorf("reportScope(%v) = %q, %q; want %q, %q", tt.args, city, period, tt.wantCity, tt.wantPeriod)
		}
	}
}
