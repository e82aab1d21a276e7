package models

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
)

func TestParseNumber(t *testing.T) {
	tests := []struct {
		in    any
		want  float64
		valid bool
	}{
		{"12.5", 12.5, true},
		{"  7 ", 7, true},
		{"", 0, false},
		{"abc", 0, false},
		{"Inf", 0, false},
		{nil, 0, false},
		{float64(3), 3, true},
		{math.NaN(), 0, false},
		{int64(-4), -4, true},
		{[]byte("0"), 0, true},
		{json.Number("88.1"), 88.1, true},
		{true, 0, false},
	}
	for _, tt := range tests {
		got := ParseNumber(tt.in)
		if got.Valid != tt.valid || got.Value != tt.want {
			t.Errorf("ParseNumber(%#v) = %+v; want {%v %v}", tt.in, got, tt.want, tt.valid)
		}
	}
}

func TestNumberJSON(t *testing.T) {
	rec := ListingRecord{City: "berlin", RealSum: Num(150), Dist: Number{}}
	data, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if raw["realSum"] != float64(150) {
		t.Errorf("realSum = %v; want 150", raw["realSum"])
	}
	if v, ok := raw["dist"]; !ok || v != nil {
		t.Errorf("invalid dist should marshal as null, got %v", v)
	}

	var back ListingRecord
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal into record: %v", err)
	}
	if back.RealSum != Num(150) || back.Dist.Valid {
		t.Errorf("decoded %+v", back)
	}

	var n Number
	if err := json.Unmarshal([]byte(`"42"`), &n); err != nil || n != Num(42) {
		t.Errorf("numeric string decoded to %+v, %v", n, err)
	}
}

func TestNumberScan(t *testing.T) {
	var n Number
	if err := n.Scan(nil); err != nil || n.Valid {
		t.Errorf("Scan(nil) = %+v, %v", n, err)
	}
	if err := n.Scan([]byte("3.25")); err != nil || n != Num(3.25) {
		t.Errorf("Scan(bytes) = %+v, %v", n, err)
	}
}

func TestParsePeriod(t *testing.T) {
	for in, want := range map[string]Period{
		"weekday":   Weekday,
		"Weekdays":  Weekday,
		" weekend ": Weekend,
		"weekends":  Weekend,
	} {
		got, err := ParsePeriod(in)
		if err != nil || got != want {
			t.Errorf("ParsePeriod(%q) = %q, %v; want %q", in, got, err, want)
		}
	}

	if _, err := ParsePeriod("holiday"); !errors.Is(err, ErrInvalidPeriod) {
		t.Errorf("expected ErrInvalidPeriod, got %v", err)
	}
}

func TestScope(t *testing.T) {
	s, err := NewScope(" Berlin ", "weekdays")
	if err != nil {
		t.Fatalf("NewScope: %v", err)
	}
	if s.Key() != "berlin_weekday" || s.SourceTag() != "berlin_weekdays" || s.String() != "berlin/weekday" {
		t.Errorf("scope names = %q %q %q", s.Key(), s.SourceTag(), s.String())
	}
	if _, err := NewScope("", "weekday"); err == nil {
		t.Error("empty city should be rejected")
	}
}

func TestFilterMatches(t *testing.T) {
	f := FilterState{MaxPrice: 150, City: "berlin", Period: Weekday}

	tests := []struct {
		name string
		rec  ListingRecord
		want bool
	}{
		{"in range", ListingRecord{City: "berlin", Period: Weekday, RealSum: Num(100)}, true},
		{"bound inclusive", ListingRecord{City: "berlin", Period: Weekday, RealSum: Num(150)}, true},
		{"too expensive", ListingRecord{City: "berlin", Period: Weekday, RealSum: Num(150.01)}, false},
		{"invalid price", ListingRecord{City: "berlin", Period: Weekday}, false},
		{"other period", ListingRecord{City: "berlin", Period: Weekend, RealSum: Num(50)}, false},
		{"other city", ListingRecord{City: "paris", Period: Weekday, RealSum: Num(50)}, false},
	}
	for _, tt := range tests {
		if got := f.Matches(tt.rec); got != tt.want {
			t.Errorf("%s: Matches = %v; want %v", tt.name, got, tt.want)
		}
	}
}

func TestFilterMatchesMultiCity(t *testing.T) {
	f := FilterState{MaxPrice: 500, Period: Weekend, SelectedCities: []string{"paris", "rome"}}

	if !f.Matches(ListingRecord{City: "rome", Period: Weekend, RealSum: Num(80)}) {
		t.Error("selected city should match")
	}
	if f.Matches(ListingRecord{City: "vienna", Period: Weekend, RealSum: Num(80)}) {
		t.Error("unselected city should not match")
	}

	f.SelectedCities = nil
	if !f.Matches(ListingRecord{City: "vienna", Period: Weekend, RealSum: Num(80)}) {
		t.Error("empty selection should not restrict cities")
	}
}

func TestFilterValidateAndClone(t *testing.T) {
	if err := (FilterState{MaxPrice: -1, Period: Weekday}).Validate(); !errors.Is(err, ErrNegativePrice) {
		t.Errorf("expected ErrNegativePrice, got %v", err)
	}
	if err := (FilterState{Period: "month"}).Validate(); !errors.Is(err, ErrInvalidPeriod) {
		t.Errorf("expected ErrInvalidPeriod, got %v", err)
	}
	for _, p := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		if err := (FilterState{MaxPrice: p, Period: Weekday}).Validate(); !errors.Is(err, ErrNonFinitePrice) {
			t.Errorf("MaxPrice %v: expected ErrNonFinitePrice, got %v", p, err)
		}
	}
	if err := (FilterState{MaxPrice: 0, Period: Weekend}).Validate(); err != nil {
		t.Errorf("zero max price is valid, got %v", err)
	}

	f := FilterState{SelectedCities: []string{"paris"}, Period: Weekday}
	c := f.Clone()
	c.SelectedCities[0] = "rome"
	if f.SelectedCities[0] != "paris" {
		t.Error("Clone shares the city slice")
	}
}

func TestCitySet(t *testing.T) {
	got := CitySet([]string{"Rome", " paris", "rome", "", "Amsterdam"})
	want := []string{"amsterdam", "paris", "rome"}
	if len(got) != len(want) {
		t.Fatalf("CitySet = %v; want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("CitySet[%d] = %q; want %q", i, got[i], want[i])
		}
	}
}

func TestMetricScoreDisplay(t *testing.T) {
	tests := []struct {
		m    MetricScore
		want string
	}{
		{MetricScore{Key: MetricCleanliness, Score: Num(93)}, "9.3/10"},
		{MetricScore{Key: MetricCentrality, Max: 20, Score: Num(75)}, "5.0km"},
		{MetricScore{Key: MetricGuestSatisfaction, Score: Num(88.4)}, "88%"},
		{MetricScore{Key: MetricAttractions}, "no data"},
	}
	for _, tt := range tests {
		if got := tt.m.Display(); got != tt.want {
			t.Errorf("Display(%s) = %q; want %q", tt.m.Key, got, tt.want)
		}
	}
}

func TestPriceBand(t *testing.T) {
	for price, want := range map[float64]int{0: 0, 99.9: 0, 100: 1, 350: 3, 500: 5, 2000: 5} {
		if got := PriceBand(price); got != want {
			t.Errorf("PriceBand(%v) = %d; want %d", price, got, want)
		}
	}
}

func TestSnapshotCities(t *testing.T) {
	s := Snapshot{PriceStats: map[string]CityPriceStats{"rome": {}, "berlin": {}}}
	if got := s.Cities(); len(got) != 2 || got[0] != "berlin" {
		t.Errorf("Cities() = %v", got)
	}
	if !s.Empty() {
		t.Error("snapshot without records should be empty")
	}
	if !IsKnownCity("Paris") || IsKnownCity("oslo") {
		t.Error("IsKnownCity mismatch")
	}
}
