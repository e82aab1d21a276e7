package observability

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsRegisterOnOwnRegistry(t *testing.T) {
	a := NewMetrics("")
	b := NewMetrics("")

	a.LoadsTotal.WithLabelValues(LoadApplied).Inc()
	a.LoadsTotal.WithLabelValues(LoadApplied).Inc()
	b.LoadsTotal.WithLabelValues(LoadEmpty).Inc()

	if got := testutil.ToFloat64(a.LoadsTotal.WithLabelValues(LoadApplied)); got != 2 {
		t.Errorf("applied loads = %v; want 2", got)
	}
	if got := testutil.ToFloat64(b.LoadsTotal.WithLabelValues(LoadApplied)); got != 0 {
		t.Errorf("registries are shared: b saw %v applied loads", got)
	}
}

func TestMetricsHandler(t *testing.T) {
	m := NewMetrics("dash")
	m.StoreRecords.Set(42)
	m.FilterUpdates.WithLabelValues("max_price").Inc()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{"dash_store_records 42", `dash_filter_updates_total{kind="max_price"} 1`} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}
