package metrics

import (
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestHTTPMetrics_Observe(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewHTTPMetrics(reg)

	m.Observe(http.MethodGet, "/api/customers", http.StatusOK, 5*time.Millisecond)
	m.Observe(http.MethodGet, "/api/customers", http.StatusOK, 7*time.Millisecond)
	m.Observe(http.MethodDelete, "/api/customers/:id", http.StatusNotFound, time.Millisecond)

	if got := testutil.ToFloat64(m.requests.WithLabelValues("GET", "/api/customers", "200")); got != 2 {
		t.Errorf("expected 2 GET requests, got %v", got)
	}
	if got := testutil.ToFloat64(m.requests.WithLabelValues("DELETE", "/api/customers/:id", "404")); got != 1 {
		t.Errorf("expected 1 DELETE request, got %v", got)
	}
	if n := testutil.CollectAndCount(m.duration); n != 2 {
		t.Errorf("expected 2 duration series, got %d", n)
	}
}

func TestNewHTTPMetrics_ReusesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	first := NewHTTPMetrics(reg)
	second := NewHTTPMetrics(reg)

	first.Observe(http.MethodPost, "/api/customers", http.StatusCreated, time.Millisecond)

	if got := testutil.ToFloat64(second.requests.WithLabelValues("POST", "/api/customers", "201")); got != 1 {
		t.Errorf("expected shared counter, got %v", got)
	}
}
