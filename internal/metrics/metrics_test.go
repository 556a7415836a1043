package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestHandler_nilMetrics(t *testing.T) {
	var m *Metrics
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)

	m.ObserveNormalization("ok", []string{"dangling_child_reference"})
	m.ObserveCatalogLoad(true, 3)
	m.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rr.Code)
	}
	if got := rr.Body.String(); !strings.Contains(got, "metrics unavailable") {
		t.Fatalf("expected body to mention metrics unavailable, got %q", got)
	}
}

func TestHandler_exposesRegisteredMetrics(t *testing.T) {
	m := New()
	m.ObserveHTTPRequest(http.MethodGet, "/readyz", http.StatusOK, 12*time.Millisecond)
	m.ObserveNormalization("ok", []string{"dangling_child_reference", "dangling_child_reference"})
	m.ObserveNormalization("missing_root", nil)
	m.ObserveCatalogLoad(true, 2)
	m.ObserveCatalogLoad(false, 0)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)

	m.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	body := rr.Body.String()
	for _, want := range []string{
		"layertree_http_requests_total{method=\"GET\",path=\"/readyz\",status=\"200\"} 1",
		"layertree_normalizations_total{result=\"ok\"} 1",
		"layertree_normalizations_total{result=\"missing_root\"} 1",
		"layertree_normalize_warnings_total{code=\"dangling_child_reference\"} 2",
		"layertree_catalog_loads_total{result=\"ok\"} 1",
		"layertree_catalog_loads_total{result=\"error\"} 1",
		"layertree_catalog_trees 2",
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %q in exposition; body=%s", want, body)
		}
	}
}
