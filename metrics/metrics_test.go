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
	m.ObserveFetch("projects", "loaded", 3)
	m.ObserveExport("png", "ok", time.Second)

	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rr.Code)
	}
}

func TestHandler_exposesRegisteredMetrics(t *testing.T) {
	m := New()
	m.ObserveHTTPRequest(http.MethodGet, "/dashboard/scene", http.StatusOK, 5*time.Millisecond)
	m.ObserveFetch("projects", "loaded", 7)
	m.ObserveFetch("implementations", "errored", 0)
	m.ObserveExport("pdf", "ok", 800*time.Millisecond)

	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	body := rr.Body.String()
	for _, want := range []string{
		`atlas_http_requests_total{method="GET",path="/dashboard/scene",status="200"} 1`,
		`atlas_record_fetches_total{collection="projects",outcome="loaded"} 1`,
		`atlas_record_fetches_total{collection="implementations",outcome="errored"} 1`,
		`atlas_records_loaded{collection="projects"} 7`,
		`atlas_exports_total{format="pdf",outcome="ok"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %q in body; body=%s", want, body)
		}
	}
}
