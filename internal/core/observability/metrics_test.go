package observability

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func TestMetricsHandler_Smoke(t *testing.T) {
	ExposeBuildInfo("test")
	ObserveHTTP("GET", "/api/houses", 200, 0.001)
	ObservePOILookup("school", nil)
	ObservePOILookup("metro", errors.New("boom"))

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	promhttp.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d want 200", rr.Code)
	}
	body := rr.Body.String()
	for _, want := range []string{
		`app_build_info{version="test"} 1`,
		`http_requests_total{method="GET",route="/api/houses",status="200"}`,
		`poi_lookups_total{outcome="error",type="metro"}`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("missing %q in:\n%s", want, body)
		}
	}
}

func TestInit_Idempotent(t *testing.T) {
	reg := prometheus.NewRegistry()
	Init(reg)
	Init(reg)
	Init(nil)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if len(mfs) == 0 {
		t.Fatal("expected metric families after Init")
	}
}
