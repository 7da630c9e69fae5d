package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/millennium/areamatch/internal/core/observability"
)

func TestProvider_ServesServiceAndBuildMetrics(t *testing.T) {
	p := Init(Config{Build: BuildInfo{Version: "1.2.3", Revision: "abc"}})
	observability.ObserveHTTP("POST", "/api/evaluate", 200, 0.2)

	rr := httptest.NewRecorder()
	p.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d", rr.Code)
	}
	body := rr.Body.String()
	for _, want := range []string{
		`areamatch_build_info{build_date="",revision="abc",version="1.2.3"} 1`,
		`http_requests_total{method="POST",route="/api/evaluate",status="200"}`,
		"go_goroutines",
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("missing %q", want)
		}
	}
}

func TestProvider_DefaultPath(t *testing.T) {
	if got := Init(Config{}).Path(); got != "/metrics" {
		t.Fatalf("path=%q", got)
	}
}
