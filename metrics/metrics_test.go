package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
)

func TestHandlerServesCounters(t *testing.T) {
	m := New()
	m.MessagesClassified.WithLabelValues("url").Inc()
	m.DigestRuns.WithLabelValues("success").Inc()
	m.RouteResults.WithLabelValues("summarize", "fallback").Inc()

	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, req)

	if rec.Code != 200 {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{
		`contentmind_gateway_messages_classified_total{content_type="url"} 1`,
		`contentmind_scheduler_digest_runs_total{outcome="success"} 1`,
		`contentmind_router_results_total{provider="fallback",task="summarize"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}

func TestSeparateRegistries(t *testing.T) {
	a := New()
	b := New()
	a.MessagesClassified.WithLabelValues("pdf").Inc()

	rec := httptest.NewRecorder()
	b.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	if strings.Contains(rec.Body.String(), `content_type="pdf"`) {
		t.Error("instances must not share a registry")
	}
}
