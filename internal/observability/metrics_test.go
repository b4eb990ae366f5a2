package observability

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	jobmetrics "github.com/logistock/logistock/internal/jobs"
)

func TestMetricsHandlerExposesReportJobMetrics(t *testing.T) {
	metrics := NewMetrics()
	jobs := jobmetrics.NewMetrics(metrics.Registerer())
	_ = jobs.Track("report_export").End(errors.New("disk full"))
	jobs.AddProducts("report_current", 3)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)

	metrics.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rr.Code)
	}

	body := rr.Body.String()
	for _, want := range []string{
		`logistock_report_jobs_total{job="report_export",status="failure"} 1`,
		`logistock_report_jobs_failures_total{job="report_export"} 1`,
		`logistock_report_products_total{job="report_current"} 3`,
		"go_goroutines",
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected body to contain %s, got: %s", want, body)
		}
	}
}

func TestMetricsMiddlewareRecordsRequest(t *testing.T) {
	metrics := NewMetrics()

	handler := metrics.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	routeCtx := chi.NewRouteContext()
	routeCtx.RoutePatterns = append(routeCtx.RoutePatterns, "/products/{id}")

	req := httptest.NewRequest(http.MethodGet, "/products/7", nil)
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx)
	req = req.WithContext(ctx)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusTeapot {
		t.Fatalf("expected status %d, got %d", http.StatusTeapot, rr.Code)
	}

	metricsRR := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(metricsRR, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	metricsBody := metricsRR.Body.String()
	if !strings.Contains(metricsBody, `logistock_http_requests_total{code="418",method="GET",route="/products/{id}"} 1`) {
		t.Fatalf("expected metrics to record request, got: %s", metricsBody)
	}
	if !strings.Contains(metricsBody, `logistock_http_request_duration_seconds_bucket{route="/products/{id}"`) {
		t.Fatalf("expected duration histogram to be present, got: %s", metricsBody)
	}
	if !strings.Contains(metricsBody, "logistock_http_requests_in_flight 0") {
		t.Fatalf("expected in-flight gauge to settle at zero, got: %s", metricsBody)
	}
}

func TestMetricsMiddlewareDefaultsUnwrittenStatus(t *testing.T) {
	metrics := NewMetrics()
	handler := metrics.Middleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/nowhere", nil))

	rr := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	want := `logistock_http_requests_total{code="200",method="POST",route="unmatched"} 1`
	if !strings.Contains(rr.Body.String(), want) {
		t.Fatalf("expected %s, got: %s", want, rr.Body.String())
	}
}

func TestObserveLedgerReadsSizeAtScrape(t *testing.T) {
	metrics := NewMetrics()
	size := 2
	metrics.ObserveLedger(func() int { return size })

	scrape := func() string {
		rr := httptest.NewRecorder()
		metrics.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		return rr.Body.String()
	}
	if body := scrape(); !strings.Contains(body, "logistock_ledger_products 2") {
		t.Fatalf("expected ledger gauge of 2, got: %s", body)
	}
	size = 5
	if body := scrape(); !strings.Contains(body, "logistock_ledger_products 5") {
		t.Fatalf("expected ledger gauge of 5, got: %s", body)
	}
}

func TestNilMetricsHandlerIsUnavailable(t *testing.T) {
	var metrics *Metrics
	rr := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rr.Code)
	}
}
