package metrics

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMiddleware_RecordsDurationAndCount(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware())
	r.Post("/v1/search", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/v1/search", http.NoBody))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	if v := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("POST", "/v1/search", "200")); v < 1 {
		t.Errorf("expected http_requests_total >= 1, got %f", v)
	}
	if testutil.CollectAndCount(httpRequestDuration) == 0 {
		t.Error("expected http_request_duration_seconds to have observations")
	}
}

func TestMiddleware_UsesRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware())
	r.Get("/v1/images/{id}/similar", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	for _, id := range []string{"a", "b", "c"} {
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/images/"+id+"/similar", http.NoBody))
	}

	v := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/v1/images/{id}/similar", "404"))
	if v < 3 {
		t.Errorf("expected three requests under the route pattern, got %f", v)
	}
}

func TestMiddleware_StatusCodes(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware())
	r.Get("/ok", func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte("ok")) })
	r.Get("/bad", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusBadRequest) })
	r.Get("/upstream", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusBadGateway) })

	tests := []struct {
		path   string
		status string
	}{
		{"/ok", "200"},
		{"/bad", "400"},
		{"/upstream", "502"},
	}
	for _, tc := range tests {
		t.Run(tc.path, func(t *testing.T) {
			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, tc.path, http.NoBody))
			if v := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", tc.path, tc.status)); v < 1 {
				t.Errorf("expected requests_total for %s/%s >= 1, got %f", tc.path, tc.status, v)
			}
		})
	}
}

func TestRouteLabel(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/anything", http.NoBody)
	if got := routeLabel(req); got != unmatchedRoute {
		t.Errorf("no route context: got %q", got)
	}

	rctx := chi.NewRouteContext()
	rctx.RoutePatterns = []string{"/v1/usage"}
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	if got := routeLabel(req); got != "/v1/usage" {
		t.Errorf("got %q, want /v1/usage", got)
	}
}

func TestMiddleware_InFlightAndSize(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware())
	r.Get("/v1/usage", func(w http.ResponseWriter, _ *http.Request) {
		if v := testutil.ToFloat64(httpRequestsInFlight); v < 1 {
			t.Errorf("expected in-flight >= 1 while serving, got %f", v)
		}
		_, _ = w.Write([]byte(`{"period":"day"}`))
	})

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/usage", http.NoBody))

	if v := testutil.ToFloat64(httpRequestsInFlight); v != 0 {
		t.Errorf("expected in-flight back to 0, got %f", v)
	}
	if testutil.CollectAndCount(httpResponseBytes) == 0 {
		t.Error("expected response size observations")
	}
}

func TestObserveStoreCommand(t *testing.T) {
	RegisterStoreMetrics()
	RegisterStoreMetrics()

	ObserveStoreCommand("HGETALL", time.Millisecond, nil)
	ObserveStoreCommand("HGETALL", time.Millisecond, errors.New("timeout"))

	if v := testutil.ToFloat64(StoreCommandsTotal.WithLabelValues("HGETALL", "ok")); v < 1 {
		t.Errorf("expected ok count >= 1, got %f", v)
	}
	if v := testutil.ToFloat64(StoreCommandsTotal.WithLabelValues("HGETALL", "error")); v < 1 {
		t.Errorf("expected error count >= 1, got %f", v)
	}
}

func TestRegisterHTTPMetrics_Idempotent(t *testing.T) {
	RegisterHTTPMetrics()
	RegisterHTTPMetrics()
}

func TestRegisterSearchMetrics_Idempotent(t *testing.T) {
	RegisterSearchMetrics()
	RegisterSearchMetrics()

	StrategyHitsTotal.WithLabelValues("semantic").Add(2)
	if v := testutil.ToFloat64(StrategyHitsTotal.WithLabelValues("semantic")); v < 2 {
		t.Errorf("expected strategy hits >= 2, got %f", v)
	}
}

func TestRegisterDescriberMetrics_Idempotent(t *testing.T) {
	RegisterDescriberMetrics()
	RegisterDescriberMetrics()

	DescriberRequestsTotal.WithLabelValues("stub", "stub", "success").Inc()
	if v := testutil.ToFloat64(DescriberRequestsTotal.WithLabelValues("stub", "stub", "success")); v < 1 {
		t.Errorf("expected describer requests >= 1, got %f", v)
	}
}
