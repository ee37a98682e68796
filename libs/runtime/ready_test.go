package runtime

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestReadyz(t *testing.T) {
	healthy := ReadyCheck{Name: "db", Check: func(context.Context) error { return nil }}
	mux := NewBaseMuxWithReady(nil, healthy)

	rw := httptest.NewRecorder()
	mux.ServeHTTP(rw, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rw.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rw.Code)
	}

	broken := ReadyCheck{Name: "kafka", Check: func(context.Context) error { return errors.New("no brokers") }}
	mux = NewBaseMuxWithReady(nil, healthy, broken)
	rw = httptest.NewRecorder()
	mux.ServeHTTP(rw, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rw.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rw.Code)
	}
	var body readyResponse
	if err := json.Unmarshal(rw.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Failures["kafka"] != "no brokers" {
		t.Fatalf("unexpected failures: %#v", body.Failures)
	}
	if _, ok := body.Failures["db"]; ok {
		t.Fatal("healthy check must not be reported")
	}
}

func TestMetricsRoute(t *testing.T) {
	reg := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "clinicbook_test_total", Help: "test"})
	reg.MustRegister(counter)
	counter.Inc()

	mux := NewBaseMuxWithReady(reg)
	rw := httptest.NewRecorder()
	mux.ServeHTTP(rw, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rw.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rw.Code)
	}
	if !strings.Contains(rw.Body.String(), "clinicbook_test_total 1") {
		t.Fatalf("metric missing from output: %s", rw.Body.String())
	}

	rw = httptest.NewRecorder()
	NewBaseMuxWithReady(nil).ServeHTTP(rw, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rw.Code != http.StatusNotFound {
		t.Fatalf("expected 404 without gatherer, got %d", rw.Code)
	}
}

func TestParseLevel(t *testing.T) {
	if ParseLevel("DEBUG").String() != "DEBUG" {
		t.Fatal("expected debug level")
	}
	if ParseLevel("bogus").String() != "INFO" {
		t.Fatal("expected info fallback")
	}
}
