package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	m.ObserveAvailability("day", true)
	m.ObserveAvailability("day", true)
	m.ObserveBooking("whatsapp", "conflict", 20*time.Millisecond)
	m.ReminderCreated("24h")

	if got := testutil.ToFloat64(m.availabilityTotal.WithLabelValues("day", "available")); got != 2 {
		t.Fatalf("expected 2 day queries, got %v", got)
	}
	if got := testutil.ToFloat64(m.bookingsTotal.WithLabelValues("whatsapp", "conflict")); got != 1 {
		t.Fatalf("expected 1 conflict, got %v", got)
	}
	if got := testutil.ToFloat64(m.remindersCreated.WithLabelValues("24h")); got != 1 {
		t.Fatalf("expected 1 reminder, got %v", got)
	}
}

func TestMetricsNilSafe(t *testing.T) {
	var m *Metrics
	m.ObserveAvailability("specific", false)
	m.ObserveBooking("manual", "created", time.Second)
	m.ReminderCreated("3h")
}
