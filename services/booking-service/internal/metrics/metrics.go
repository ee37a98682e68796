package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes counters/histograms for availability and booking flows.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	availabilityTotal *prometheus.CounterVec
	bookingsTotal     *prometheus.CounterVec
	bookingLatency    prometheus.Histogram
	remindersCreated  *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		availabilityTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinicbook",
			Subsystem: "availability",
			Name:      "queries_total",
			Help:      "Availability queries by mode and outcome",
		}, []string{"mode", "outcome"}),
		bookingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinicbook",
			Subsystem: "booking",
			Name:      "attempts_total",
			Help:      "Booking attempts by source and outcome",
		}, []string{"source", "outcome"}),
		bookingLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "clinicbook",
			Subsystem: "booking",
			Name:      "duration_seconds",
			Help:      "Latency of booking requests",
			Buckets:   prometheus.DefBuckets,
		}),
		remindersCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinicbook",
			Subsystem: "booking",
			Name:      "reminders_created_total",
			Help:      "Reminders stored at booking time by kind",
		}, []string{"kind"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.availabilityTotal, m.bookingsTotal, m.bookingLatency, m.remindersCreated)
	return m
}

// ObserveAvailability records a query; mode is "specific" or "day".
func (m *Metrics) ObserveAvailability(mode string, available bool) {
	if m == nil {
		return
	}
	outcome := "unavailable"
	if available {
		outcome = "available"
	}
	m.availabilityTotal.WithLabelValues(mode, outcome).Inc()
}

// ObserveBooking records the outcome of a booking attempt (created,
// validation, not_found, conflict, dependency).
func (m *Metrics) ObserveBooking(source, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.bookingsTotal.WithLabelValues(source, outcome).Inc()
	m.bookingLatency.Observe(elapsed.Seconds())
}

func (m *Metrics) ReminderCreated(kind string) {
	if m == nil {
		return
	}
	m.remindersCreated.WithLabelValues(kind).Inc()
}
