// Package metrics provides observability for the checkin module.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics for check-in operations. All methods
// are nil-safe so tests can run services without a registry.
type Metrics struct {
	// General attendance outcomes by status
	GeneralOutcome *prometheus.CounterVec

	// Session registration outcomes by status
	SessionOutcome *prometheus.CounterVec

	// Welcome kits granted
	KitsGranted prometheus.Counter

	// Full session registration latency, validation through commit
	RegisterLatency prometheus.Histogram

	// Seats still available per session
	SeatsAvailable *prometheus.GaugeVec
}

// New creates and registers all checkin metrics.
func New() *Metrics {
	return &Metrics{
		GeneralOutcome: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "acredita_general_attendance_total",
			Help: "General attendance registrations by outcome",
		}, []string{"outcome"}),

		SessionOutcome: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "acredita_session_registrations_total",
			Help: "Session registration attempts by outcome",
		}, []string{"outcome"}),

		KitsGranted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "acredita_welcome_kits_granted_total",
			Help: "Welcome kits granted on first general attendance",
		}),

		RegisterLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "acredita_session_register_duration_seconds",
			Help:    "Duration of session registration attempts",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),

		SeatsAvailable: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "acredita_session_seats_available",
			Help: "Seats currently available per session",
		}, []string{"session_id"}),
	}
}

// IncrementGeneralOutcome records one general attendance outcome.
func (m *Metrics) IncrementGeneralOutcome(outcome string) {
	if m != nil {
		m.GeneralOutcome.WithLabelValues(outcome).Inc()
	}
}

// IncrementSessionOutcome records one session registration outcome.
func (m *Metrics) IncrementSessionOutcome(outcome string) {
	if m != nil {
		m.SessionOutcome.WithLabelValues(outcome).Inc()
	}
}

// IncrementKitsGranted records one granted welcome kit.
func (m *Metrics) IncrementKitsGranted() {
	if m != nil {
		m.KitsGranted.Inc()
	}
}

// ObserveRegisterLatency records the duration of one registration attempt.
func (m *Metrics) ObserveRegisterLatency(d time.Duration) {
	if m != nil {
		m.RegisterLatency.Observe(d.Seconds())
	}
}

// SetSeatsAvailable publishes the current seat count for a session.
func (m *Metrics) SetSeatsAvailable(sessionID string, available int) {
	if m != nil {
		m.SeatsAvailable.WithLabelValues(sessionID).Set(float64(available))
	}
}
