package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Submission outcomes recorded by BookingMetrics.
const (
	OutcomeSent      = "sent"
	OutcomeInvalid   = "invalid"
	OutcomeFailed    = "delivery_failed"
	OutcomeDuplicate = "duplicate"
	OutcomeMalformed = "malformed"
)

// BookingMetrics exposes counters/histograms for the booking submission flow.
type BookingMetrics struct {
	submissionsTotal *prometheus.CounterVec
	missingFields    *prometheus.CounterVec
	sendLatency      *prometheus.HistogramVec
}

func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		submissionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "patrimoine",
			Subsystem: "booking",
			Name:      "submissions_total",
			Help:      "Booking submissions by outcome",
		}, []string{"outcome"}),
		missingFields: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "patrimoine",
			Subsystem: "booking",
			Name:      "missing_field_total",
			Help:      "Rejected submissions by first missing field",
		}, []string{"field"}),
		sendLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "patrimoine",
			Subsystem: "booking",
			Name:      "email_send_seconds",
			Help:      "Latency of the email provider call",
			Buckets:   prometheus.DefBuckets,
		}, []string{"provider", "status"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.submissionsTotal, m.missingFields, m.sendLatency)
	return m
}

func (m *BookingMetrics) ObserveSubmission(outcome string) {
	if m == nil {
		return
	}
	m.submissionsTotal.WithLabelValues(outcome).Inc()
}

func (m *BookingMetrics) ObserveMissingField(field string) {
	if m == nil {
		return
	}
	m.missingFields.WithLabelValues(field).Inc()
}

func (m *BookingMetrics) ObserveSend(provider string, ok bool, elapsed time.Duration) {
	if m == nil {
		return
	}
	status := "ok"
	if !ok {
		status = "error"
	}
	if provider == "" {
		provider = "unknown"
	}
	m.sendLatency.WithLabelValues(provider, status).Observe(elapsed.Seconds())
}
