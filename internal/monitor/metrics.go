package monitor

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics are the monitor's Prometheus collectors.
type Metrics struct {
	Requests        prometheus.Counter
	RequestDuration prometheus.Histogram
	SensorErrors    prometheus.Counter
	AlertsRaised    *prometheus.CounterVec
	EmailOutcomes   *prometheus.CounterVec
}

// NewMetrics builds and registers the collectors. Tests pass a private
// registry; main passes prometheus.DefaultRegisterer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Requests: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "envmon_requests_total",
			Help: "Total HTTP requests served by the monitor endpoint.",
		}),
		RequestDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "envmon_request_duration_seconds",
			Help:    "Serve-cycle latency.",
			Buckets: prometheus.DefBuckets,
		}),
		SensorErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "envmon_sensor_errors_total",
			Help: "Sensor reads that failed or were implausible.",
		}),
		AlertsRaised: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "envmon_alerts_raised_total",
			Help: "Threshold violations detected, by channel.",
		}, []string{"channel"}),
		EmailOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "envmon_email_outcomes_total",
			Help: "Email dispatch attempts, by outcome.",
		}, []string{"outcome"}),
	}
	reg.MustRegister(m.Requests, m.RequestDuration, m.SensorErrors, m.AlertsRaised, m.EmailOutcomes)
	return m
}
