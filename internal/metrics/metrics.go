package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/username/persiandate/pkg/persiandate"
)

// Metrics holds the conversion counters and their registry
type Metrics struct {
	registry         *prometheus.Registry
	conversions      *prometheus.CounterVec
	conversionErrors prometheus.Counter
	lastRun          prometheus.Gauge
}

// New creates a registry with the conversion metrics registered
func New() *Metrics {
	registry := prometheus.NewRegistry()

	conversions := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "persiandate_conversions_total",
			Help: "Gregorian dates converted to Persian, by output format",
		},
		[]string{"format"},
	)

	conversionErrors := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "persiandate_conversion_errors_total",
			Help: "Inputs rejected before conversion",
		},
	)

	lastRun := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "persiandate_daemon_last_run_timestamp_seconds",
			Help: "Unix time of the last successful daemon run",
		},
	)

	registry.MustRegister(conversions, conversionErrors, lastRun)

	return &Metrics{
		registry:         registry,
		conversions:      conversions,
		conversionErrors: conversionErrors,
		lastRun:          lastRun,
	}
}

// ObserveConversion counts one conversion rendered with format
func (m *Metrics) ObserveConversion(format persiandate.Format) {
	if m == nil {
		return
	}
	m.conversions.WithLabelValues(format.String()).Inc()
}

// ObserveError counts one rejected input
func (m *Metrics) ObserveError() {
	if m == nil {
		return
	}
	m.conversionErrors.Inc()
}

// ObserveRun records a successful daemon run at t
func (m *Metrics) ObserveRun(t time.Time) {
	if m == nil {
		return
	}
	m.lastRun.Set(float64(t.Unix()))
}

// Registry exposes the underlying registry (for gathering in tests or HTTP)
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteTextfile writes the metrics in the node-exporter textfile format
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}
