// Package observability provides Prometheus instrumentation for the
// Arbor engine: turn throughput, latency, emitted acts and fatal errors.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/aretw0/arbor/pkg/domain"
)

// Metrics holds the engine's Prometheus collectors.
type Metrics struct {
	turnsTotal   prometheus.Counter
	turnDuration prometheus.Histogram
	actsTotal    *prometheus.CounterVec
	errorsTotal  prometheus.Counter
}

// NewMetrics creates and registers the collectors. Pass
// prometheus.DefaultRegisterer for the default registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		turnsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "arbor",
			Name:      "turns_total",
			Help:      "Number of dialog turns processed.",
		}),
		turnDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "arbor",
			Name:      "turn_duration_seconds",
			Help:      "Wall time spent processing one turn.",
			Buckets:   prometheus.DefBuckets,
		}),
		actsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "arbor",
			Name:      "acts_total",
			Help:      "Acts emitted, by act type.",
		}, []string{"type"}),
		errorsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "arbor",
			Name:      "turn_errors_total",
			Help:      "Turns that ended in a fatal configuration or protocol error.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.turnsTotal, m.turnDuration, m.actsTotal, m.errorsTotal)
	}
	return m
}

// ObserveTurn records one processed turn.
func (m *Metrics) ObserveTurn(elapsed time.Duration, result *domain.TurnResult, err error) {
	m.turnsTotal.Inc()
	m.turnDuration.Observe(elapsed.Seconds())
	if err != nil {
		m.errorsTotal.Inc()
		return
	}
	for _, act := range result.Acts {
		m.actsTotal.WithLabelValues(string(act.Type)).Inc()
	}
}
