package observability

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/couchcryptid/wetland-gis-tools/internal/domain"
)

// Metrics holds the Prometheus counters and histograms for tool runs.
// Each Metrics owns a private registry so a run can be written out as a
// node-exporter textfile without process-wide collectors.
type Metrics struct {
	Runs        *prometheus.CounterVec   // labels: tool, outcome={succeeded,partial,failed}
	Items       *prometheus.CounterVec   // labels: tool, result (per tool, e.g. written, failed, deleted)
	RunDuration *prometheus.HistogramVec // labels: tool

	registry *prometheus.Registry
}

// NewMetrics creates and registers all run metrics.
func NewMetrics() *Metrics {
	m := &Metrics{
		Runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wetgis",
			Name:      "runs_total",
			Help:      "Tool runs by tool and outcome.",
		}, []string{"tool", "outcome"}),
		Items: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wetgis",
			Name:      "items_total",
			Help:      "Items handled by a tool run, by result.",
		}, []string{"tool", "result"}),
		RunDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "wetgis",
			Name:      "run_duration_seconds",
			Help:      "Wall time of a complete tool run.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 300},
		}, []string{"tool"}),
		registry: prometheus.NewRegistry(),
	}

	m.registry.MustRegister(m.Runs, m.Items, m.RunDuration)

	return m
}

// NewMetricsForTesting returns an isolated Metrics. It is the same as NewMetrics;
// the name keeps test call sites explicit.
func NewMetricsForTesting() *Metrics {
	return NewMetrics()
}

// Registry exposes the private registry, for tests and gatherers.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveRun records a finished run: its outcome, duration and summary counters.
func (m *Metrics) ObserveRun(ev *domain.RunEvent) {
	m.Runs.WithLabelValues(ev.Tool, string(ev.Outcome)).Inc()
	m.RunDuration.WithLabelValues(ev.Tool).Observe(ev.Duration().Seconds())
	for result, n := range ev.Summary {
		m.Items.WithLabelValues(ev.Tool, result).Add(float64(n))
	}
}

// WriteTextfile writes every metric to path in the text exposition format.
// The file is replaced atomically.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
