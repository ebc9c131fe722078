package app

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics are the dashboard collectors
type Metrics struct {
	Records      prometheus.Gauge
	LoadFailures prometheus.Counter
	LoadSeconds  prometheus.Histogram
	Updates      *prometheus.CounterVec
	Draws        *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg when non-nil
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Records: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "griddash",
			Name:      "dataset_records",
			Help:      "Number of records in the loaded dataset.",
		}),
		LoadFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "griddash",
			Name:      "load_failures_total",
			Help:      "Number of failed dataset loads.",
		}),
		LoadSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "griddash",
			Name:      "load_duration_seconds",
			Help:      "Time spent fetching and parsing the dataset.",
			Buckets:   prometheus.DefBuckets,
		}),
		Updates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "griddash",
			Name:      "updates_total",
			Help:      "Selection updates by selection kind.",
		}, []string{"selection"}),
		Draws: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "griddash",
			Name:      "chart_draws_total",
			Help:      "Chart draws by mount point.",
		}, []string{"mount"}),
	}

	if reg != nil {
		reg.MustRegister(m.Records, m.LoadFailures, m.LoadSeconds, m.Updates, m.Draws)
	}
	return m
}
