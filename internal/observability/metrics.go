package observability

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Pull outcomes used as the "outcome" label.
const (
	OutcomeSuccess          = "success"
	OutcomeLocationNotFound = "location_not_found"
	OutcomeNoData           = "no_data"
	OutcomeFetchError       = "fetch_error"
	OutcomeWriteError       = "write_error"
)

// Metrics holds the Prometheus collectors for one get_draws run. Each run owns
// its registry; the collectors are pushed to a Pushgateway when the run ends.
type Metrics struct {
	Registry *prometheus.Registry

	Pulls        *prometheus.CounterVec // labels: source, outcome
	RowsWritten  prometheus.Counter
	PullDuration prometheus.Histogram
	LastSuccess  prometheus.Gauge

	// Draws service metrics.
	APIRequests *prometheus.CounterVec   // labels: endpoint, outcome={success,error}
	APIDuration *prometheus.HistogramVec // labels: endpoint

	NotifyErrors prometheus.Counter
}

// NewMetrics creates all collectors and registers them with a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		Pulls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "get_draws",
			Name:      "pulls_total",
			Help:      "Draw pulls by source and outcome.",
		}, []string{"source", "outcome"}),
		RowsWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "get_draws",
			Name:      "rows_written_total",
			Help:      "Rows written to draws artifacts.",
		}),
		PullDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "get_draws",
			Name:      "pull_duration_seconds",
			Help:      "Duration of a complete resolve-fetch-write run.",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
		}),
		LastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "get_draws",
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful artifact write.",
		}),
		APIRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "get_draws",
			Name:      "api_requests_total",
			Help:      "Draws service requests by endpoint and outcome.",
		}, []string{"endpoint", "outcome"}),
		APIDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "get_draws",
			Name:      "api_request_duration_seconds",
			Help:      "Draws service request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 5, 15, 60, 300},
		}, []string{"endpoint"}),
		NotifyErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "get_draws",
			Name:      "notify_errors_total",
			Help:      "Artifact notifications that could not be published.",
		}),
	}

	m.Registry.MustRegister(
		m.Pulls,
		m.RowsWritten,
		m.PullDuration,
		m.LastSuccess,
		m.APIRequests,
		m.APIDuration,
		m.NotifyErrors,
	)

	return m
}

// Push sends every collected metric to the Pushgateway at url under the given
// job, grouped by instance labels.
func (m *Metrics) Push(ctx context.Context, url, job string, grouping map[string]string) error {
	p := push.New(url, job).Gatherer(m.Registry)
	for k, v := range grouping {
		p = p.Grouping(k, v)
	}
	if err := p.PushContext(ctx); err != nil {
		return fmt.Errorf("push metrics: %w", err)
	}
	return nil
}
