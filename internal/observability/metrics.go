package observability

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Run outcomes used as the "outcome" label of RunsTotal.
const (
	OutcomeSuccess          = "success"
	OutcomeFetchError       = "fetch_error"
	OutcomeDataError        = "data_error"
	OutcomePersistenceError = "persistence_error"
	OutcomeError            = "error"
)

// Metrics holds the Prometheus collectors for the ETL job. The job is one-shot,
// so collectors live in a private registry that is pushed to a Pushgateway at
// exit instead of being scraped.
type Metrics struct {
	RunsTotal        *prometheus.CounterVec // labels: outcome
	RunDuration      prometheus.Histogram
	FetchDuration    prometheus.Histogram
	FetchBytes       prometheus.Counter
	RowsCleaned      prometheus.Counter
	TimestampsMarked prometheus.Counter
	DatasetsInFlight prometheus.Gauge
	LastSuccess      *prometheus.GaugeVec // labels: dataset

	registry *prometheus.Registry
}

// NewMetrics creates all job metrics and registers them with a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		RunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "quake_etl",
			Name:      "runs_total",
			Help:      "Dataset runs by outcome.",
		}, []string{"outcome"}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "quake_etl",
			Name:      "run_duration_seconds",
			Help:      "Duration of a complete fetch-normalize-persist run.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		FetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "quake_etl",
			Name:      "fetch_duration_seconds",
			Help:      "Duration of the HTTP fetch of a remote dataset.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		FetchBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "quake_etl",
			Name:      "fetch_bytes_total",
			Help:      "Total response bytes fetched from the source.",
		}),
		RowsCleaned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "quake_etl",
			Name:      "rows_cleaned_total",
			Help:      "Total rows written to cleaned sinks.",
		}),
		TimestampsMarked: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "quake_etl",
			Name:      "timestamps_substituted_total",
			Help:      "Time values replaced by the unparseable marker.",
		}),
		DatasetsInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "quake_etl",
			Name:      "datasets_in_flight",
			Help:      "Datasets currently being processed.",
		}),
		LastSuccess: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "quake_etl",
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful run per dataset.",
		}, []string{"dataset"}),
		registry: prometheus.NewRegistry(),
	}

	m.registry.MustRegister(
		m.RunsTotal,
		m.RunDuration,
		m.FetchDuration,
		m.FetchBytes,
		m.RowsCleaned,
		m.TimestampsMarked,
		m.DatasetsInFlight,
		m.LastSuccess,
	)

	return m
}

// Gatherer exposes the job registry, mainly for tests.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.registry
}

// Push sends the current metric values to a Pushgateway under the given job
// name, replacing any previous push for that job.
func (m *Metrics) Push(ctx context.Context, gatewayURL, job string) error {
	if err := push.New(gatewayURL, job).Gatherer(m.registry).PushContext(ctx); err != nil {
		return fmt.Errorf("push metrics: %w", err)
	}
	return nil
}
