package observability

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "crimemap"

// Metrics holds the Prometheus counters and histograms for both stages.
type Metrics struct {
	// Aggregation stage.
	RecordsRead         prometheus.Counter
	DistrictsScored     prometheus.Counter
	NonComputableStates prometheus.Counter
	AggregateDuration   prometheus.Histogram

	// Locate stage.
	LocationAcquisitions *prometheus.CounterVec   // labels: source={flag,ip,manual}, outcome={success,error}
	Resolutions          *prometheus.CounterVec   // labels: strategy={nearest,reverse}, outcome={matched,miss}
	ScoreLookups         *prometheus.CounterVec   // labels: outcome={found,not_found}
	ExternalRequests     *prometheus.CounterVec   // labels: service={ipapi,nominatim,mapbox}, outcome={success,error,empty}
	ExternalDuration     *prometheus.HistogramVec // labels: service
	MapsRendered         prometheus.Counter

	registry *prometheus.Registry
}

// NewMetrics creates all metrics and registers them with a dedicated registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	m.registry = prometheus.NewRegistry()
	m.registry.MustRegister(
		m.RecordsRead,
		m.DistrictsScored,
		m.NonComputableStates,
		m.AggregateDuration,
		m.LocationAcquisitions,
		m.Resolutions,
		m.ScoreLookups,
		m.ExternalRequests,
		m.ExternalDuration,
		m.MapsRendered,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics for tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		RecordsRead: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_read_total",
			Help:      "District rows read from the input CSV.",
		}),
		DistrictsScored: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "districts_scored_total",
			Help:      "District rows written to the scored CSV.",
		}),
		NonComputableStates: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "non_computable_states_total",
			Help:      "States with a zero total whose shares were written as NA.",
		}),
		AggregateDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "aggregate_duration_seconds",
			Help:      "Duration of a complete read-score-write aggregation run.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
		LocationAcquisitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "location_acquisitions_total",
			Help:      "Location acquisition attempts by source and outcome.",
		}, []string{"source", "outcome"}),
		Resolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resolutions_total",
			Help:      "District resolutions by strategy and outcome.",
		}, []string{"strategy", "outcome"}),
		ScoreLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "score_lookups_total",
			Help:      "Scored dataset lookups by outcome.",
		}, []string{"outcome"}),
		ExternalRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "external_requests_total",
			Help:      "Requests to external location services by service and outcome.",
		}, []string{"service", "outcome"}),
		ExternalDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "external_request_duration_seconds",
			Help:      "External location service request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"service"}),
		MapsRendered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "maps_rendered_total",
			Help:      "HTML maps written.",
		}),
	}
}

// WriteTextfile writes all registered metrics in the Prometheus text format,
// for pickup by the node_exporter textfile collector. It is a no-op for path
// "" or for metrics built with NewMetricsForTesting.
func (m *Metrics) WriteTextfile(path string) error {
	if path == "" || m.registry == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
