package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// risk-and-plume engine.
type Metrics struct {
	// Provider calls.
	ProviderRequests *prometheus.CounterVec   // labels: provider={fems,firms}, outcome={success,error,empty}
	ProviderDuration *prometheus.HistogramVec // labels: provider={fems,firms}

	// Cache behavior.
	CacheLookups *prometheus.CounterVec // labels: cache={result,firms}, result={hit,miss}

	// Plume model.
	PlumeFrames      prometheus.Counter
	PlumesSuppressed prometheus.Counter
	GeometryErrors   prometheus.Counter

	// Aggregation.
	AggregationDuration  prometheus.Histogram
	FiresReturned        prometheus.Histogram
	StationFallbackDepth prometheus.Histogram
}

// NewMetrics creates and registers all engine metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.ProviderRequests,
		m.ProviderDuration,
		m.CacheLookups,
		m.PlumeFrames,
		m.PlumesSuppressed,
		m.GeometryErrors,
		m.AggregationDuration,
		m.FiresReturned,
		m.StationFallbackDepth,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		ProviderRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wildfire",
			Name:      "provider_requests_total",
			Help:      "Upstream provider requests by provider and outcome.",
		}, []string{"provider", "outcome"}),
		ProviderDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "wildfire",
			Name:      "provider_request_duration_seconds",
			Help:      "Upstream provider request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"provider"}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wildfire",
			Name:      "cache_lookups_total",
			Help:      "Cache lookups by cache and result.",
		}, []string{"cache", "result"}),
		PlumeFrames: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "wildfire",
			Name:      "plume_frames_total",
			Help:      "Successfully generated plume frames.",
		}),
		PlumesSuppressed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "wildfire",
			Name:      "plumes_suppressed_total",
			Help:      "Plume computations skipped for small/uncertain fires.",
		}),
		GeometryErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "wildfire",
			Name:      "plume_geometry_errors_total",
			Help:      "Plume frames dropped for degenerate geometry.",
		}),
		AggregationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "wildfire",
			Name:      "aggregation_duration_seconds",
			Help:      "Duration of a complete wildfire context assembly.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		FiresReturned: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "wildfire",
			Name:      "fires_returned",
			Help:      "Fire detections included per assembled context.",
			Buckets:   []float64{0, 1, 5, 10, 25, 50, 100, 250},
		}),
		StationFallbackDepth: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "wildfire",
			Name:      "station_fallback_depth",
			Help:      "Rank of the station candidate that finally supplied data.",
			Buckets:   []float64{0, 1, 2, 3, 4, 5},
		}),
	}
}
