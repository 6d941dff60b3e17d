package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the ETL pipeline.
type Metrics struct {
	MessagesConsumed  prometheus.Counter
	LineListsProduced prometheus.Counter
	TransformErrors   prometheus.Counter
	PipelineRunning   prometheus.Gauge

	// Batch processing metrics.
	BatchSize               prometheus.Histogram
	BatchProcessingDuration prometheus.Histogram
	LinesPerList            prometheus.Histogram

	// Normalization metrics.
	SpeciesLookups          *prometheus.CounterVec // labels: format={jpl,cdms}, outcome={hit,miss}
	PartitionExtrapolations prometheus.Counter

	// Upstream catalog service metrics.
	CatalogRequests    *prometheus.CounterVec   // labels: catalog={jpl,cdms}, outcome={success,error,empty}
	CatalogCache       *prometheus.CounterVec   // labels: catalog={jpl,cdms}, result={hit,miss}
	CatalogAPIDuration *prometheus.HistogramVec // labels: catalog={jpl,cdms}
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		MessagesConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "specline_etl",
			Name:      "messages_consumed_total",
			Help:      "Total catalog request envelopes read from the source topic.",
		}),
		LineListsProduced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "specline_etl",
			Name:      "line_lists_produced_total",
			Help:      "Total normalized line lists written to the sink topic.",
		}),
		TransformErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "specline_etl",
			Name:      "transform_errors_total",
			Help:      "Total normalization failures.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "specline_etl",
			Name:      "pipeline_running",
			Help:      "1 when the pipeline is active, 0 when shut down.",
		}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "specline_etl",
			Name:      "batch_size",
			Help:      "Number of messages per batch extracted from Kafka.",
			Buckets:   []float64{1, 5, 10, 20, 30, 40, 50, 75, 100},
		}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "specline_etl",
			Name:      "batch_processing_duration_seconds",
			Help:      "Duration of a complete batch extract-transform-load cycle.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
		LinesPerList: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "specline_etl",
			Name:      "lines_per_list",
			Help:      "Spectral lines per normalized list, including empty results.",
			Buckets:   []float64{0, 1, 5, 10, 25, 50, 100, 250, 500, 1000},
		}),
		SpeciesLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "specline_etl",
			Name:      "species_lookups_total",
			Help:      "Master-table species resolutions by format and outcome.",
		}, []string{"format", "outcome"}),
		PartitionExtrapolations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "specline_etl",
			Name:      "partition_extrapolations_total",
			Help:      "Partition function evaluations outside the tabulated range.",
		}),
		CatalogRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "specline_etl",
			Name:      "catalog_requests_total",
			Help:      "Upstream catalog service requests by catalog and outcome.",
		}, []string{"catalog", "outcome"}),
		CatalogCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "specline_etl",
			Name:      "catalog_cache_total",
			Help:      "Catalog response cache lookups by catalog and result.",
		}, []string{"catalog", "result"}),
		CatalogAPIDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "specline_etl",
			Name:      "catalog_api_duration_seconds",
			Help:      "Upstream catalog request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"catalog"}),
	}

	prometheus.MustRegister(
		m.MessagesConsumed,
		m.LineListsProduced,
		m.TransformErrors,
		m.PipelineRunning,
		m.BatchSize,
		m.BatchProcessingDuration,
		m.LinesPerList,
		m.SpeciesLookups,
		m.PartitionExtrapolations,
		m.CatalogRequests,
		m.CatalogCache,
		m.CatalogAPIDuration,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		MessagesConsumed:        prometheus.NewCounter(prometheus.CounterOpts{Namespace: "specline_etl", Name: "messages_consumed_total"}),
		LineListsProduced:       prometheus.NewCounter(prometheus.CounterOpts{Namespace: "specline_etl", Name: "line_lists_produced_total"}),
		TransformErrors:         prometheus.NewCounter(prometheus.CounterOpts{Namespace: "specline_etl", Name: "transform_errors_total"}),
		PipelineRunning:         prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "specline_etl", Name: "pipeline_running"}),
		BatchSize:               prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "specline_etl", Name: "batch_size"}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "specline_etl", Name: "batch_processing_duration_seconds"}),
		LinesPerList:            prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "specline_etl", Name: "lines_per_list"}),
		SpeciesLookups:          prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "specline_etl", Name: "species_lookups_total"}, []string{"format", "outcome"}),
		PartitionExtrapolations: prometheus.NewCounter(prometheus.CounterOpts{Namespace: "specline_etl", Name: "partition_extrapolations_total"}),
		CatalogRequests:         prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "specline_etl", Name: "catalog_requests_total"}, []string{"catalog", "outcome"}),
		CatalogCache:            prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "specline_etl", Name: "catalog_cache_total"}, []string{"catalog", "result"}),
		CatalogAPIDuration:      prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: "specline_etl", Name: "catalog_api_duration_seconds"}, []string{"catalog"}),
	}
}
