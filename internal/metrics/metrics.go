package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SyncRunsTotal counts entity runs by outcome
	SyncRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sales_sync_runs_total",
			Help: "Total number of entity sync runs",
		},
		[]string{"entity", "outcome"},
	)

	// SyncDuration tracks entity run time
	SyncDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sales_sync_run_duration_seconds",
			Help:    "Entity sync run duration in seconds",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
		},
		[]string{"entity"},
	)

	// RecordsWritten counts records handed to a sink
	RecordsWritten = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sales_sync_records_written_total",
			Help: "Total number of records written by sink",
		},
		[]string{"entity", "sink"},
	)

	// SourceRequestsTotal counts remote API requests
	SourceRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sales_sync_source_requests_total",
			Help: "Total number of remote API requests",
		},
		[]string{"entity", "kind", "status"},
	)

	// EnrichmentFailuresTotal counts secondary lookups that yielded no value
	EnrichmentFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sales_sync_enrichment_failures_total",
			Help: "Total number of failed enrichment lookups",
		},
		[]string{"entity"},
	)

	// ErrorsTotal counts errors by component
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sales_sync_errors_total",
			Help: "Total number of errors",
		},
		[]string{"component", "error_type"},
	)

	// Watermark tracks the last synced date per entity as a Unix timestamp
	Watermark = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "sales_sync_watermark_seconds",
			Help: "Latest persisted record date by entity",
		},
		[]string{"entity"},
	)

	// LastSuccess tracks the time of the last successful run per entity
	LastSuccess = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "sales_sync_last_success_timestamp_seconds",
			Help: "Unix time of the last successful run by entity",
		},
		[]string{"entity"},
	)
)
