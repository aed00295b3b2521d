// Package metrics defines the Prometheus instruments exported by the service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Row outcomes recorded by RowsProcessed.
const (
	RowsGrouped   = "grouped"
	RowsUngrouped = "ungrouped"
	RowsNoAddress = "no_address"
)

// Metrics holds the collectors updated by the analysis service.
type Metrics struct {
	Analyses        *prometheus.CounterVec
	Downloads       *prometheus.CounterVec
	AnalysisSeconds prometheus.Histogram
	RowsProcessed   *prometheus.CounterVec
	GroupsFound     prometheus.Counter
	StoreErrors     *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		Analyses: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "duplo_analyses_total",
			Help: "Total number of spreadsheet analyses by outcome.",
		}, []string{"status"}),
		Downloads: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "duplo_downloads_total",
			Help: "Total number of export downloads by outcome.",
		}, []string{"status"}),
		AnalysisSeconds: promauto.With(reg).NewHistogram(prometheus.HistogramOpts{
			Name:    "duplo_analysis_duration_seconds",
			Help:    "Time spent reading, grouping and storing one spreadsheet.",
			Buckets: prometheus.DefBuckets,
		}),
		RowsProcessed: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "duplo_rows_processed_total",
			Help: "Spreadsheet rows analyzed, by outcome.",
		}, []string{"outcome"}),
		GroupsFound: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "duplo_duplicate_groups_total",
			Help: "Total number of duplicate address groups found.",
		}),
		StoreErrors: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "duplo_task_store_errors_total",
			Help: "Task store operations that failed, by operation.",
		}, []string{"op"}),
	}
}
