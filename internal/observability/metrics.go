// Package observability provides Prometheus metrics for prep runs.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const defaultNamespace = "attrition_prep"

// Metrics holds all Prometheus metrics of a prep run. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	// Run metrics
	RunsTotal     *prometheus.CounterVec
	RunDuration   *prometheus.HistogramVec
	StageDuration *prometheus.HistogramVec

	// Data metrics
	Customers      *prometheus.GaugeVec
	Exclusions     *prometheus.CounterVec
	ColumnsDropped *prometheus.CounterVec
	RowsDropped    *prometheus.CounterVec

	// Health metrics
	LastSuccessfulRun *prometheus.GaugeVec
}

// NewMetrics creates a Metrics instance registered on its own registry.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = defaultNamespace
	}
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		RunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "runs_total",
			Help:      "Total number of prep runs by mode and outcome",
		}, []string{"mode", "outcome"}),
		RunDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "run_duration_seconds",
			Help:      "Prep run duration in seconds",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
		}, []string{"mode"}),
		StageDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "stage_duration_seconds",
			Help:      "Duration of each pipeline stage in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"stage"}),

		Customers: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "data",
			Name:      "customers",
			Help:      "Number of customers remaining after each stage",
		}, []string{"mode", "stage"}),
		Exclusions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "data",
			Name:      "exclusions_total",
			Help:      "Customers excluded from the sample by reason",
		}, []string{"mode", "reason"}),
		ColumnsDropped: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cleaning",
			Name:      "columns_dropped_total",
			Help:      "Columns removed by the cleaner by rule",
		}, []string{"rule"}),
		RowsDropped: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cleaning",
			Name:      "rows_dropped_total",
			Help:      "Rows removed by the cleaner for null values",
		}, []string{"mode"}),

		LastSuccessfulRun: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_run_timestamp",
			Help:      "Unix timestamp of the last successful run",
		}, []string{"mode"}),
	}
}

// Registry returns the registry holding the metrics.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// WriteTextfile writes all metrics in the text exposition format, for the
// node exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.registry)
}

// RecordRun records a finished run.
func (m *Metrics) RecordRun(mode string, err error, duration time.Duration, finished time.Time) {
	if m == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.RunsTotal.WithLabelValues(mode, outcome).Inc()
	m.RunDuration.WithLabelValues(mode).Observe(duration.Seconds())
	if err == nil {
		m.LastSuccessfulRun.WithLabelValues(mode).Set(float64(finished.Unix()))
	}
}

// RecordStage records the duration of one pipeline stage.
func (m *Metrics) RecordStage(stage string, duration time.Duration) {
	if m == nil {
		return
	}
	m.StageDuration.WithLabelValues(stage).Observe(duration.Seconds())
}

// SetCustomers sets the customer count after a stage.
func (m *Metrics) SetCustomers(mode, stage string, n int) {
	if m == nil {
		return
	}
	m.Customers.WithLabelValues(mode, stage).Set(float64(n))
}

// AddExclusions adds excluded customer counts by reason.
func (m *Metrics) AddExclusions(mode string, byReason map[string]int) {
	if m == nil {
		return
	}
	for reason, n := range byReason {
		m.Exclusions.WithLabelValues(mode, reason).Add(float64(n))
	}
}

// AddCleaning records columns dropped per rule and rows dropped.
func (m *Metrics) AddCleaning(mode string, droppedByRule map[string]int, rows int) {
	if m == nil {
		return
	}
	for rule, n := range droppedByRule {
		m.ColumnsDropped.WithLabelValues(rule).Add(float64(n))
	}
	m.RowsDropped.WithLabelValues(mode).Add(float64(rows))
}
