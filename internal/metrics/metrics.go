// Package metrics exposes Prometheus metrics for ledger imports and exports.
//
// Metrics:
//   - <ns>_imports_total{outcome}: imports by outcome (success, invalid, rejected, error)
//   - <ns>_imported_rows_total: transactions stored by imports
//   - <ns>_import_duration_seconds{outcome}: import processing time
//   - <ns>_exports_total{format}: exports by format
//   - <ns>_export_bytes{format}: size of rendered export files
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/JonMunkholm/ledger/internal/core"
)

// Metrics records import/export activity. It implements core.Recorder.
type Metrics struct {
	registry *prometheus.Registry

	importsTotal   *prometheus.CounterVec
	importedRows   prometheus.Counter
	importDuration *prometheus.HistogramVec
	exportsTotal   *prometheus.CounterVec
	exportBytes    *prometheus.HistogramVec
}

var _ core.Recorder = (*Metrics)(nil)

// New creates the metrics and registers them, together with the Go and
// process collectors, on a fresh registry.
func New(namespace string) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		importsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "imports_total",
				Help:      "Total number of imports by outcome",
			},
			[]string{"outcome"},
		),
		importedRows: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "imported_rows_total",
				Help:      "Total number of transactions stored by imports",
			},
		),
		importDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "import_duration_seconds",
				Help:      "Import processing time in seconds",
				Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"outcome"},
		),
		exportsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "exports_total",
				Help:      "Total number of exports by format",
			},
			[]string{"format"},
		),
		exportBytes: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "export_bytes",
				Help:      "Size of rendered export files in bytes",
				Buckets:   prometheus.ExponentialBuckets(1024, 4, 8),
			},
			[]string{"format"},
		),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.importsTotal,
		m.importedRows,
		m.importDuration,
		m.exportsTotal,
		m.exportBytes,
	)
	return m
}

// ObserveImport records one finished import.
func (m *Metrics) ObserveImport(outcome string, rows int, d time.Duration) {
	m.importsTotal.WithLabelValues(outcome).Inc()
	m.importedRows.Add(float64(rows))
	m.importDuration.WithLabelValues(outcome).Observe(d.Seconds())
}

// ObserveExport records one rendered export.
func (m *Metrics) ObserveExport(format core.ExportFormat, rows, bytes int) {
	m.exportsTotal.WithLabelValues(string(format)).Inc()
	m.exportBytes.WithLabelValues(string(format)).Observe(float64(bytes))
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
