// Package metrics exposes the prometheus instrumentation shared by the
// Store, Maintenance, Streamer and RelayService components. Each
// component is handed the same *Metrics and records against it rather
// than reaching for package-level globals, so a single process can run
// more than one relay node (as the tests do) without double-registering
// collectors.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles the counters and histograms recorded across the
// relay. Construct one per process with New and register it with
// prometheus.NewRegistry (or the default registry via NewDefault).
type Metrics struct {
	OperationsTotal   *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec
	NoteSizeBytes     prometheus.Histogram
	BatchSize         prometheus.Histogram
	ActiveSubscriptions prometheus.Gauge
	DroppedNotesTotal *prometheus.CounterVec
	RetentionSweepRows prometheus.Histogram
}

// New creates a Metrics bundle and registers every collector with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		OperationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "relay_operations_total",
				Help: "Total number of relay operations by name and outcome.",
			},
			[]string{"operation", "status"},
		),
		OperationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "relay_operation_duration_seconds",
				Help:    "Duration of relay operations in seconds.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		NoteSizeBytes: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "relay_note_size_bytes",
				Help:    "Size in bytes of the details payload on inserted notes.",
				Buckets: prometheus.ExponentialBuckets(64, 4, 8),
			},
		),
		BatchSize: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "relay_fetch_batch_size",
				Help:    "Number of notes returned per FetchNotes/StreamNotes batch.",
				Buckets: prometheus.ExponentialBuckets(1, 2, 10),
			},
		),
		ActiveSubscriptions: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "relay_active_subscriptions",
				Help: "Number of currently open StreamNotes subscriptions.",
			},
		),
		DroppedNotesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "relay_dropped_notes_total",
				Help: "Total number of subscriptions dropped by the streamer, by reason (e.g. a full delivery queue).",
			},
			[]string{"reason"},
		),
		RetentionSweepRows: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "relay_retention_sweep_rows",
				Help:    "Number of rows removed per retention sweep.",
				Buckets: prometheus.ExponentialBuckets(1, 4, 8),
			},
		),
	}
	reg.MustRegister(
		m.OperationsTotal,
		m.OperationDuration,
		m.NoteSizeBytes,
		m.BatchSize,
		m.ActiveSubscriptions,
		m.DroppedNotesTotal,
		m.RetentionSweepRows,
	)
	return m
}

// NewDefault registers against prometheus.DefaultRegisterer, the form
// cmd/relaynode uses so promhttp.Handler() picks the metrics up.
func NewDefault() *Metrics {
	return New(prometheus.DefaultRegisterer)
}

// Timer times a single operation and reports both its duration and its
// outcome when Finish is called.
type Timer struct {
	start     time.Time
	operation string
	m         *Metrics
}

// NewTimer starts timing operation.
func (m *Metrics) NewTimer(operation string) *Timer {
	return &Timer{start: time.Now(), operation: operation, m: m}
}

// Finish records the elapsed duration and increments the operation
// counter with the given status ("ok", "error", ...).
func (t *Timer) Finish(status string) {
	t.m.OperationDuration.WithLabelValues(t.operation).Observe(time.Since(t.start).Seconds())
	t.m.OperationsTotal.WithLabelValues(t.operation, status).Inc()
}
