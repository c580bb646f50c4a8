package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics.
type Metrics struct {
	// Settlement batch metrics
	SettlementRuns     *prometheus.CounterVec
	SettlementItems    *prometheus.CounterVec
	SettlementDuration *prometheus.HistogramVec
	SettlementAmount   *prometheus.CounterVec
	RunLockContention  *prometheus.CounterVec

	// Transfer metrics
	TransfersExecuted prometheus.Counter
	TransferErrors    *prometheus.CounterVec
	TransferDuration  prometheus.Histogram

	// API metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Database metrics
	DBConnections prometheus.Gauge
	DBErrors      *prometheus.CounterVec
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		SettlementRuns: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "settled_settlement_runs_total",
				Help: "Total settlement batch runs by batch and result",
			},
			[]string{"batch", "result"},
		),
		SettlementItems: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "settled_settlement_items_total",
				Help: "Total settled items by batch and outcome",
			},
			[]string{"batch", "outcome"},
		),
		SettlementDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "settled_settlement_duration_seconds",
				Help:    "Duration of settlement batch runs",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"batch"},
		),
		SettlementAmount: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "settled_settlement_amount_total",
				Help: "Total amount moved by settlement batches",
			},
			[]string{"batch"},
		),
		RunLockContention: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "settled_run_lock_contention_total",
				Help: "Batch runs skipped because another instance held the lock",
			},
			[]string{"batch"},
		),

		TransfersExecuted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "settled_transfers_executed_total",
			Help: "Total number of transfers executed",
		}),
		TransferErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "settled_transfer_errors_total",
				Help: "Total number of transfer errors by type",
			},
			[]string{"error_type"},
		),
		TransferDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "settled_transfer_duration_seconds",
			Help:    "Duration of transfer operations",
			Buckets: prometheus.DefBuckets,
		}),

		HTTPRequests: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "settled_http_requests_total",
				Help: "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "settled_http_duration_seconds",
				Help:    "HTTP request duration",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		DBConnections: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "settled_db_connections",
			Help: "Current number of database connections",
		}),
		DBErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "settled_db_errors_total",
				Help: "Total database errors",
			},
			[]string{"operation"},
		),
	}
}

// ObserveRun records the aggregate counters of one finished batch run.
func (m *Metrics) ObserveRun(batch string, success, failure, errorCount int, totalAmount float64, seconds float64) {
	result := "ok"
	if errorCount > 0 {
		result = "with_errors"
	}

	m.SettlementRuns.WithLabelValues(batch, result).Inc()
	m.SettlementItems.WithLabelValues(batch, "success").Add(float64(success))
	m.SettlementItems.WithLabelValues(batch, "failure").Add(float64(failure))
	m.SettlementItems.WithLabelValues(batch, "error").Add(float64(errorCount))
	m.SettlementAmount.WithLabelValues(batch).Add(totalAmount)
	m.SettlementDuration.WithLabelValues(batch).Observe(seconds)
}
