package observability

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// LedgerMetrics records operation activity across the RPC surface.
type LedgerMetrics struct {
	operations *prometheus.CounterVec
	failures   *prometheus.CounterVec
	latency    *prometheus.HistogramVec
	checkIns   *prometheus.CounterVec
	purchases  prometheus.Counter
}

var (
	ledgerMetricsOnce sync.Once
	ledgerRegistry    *LedgerMetrics
)

// Metrics returns the lazily-initialised ledger metrics registry.
func Metrics() *LedgerMetrics {
	ledgerMetricsOnce.Do(func() {
		ledgerRegistry = &LedgerMetrics{
			operations: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "clubchain",
				Subsystem: "ledger",
				Name:      "operations_total",
				Help:      "Total ledger operation invocations segmented by method.",
			}, []string{"method"}),
			failures: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "clubchain",
				Subsystem: "ledger",
				Name:      "failures_total",
				Help:      "Total failed ledger operations segmented by method and error kind.",
			}, []string{"method", "kind"}),
			latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "clubchain",
				Subsystem: "ledger",
				Name:      "operation_duration_seconds",
				Help:      "Latency distribution for ledger operations.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"method"}),
			checkIns: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "clubchain",
				Subsystem: "attendance",
				Name:      "check_ins_total",
				Help:      "Successful check-ins segmented by status.",
			}, []string{"status"}),
			purchases: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "clubchain",
				Subsystem: "marketplace",
				Name:      "purchases_total",
				Help:      "Successful marketplace purchases.",
			}),
		}
		prometheus.MustRegister(
			ledgerRegistry.operations,
			ledgerRegistry.failures,
			ledgerRegistry.latency,
			ledgerRegistry.checkIns,
			ledgerRegistry.purchases,
		)
	})
	return ledgerRegistry
}

// ObserveOperation records one operation invocation and its latency.
// Failures are tallied separately through RecordFailure.
func (m *LedgerMetrics) ObserveOperation(method string, start time.Time) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(method).Inc()
	m.latency.WithLabelValues(method).Observe(time.Since(start).Seconds())
}

// RecordFailure tallies a failed operation under its error kind.
func (m *LedgerMetrics) RecordFailure(method, kind string) {
	if m == nil {
		return
	}
	m.failures.WithLabelValues(method, kind).Inc()
}

// RecordCheckIn tallies a successful check-in.
func (m *LedgerMetrics) RecordCheckIn(status string) {
	if m == nil {
		return
	}
	m.checkIns.WithLabelValues(status).Inc()
}

// RecordPurchase tallies a successful purchase.
func (m *LedgerMetrics) RecordPurchase() {
	if m == nil {
		return
	}
	m.purchases.Inc()
}
