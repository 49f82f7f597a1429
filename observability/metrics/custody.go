package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// CustodyMetrics aggregates the counters exported by the custody daemon.
type CustodyMetrics struct {
	ledgerOps       *prometheus.CounterVec
	ledgerFailures  *prometheus.CounterVec
	swapTransitions *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	registry        *prometheus.Registry
}

var (
	custodyOnce     sync.Once
	custodyRegistry *CustodyMetrics
)

// Custody returns the process-wide custody metrics registry.
func Custody() *CustodyMetrics {
	custodyOnce.Do(func() {
		custodyRegistry = &CustodyMetrics{
			ledgerOps: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "custody_ledger_ops_total",
				Help: "Count of successful ledger operations by kind.",
			}, []string{"op"}),
			ledgerFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "custody_ledger_failures_total",
				Help: "Count of rejected ledger operations by kind.",
			}, []string{"op"}),
			swapTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "custody_swap_transitions_total",
				Help: "Count of swap protocol transitions by phase.",
			}, []string{"phase"}),
			requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Name:    "custody_gateway_request_duration_seconds",
				Help:    "Duration of gateway HTTP requests in seconds.",
				Buckets: prometheus.DefBuckets,
			}, []string{"route", "method"}),
			registry: prometheus.NewRegistry(),
		}
		custodyRegistry.registry.MustRegister(
			custodyRegistry.ledgerOps,
			custodyRegistry.ledgerFailures,
			custodyRegistry.swapTransitions,
			custodyRegistry.requestDuration,
		)
	})
	return custodyRegistry
}

// Registry exposes the prometheus registry for the gateway's metrics handler.
func (m *CustodyMetrics) Registry() *prometheus.Registry { return m.registry }

// ObserveLedgerOp records the outcome of a ledger operation.
func (m *CustodyMetrics) ObserveLedgerOp(op string, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.ledgerFailures.WithLabelValues(op).Inc()
		return
	}
	m.ledgerOps.WithLabelValues(op).Inc()
}

// ObserveSwapTransition records a successful swap protocol transition.
func (m *CustodyMetrics) ObserveSwapTransition(phase string) {
	if m == nil {
		return
	}
	m.swapTransitions.WithLabelValues(phase).Inc()
}

// ObserveRequest records a gateway request duration.
func (m *CustodyMetrics) ObserveRequest(route, method string, seconds float64) {
	if m == nil {
		return
	}
	m.requestDuration.WithLabelValues(route, method).Observe(seconds)
}
