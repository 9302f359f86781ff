package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// OperationsTotal counts marketplace operations by operation name and
// outcome ("ok" or the error code).
var OperationsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "blockmart_operations_total",
		Help: "Total number of marketplace operations processed",
	},
	[]string{"op", "outcome"},
)

// OperationLatency records latency distribution for marketplace operations
var OperationLatency = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "blockmart_operation_latency_seconds",
		Help:    "Latency in seconds to process individual marketplace operations",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"op"},
)

// Auction gauges
var (
	ActiveAuctions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "blockmart_active_auctions",
			Help: "Number of auctions currently active",
		},
	)

	EscrowHeld = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "blockmart_escrow_held_total",
			Help: "Total funds currently held in bid escrow",
		},
	)
)

func init() {
	prometheus.MustRegister(OperationsTotal, OperationLatency)
	prometheus.MustRegister(ActiveAuctions, EscrowHeld)
}
