package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ChecksSubmitted tracks submitted check transactions per metric
	ChecksSubmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "healthseal_checks_submitted_total",
			Help: "Total number of check transactions submitted",
		},
		[]string{"metric"},
	)

	// ChecksConfirmed tracks confirmed check transactions per metric
	ChecksConfirmed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "healthseal_checks_confirmed_total",
			Help: "Total number of check transactions confirmed on-chain",
		},
		[]string{"metric"},
	)

	// RevealsTotal tracks reveal outcomes by classification
	RevealsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "healthseal_reveals_total",
			Help: "Total number of successful reveals by status",
		},
		[]string{"metric", "status"},
	)

	// RPCCallsTotal tracks JSON-RPC calls to the chain node
	RPCCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "healthseal_rpc_calls_total",
			Help: "Total number of JSON-RPC calls",
		},
		[]string{"method"},
	)

	// RPCErrorsTotal tracks JSON-RPC failures
	RPCErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "healthseal_rpc_errors_total",
			Help: "Total number of JSON-RPC errors",
		},
		[]string{"method", "error_type"},
	)

	// RPCLatency tracks JSON-RPC call latency
	RPCLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "healthseal_rpc_latency_seconds",
			Help:    "JSON-RPC call latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	// RelayerCallsTotal tracks calls to the FHE relayer
	RelayerCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "healthseal_relayer_calls_total",
			Help: "Total number of FHE relayer calls",
		},
		[]string{"operation", "outcome"},
	)

	// SignatureCacheHits tracks decryption signature cache lookups
	SignatureCacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "healthseal_signature_cache_lookups_total",
			Help: "Decryption signature cache lookups by result",
		},
		[]string{"result"},
	)
)
