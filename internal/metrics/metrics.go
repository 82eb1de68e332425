package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Counters and histograms partitioned by the boundary they observe.

var (
	// Ledger RPC
	RPCCallsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "smartvow",
		Subsystem: "rpc",
		Name:      "calls_total",
		Help:      "Total JSON-RPC calls by endpoint, method and status",
	}, []string{"endpoint", "method", "status"})

	RPCCallLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "smartvow",
		Subsystem: "rpc",
		Name:      "call_duration_seconds",
		Help:      "JSON-RPC call duration",
		Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	}, []string{"endpoint", "method"})

	RPCRateLimitWaits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "smartvow",
		Subsystem: "rpc",
		Name:      "rate_limit_waits_total",
		Help:      "Total RPC calls delayed by the client-side rate limiter",
	}, []string{"endpoint"})

	// Ledger writes
	WritesSubmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "smartvow",
		Subsystem: "ledger",
		Name:      "writes_submitted_total",
		Help:      "Total state-changing transactions submitted",
	}, []string{"operation"})

	WritesConfirmed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "smartvow",
		Subsystem: "ledger",
		Name:      "writes_confirmed_total",
		Help:      "Total transactions confirmed, by outcome",
	}, []string{"operation", "outcome"})

	ReceiptWaitSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "smartvow",
		Subsystem: "ledger",
		Name:      "receipt_wait_seconds",
		Help:      "Time between submission and confirmed receipt",
		Buckets:   []float64{1, 2.5, 5, 10, 30, 60, 120, 180},
	}, []string{"operation"})

	// Local store
	StoreSavesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "smartvow",
		Subsystem: "store",
		Name:      "saves_total",
		Help:      "Total state file saves",
	})

	StoreExternalWrites = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "smartvow",
		Subsystem: "store",
		Name:      "external_writes_total",
		Help:      "Total state file writes detected from outside this process",
	})

	// View-model
	PendingWrites = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "smartvow",
		Subsystem: "viewmodel",
		Name:      "pending_writes",
		Help:      "Submitted transactions awaiting confirmed re-read",
	})

	// Off-chain boundaries
	MetadataFetchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "smartvow",
		Subsystem: "metadata",
		Name:      "fetches_total",
		Help:      "Total asset metadata fetches by outcome",
	}, []string{"outcome"})

	AIFallbacksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "smartvow",
		Subsystem: "ai",
		Name:      "fallbacks_total",
		Help:      "Total generative calls served by the deterministic fallback",
	}, []string{"kind"})

	// HTTP API
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "smartvow",
		Subsystem: "api",
		Name:      "requests_total",
		Help:      "Total API requests by route and status code",
	}, []string{"route", "code"})
)
