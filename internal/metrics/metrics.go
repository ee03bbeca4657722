package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Engine metrics
	Operations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clmm_operations_total",
			Help: "Total number of engine operations",
		},
		[]string{"op", "status"},
	)

	OperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "clmm_operation_duration_seconds",
			Help:    "Engine operation duration in seconds, commit included",
			Buckets: []float64{0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		},
		[]string{"op"},
	)

	CommitRecords = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "clmm_commit_records",
		Help:    "Number of records written per committed operation",
		Buckets: []float64{1, 2, 4, 8, 16, 32},
	})

	PoolCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "clmm_pool_count",
		Help: "Total number of pools in the store",
	})

	// Swap metrics
	TicksCrossed = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "clmm_swap_ticks_crossed",
		Help:    "Initialized ticks crossed per swap",
		Buckets: []float64{0, 1, 2, 4, 8, 16, 32},
	})

	SwapLimitReached = promauto.NewCounter(prometheus.CounterOpts{
		Name: "clmm_swap_price_limit_reached_total",
		Help: "Swaps stopped by their price limit before the amount was exhausted",
	})

	Quotes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clmm_quotes_total",
			Help: "Total number of dry-run swap quotes",
		},
		[]string{"status"},
	)

	// Transfer dispatch
	TransferFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "clmm_transfer_failures_total",
		Help: "Transfers the custody layer rejected after a committed operation",
	})

	// HTTP metrics
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clmm_http_requests_total",
			Help: "Inspection API requests by resource and outcome",
		},
		[]string{"method", "resource", "outcome"},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "clmm_http_duration_seconds",
			Help:    "Inspection API latency by resource",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"resource"},
	)

	RateLimited = promauto.NewCounter(prometheus.CounterOpts{
		Name: "clmm_http_rate_limited_total",
		Help: "Requests rejected by the rate limiter",
	})
)
