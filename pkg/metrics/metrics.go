package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	MovementsRecordedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inventory_movements_recorded_total",
		Help: "Total number of ledger movements recorded",
	}, []string{"type", "reason"})

	MovementsRejectedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inventory_movements_rejected_total",
		Help: "Total number of ledger movements rejected",
	}, []string{"reason"})

	ProductionBatchesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "production_batches_recorded_total",
		Help: "Total number of production batches committed",
	})

	ProductionFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "production_batches_failed_total",
		Help: "Total number of production batches rolled back",
	}, []string{"reason"})

	LowStockAlertsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "inventory_low_stock_alerts_total",
		Help: "Total number of low stock alerts emitted",
	})

	ProductionLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "production_batch_latency_seconds",
		Help:    "Latency of production batch transactions",
		Buckets: prometheus.DefBuckets,
	})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)
