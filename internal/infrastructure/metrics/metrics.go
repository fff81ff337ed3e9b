package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	StorageOperationGet    = "get"
	StorageOperationSet    = "set"
	StorageOperationRemove = "remove"
	StorageOperationClear  = "clear"
)

var (
	StorageOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "user_service_storage_operations_total",
			Help: "Total number of storage operations",
		},
		[]string{"backend", "operation", "status"},
	)

	LoginAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "user_service_login_attempts_total",
			Help: "Total number of login attempts",
		},
		[]string{"status"},
	)

	LoginDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "user_service_login_duration_seconds",
			Help:    "Duration of login requests in seconds",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 10),
		},
	)

	AddressReads = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "user_service_address_reads_total",
			Help: "Total number of address reads by lease result",
		},
		[]string{"address", "result"},
	)

	CacheOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "user_service_cache_operations_total",
			Help: "Total number of cache operations",
		},
		[]string{"operation", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "user_service_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"handler", "method", "code"},
	)
)

func init() {
	prometheus.MustRegister(StorageOperations)
	prometheus.MustRegister(LoginAttempts)
	prometheus.MustRegister(LoginDuration)
	prometheus.MustRegister(AddressReads)
	prometheus.MustRegister(CacheOperations)
	prometheus.MustRegister(HTTPRequestDuration)
}
