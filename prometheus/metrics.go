package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"pettag-service/pkg/config"
)

var (
	// HTTP request metrics
	HttpRequestsTotal   prometheus.CounterVec
	HttpRequestDuration prometheus.HistogramVec

	// Authentication metrics
	AuthErrorsCounter prometheus.Counter

	// Database operation metrics
	DbOperationDuration prometheus.HistogramVec

	// Tag lifecycle metrics
	TagOperationsCounter prometheus.CounterVec

	// QR inventory metrics
	QRPoolAvailableGauge prometheus.Gauge
	QRClaimConflicts     prometheus.Counter
	QRPoolExhausted      prometheus.Counter

	// Notification metrics
	NotificationsCounter prometheus.CounterVec

	// Finder scan metrics
	ScanCounter prometheus.Counter
)

// InitMetrics initializes Prometheus metrics with configuration
func InitMetrics(config *config.Config) {
	// Use metric prefix from configuration
	prefix := config.Metrics.Prefix

	// HTTP request metrics
	HttpRequestsTotal = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// HTTP request duration
	HttpRequestDuration = *promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    prefix + "_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// Authentication metrics
	AuthErrorsCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_auth_errors_total",
			Help: "Total number of authentication errors",
		},
	)

	// Database operation metrics
	DbOperationDuration = *promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    prefix + "_db_operation_duration_seconds",
			Help:    "Duration of database operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation_type"},
	)

	// Tag lifecycle metrics
	TagOperationsCounter = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_tag_operations_total",
			Help: "Total number of tag lifecycle operations",
		},
		[]string{"operation", "outcome"},
	)

	// QR inventory metrics
	QRPoolAvailableGauge = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: prefix + "_qr_pool_available",
			Help: "Number of QR inventory records currently available",
		},
	)

	QRClaimConflicts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_qr_claim_conflicts_total",
			Help: "Total number of QR claims lost to a concurrent activation",
		},
	)

	QRPoolExhausted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_qr_pool_exhausted_total",
			Help: "Total number of activations rejected for an empty QR pool",
		},
	)

	// Notification metrics
	NotificationsCounter = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_notifications_total",
			Help: "Total number of dispatched notifications",
		},
		[]string{"kind", "channel", "status"},
	)

	// Finder scan metrics
	ScanCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_tag_scans_total",
			Help: "Total number of finder scans on the public endpoint",
		},
	)
}

// TrackDBOperation returns a function that records the duration of a database operation
func TrackDBOperation(operationType string) func(startTime time.Time) {
	return func(startTime time.Time) {
		duration := time.Since(startTime).Seconds()
		DbOperationDuration.WithLabelValues(operationType).Observe(duration)
	}
}

// RecordTagOperation increments the counter for tag lifecycle operations
func RecordTagOperation(operation, outcome string) {
	TagOperationsCounter.WithLabelValues(operation, outcome).Inc()
}

// RecordNotification increments the counter for dispatched notifications
func RecordNotification(kind, channel, status string) {
	NotificationsCounter.WithLabelValues(kind, channel, status).Inc()
}

// RecordQRClaimConflict counts a QR claim lost to a concurrent activation.
// Nil-guarded: the storage layer may run before InitMetrics in tests.
func RecordQRClaimConflict() {
	if QRClaimConflicts != nil {
		QRClaimConflicts.Inc()
	}
}

// RecordQRPoolExhausted counts an activation rejected for an empty QR pool.
func RecordQRPoolExhausted() {
	if QRPoolExhausted != nil {
		QRPoolExhausted.Inc()
	}
}
