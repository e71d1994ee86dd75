package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Worker metrics
	WorkerExecutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stockwatch_worker_executions_total",
			Help: "Total number of worker executions",
		},
		[]string{"worker", "status"}, // status: success|error
	)

	WorkerDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "stockwatch_worker_duration_seconds",
			Help:    "Worker execution duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300},
		},
		[]string{"worker"},
	)

	WorkerLastRun = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "stockwatch_worker_last_run_timestamp",
			Help: "Unix timestamp of last worker execution",
		},
		[]string{"worker"},
	)

	// Price fetch metrics
	PriceFetches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stockwatch_price_fetch_total",
			Help: "Total number of price page fetches",
		},
		[]string{"status"}, // status: success|http_error|missing|malformed
	)

	PriceFetchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "stockwatch_price_fetch_duration_seconds",
			Help:    "Price page fetch duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
	)

	// Notification metrics
	Notifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stockwatch_notifications_total",
			Help: "Total number of push notifications attempted",
		},
		[]string{"provider", "status"}, // status: success|error
	)

	// Watch metrics
	WatchesRegistered = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "stockwatch_watches_registered_total",
			Help: "Total number of watches registered through the API",
		},
	)

	WatchesTriggered = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "stockwatch_watches_triggered_total",
			Help: "Total number of watches whose target price was reached and notified",
		},
	)

	// HTTP metrics
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stockwatch_http_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"route", "code"},
	)
)

// Init registers all metrics with Prometheus
func Init() {
	prometheus.MustRegister(WorkerExecutions)
	prometheus.MustRegister(WorkerDuration)
	prometheus.MustRegister(WorkerLastRun)

	prometheus.MustRegister(PriceFetches)
	prometheus.MustRegister(PriceFetchDuration)

	prometheus.MustRegister(Notifications)

	prometheus.MustRegister(WatchesRegistered)
	prometheus.MustRegister(WatchesTriggered)

	prometheus.MustRegister(HTTPRequests)
}

// Handler returns Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordWorkerExecution records a worker execution
func RecordWorkerExecution(worker string, duration time.Duration, err error) {
	WorkerExecutions.WithLabelValues(worker, statusOf(err)).Inc()
	WorkerDuration.WithLabelValues(worker).Observe(duration.Seconds())
	WorkerLastRun.WithLabelValues(worker).SetToCurrentTime()
}

// RecordPriceFetch records one price page fetch outcome
func RecordPriceFetch(status string, duration time.Duration) {
	PriceFetches.WithLabelValues(status).Inc()
	PriceFetchDuration.Observe(duration.Seconds())
}

// RecordNotification records a notification attempt
func RecordNotification(provider string, err error) {
	Notifications.WithLabelValues(provider, statusOf(err)).Inc()
}

func statusOf(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
