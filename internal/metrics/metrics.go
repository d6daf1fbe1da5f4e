package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	ResultOK       = "ok"
	ResultConflict = "conflict"
	ResultInvalid  = "invalid"
	ResultNotFound = "not_found"
	ResultRejected = "rejected"
	ResultError    = "error"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nimble_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "route", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "nimble_http_request_duration_seconds",
		Help:    "Duration of HTTP requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})

	registrations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nimble_user_registrations_total",
		Help: "User registration attempts by result",
	}, []string{"result"})

	logins = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nimble_user_logins_total",
		Help: "User login attempts by result",
	}, []string{"result"})

	taskOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nimble_task_operations_total",
		Help: "Task mutations by operation and result",
	}, []string{"operation", "result"})

	activityEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nimble_activity_events_total",
		Help: "Activity events by stage and result",
	}, []string{"stage", "result"})
)

func ObserveHTTPRequest(method, route, status string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, route, status).Inc()
	httpRequestDuration.WithLabelValues(method, route, status).Observe(duration.Seconds())
}

func ObserveRegistration(result string) {
	registrations.WithLabelValues(result).Inc()
}

func ObserveLogin(result string) {
	logins.WithLabelValues(result).Inc()
}

func ObserveTaskOperation(operation, result string) {
	taskOperations.WithLabelValues(operation, result).Inc()
}

// ObserveActivity counts activity events; stage is "publish" or "persist".
func ObserveActivity(stage, result string) {
	activityEvents.WithLabelValues(stage, result).Inc()
}
