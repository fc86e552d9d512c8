package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eco_alarm_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "eco_alarm_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint", "status"},
	)

	// Evaluation metrics
	EvaluationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eco_alarm_evaluations_total",
			Help: "Total number of reading evaluations",
		},
		[]string{"result"}, // result: alert, normal
	)

	BreachesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eco_alarm_breaches_total",
			Help: "Total number of threshold breaches detected",
		},
		[]string{"metric", "level"},
	)

	CooldownSuppressedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eco_alarm_cooldown_suppressed_total",
			Help: "Breaches suppressed by the notification cool-down",
		},
		[]string{"metric"},
	)

	// Notification metrics
	NotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eco_alarm_notifications_total",
			Help: "Total number of notification dispatches",
		},
		[]string{"method", "status"}, // status: success, failed
	)

	DeliveryAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eco_alarm_delivery_attempts_total",
			Help: "Total number of per-contact delivery attempts",
		},
		[]string{"channel", "tier", "status"},
	)

	NotificationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "eco_alarm_notification_duration_seconds",
			Help:    "Time taken to dispatch one notification across all channels",
			Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
	)

	// Side-channel failures (outcome stream, history)
	SideEffectErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eco_alarm_side_effect_errors_total",
			Help: "Failures writing notification outcomes or history",
		},
		[]string{"sink"},
	)

	// Ingest metrics
	TelemetryMessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eco_alarm_telemetry_messages_total",
			Help: "Total number of telemetry messages received over MQTT",
		},
		[]string{"status"}, // status: accepted, rejected
	)
)

// StatusLabel 成功/失败标签
func StatusLabel(ok bool) string {
	if ok {
		return "success"
	}
	return "failed"
}
